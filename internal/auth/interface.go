package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the subset of the identity provider's JWT the album server reads.
// The subject is the owner id that scopes every folder and item.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// OwnerID returns the owner id carried by the token
func (c *Claims) OwnerID() string {
	return c.Subject
}

// JWTVerifier validates bearer tokens.
// Kept as an interface so the middleware can be tested without a JWKS endpoint.
type JWTVerifier interface {
	// VerifyToken validates a token string and returns its claims.
	// Returns domain.ErrUnauthorized for any invalid, expired or unsigned token.
	VerifyToken(tokenString string) (*Claims, error)

	// Close releases resources held by the verifier
	Close() error
}
