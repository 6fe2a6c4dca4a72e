package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"album/internal/domain"
)

func testVerifier(t *testing.T) (JWTVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := NewStaticVerifier(func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, logger)
	return verifier, key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestVerifyToken(t *testing.T) {
	verifier, key := testVerifier(t)
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	hsToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: future},
	}).SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		owner   string
		wantErr bool
	}{
		{
			name:  "valid",
			token: sign(t, key, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: future}}),
			owner: "alice",
		},
		{
			name:    "expired",
			token:   sign(t, key, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: past}}),
			wantErr: true,
		},
		{
			name:    "no expiry",
			token:   sign(t, key, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}),
			wantErr: true,
		},
		{
			name:    "missing subject",
			token:   sign(t, key, Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}),
			wantErr: true,
		},
		{
			name:    "anonymous",
			token:   sign(t, key, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "anon-1", ExpiresAt: future}, Role: "anon"}),
			wantErr: true,
		},
		{
			name:    "symmetric algorithm",
			token:   hsToken,
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   "not.a.token",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := verifier.VerifyToken(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, claims.OwnerID())
		})
	}
}

func TestNewJWTVerifier_RequiresURL(t *testing.T) {
	_, err := NewJWTVerifier("", slog.Default())
	assert.Error(t, err)
}
