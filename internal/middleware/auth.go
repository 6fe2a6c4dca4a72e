package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"album/internal/auth"
	"album/internal/httputil"
)

// publicPrefixes are served without an identity
var publicPrefixes = []string{"/health", "/metrics", "/static/"}

// Auth verifies the bearer token and puts the owner id on the request
// context. Requests without a valid token are rejected with 401.
func Auth(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("authentication failed", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, err.Error())
				return
			}

			next.ServeHTTP(w, httputil.WithOwnerID(r, claims.OwnerID()))
		})
	}
}

// DevAuth acts as ownerID for every request. Only for local development
// without an identity provider.
func DevAuth(ownerID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, httputil.WithOwnerID(r, ownerID))
		})
	}
}

func isPublic(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
