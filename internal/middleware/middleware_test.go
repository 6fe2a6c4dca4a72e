package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"album/internal/auth"
	"album/internal/domain"
	"album/internal/httputil"
	"album/internal/metrics"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// stubVerifier accepts exactly one token
type stubVerifier struct{ token, owner string }

func (s stubVerifier) VerifyToken(token string) (*auth.Claims, error) {
	if token != s.token {
		return nil, &domain.UnauthorizedError{Message: "invalid token"}
	}
	c := &auth.Claims{}
	c.Subject = s.owner
	return c, nil
}

func (s stubVerifier) Close() error { return nil }

func echoOwner() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, httputil.OwnerID(r))
	})
}

func TestAuth(t *testing.T) {
	h := Auth(stubVerifier{token: "good", owner: "alice"}, discard)(echoOwner())

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"valid token", "/api/folders", "Bearer good", http.StatusOK, "alice"},
		{"lower-case scheme", "/api/folders", "bearer good", http.StatusOK, "alice"},
		{"missing header", "/api/folders", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/api/folders", "Basic good", http.StatusUnauthorized, ""},
		{"bad token", "/api/folders", "Bearer bad", http.StatusUnauthorized, ""},
		{"public health", "/health", "", http.StatusOK, ""},
		{"public static", "/static/abc.png", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.Equal(t, httputil.ProblemContentType, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestDevAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	DevAuth("dev-owner")(echoOwner()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items", nil))
	assert.Equal(t, "dev-owner", rec.Body.String())
}

func TestRecovery(t *testing.T) {
	h := Recovery(discard)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "internal server error"))
}

func TestInstrument(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := Instrument(m, "DELETE /api/items/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/items/1", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("DELETE /api/items/{id}", "404")))
}
