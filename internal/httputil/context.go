package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const ownerIDKey contextKey = "ownerID"

// WithOwnerID adds the authenticated owner id to the request context
func WithOwnerID(r *http.Request, ownerID string) *http.Request {
	return r.WithContext(ContextWithOwnerID(r.Context(), ownerID))
}

// ContextWithOwnerID returns ctx carrying ownerID
func ContextWithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// OwnerID retrieves the owner id from the request context, empty if unauthenticated
func OwnerID(r *http.Request) string {
	ownerID, _ := r.Context().Value(ownerIDKey).(string)
	return ownerID
}
