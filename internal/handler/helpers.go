package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"album/internal/domain"
	"album/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var conflictErr *domain.ConflictError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytesErr):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &conflictErr):
		extras := map[string]any{}
		if conflictErr.ResourceType != "" {
			extras["resource_type"] = conflictErr.ResourceType
		}
		if conflictErr.ResourceID != "" {
			extras["resource_id"] = conflictErr.ResourceID
		}
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), extras)
	case errors.Is(err, domain.ErrDependency):
		logger.Error("dependency failure", "error", err)
		httputil.RespondError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ownerID returns the authenticated owner, writing a 401 when there is none
func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := httputil.OwnerID(r)
	if id == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "missing identity")
		return "", false
	}
	return id, true
}
