package handler

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"album/internal/blob"
	"album/internal/httputil"
)

// BlobHandler serves stored photo content
type BlobHandler struct {
	blobs  blob.Store
	logger *slog.Logger
}

// NewBlobHandler creates a new blob handler
func NewBlobHandler(blobs blob.Store, logger *slog.Logger) *BlobHandler {
	return &BlobHandler{
		blobs:  blobs,
		logger: logger,
	}
}

// Serve writes the content behind a key. Keys are content hashes, so the
// response never changes and can be cached indefinitely.
// GET /static/{key}
func (h *BlobHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	rc, err := h.blobs.Open(r.Context(), key)
	if blob.IsNotFound(err) {
		httputil.RespondError(w, http.StatusNotFound, "photo not found")
		return
	}
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("blob write interrupted", "key", key, "error", err)
	}
}
