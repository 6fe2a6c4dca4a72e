package handler

import (
	"net/http"

	"album/internal/metrics"
	"album/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Folders *FolderHandler
	Items   *ItemHandler
	Blobs   *BlobHandler
}

// RegisterRoutes mounts the album API on mux. Every route is instrumented
// under its pattern; m may be nil.
func RegisterRoutes(mux *http.ServeMux, h Handlers, m *metrics.Metrics) {
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, middleware.Instrument(m, pattern, fn))
	}

	// Health check (public)
	handle("GET /health", HealthCheck)

	// Folder routes
	handle("GET /api/folders", h.Folders.ListFolders)
	handle("POST /api/folders", h.Folders.CreateFolder)
	handle("GET /api/folders/{id}", h.Folders.GetFolder)
	handle("PATCH /api/folders/{id}", h.Folders.RenameFolder)
	handle("PATCH /api/folders/{id}/move", h.Folders.MoveFolder)
	handle("DELETE /api/folders/{id}", h.Folders.DeleteFolder)

	// Item routes
	handle("GET /api/items", h.Items.ListItems)
	handle("GET /api/items/all", h.Items.ListAllItems) // Must come before {id} route
	handle("POST /api/items", h.Items.UploadItem)
	handle("GET /api/items/{id}", h.Items.GetItem)
	handle("PATCH /api/items/{id}", h.Items.RenameItem)
	handle("PATCH /api/items/{id}/move", h.Items.MoveItem)
	handle("DELETE /api/items/{id}", h.Items.DeleteItem)

	// Photo content (public)
	handle("GET /static/{key}", h.Blobs.Serve)

	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
}
