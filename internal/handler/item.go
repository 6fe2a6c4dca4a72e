package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	albumSvc "album/internal/domain/services/album"
	"album/internal/httputil"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temp files
const multipartMemory = 8 << 20

// ItemHandler handles photo item HTTP requests
type ItemHandler struct {
	itemService    albumSvc.ItemService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(itemService albumSvc.ItemService, maxUploadBytes int64, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		itemService:    itemService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// ListItems returns one page of items
// GET /api/items?folder_id=&filter=&page=&page_size=
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	page, err := httputil.QueryInt(r, "page", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	pageSize, err := httputil.QueryInt(r, "page_size", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.itemService.ListItems(r.Context(), &albumSvc.ListItemsRequest{
		OwnerID:   owner,
		FolderID:  httputil.QueryOptional(r, "folder_id"),
		Filter:    strings.TrimSpace(r.URL.Query().Get("filter")),
		PageIndex: page,
		PageSize:  pageSize,
	})
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// ListAllItems returns every matching item without paging
// GET /api/items/all?folder_id=&filter=
func (h *ItemHandler) ListAllItems(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	items, err := h.itemService.ListAllItems(r.Context(), owner,
		httputil.QueryOptional(r, "folder_id"),
		strings.TrimSpace(r.URL.Query().Get("filter")),
	)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, items)
}

// GetItem retrieves a single item
// GET /api/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	item, err := h.itemService.GetItem(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}

// UploadItem stores a photo from a multipart form with fields photo, title
// and folder_id
// POST /api/items
func (h *ItemHandler) UploadItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			handleError(w, err, h.logger)
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := &albumSvc.UploadItemRequest{
		OwnerID:  owner,
		FolderID: r.FormValue("folder_id"),
		Title:    r.FormValue("title"),
	}

	file, header, err := r.FormFile("photo")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		httputil.RespondError(w, http.StatusBadRequest, "invalid photo field")
		return
	default:
		defer file.Close()
		req.FileName = header.Filename
		req.Content = file
	}

	item, err := h.itemService.UploadItem(r.Context(), req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, item)
}

// RenameItem changes an item's title
// PATCH /api/items/{id}
func (h *ItemHandler) RenameItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req albumSvc.RenameItemRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.itemService.RenameItem(r.Context(), owner, r.PathValue("id"), req.Title)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}

// MoveItem reassigns an item to another folder
// PATCH /api/items/{id}/move
func (h *ItemHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req albumSvc.MoveItemRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.itemService.MoveItem(r.Context(), owner, r.PathValue("id"), req.FolderID)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}

// DeleteItem deletes an item and releases its photo
// DELETE /api/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	if err := h.itemService.DeleteItem(r.Context(), owner, r.PathValue("id")); err != nil {
		handleError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
