package handler

import (
	"log/slog"
	"net/http"

	albumSvc "album/internal/domain/services/album"
	"album/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	folderService albumSvc.FolderService
	logger        *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folderService albumSvc.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		folderService: folderService,
		logger:        logger,
	}
}

// ListFolders returns the caller's folder forest. The root folder is
// created on first access.
// GET /api/folders
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	if _, err := h.folderService.EnsureRootFolder(r.Context(), owner); err != nil {
		handleError(w, err, h.logger)
		return
	}

	forest, err := h.folderService.ListFoldersForOwner(r.Context(), owner)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, forest)
}

// CreateFolder creates a new folder
// POST /api/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req albumSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.OwnerID = owner

	folder, err := h.folderService.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// GetFolder retrieves a folder by ID
// GET /api/folders/{id}
func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	folder, err := h.folderService.GetFolder(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// RenameFolder changes a folder's name
// PATCH /api/folders/{id}
func (h *FolderHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req albumSvc.RenameFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	folder, err := h.folderService.RenameFolder(r.Context(), owner, r.PathValue("id"), req.Name)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// MoveFolder reparents a folder
// PATCH /api/folders/{id}/move
func (h *FolderHandler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req albumSvc.MoveFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	folder, err := h.folderService.MoveFolder(r.Context(), owner, r.PathValue("id"), req.ParentID)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// DeleteFolder deletes a folder with everything below it
// DELETE /api/folders/{id}
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	result, err := h.folderService.DeleteFolderSubtree(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
