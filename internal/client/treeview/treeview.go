// Package treeview holds the client's folder tree. It turns user actions on
// the tree into selection and drop events for the rest of the session.
package treeview

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"album/internal/client/droptarget"
	"album/internal/domain"
	models "album/internal/domain/models/album"
	"album/internal/tree"
)

// FolderAPI is the part of the transport the tree needs
type FolderAPI interface {
	ListFolders(ctx context.Context) ([]*models.FolderTreeNode, error)
	CreateFolder(ctx context.Context, name, parentID string) (*models.Folder, error)
	RenameFolder(ctx context.Context, folderID, name string) (*models.Folder, error)
	DeleteFolder(ctx context.Context, folderID string) (*models.DeleteResult, error)
}

// SelectionEvent is emitted when the user selects a folder; nil FolderID
// means all items
type SelectionEvent struct {
	FolderID *string
}

// DropEvent is emitted when an item is dropped on a folder's target
type DropEvent struct {
	ItemID string
	Token  string
}

// Listeners receive the tree's events. Either may be nil.
type Listeners struct {
	OnSelect func(ctx context.Context, ev SelectionEvent) error
	OnDrop   func(ctx context.Context, ev DropEvent) error
}

// TreeView is one session's folder tree
type TreeView struct {
	api       FolderAPI
	registry  *droptarget.Registry
	sessionID string
	listeners Listeners
	logger    *slog.Logger

	mu       sync.Mutex
	forest   []*models.FolderTreeNode
	selected *string
}

// New creates an empty tree view for a session
func New(api FolderAPI, registry *droptarget.Registry, sessionID string, listeners Listeners, logger *slog.Logger) *TreeView {
	if logger == nil {
		logger = slog.Default()
	}
	return &TreeView{
		api:       api,
		registry:  registry,
		sessionID: sessionID,
		listeners: listeners,
		logger:    logger,
	}
}

// Load fetches the folders and rebuilds the tree and its drop targets in
// full. On failure the previous tree stays in place.
func (v *TreeView) Load(ctx context.Context) error {
	fetched, err := v.api.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("load folders: %w", err)
	}

	// Rebuild from the flat form so a malformed response cannot smuggle in
	// unreachable nodes
	forest := tree.Build(tree.Flatten(fetched), v.logger)

	v.mu.Lock()
	v.forest = forest
	v.mu.Unlock()

	v.registry.Rebuild(v.sessionID, forest)
	return nil
}

// Forest returns the current tree
func (v *TreeView) Forest() []*models.FolderTreeNode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.forest
}

// Root returns the owner's root folder, nil before the first load
func (v *TreeView) Root() *models.FolderTreeNode {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, n := range v.forest {
		if n.IsRoot() {
			return n
		}
	}
	return nil
}

// Selected returns the selected folder, nil for all items
func (v *TreeView) Selected() *string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected == nil {
		return nil
	}
	id := *v.selected
	return &id
}

// Select selects a folder of the tree, or all items when folderID is nil
func (v *TreeView) Select(ctx context.Context, folderID *string) error {
	v.mu.Lock()
	if folderID != nil && tree.Find(v.forest, *folderID) == nil {
		v.mu.Unlock()
		return domain.NewNotFound("folder", *folderID)
	}
	var sel *string
	if folderID != nil {
		id := *folderID
		sel = &id
	}
	v.selected = sel
	v.mu.Unlock()

	if v.listeners.OnSelect == nil {
		return nil
	}
	return v.listeners.OnSelect(ctx, SelectionEvent{FolderID: sel})
}

// DropOn forwards an item dropped on a target token
func (v *TreeView) DropOn(ctx context.Context, itemID, token string) error {
	if v.listeners.OnDrop == nil {
		return nil
	}
	return v.listeners.OnDrop(ctx, DropEvent{ItemID: itemID, Token: token})
}

// CreateFolder creates a folder and reloads the tree
func (v *TreeView) CreateFolder(ctx context.Context, name, parentID string) (*models.Folder, error) {
	folder, err := v.api.CreateFolder(ctx, name, parentID)
	if err != nil {
		return nil, err
	}
	return folder, v.Load(ctx)
}

// RenameFolder renames a folder and reloads the tree
func (v *TreeView) RenameFolder(ctx context.Context, folderID, name string) (*models.Folder, error) {
	folder, err := v.api.RenameFolder(ctx, folderID, name)
	if err != nil {
		return nil, err
	}
	return folder, v.Load(ctx)
}

// DeleteFolder deletes a subtree and reloads the tree. When the selection
// was inside the subtree it falls back to all items.
func (v *TreeView) DeleteFolder(ctx context.Context, folderID string) (*models.DeleteResult, error) {
	result, err := v.api.DeleteFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := v.Load(ctx); err != nil {
		return result, err
	}

	v.mu.Lock()
	lost := v.selected != nil && slices.Contains(result.FolderIDs, *v.selected)
	v.mu.Unlock()

	if lost {
		v.logger.Debug("selected folder deleted", "folder_id", folderID)
		return result, v.Select(ctx, nil)
	}
	return result, nil
}
