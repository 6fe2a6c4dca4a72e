package album

import (
	"context"

	models "album/internal/domain/models/album"
)

// FolderService handles folder hierarchy business logic
type FolderService interface {
	// EnsureRootFolder returns the owner's root folder, creating it if missing
	EnsureRootFolder(ctx context.Context, ownerID string) (*models.Folder, error)

	// CreateFolder creates a folder below ParentID
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.Folder, error)

	// GetFolder retrieves a single folder
	GetFolder(ctx context.Context, ownerID, folderID string) (*models.Folder, error)

	// RenameFolder changes a folder's display name
	RenameFolder(ctx context.Context, ownerID, folderID, name string) (*models.Folder, error)

	// MoveFolder reparents a folder; never below itself or its descendants
	MoveFolder(ctx context.Context, ownerID, folderID, newParentID string) (*models.Folder, error)

	// ListFoldersForOwner returns the owner's forest built from one flat query
	ListFoldersForOwner(ctx context.Context, ownerID string) ([]*models.FolderTreeNode, error)

	// DeleteFolderSubtree deletes a folder, its descendants, their items and blobs
	DeleteFolderSubtree(ctx context.Context, ownerID, folderID string) (*models.DeleteResult, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	OwnerID  string  `json:"-"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"` // nil creates the owner's root
}

// RenameFolderRequest is the PATCH body for a folder rename
type RenameFolderRequest struct {
	Name string `json:"name"`
}

// MoveFolderRequest is the PATCH body for a reparent
type MoveFolderRequest struct {
	ParentID string `json:"parent_id"`
}
