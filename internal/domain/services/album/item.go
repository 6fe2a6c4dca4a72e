package album

import (
	"context"
	"io"

	models "album/internal/domain/models/album"
)

// ItemService handles item business logic
type ItemService interface {
	// UploadItem stores the content in the blob store and records the item
	UploadItem(ctx context.Context, req *UploadItemRequest) (*models.Item, error)

	// GetItem retrieves a single item
	GetItem(ctx context.Context, ownerID, itemID string) (*models.Item, error)

	// ListItems returns one page of the owner's items
	ListItems(ctx context.Context, req *ListItemsRequest) (*models.ItemPage, error)

	// ListAllItems returns every matching item, unpaged
	ListAllItems(ctx context.Context, ownerID string, folderID *string, filter string) ([]models.Item, error)

	// RenameItem changes an item's title
	RenameItem(ctx context.Context, ownerID, itemID, title string) (*models.Item, error)

	// DeleteItem removes the record and releases its blob
	DeleteItem(ctx context.Context, ownerID, itemID string) error

	// MoveItem reassigns an item to another of the owner's folders
	MoveItem(ctx context.Context, ownerID, itemID, targetFolderID string) (*models.Item, error)
}

// UploadItemRequest carries a new item and its content
type UploadItemRequest struct {
	OwnerID  string
	FolderID string
	Title    string
	FileName string
	Content  io.Reader
}

// ListItemsRequest selects one page of items
type ListItemsRequest struct {
	OwnerID   string
	FolderID  *string
	Filter    string
	PageIndex int
	PageSize  int // 0 = default page size
}

// RenameItemRequest is the PATCH body for an item rename
type RenameItemRequest struct {
	Title string `json:"title"`
}

// MoveItemRequest is the PATCH body for an item move
type MoveItemRequest struct {
	FolderID string `json:"folder_id"`
}
