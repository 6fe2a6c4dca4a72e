package album

import (
	"context"

	models "album/internal/domain/models/album"
)

// ItemRepository defines data access operations for items
type ItemRepository interface {
	// Create inserts an item and fills in ID and timestamps
	Create(ctx context.Context, item *models.Item) error

	// GetByID retrieves an item owned by ownerID
	GetByID(ctx context.Context, id, ownerID string) (*models.Item, error)

	// Update persists title and folder changes
	Update(ctx context.Context, item *models.Item) error

	// Delete removes a single item record
	Delete(ctx context.Context, id, ownerID string) error

	// List returns the items matching filter ordered by creation time
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)

	// Count returns the number of items matching filter, ignoring Limit/Offset
	Count(ctx context.Context, filter models.ItemFilter) (int, error)

	// ListByFolderIDs returns every item whose folder is in folderIDs
	ListByFolderIDs(ctx context.Context, folderIDs []string, ownerID string) ([]models.Item, error)
}
