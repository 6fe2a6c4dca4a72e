package album

import (
	"context"

	models "album/internal/domain/models/album"
)

// FolderRepository defines data access operations for folders.
// Every method is owner-scoped: a folder of another owner behaves as missing.
type FolderRepository interface {
	// Create inserts a folder and fills in ID and timestamps
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder owned by ownerID
	GetByID(ctx context.Context, id, ownerID string) (*models.Folder, error)

	// GetRoot retrieves the owner's root folder (parent_id IS NULL)
	GetRoot(ctx context.Context, ownerID string) (*models.Folder, error)

	// Update persists name and parent changes
	Update(ctx context.Context, folder *models.Folder) error

	// ListByOwner returns every folder of the owner as a flat list in one query
	ListByOwner(ctx context.Context, ownerID string) ([]models.Folder, error)

	// ListChildren lists the immediate children of a folder
	ListChildren(ctx context.Context, parentID, ownerID string) ([]models.Folder, error)

	// DescendantIDs returns the transitive closure below id, id included,
	// as a single consistent read
	DescendantIDs(ctx context.Context, id, ownerID string) ([]string, error)

	// DeleteByIDs removes folders in one statement; dependent items go with them.
	// Returns the number of folder rows removed.
	DeleteByIDs(ctx context.Context, ids []string, ownerID string) (int, error)
}
