package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"album/internal/domain"
	models "album/internal/domain/models/album"
)

// ItemRepository implements albumRepo.ItemRepository on a Store
type ItemRepository struct {
	store *Store
}

// Create creates a new item in one of the owner's folders
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	s := r.store
	defer s.lock(ctx)()

	if _, ok := s.ownedFolder(item.FolderID, item.OwnerID); !ok {
		return domain.NewNotFound("folder", item.FolderID)
	}

	now := time.Now()
	item.ID = uuid.NewString()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now
	}

	s.items[item.ID] = itemRecord{item: *item, seq: s.nextSeq()}
	return nil
}

// GetByID retrieves an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Item, error) {
	s := r.store
	defer s.lock(ctx)()

	rec, ok := s.items[id]
	if !ok || rec.item.OwnerID != ownerID {
		return nil, domain.NewNotFound("item", id)
	}
	item := rec.item
	return &item, nil
}

// Update updates an item's title and folder
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	s := r.store
	defer s.lock(ctx)()

	rec, ok := s.items[item.ID]
	if !ok || rec.item.OwnerID != item.OwnerID {
		return domain.NewNotFound("item", item.ID)
	}
	if _, ok := s.ownedFolder(item.FolderID, item.OwnerID); !ok {
		return domain.NewNotFound("item", item.ID)
	}

	rec.item.Title = item.Title
	rec.item.FolderID = item.FolderID
	rec.item.UpdatedAt = item.UpdatedAt
	s.items[item.ID] = rec
	return nil
}

// Delete deletes an item record
func (r *ItemRepository) Delete(ctx context.Context, id, ownerID string) error {
	s := r.store
	defer s.lock(ctx)()

	rec, ok := s.items[id]
	if !ok || rec.item.OwnerID != ownerID {
		return domain.NewNotFound("item", id)
	}
	delete(s.items, id)
	return nil
}

// List returns items matching the filter in creation order
func (r *ItemRepository) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	s := r.store
	defer s.lock(ctx)()

	matched := s.matchItems(filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []models.Item{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Count counts items matching the filter
func (r *ItemRepository) Count(ctx context.Context, filter models.ItemFilter) (int, error) {
	s := r.store
	defer s.lock(ctx)()

	return len(s.matchItems(filter)), nil
}

// ListByFolderIDs returns every item in any of the folders
func (r *ItemRepository) ListByFolderIDs(ctx context.Context, folderIDs []string, ownerID string) ([]models.Item, error) {
	s := r.store
	defer s.lock(ctx)()

	wanted := make(map[string]bool, len(folderIDs))
	for _, id := range folderIDs {
		wanted[id] = true
	}

	records := make([]itemRecord, 0)
	for _, rec := range s.items {
		if rec.item.OwnerID == ownerID && wanted[rec.item.FolderID] {
			records = append(records, rec)
		}
	}
	return itemsInOrder(records), nil
}

// matchItems applies the owner, folder and title parts of filter; caller holds the lock
func (s *Store) matchItems(filter models.ItemFilter) []models.Item {
	title := strings.ToLower(strings.TrimSpace(filter.Title))

	records := make([]itemRecord, 0)
	for _, rec := range s.items {
		if rec.item.OwnerID != filter.OwnerID {
			continue
		}
		if filter.FolderID != nil && rec.item.FolderID != *filter.FolderID {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(rec.item.Title), title) {
			continue
		}
		records = append(records, rec)
	}
	return itemsInOrder(records)
}

func itemsInOrder(records []itemRecord) []models.Item {
	sortBySeq(records, func(r itemRecord) uint64 { return r.seq })
	out := make([]models.Item, len(records))
	for i, rec := range records {
		out[i] = rec.item
	}
	return out
}
