package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"album/internal/domain"
	models "album/internal/domain/models/album"
	"album/internal/tree"
)

// FolderRepository implements albumRepo.FolderRepository on a Store
type FolderRepository struct {
	store *Store
}

// Create creates a new folder
func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	s := r.store
	defer s.lock(ctx)()

	if folder.ParentID == nil {
		for _, rec := range s.folders {
			if rec.folder.OwnerID == folder.OwnerID && rec.folder.ParentID == nil {
				return &domain.ConflictError{
					Message:      "owner already has a root folder",
					ResourceType: "folder",
					ResourceID:   rec.folder.ID,
				}
			}
		}
	} else if _, ok := s.ownedFolder(*folder.ParentID, folder.OwnerID); !ok {
		return domain.NewNotFound("parent folder", *folder.ParentID)
	}

	now := time.Now()
	folder.ID = uuid.NewString()
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = now
	}
	if folder.UpdatedAt.IsZero() {
		folder.UpdatedAt = now
	}

	s.folders[folder.ID] = folderRecord{folder: cloneFolder(*folder), seq: s.nextSeq()}
	return nil
}

// GetByID retrieves a folder by ID
func (r *FolderRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Folder, error) {
	s := r.store
	defer s.lock(ctx)()

	rec, ok := s.ownedFolder(id, ownerID)
	if !ok {
		return nil, domain.NewNotFound("folder", id)
	}
	folder := cloneFolder(rec.folder)
	return &folder, nil
}

// GetRoot retrieves the owner's root folder
func (r *FolderRepository) GetRoot(ctx context.Context, ownerID string) (*models.Folder, error) {
	s := r.store
	defer s.lock(ctx)()

	for _, rec := range s.folders {
		if rec.folder.OwnerID == ownerID && rec.folder.ParentID == nil {
			folder := cloneFolder(rec.folder)
			return &folder, nil
		}
	}
	return nil, domain.NewNotFound("root folder for owner", ownerID)
}

// Update updates a folder's name and parent
func (r *FolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	s := r.store
	defer s.lock(ctx)()

	rec, ok := s.ownedFolder(folder.ID, folder.OwnerID)
	if !ok {
		return domain.NewNotFound("folder", folder.ID)
	}
	if folder.ParentID != nil {
		if _, ok := s.ownedFolder(*folder.ParentID, folder.OwnerID); !ok {
			return domain.NewNotFound("parent folder", *folder.ParentID)
		}
	}

	rec.folder.ParentID = cloneString(folder.ParentID)
	rec.folder.Name = folder.Name
	rec.folder.UpdatedAt = folder.UpdatedAt
	s.folders[folder.ID] = rec
	return nil
}

// ListByOwner retrieves every folder of the owner in creation order
func (r *FolderRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Folder, error) {
	s := r.store
	defer s.lock(ctx)()

	folders := s.ownerFolders(ownerID)
	for i := range folders {
		folders[i] = cloneFolder(folders[i])
	}
	return folders, nil
}

// ListChildren lists immediate child folders ordered by name
func (r *FolderRepository) ListChildren(ctx context.Context, parentID, ownerID string) ([]models.Folder, error) {
	s := r.store
	defer s.lock(ctx)()

	children := []models.Folder{}
	for _, folder := range s.ownerFolders(ownerID) {
		if folder.ParentID != nil && *folder.ParentID == parentID {
			children = append(children, cloneFolder(folder))
		}
	}
	slices.SortStableFunc(children, func(a, b models.Folder) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return children, nil
}

// DescendantIDs computes the closure below id from the owner's listing
func (r *FolderRepository) DescendantIDs(ctx context.Context, id, ownerID string) ([]string, error) {
	s := r.store
	defer s.lock(ctx)()

	ids := tree.Descendants(s.ownerFolders(ownerID), id)
	if ids == nil {
		return nil, domain.NewNotFound("folder", id)
	}
	return ids, nil
}

// DeleteByIDs deletes the given folders. Subfolders of a deleted folder and
// the items of every removed folder go with them, as the foreign keys do in
// Postgres.
func (r *FolderRepository) DeleteByIDs(ctx context.Context, ids []string, ownerID string) (int, error) {
	s := r.store
	defer s.lock(ctx)()

	owned := s.ownerFolders(ownerID)
	requested := make(map[string]bool, len(ids))
	removed := make(map[string]bool)
	for _, id := range ids {
		if _, ok := s.ownedFolder(id, ownerID); !ok {
			continue
		}
		requested[id] = true
		for _, sub := range tree.Descendants(owned, id) {
			removed[sub] = true
		}
	}

	// Every named folder counts, even one an earlier id already took with it
	deleted := len(requested)

	for id := range removed {
		delete(s.folders, id)
	}
	for id, rec := range s.items {
		if removed[rec.item.FolderID] {
			delete(s.items, id)
		}
	}

	s.logger.Debug("folders deleted",
		"owner_id", ownerID,
		"requested", len(ids),
		"deleted", deleted,
		"cascaded", len(removed)-deleted,
	)
	return deleted, nil
}

func cloneFolder(f models.Folder) models.Folder {
	f.ParentID = cloneString(f.ParentID)
	return f
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
