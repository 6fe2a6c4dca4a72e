package album

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"album/internal/config"
	"album/internal/domain"
	models "album/internal/domain/models/album"
	"album/internal/domain/repositories"
	albumRepo "album/internal/domain/repositories/album"
	albumSvc "album/internal/domain/services/album"
	"album/internal/tree"
)

// RootFolderName is the name given to an owner's root folder
const RootFolderName = "root"

var folderNamePattern = regexp.MustCompile(`^[^/]+$`)

type folderService struct {
	folderRepo albumRepo.FolderRepository
	txManager  repositories.TransactionManager
	cascade    *CascadeDeleter
	logger     *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo albumRepo.FolderRepository,
	txManager repositories.TransactionManager,
	cascade *CascadeDeleter,
	logger *slog.Logger,
) albumSvc.FolderService {
	return &folderService{
		folderRepo: folderRepo,
		txManager:  txManager,
		cascade:    cascade,
		logger:     logger,
	}
}

// EnsureRootFolder returns the owner's root folder, creating it on first use
func (s *folderService) EnsureRootFolder(ctx context.Context, ownerID string) (*models.Folder, error) {
	if ownerID == "" {
		return nil, domain.NewValidation("owner id is required")
	}

	root, err := s.folderRepo.GetRoot(ctx, ownerID)
	if err == nil {
		return root, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	root = &models.Folder{
		OwnerID:   ownerID,
		Name:      RootFolderName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.folderRepo.Create(ctx, root); err != nil {
		// Lost a race against a concurrent first request
		if errors.Is(err, domain.ErrConflict) {
			return s.folderRepo.GetRoot(ctx, ownerID)
		}
		return nil, err
	}

	s.logger.Info("root folder created", "id", root.ID, "owner_id", ownerID)
	return root, nil
}

// CreateFolder creates a folder below req.ParentID. Without a parent it
// creates the owner's root, which must not exist yet.
func (s *folderService) CreateFolder(ctx context.Context, req *albumSvc.CreateFolderRequest) (*models.Folder, error) {
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}
	req.Name = strings.TrimSpace(req.Name)

	if err := s.validateCreateRequest(req); err != nil {
		return nil, validationError(err)
	}

	now := time.Now()
	folder := &models.Folder{
		OwnerID:   req.OwnerID,
		ParentID:  req.ParentID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if req.ParentID == nil {
			if existing, err := s.folderRepo.GetRoot(ctx, req.OwnerID); err == nil {
				return &domain.ConflictError{
					Message:      "owner already has a root folder",
					ResourceType: "folder",
					ResourceID:   existing.ID,
				}
			} else if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			return s.folderRepo.Create(ctx, folder)
		}

		if _, err := s.folderRepo.GetByID(ctx, *req.ParentID, req.OwnerID); err != nil {
			return err
		}
		if err := s.checkSiblingName(ctx, req.OwnerID, *req.ParentID, "", req.Name); err != nil {
			return err
		}
		return s.folderRepo.Create(ctx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner_id", folder.OwnerID,
		"parent_id", folder.ParentID,
	)

	return folder, nil
}

// GetFolder retrieves a single folder
func (s *folderService) GetFolder(ctx context.Context, ownerID, folderID string) (*models.Folder, error) {
	return s.folderRepo.GetByID(ctx, folderID, ownerID)
}

// RenameFolder changes a folder's display name. Renaming to the current
// name returns the folder without writing.
func (s *folderService) RenameFolder(ctx context.Context, ownerID, folderID, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if err := validateFolderName(name); err != nil {
		return nil, validationError(err)
	}

	var folder *models.Folder
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		folder, err = s.folderRepo.GetByID(ctx, folderID, ownerID)
		if err != nil {
			return err
		}
		if folder.Name == name {
			return nil
		}

		if folder.ParentID != nil {
			if err := s.checkSiblingName(ctx, ownerID, *folder.ParentID, folder.ID, name); err != nil {
				return err
			}
		}

		previous := folder.Name
		folder.Name = name
		folder.UpdatedAt = time.Now()
		if err := s.folderRepo.Update(ctx, folder); err != nil {
			return err
		}

		s.logger.Info("folder renamed",
			"id", folder.ID,
			"owner_id", ownerID,
			"from", previous,
			"to", name,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return folder, nil
}

// MoveFolder reparents a folder. The new parent may be neither the folder
// itself nor one of its descendants; the check and the write share one
// transaction.
func (s *folderService) MoveFolder(ctx context.Context, ownerID, folderID, newParentID string) (*models.Folder, error) {
	if newParentID == "" {
		return nil, domain.NewValidation("parent_id is required")
	}

	var folder *models.Folder
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		folder, err = s.folderRepo.GetByID(ctx, folderID, ownerID)
		if err != nil {
			return err
		}
		if folder.IsRoot() {
			return domain.NewValidation("the root folder cannot be moved")
		}
		if _, err := s.folderRepo.GetByID(ctx, newParentID, ownerID); err != nil {
			return err
		}
		if *folder.ParentID == newParentID {
			return nil
		}

		subtree, err := s.folderRepo.DescendantIDs(ctx, folderID, ownerID)
		if err != nil {
			return err
		}
		if slices.Contains(subtree, newParentID) {
			return &domain.ConflictError{
				Message:      "a folder cannot be moved into itself or one of its subfolders",
				ResourceType: "folder",
				ResourceID:   newParentID,
			}
		}

		if err := s.checkSiblingName(ctx, ownerID, newParentID, folder.ID, folder.Name); err != nil {
			return err
		}

		folder.ParentID = &newParentID
		folder.UpdatedAt = time.Now()
		return s.folderRepo.Update(ctx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder moved",
		"id", folder.ID,
		"owner_id", ownerID,
		"parent_id", newParentID,
	)

	return folder, nil
}

// ListFoldersForOwner reads the owner's folders in one query and rebuilds
// the forest from the flat listing.
func (s *folderService) ListFoldersForOwner(ctx context.Context, ownerID string) ([]*models.FolderTreeNode, error) {
	folders, err := s.folderRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	forest := tree.Build(folders, s.logger)
	s.logger.Debug("folder tree built",
		"owner_id", ownerID,
		"folders", len(folders),
		"reachable", tree.Count(forest),
	)

	return forest, nil
}

// DeleteFolderSubtree removes a folder with everything below it
func (s *folderService) DeleteFolderSubtree(ctx context.Context, ownerID, folderID string) (*models.DeleteResult, error) {
	return s.cascade.DeleteSubtree(ctx, ownerID, folderID)
}

// checkSiblingName rejects name when another child of parentID (other than
// selfID) already uses it.
func (s *folderService) checkSiblingName(ctx context.Context, ownerID, parentID, selfID, name string) error {
	siblings, err := s.folderRepo.ListChildren(ctx, parentID, ownerID)
	if err != nil {
		return fmt.Errorf("check for duplicate names: %w", err)
	}
	for _, sibling := range siblings {
		if sibling.ID != selfID && sibling.Name == name {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
				ResourceType: "folder",
				ResourceID:   sibling.ID,
			}
		}
	}
	return nil
}

// validateCreateRequest validates a folder creation request
func (s *folderService) validateCreateRequest(req *albumSvc.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Name, folderNameRules()...),
	)
}

func validateFolderName(name string) error {
	return validation.Validate(name, folderNameRules()...)
}

func folderNameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("folder name is required"),
		validation.RuneLength(1, config.MaxFolderNameLength),
		validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
	}
}

// validationError turns an ozzo error into the domain ValidationError
func validationError(err error) error {
	return &domain.ValidationError{Message: err.Error()}
}
