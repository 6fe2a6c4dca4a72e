package album

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"album/internal/blob"
	"album/internal/config"
	"album/internal/domain"
	models "album/internal/domain/models/album"
	"album/internal/domain/repositories"
	albumRepo "album/internal/domain/repositories/album"
	albumSvc "album/internal/domain/services/album"
	"album/internal/metrics"
)

type itemService struct {
	itemRepo   albumRepo.ItemRepository
	folderRepo albumRepo.FolderRepository
	blobs      blob.Store
	txManager  repositories.TransactionManager
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewItemService creates a new item service
func NewItemService(
	itemRepo albumRepo.ItemRepository,
	folderRepo albumRepo.FolderRepository,
	blobs blob.Store,
	txManager repositories.TransactionManager,
	m *metrics.Metrics,
	logger *slog.Logger,
) albumSvc.ItemService {
	return &itemService{
		itemRepo:   itemRepo,
		folderRepo: folderRepo,
		blobs:      blobs,
		txManager:  txManager,
		metrics:    m,
		logger:     logger,
	}
}

// UploadItem stores the photo content and then the record. When the record
// cannot be written the stored content is released again.
func (s *itemService) UploadItem(ctx context.Context, req *albumSvc.UploadItemRequest) (*models.Item, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validateUploadRequest(req); err != nil {
		return nil, validationError(err)
	}

	// Check the folder first so a rejected upload never reaches the blob store
	if _, err := s.folderRepo.GetByID(ctx, req.FolderID, req.OwnerID); err != nil {
		return nil, err
	}

	locator, err := s.blobs.Put(ctx, req.Content, req.FileName)
	if err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	now := time.Now()
	item := &models.Item{
		OwnerID:   req.OwnerID,
		FolderID:  req.FolderID,
		Title:     req.Title,
		URL:       locator,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		if delErr := s.blobs.Delete(ctx, locator); delErr != nil {
			s.logger.Warn("failed to release blob of rejected upload",
				"url", locator,
				"error", delErr,
			)
		}
		return nil, err
	}

	s.logger.Info("item uploaded",
		"id", item.ID,
		"owner_id", item.OwnerID,
		"folder_id", item.FolderID,
		"title", item.Title,
	)

	return item, nil
}

// GetItem retrieves a single item
func (s *itemService) GetItem(ctx context.Context, ownerID, itemID string) (*models.Item, error) {
	return s.itemRepo.GetByID(ctx, itemID, ownerID)
}

// ListItems returns one page of the owner's items, optionally limited to a
// folder and to titles containing Filter.
func (s *itemService) ListItems(ctx context.Context, req *albumSvc.ListItemsRequest) (*models.ItemPage, error) {
	if req.PageSize == 0 {
		req.PageSize = config.DefaultPageSize
	}
	if !config.IsAllowedPageSize(req.PageSize) {
		return nil, domain.NewValidation(fmt.Sprintf("page size must be one of %v", config.AllowedPageSizes))
	}
	if req.PageIndex < 0 {
		return nil, domain.NewValidation("page index must not be negative")
	}

	if err := s.checkFolder(ctx, req.OwnerID, req.FolderID); err != nil {
		return nil, err
	}

	filter := models.ItemFilter{
		OwnerID:  req.OwnerID,
		FolderID: req.FolderID,
		Title:    req.Filter,
	}

	total, err := s.itemRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	filter.Limit = req.PageSize
	filter.Offset = req.PageIndex * req.PageSize
	items, err := s.itemRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return &models.ItemPage{
		Items:     items,
		Total:     total,
		PageIndex: req.PageIndex,
		PageSize:  req.PageSize,
	}, nil
}

// ListAllItems returns every matching item without paging
func (s *itemService) ListAllItems(ctx context.Context, ownerID string, folderID *string, filter string) ([]models.Item, error) {
	if err := s.checkFolder(ctx, ownerID, folderID); err != nil {
		return nil, err
	}

	items, err := s.itemRepo.List(ctx, models.ItemFilter{
		OwnerID:  ownerID,
		FolderID: folderID,
		Title:    filter,
	})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// RenameItem changes an item's title
func (s *itemService) RenameItem(ctx context.Context, ownerID, itemID, title string) (*models.Item, error) {
	title = strings.TrimSpace(title)
	if err := validation.Validate(title, titleRules()...); err != nil {
		return nil, validationError(err)
	}

	item, err := s.itemRepo.GetByID(ctx, itemID, ownerID)
	if err != nil {
		return nil, err
	}
	if item.Title == title {
		return item, nil
	}

	item.Title = title
	item.UpdatedAt = time.Now()
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("item renamed", "id", item.ID, "owner_id", ownerID, "title", title)
	return item, nil
}

// DeleteItem removes the record, then releases the blob. A failed blob
// release is logged and does not fail the delete.
func (s *itemService) DeleteItem(ctx context.Context, ownerID, itemID string) error {
	item, err := s.itemRepo.GetByID(ctx, itemID, ownerID)
	if err != nil {
		return err
	}

	if err := s.itemRepo.Delete(ctx, itemID, ownerID); err != nil {
		return err
	}

	blobFailed := false
	if err := s.blobs.Delete(ctx, item.URL); err != nil {
		blobFailed = true
		s.logger.Warn("blob delete failed",
			"item_id", item.ID,
			"url", item.URL,
			"error", err,
		)
	}
	s.metrics.RecordItemDelete(blobFailed)

	s.logger.Info("item deleted", "id", item.ID, "owner_id", ownerID, "folder_id", item.FolderID)
	return nil
}

// MoveItem reassigns an item to another of the owner's folders
func (s *itemService) MoveItem(ctx context.Context, ownerID, itemID, targetFolderID string) (*models.Item, error) {
	if targetFolderID == "" {
		return nil, domain.NewValidation("folder_id is required")
	}

	var item *models.Item
	var from string
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.itemRepo.GetByID(ctx, itemID, ownerID)
		if err != nil {
			return err
		}
		if _, err := s.folderRepo.GetByID(ctx, targetFolderID, ownerID); err != nil {
			return err
		}

		from = item.FolderID
		if from == targetFolderID {
			return nil
		}

		item.FolderID = targetFolderID
		item.UpdatedAt = time.Now()
		return s.itemRepo.Update(ctx, item)
	})
	if err != nil {
		s.metrics.RecordMove("failed")
		return nil, err
	}

	s.metrics.RecordMove("committed")
	s.logger.Info("item moved",
		"id", item.ID,
		"owner_id", ownerID,
		"from_folder_id", from,
		"to_folder_id", targetFolderID,
	)

	return item, nil
}

// checkFolder verifies an optional folder filter names one of the owner's folders
func (s *itemService) checkFolder(ctx context.Context, ownerID string, folderID *string) error {
	if folderID == nil {
		return nil
	}
	_, err := s.folderRepo.GetByID(ctx, *folderID, ownerID)
	return err
}

// validateUploadRequest validates an upload request
func (s *itemService) validateUploadRequest(req *albumSvc.UploadItemRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.FolderID, validation.Required.Error("folder_id is required")),
		validation.Field(&req.Title, titleRules()...),
		validation.Field(&req.FileName,
			validation.Required.Error("a photo file is required"),
			validation.By(allowedImage),
		),
		validation.Field(&req.Content, validation.NotNil.Error("a photo file is required")),
	)
}

func titleRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("title is required"),
		validation.RuneLength(1, config.MaxItemTitleLength),
	}
}

func allowedImage(value any) error {
	name, _ := value.(string)
	if !config.IsAllowedImageExtension(filepath.Ext(name)) {
		return fmt.Errorf("only %s files are accepted", strings.Join(config.AllowedImageExtensions, ", "))
	}
	return nil
}
