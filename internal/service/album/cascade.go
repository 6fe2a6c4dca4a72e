package album

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"album/internal/blob"
	"album/internal/config"
	"album/internal/domain"
	models "album/internal/domain/models/album"
	"album/internal/domain/repositories"
	albumRepo "album/internal/domain/repositories/album"
	"album/internal/metrics"
)

// CascadeDeleter removes a folder together with every descendant folder,
// their items and the items' blobs.
type CascadeDeleter struct {
	folderRepo  albumRepo.FolderRepository
	itemRepo    albumRepo.ItemRepository
	blobs       blob.Store
	txManager   repositories.TransactionManager
	concurrency int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewCascadeDeleter creates a cascade deleter that runs at most concurrency
// blob deletes at once.
func NewCascadeDeleter(
	folderRepo albumRepo.FolderRepository,
	itemRepo albumRepo.ItemRepository,
	blobs blob.Store,
	txManager repositories.TransactionManager,
	concurrency int,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CascadeDeleter {
	if concurrency < 1 {
		concurrency = config.DefaultBlobDeleteConcurrency
	}
	return &CascadeDeleter{
		folderRepo:  folderRepo,
		itemRepo:    itemRepo,
		blobs:       blobs,
		txManager:   txManager,
		concurrency: concurrency,
		metrics:     m,
		logger:      logger,
	}
}

// DeleteSubtree deletes folderID and everything below it in one
// transaction:
//
//  1. the descendant closure is read in one round trip
//  2. the items of every folder in the closure are listed
//  3. each item's blob is deleted; failures are logged and counted
//  4. the folders are deleted in one statement, taking their items along
//
// Blob deletes are best-effort and run before the commit, so a rolled-back
// transaction can leave records whose blobs are gone.
func (c *CascadeDeleter) DeleteSubtree(ctx context.Context, ownerID, folderID string) (*models.DeleteResult, error) {
	result := &models.DeleteResult{}

	err := c.txManager.ExecTx(ctx, func(ctx context.Context) error {
		folder, err := c.folderRepo.GetByID(ctx, folderID, ownerID)
		if err != nil {
			return err
		}
		if folder.IsRoot() {
			return domain.NewValidation("the root folder cannot be deleted")
		}

		ids, err := c.folderRepo.DescendantIDs(ctx, folderID, ownerID)
		if err != nil {
			return fmt.Errorf("collect subtree: %w", err)
		}

		items, err := c.itemRepo.ListByFolderIDs(ctx, ids, ownerID)
		if err != nil {
			return fmt.Errorf("list subtree items: %w", err)
		}

		failures := c.deleteBlobs(ctx, items)

		if _, err := c.folderRepo.DeleteByIDs(ctx, ids, ownerID); err != nil {
			return fmt.Errorf("delete subtree: %w", err)
		}

		result.FolderIDs = ids
		result.ItemCount = len(items)
		result.BlobFailures = failures
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.RecordSubtreeDelete(len(result.FolderIDs), result.ItemCount, result.BlobFailures)
	c.logger.Info("folder subtree deleted",
		"id", folderID,
		"owner_id", ownerID,
		"folders", len(result.FolderIDs),
		"items", result.ItemCount,
		"blob_failures", result.BlobFailures,
	)

	return result, nil
}

// deleteBlobs issues exactly one delete per item and returns the number that
// failed. It never stops early.
func (c *CascadeDeleter) deleteBlobs(ctx context.Context, items []models.Item) int {
	var failures atomic.Int64
	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for _, item := range items {
		g.Go(func() error {
			if err := c.blobs.Delete(ctx, item.URL); err != nil {
				failures.Add(1)
				c.logger.Warn("blob delete failed",
					"item_id", item.ID,
					"folder_id", item.FolderID,
					"url", item.URL,
					"error", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(failures.Load())
}
