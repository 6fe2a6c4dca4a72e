package album

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"album/internal/domain"
	models "album/internal/domain/models/album"
	albumRepo "album/internal/domain/repositories/album"
	"album/internal/repository/postgres"
)

const folderColumns = `id, owner_id, parent_id, name, created_at, updated_at`

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *postgres.RepositoryConfig) albumRepo.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, parent_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		folder.OwnerID,
		folder.ParentID,
		folder.Name,
		folder.CreatedAt,
		folder.UpdatedAt,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			// Only the one-root-per-owner index can fire on insert
			return &domain.ConflictError{
				Message:      "owner already has a root folder",
				ResourceType: "folder",
			}
		}
		if postgres.IsPgForeignKeyError(err) || postgres.IsPgInvalidTextError(err) {
			return domain.NewNotFound("parent folder", deref(folder.ParentID))
		}
		return fmt.Errorf("create folder: %w", postgres.WrapError(err))
	}

	return nil
}

// GetByID retrieves a folder by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Folder, error) {
	if !postgres.IsValidID(id) {
		return nil, domain.NewNotFound("folder", id)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2
	`, folderColumns, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, domain.NewNotFound("folder", id)
		}
		return nil, fmt.Errorf("get folder: %w", postgres.WrapError(err))
	}

	return folder, nil
}

// GetRoot retrieves the owner's root folder
func (r *PostgresFolderRepository) GetRoot(ctx context.Context, ownerID string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND parent_id IS NULL
	`, folderColumns, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, ownerID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("root folder for owner", ownerID)
		}
		return nil, fmt.Errorf("get root folder: %w", postgres.WrapError(err))
	}

	return folder, nil
}

// Update updates a folder's name and parent
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, updated_at = $3
		WHERE id = $4 AND owner_id = $5
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		folder.ParentID,
		folder.Name,
		folder.UpdatedAt,
		folder.ID,
		folder.OwnerID,
	)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) || postgres.IsPgInvalidTextError(err) {
			return domain.NewNotFound("parent folder", deref(folder.ParentID))
		}
		return fmt.Errorf("update folder: %w", postgres.WrapError(err))
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFound("folder", folder.ID)
	}

	return nil
}

// ListByOwner retrieves every folder of the owner (flat list)
func (r *PostgresFolderRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC
	`, folderColumns, r.tables.Folders)

	return r.queryFolders(ctx, "list folders", query, ownerID)
}

// ListChildren lists immediate child folders
func (r *PostgresFolderRepository) ListChildren(ctx context.Context, parentID, ownerID string) ([]models.Folder, error) {
	if !postgres.IsValidID(parentID) {
		return nil, domain.NewNotFound("folder", parentID)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND parent_id = $2
		ORDER BY name ASC
	`, folderColumns, r.tables.Folders)

	folders, err := r.queryFolders(ctx, "list folder children", query, ownerID, parentID)
	if err != nil && postgres.IsPgInvalidTextError(err) {
		return nil, domain.NewNotFound("folder", parentID)
	}
	return folders, err
}

// DescendantIDs computes the subtree below id with a recursive CTE.
// A single statement sees one snapshot, so a concurrent insert cannot split
// the result.
func (r *PostgresFolderRepository) DescendantIDs(ctx context.Context, id, ownerID string) ([]string, error) {
	if !postgres.IsValidID(id) {
		return nil, domain.NewNotFound("folder", id)
	}

	query := fmt.Sprintf(`
		WITH RECURSIVE subtree AS (
			SELECT id
			FROM %s
			WHERE id = $1 AND owner_id = $2
			UNION
			SELECT f.id
			FROM %s f
			JOIN subtree s ON f.parent_id = s.id
			WHERE f.owner_id = $2
		)
		SELECT id::text FROM subtree
	`, r.tables.Folders, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, id, ownerID)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return nil, domain.NewNotFound("folder", id)
		}
		return nil, fmt.Errorf("query descendants: %w", postgres.WrapError(err))
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return nil, domain.NewNotFound("folder", id)
		}
		return nil, fmt.Errorf("scan descendants: %w", postgres.WrapError(err))
	}

	if len(ids) == 0 {
		return nil, domain.NewNotFound("folder", id)
	}

	return ids, nil
}

// DeleteByIDs deletes the given folders in one statement. Items disappear
// through the folder_id cascade.
func (r *PostgresFolderRepository) DeleteByIDs(ctx context.Context, ids []string, ownerID string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE owner_id = $1 AND id = ANY($2::uuid[])
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, ownerID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete folders: %w", postgres.WrapError(err))
	}

	r.logger.Debug("folders deleted",
		"owner_id", ownerID,
		"requested", len(ids),
		"deleted", result.RowsAffected(),
	)

	return int(result.RowsAffected()), nil
}

func (r *PostgresFolderRepository) queryFolders(ctx context.Context, op, query string, args ...any) ([]models.Folder, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, postgres.WrapError(err))
	}
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", postgres.WrapError(err))
	}

	return folders, nil
}

func scanFolder(row pgx.Row) (*models.Folder, error) {
	var folder models.Folder
	err := row.Scan(
		&folder.ID,
		&folder.OwnerID,
		&folder.ParentID,
		&folder.Name,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
