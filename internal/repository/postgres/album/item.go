package album

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"album/internal/domain"
	models "album/internal/domain/models/album"
	albumRepo "album/internal/domain/repositories/album"
	"album/internal/repository/postgres"
)

const itemColumns = `id, owner_id, folder_id, title, url, created_at, updated_at`

// PostgresItemRepository implements the ItemRepository interface
type PostgresItemRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewItemRepository creates a new item repository
func NewItemRepository(config *postgres.RepositoryConfig) albumRepo.ItemRepository {
	return &PostgresItemRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new item
func (r *PostgresItemRepository) Create(ctx context.Context, item *models.Item) error {
	// The folder must belong to the same owner; the INSERT ... SELECT makes
	// that a single statement instead of a check-then-insert race.
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, folder_id, title, url, created_at, updated_at)
		SELECT $1, f.id, $3, $4, $5, $6
		FROM %s f
		WHERE f.id = $2 AND f.owner_id = $1
		RETURNING id, created_at, updated_at
	`, r.tables.Items, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		item.OwnerID,
		item.FolderID,
		item.Title,
		item.URL,
		item.CreatedAt,
		item.UpdatedAt,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgForeignKeyError(err) || postgres.IsPgInvalidTextError(err) {
			return domain.NewNotFound("folder", item.FolderID)
		}
		return fmt.Errorf("create item: %w", postgres.WrapError(err))
	}

	return nil
}

// GetByID retrieves an item by ID
func (r *PostgresItemRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Item, error) {
	if !postgres.IsValidID(id) {
		return nil, domain.NewNotFound("item", id)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2
	`, itemColumns, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	item, err := scanItem(executor.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, domain.NewNotFound("item", id)
		}
		return nil, fmt.Errorf("get item: %w", postgres.WrapError(err))
	}

	return item, nil
}

// Update updates an item's title and folder. The target folder must be
// owned by the same owner.
func (r *PostgresItemRepository) Update(ctx context.Context, item *models.Item) error {
	if !postgres.IsValidID(item.ID) || !postgres.IsValidID(item.FolderID) {
		return domain.NewNotFound("item", item.ID)
	}

	query := fmt.Sprintf(`
		UPDATE %s i
		SET folder_id = f.id, title = $1, updated_at = $2
		FROM %s f
		WHERE i.id = $3 AND i.owner_id = $4 AND f.id = $5 AND f.owner_id = $4
	`, r.tables.Items, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		item.Title,
		item.UpdatedAt,
		item.ID,
		item.OwnerID,
		item.FolderID,
	)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) || postgres.IsPgForeignKeyError(err) {
			return domain.NewNotFound("item", item.ID)
		}
		return fmt.Errorf("update item: %w", postgres.WrapError(err))
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFound("item", item.ID)
	}

	return nil
}

// Delete deletes an item record
func (r *PostgresItemRepository) Delete(ctx context.Context, id, ownerID string) error {
	if !postgres.IsValidID(id) {
		return domain.NewNotFound("item", id)
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND owner_id = $2
	`, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, ownerID)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return domain.NewNotFound("item", id)
		}
		return fmt.Errorf("delete item: %w", postgres.WrapError(err))
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFound("item", id)
	}

	return nil
}

// List returns items matching the filter
func (r *PostgresItemRepository) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	// A malformed folder id matches nothing
	if filter.FolderID != nil && !postgres.IsValidID(*filter.FolderID) {
		return []models.Item{}, nil
	}

	where, args := itemWhere(filter)
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY created_at ASC, id ASC
	`, itemColumns, r.tables.Items, where)

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return r.queryItems(ctx, "list items", query, args...)
}

// Count counts items matching the filter
func (r *PostgresItemRepository) Count(ctx context.Context, filter models.ItemFilter) (int, error) {
	if filter.FolderID != nil && !postgres.IsValidID(*filter.FolderID) {
		return 0, nil
	}

	where, args := itemWhere(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, r.tables.Items, where)

	var count int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("count items: %w", postgres.WrapError(err))
	}
	return count, nil
}

// ListByFolderIDs returns every item in any of the folders
func (r *PostgresItemRepository) ListByFolderIDs(ctx context.Context, folderIDs []string, ownerID string) ([]models.Item, error) {
	if len(folderIDs) == 0 {
		return []models.Item{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND folder_id = ANY($2::uuid[])
		ORDER BY created_at ASC, id ASC
	`, itemColumns, r.tables.Items)

	return r.queryItems(ctx, "list items by folders", query, ownerID, folderIDs)
}

func itemWhere(filter models.ItemFilter) (string, []any) {
	clauses := []string{"owner_id = $1"}
	args := []any{filter.OwnerID}

	if filter.FolderID != nil {
		args = append(args, *filter.FolderID)
		clauses = append(clauses, fmt.Sprintf("folder_id = $%d", len(args)))
	}
	if title := strings.TrimSpace(filter.Title); title != "" {
		args = append(args, "%"+escapeLike(title)+"%")
		clauses = append(clauses, fmt.Sprintf(`title ILIKE $%d ESCAPE '\'`, len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PostgresItemRepository) queryItems(ctx context.Context, op, query string, args ...any) ([]models.Item, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, postgres.WrapError(err))
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("iterate items: %w", postgres.WrapError(err))
	}

	return items, nil
}

func scanItem(row pgx.Row) (*models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.FolderID,
		&item.Title,
		&item.URL,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
