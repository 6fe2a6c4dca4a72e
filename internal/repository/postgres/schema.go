package postgres

import (
	"context"
	"fmt"

	"album/internal/domain/repositories"
)

// EnsureSchema creates the folder and item tables when missing.
// Item rows reference their folder with ON DELETE CASCADE, and folders
// reference their parent the same way, so deleting a set of folders removes
// every dependent item in the same statement.
func EnsureSchema(ctx context.Context, db repositories.DBTX, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				owner_id TEXT NOT NULL,
				parent_id UUID REFERENCES %s(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CHECK (parent_id IS NULL OR parent_id <> id)
			)`, tables.Folders, tables.Folders),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				owner_id TEXT NOT NULL,
				folder_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				url TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.Items, tables.Folders),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%sfolders_owner_root ON %s(owner_id) WHERE parent_id IS NULL`,
			tables.Prefix, tables.Folders),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%sfolders_owner_parent ON %s(owner_id, parent_id)`,
			tables.Prefix, tables.Folders),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%sitems_owner_folder ON %s(owner_id, folder_id)`,
			tables.Prefix, tables.Items),
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", WrapError(err))
		}
	}
	return nil
}

// DropTables removes the album tables for the prefix
func DropTables(ctx context.Context, db repositories.DBTX, tables *TableNames) error {
	for _, table := range []string{tables.Items, tables.Folders} {
		if _, err := db.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, table)); err != nil {
			return fmt.Errorf("drop table %s: %w", table, WrapError(err))
		}
	}
	return nil
}
