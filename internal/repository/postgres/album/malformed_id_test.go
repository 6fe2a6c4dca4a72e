package album

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"album/internal/domain"
	models "album/internal/domain/models/album"
	"album/internal/repository/postgres"
)

// Malformed ids are answered without a statement, so no pool is needed and
// an enclosing transaction is never aborted.
func newUnconnectedRepos() (*PostgresFolderRepository, *PostgresItemRepository) {
	config := &postgres.RepositoryConfig{Tables: postgres.NewTableNames("test_")}
	return NewFolderRepository(config).(*PostgresFolderRepository),
		NewItemRepository(config).(*PostgresItemRepository)
}

func TestFolderRepository_MalformedIDIsNotFound(t *testing.T) {
	folders, _ := newUnconnectedRepos()
	ctx := context.Background()

	_, err := folders.GetByID(ctx, "not-a-uuid", "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	children, err := folders.ListChildren(ctx, "not-a-uuid", "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, children)

	_, err = folders.DescendantIDs(ctx, "not-a-uuid", "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemRepository_MalformedIDs(t *testing.T) {
	_, items := newUnconnectedRepos()
	ctx := context.Background()

	_, err := items.GetByID(ctx, "42", "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, items.Delete(ctx, "42", "alice"), domain.ErrNotFound)
	assert.ErrorIs(t, items.Update(ctx, &models.Item{ID: "42", FolderID: "nope", OwnerID: "alice"}), domain.ErrNotFound)

	folderID := "nope"
	listed, err := items.List(ctx, models.ItemFilter{OwnerID: "alice", FolderID: &folderID})
	require.NoError(t, err)
	assert.Empty(t, listed)

	count, err := items.Count(ctx, models.ItemFilter{OwnerID: "alice", FolderID: &folderID})
	require.NoError(t, err)
	assert.Zero(t, count)
}
