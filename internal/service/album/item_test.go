package album

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"album/internal/domain"
	albumSvc "album/internal/domain/services/album"
)

func TestUploadItem_Validation(t *testing.T) {
	f := newFixture(t)
	root := f.root(t, "alice")

	tests := []struct {
		name    string
		req     albumSvc.UploadItemRequest
		wantErr error
	}{
		{"missing title", albumSvc.UploadItemRequest{FolderID: root.ID, FileName: "a.png", Content: strings.NewReader("x")}, domain.ErrValidation},
		{"missing file", albumSvc.UploadItemRequest{FolderID: root.ID, Title: "a"}, domain.ErrValidation},
		{"wrong extension", albumSvc.UploadItemRequest{FolderID: root.ID, Title: "a", FileName: "a.bmp", Content: strings.NewReader("x")}, domain.ErrValidation},
		{"missing folder", albumSvc.UploadItemRequest{Title: "a", FileName: "a.png", Content: strings.NewReader("x")}, domain.ErrValidation},
		{"unknown folder", albumSvc.UploadItemRequest{FolderID: "nope", Title: "a", FileName: "a.png", Content: strings.NewReader("x")}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.OwnerID = "alice"
			_, err := f.items.UploadItem(context.Background(), &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Empty(t, f.blobs.blobs, "rejected uploads must not reach the blob store")
}

func TestUploadItem_UpperCaseExtensionAccepted(t *testing.T) {
	f := newFixture(t)
	root := f.root(t, "alice")

	item := f.upload(t, "alice", root.ID, "SUNSET.JPEG")
	assert.Equal(t, root.ID, item.FolderID)
	assert.Contains(t, f.blobs.blobs, item.URL)
}

func TestUploadItem_BlobFailure(t *testing.T) {
	f := newFixture(t)
	root := f.root(t, "alice")
	f.blobs.failPut = &domain.DependencyError{Dependency: "blob", Err: errors.New("disk full")}

	_, err := f.items.UploadItem(context.Background(), &albumSvc.UploadItemRequest{
		OwnerID: "alice", FolderID: root.ID, Title: "cat", FileName: "cat.png", Content: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, domain.ErrDependency)
	assert.Zero(t, f.itemCount(t, "alice"))
}

func TestListItems_Paging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.root(t, "alice")
	other := f.mkdir(t, "alice", root.ID, "Other")

	for i := range 14 {
		f.upload(t, "alice", root.ID, fmt.Sprintf("photo%02d.png", i))
	}
	f.upload(t, "alice", other.ID, "elsewhere.png")

	t.Run("default page size", func(t *testing.T) {
		page, err := f.items.ListItems(ctx, &albumSvc.ListItemsRequest{OwnerID: "alice", FolderID: &root.ID})
		require.NoError(t, err)
		assert.Equal(t, 6, page.PageSize)
		assert.Equal(t, 14, page.Total)
		require.Len(t, page.Items, 6)
		assert.Equal(t, "photo00", page.Items[0].Title)
	})

	t.Run("last partial page", func(t *testing.T) {
		page, err := f.items.ListItems(ctx, &albumSvc.ListItemsRequest{OwnerID: "alice", FolderID: &root.ID, PageIndex: 1, PageSize: 8})
		require.NoError(t, err)
		require.Len(t, page.Items, 6)
		assert.Equal(t, "photo08", page.Items[0].Title)
	})

	t.Run("all folders with filter", func(t *testing.T) {
		page, err := f.items.ListItems(ctx, &albumSvc.ListItemsRequest{OwnerID: "alice", Filter: "ELSE", PageSize: 24})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, other.ID, page.Items[0].FolderID)
	})

	t.Run("page size outside allowed set", func(t *testing.T) {
		_, err := f.items.ListItems(ctx, &albumSvc.ListItemsRequest{OwnerID: "alice", PageSize: 7})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("negative page", func(t *testing.T) {
		_, err := f.items.ListItems(ctx, &albumSvc.ListItemsRequest{OwnerID: "alice", PageIndex: -1})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("folder of another owner", func(t *testing.T) {
		_, err := f.items.ListItems(ctx, &albumSvc.ListItemsRequest{OwnerID: "bob", FolderID: &root.ID})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRenameItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.root(t, "alice")
	item := f.upload(t, "alice", root.ID, "cat.png")

	renamed, err := f.items.RenameItem(ctx, "alice", item.ID, "  Kitty ")
	require.NoError(t, err)
	assert.Equal(t, "Kitty", renamed.Title)

	_, err = f.items.RenameItem(ctx, "bob", item.ID, "Mine")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.items.RenameItem(ctx, "alice", item.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteItem_BlobFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.root(t, "alice")
	item := f.upload(t, "alice", root.ID, "cat.png")
	f.blobs.failDeletes[item.URL] = true

	require.NoError(t, f.items.DeleteItem(ctx, "alice", item.ID))
	assert.Zero(t, f.itemCount(t, "alice"))
	assert.Equal(t, []string{item.URL}, f.blobs.deleteCalls())

	assert.ErrorIs(t, f.items.DeleteItem(ctx, "alice", item.ID), domain.ErrNotFound)
}

func TestMoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.root(t, "alice")
	a := f.mkdir(t, "alice", root.ID, "A")
	b := f.mkdir(t, "alice", root.ID, "B")
	bobRoot := f.root(t, "bob")
	cat := f.upload(t, "alice", a.ID, "cat.png")

	t.Run("to another owner's folder", func(t *testing.T) {
		_, err := f.items.MoveItem(ctx, "alice", cat.ID, bobRoot.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		stored, err := f.items.GetItem(ctx, "alice", cat.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, stored.FolderID)
	})

	t.Run("by another owner", func(t *testing.T) {
		_, err := f.items.MoveItem(ctx, "bob", cat.ID, bobRoot.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("committed", func(t *testing.T) {
		moved, err := f.items.MoveItem(ctx, "alice", cat.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.ID, moved.FolderID)

		items, err := f.items.ListAllItems(ctx, "alice", &b.ID, "")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, cat.ID, items[0].ID)
	})
}
