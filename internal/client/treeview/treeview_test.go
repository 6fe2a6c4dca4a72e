package treeview

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"album/internal/client/droptarget"
	"album/internal/domain"
	models "album/internal/domain/models/album"
	"album/internal/tree"
)

// fakeFolders is a flat in-memory folder store
type fakeFolders struct {
	folders []models.Folder
	next    int
	listErr error
}

func newFakeFolders() *fakeFolders {
	return &fakeFolders{folders: []models.Folder{{ID: "root", Name: "root"}}}
}

func (f *fakeFolders) ListFolders(context.Context) ([]*models.FolderTreeNode, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return tree.Build(f.folders, nil), nil
}

func (f *fakeFolders) CreateFolder(_ context.Context, name, parentID string) (*models.Folder, error) {
	f.next++
	parent := parentID
	folder := models.Folder{ID: fmt.Sprintf("f%d", f.next), Name: name, ParentID: &parent}
	f.folders = append(f.folders, folder)
	return &folder, nil
}

func (f *fakeFolders) RenameFolder(_ context.Context, folderID, name string) (*models.Folder, error) {
	for i := range f.folders {
		if f.folders[i].ID == folderID {
			f.folders[i].Name = name
			folder := f.folders[i]
			return &folder, nil
		}
	}
	return nil, domain.NewNotFound("folder", folderID)
}

func (f *fakeFolders) DeleteFolder(_ context.Context, folderID string) (*models.DeleteResult, error) {
	doomed := tree.Descendants(f.folders, folderID)
	if doomed == nil {
		return nil, domain.NewNotFound("folder", folderID)
	}
	var kept []models.Folder
	for _, folder := range f.folders {
		found := false
		for _, id := range doomed {
			if id == folder.ID {
				found = true
			}
		}
		if !found {
			kept = append(kept, folder)
		}
	}
	f.folders = kept
	return &models.DeleteResult{FolderIDs: doomed}, nil
}

func TestLoad_RebuildsRegistry(t *testing.T) {
	api := newFakeFolders()
	registry := droptarget.NewRegistry(nil)
	v := New(api, registry, "s1", Listeners{}, nil)
	ctx := context.Background()

	require.NoError(t, v.Load(ctx))
	require.NotNil(t, v.Root())
	assert.Equal(t, "root", v.Root().ID)

	vacation, err := v.CreateFolder(ctx, "Vacation", "root")
	require.NoError(t, err)
	assert.Contains(t, registry.Snapshot("s1"), vacation.ID)
	assert.Equal(t, 2, tree.Count(v.Forest()))

	_, err = v.RenameFolder(ctx, vacation.ID, "Holidays")
	require.NoError(t, err)
	assert.Equal(t, "Holidays", tree.Find(v.Forest(), vacation.ID).Name)

	_, err = v.DeleteFolder(ctx, vacation.ID)
	require.NoError(t, err)
	assert.NotContains(t, registry.Snapshot("s1"), vacation.ID)
	assert.Len(t, registry.Snapshot("s1"), 1)
}

func TestLoad_DropsDanglingRecords(t *testing.T) {
	api := newFakeFolders()
	ghost := "ghost"
	api.folders = append(api.folders, models.Folder{ID: "lost", Name: "lost", ParentID: &ghost})
	registry := droptarget.NewRegistry(nil)
	v := New(api, registry, "s1", Listeners{}, nil)

	require.NoError(t, v.Load(context.Background()))
	assert.Equal(t, 1, tree.Count(v.Forest()))
	assert.NotContains(t, registry.Snapshot("s1"), "lost")
}

func TestLoad_FailureKeepsTree(t *testing.T) {
	api := newFakeFolders()
	registry := droptarget.NewRegistry(nil)
	v := New(api, registry, "s1", Listeners{}, nil)
	ctx := context.Background()
	require.NoError(t, v.Load(ctx))

	api.listErr = errors.New("offline")
	assert.Error(t, v.Load(ctx))
	assert.Equal(t, 1, tree.Count(v.Forest()))
	assert.Len(t, registry.Snapshot("s1"), 1)
}

func TestSelect_EmitsEvents(t *testing.T) {
	api := newFakeFolders()
	var events []SelectionEvent
	var drops []DropEvent
	v := New(api, droptarget.NewRegistry(nil), "s1", Listeners{
		OnSelect: func(_ context.Context, ev SelectionEvent) error {
			events = append(events, ev)
			return nil
		},
		OnDrop: func(_ context.Context, ev DropEvent) error {
			drops = append(drops, ev)
			return nil
		},
	}, nil)
	ctx := context.Background()
	require.NoError(t, v.Load(ctx))

	root := "root"
	require.NoError(t, v.Select(ctx, &root))
	missing := "missing"
	assert.ErrorIs(t, v.Select(ctx, &missing), domain.ErrNotFound)
	require.NoError(t, v.Select(ctx, nil))

	require.Len(t, events, 2)
	assert.Equal(t, "root", *events[0].FolderID)
	assert.Nil(t, events[1].FolderID)

	require.NoError(t, v.DropOn(ctx, "cat", droptarget.Token("root")))
	assert.Equal(t, []DropEvent{{ItemID: "cat", Token: "folderDropList-root"}}, drops)
}

func TestDeleteFolder_ClearsLostSelection(t *testing.T) {
	api := newFakeFolders()
	var last *SelectionEvent
	v := New(api, droptarget.NewRegistry(nil), "s1", Listeners{
		OnSelect: func(_ context.Context, ev SelectionEvent) error {
			last = &ev
			return nil
		},
	}, nil)
	ctx := context.Background()
	require.NoError(t, v.Load(ctx))

	vacation, err := v.CreateFolder(ctx, "Vacation", "root")
	require.NoError(t, err)
	beach, err := v.CreateFolder(ctx, "Beach", vacation.ID)
	require.NoError(t, err)
	family, err := v.CreateFolder(ctx, "Family", "root")
	require.NoError(t, err)

	require.NoError(t, v.Select(ctx, &family.ID))
	_, err = v.DeleteFolder(ctx, vacation.ID)
	require.NoError(t, err)
	assert.Equal(t, family.ID, *v.Selected())

	family2, err := v.CreateFolder(ctx, "Sub", family.ID)
	require.NoError(t, err)
	require.NoError(t, v.Select(ctx, &family2.ID))
	_, err = v.DeleteFolder(ctx, family.ID)
	require.NoError(t, err)
	assert.Nil(t, v.Selected())
	require.NotNil(t, last)
	assert.Nil(t, last.FolderID)

	assert.Nil(t, tree.Find(v.Forest(), beach.ID))
}
