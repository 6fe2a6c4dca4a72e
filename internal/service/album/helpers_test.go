package album

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"album/internal/domain"
	models "album/internal/domain/models/album"
	albumSvc "album/internal/domain/services/album"
	"album/internal/repository/memory"
)

// fakeBlobStore records every call and fails deletes for locators listed in
// failDeletes.
type fakeBlobStore struct {
	mu          sync.Mutex
	blobs       map[string][]byte
	deletes     []string
	failDeletes map[string]bool
	failPut     error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		blobs:       make(map[string][]byte),
		failDeletes: make(map[string]bool),
	}
}

func (f *fakeBlobStore) Put(_ context.Context, r io.Reader, name string) (string, error) {
	if f.failPut != nil {
		return "", f.failPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	locator := "http://blobs.test/static/" + name
	f.blobs[locator] = data
	return locator, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, locator string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, locator)
	if f.failDeletes[locator] {
		return &domain.DependencyError{Dependency: "blob", Err: errors.New("blob store unreachable")}
	}
	delete(f.blobs, locator)
	return nil
}

func (f *fakeBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for locator, data := range f.blobs {
		if path.Base(locator) == key {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}
	return nil, errors.New("blob not found")
}

func (f *fakeBlobStore) deleteCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletes...)
}

type fixture struct {
	store   *memory.Store
	blobs   *fakeBlobStore
	folders albumSvc.FolderService
	items   albumSvc.ItemService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore(logger)
	blobs := newFakeBlobStore()
	tm := store.TransactionManager()

	cascade := NewCascadeDeleter(store.Folders(), store.Items(), blobs, tm, 2, nil, logger)
	return &fixture{
		store:   store,
		blobs:   blobs,
		folders: NewFolderService(store.Folders(), tm, cascade, logger),
		items:   NewItemService(store.Items(), store.Folders(), blobs, tm, nil, logger),
	}
}

func (f *fixture) root(t *testing.T, owner string) *models.Folder {
	t.Helper()
	root, err := f.folders.EnsureRootFolder(context.Background(), owner)
	require.NoError(t, err)
	return root
}

func (f *fixture) mkdir(t *testing.T, owner, parentID, name string) *models.Folder {
	t.Helper()
	folder, err := f.folders.CreateFolder(context.Background(), &albumSvc.CreateFolderRequest{
		OwnerID:  owner,
		Name:     name,
		ParentID: &parentID,
	})
	require.NoError(t, err)
	return folder
}

func (f *fixture) upload(t *testing.T, owner, folderID, fileName string) *models.Item {
	t.Helper()
	item, err := f.items.UploadItem(context.Background(), &albumSvc.UploadItemRequest{
		OwnerID:  owner,
		FolderID: folderID,
		Title:    strings.TrimSuffix(fileName, path.Ext(fileName)),
		FileName: fileName,
		Content:  strings.NewReader("bytes of " + fileName),
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) folderCount(t *testing.T, owner string) int {
	t.Helper()
	folders, err := f.store.Folders().ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	return len(folders)
}

func (f *fixture) itemCount(t *testing.T, owner string) int {
	t.Helper()
	n, err := f.store.Items().Count(context.Background(), models.ItemFilter{OwnerID: owner})
	require.NoError(t, err)
	return n
}
