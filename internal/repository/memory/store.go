// Package memory is an in-process implementation of the album repositories.
// It honours the same contracts as the Postgres repositories (owner scoping,
// one root per owner, cascading deletes, all-or-nothing transactions) and
// backs the server when no DATABASE_URL is configured.
package memory

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	models "album/internal/domain/models/album"
	"album/internal/domain/repositories"
	albumRepo "album/internal/domain/repositories/album"
)

type txKey struct{}

type folderRecord struct {
	folder models.Folder
	seq    uint64
}

type itemRecord struct {
	item models.Item
	seq  uint64
}

// Store holds every folder and item. All access is serialized; a
// transaction holds the lock for its whole duration.
type Store struct {
	mu      sync.Mutex
	folders map[string]folderRecord
	items   map[string]itemRecord
	seq     uint64
	logger  *slog.Logger
}

// NewStore creates an empty store
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		folders: make(map[string]folderRecord),
		items:   make(map[string]itemRecord),
		logger:  logger,
	}
}

// Folders returns the folder repository view of the store
func (s *Store) Folders() albumRepo.FolderRepository {
	return &FolderRepository{store: s}
}

// Items returns the item repository view of the store
func (s *Store) Items() albumRepo.ItemRepository {
	return &ItemRepository{store: s}
}

// TransactionManager returns a transaction manager over the store
func (s *Store) TransactionManager() repositories.TransactionManager {
	return &TransactionManager{store: s}
}

// TransactionManager implements repositories.TransactionManager with
// snapshot and restore.
type TransactionManager struct {
	store *Store
}

// ExecTx runs fn with the store locked. If fn fails every write it made is
// undone. Nested calls join the outer transaction.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	s := tm.store
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folders := maps.Clone(s.folders)
	items := maps.Clone(s.items)
	seq := s.seq

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.folders = folders
		s.items = items
		s.seq = seq
		s.logger.Debug("memory transaction rolled back", "error", err)
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock acquires the store for one operation unless ctx already runs inside
// a transaction of this store.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// ownerFolders returns the owner's folders in insertion order; caller holds the lock
func (s *Store) ownerFolders(ownerID string) []models.Folder {
	records := make([]folderRecord, 0)
	for _, rec := range s.folders {
		if rec.folder.OwnerID == ownerID {
			records = append(records, rec)
		}
	}
	sortBySeq(records, func(r folderRecord) uint64 { return r.seq })

	out := make([]models.Folder, len(records))
	for i, rec := range records {
		out[i] = rec.folder
	}
	return out
}

func (s *Store) ownedFolder(id, ownerID string) (folderRecord, bool) {
	rec, ok := s.folders[id]
	if !ok || rec.folder.OwnerID != ownerID {
		return folderRecord{}, false
	}
	return rec, true
}

func sortBySeq[T any](records []T, seq func(T) uint64) {
	slices.SortFunc(records, func(a, b T) int {
		return cmp.Compare(seq(a), seq(b))
	})
}
