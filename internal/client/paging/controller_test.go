package paging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"album/internal/domain"
	models "album/internal/domain/models/album"
)

// fakeLister serves items from memory. A folder listed in gates blocks
// until its channel is closed.
type fakeLister struct {
	mu      sync.Mutex
	items   []models.Item
	calls   []string
	gates   map[string]chan struct{}
	started chan string
	err     error
}

func newFakeLister(items ...models.Item) *fakeLister {
	return &fakeLister{items: items, gates: map[string]chan struct{}{}, started: make(chan string, 16)}
}

func (f *fakeLister) ListAllItems(ctx context.Context, folderID *string, filter string) ([]models.Item, error) {
	key := "*"
	if folderID != nil {
		key = *folderID
	}

	f.mu.Lock()
	f.calls = append(f.calls, key)
	gate := f.gates[key]
	err := f.err
	f.mu.Unlock()

	f.started <- key
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Item
	for _, it := range f.items {
		if folderID != nil && it.FolderID != *folderID {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(it.Title), strings.ToLower(filter)) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func items(folderID string, n int) []models.Item {
	out := make([]models.Item, n)
	for i := range n {
		out[i] = models.Item{
			ID:        fmt.Sprintf("%s-%02d", folderID, i),
			FolderID:  folderID,
			Title:     fmt.Sprintf("photo %s %d", folderID, i),
			CreatedAt: epoch.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func ids(items []models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func ptr(s string) *string { return &s }

func TestSelect_ResetsPageAndWindows(t *testing.T) {
	lister := newFakeLister(append(items("A", 14), items("B", 2)...)...)
	c := NewController(lister, nil)
	ctx := context.Background()

	require.NoError(t, c.Select(ctx, ptr("A")))
	v := c.View()
	assert.Equal(t, 14, v.Total)
	assert.Equal(t, 3, v.PageCount)
	assert.Equal(t, []string{"A-00", "A-01", "A-02", "A-03", "A-04", "A-05"}, ids(v.Items))

	c.SetPage(2)
	assert.Equal(t, []string{"A-12", "A-13"}, ids(c.View().Items))

	require.NoError(t, c.SetFilter(ctx, "a 1"))
	v = c.View()
	assert.Zero(t, v.PageIndex)
	assert.Equal(t, []string{"A-01", "A-10", "A-11", "A-12", "A-13"}, ids(v.Items))

	require.NoError(t, c.Select(ctx, nil))
	v = c.View()
	assert.Nil(t, v.Selected)
	assert.Equal(t, "a 1", v.Filter)
}

func TestSetPageSize(t *testing.T) {
	lister := newFakeLister(items("A", 20)...)
	c := NewController(lister, nil)
	ctx := context.Background()
	require.NoError(t, c.Select(ctx, ptr("A")))
	c.SetPage(2)

	err := c.SetPageSize(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrValidation)
	v := c.View()
	assert.Equal(t, 6, v.PageSize)
	assert.Equal(t, 2, v.PageIndex)
	assert.Equal(t, 1, lister.callCount())

	require.NoError(t, c.SetPageSize(ctx, 18))
	v = c.View()
	assert.Zero(t, v.PageIndex)
	assert.Len(t, v.Items, 18)
	assert.Equal(t, 2, v.PageCount)
}

func TestSetPage_Clamps(t *testing.T) {
	c := NewController(newFakeLister(items("A", 7)...), nil)
	require.NoError(t, c.Select(context.Background(), ptr("A")))

	c.SetPage(9)
	assert.Equal(t, 1, c.View().PageIndex)
	c.SetPage(-3)
	assert.Zero(t, c.View().PageIndex)
}

func TestRefresh_ClampsAfterShrink(t *testing.T) {
	lister := newFakeLister(items("A", 13)...)
	c := NewController(lister, nil)
	ctx := context.Background()
	require.NoError(t, c.Select(ctx, ptr("A")))
	c.SetPage(2)

	lister.mu.Lock()
	lister.items = lister.items[:5]
	lister.mu.Unlock()

	require.NoError(t, c.Refresh(ctx))
	v := c.View()
	assert.Zero(t, v.PageIndex)
	assert.Len(t, v.Items, 5)
}

func TestFetch_StaleResponseDiscarded(t *testing.T) {
	lister := newFakeLister(append(items("A", 3), items("B", 2)...)...)
	gate := make(chan struct{})
	lister.gates["A"] = gate
	c := NewController(lister, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Select(ctx, ptr("A")) }()
	require.Equal(t, "A", <-lister.started)

	require.NoError(t, c.Select(ctx, ptr("B")))
	<-lister.started

	close(gate)
	require.NoError(t, <-done)

	v := c.View()
	assert.Equal(t, "B", *v.Selected)
	assert.Equal(t, []string{"B-00", "B-01"}, ids(v.Items))
}

func TestRefresh_DoesNotJoinEarlierFetch(t *testing.T) {
	lister := newFakeLister(items("A", 3)...)
	gate := make(chan struct{})
	lister.gates["A"] = gate
	c := NewController(lister, nil)
	ctx := context.Background()

	done := make(chan error, 2)
	go func() { done <- c.Select(ctx, ptr("A")) }()
	<-lister.started
	go func() { done <- c.Refresh(ctx) }()
	<-lister.started

	close(gate)
	require.NoError(t, <-done)
	require.NoError(t, <-done)
	assert.Equal(t, 2, lister.callCount())
	assert.Len(t, c.View().Items, 3)
}

func TestFetchFailure_KeepsPreviousList(t *testing.T) {
	lister := newFakeLister(items("A", 3)...)
	c := NewController(lister, nil)
	ctx := context.Background()
	require.NoError(t, c.Select(ctx, ptr("A")))

	lister.err = &domain.DependencyError{Dependency: "transport", Err: errors.New("offline")}
	err := c.Refresh(ctx)
	assert.ErrorIs(t, err, domain.ErrDependency)
	assert.Len(t, c.View().Items, 3)
}

func TestRemoveOptimistic_RestoresPosition(t *testing.T) {
	c := NewController(newFakeLister(items("A", 4)...), nil)
	require.NoError(t, c.Select(context.Background(), ptr("A")))

	assert.True(t, c.ShowsItem("A-01"))
	restore, removed := c.RemoveOptimistic("A-01")
	require.True(t, removed)
	assert.False(t, c.ShowsItem("A-01"))
	assert.Equal(t, []string{"A-00", "A-02", "A-03"}, ids(c.View().Items))

	restore()
	restore()
	assert.Equal(t, []string{"A-00", "A-01", "A-02", "A-03"}, ids(c.View().Items))

	_, removed = c.RemoveOptimistic("missing")
	assert.False(t, removed)
}

func TestRemoveOptimistic_NewerFetchWins(t *testing.T) {
	lister := newFakeLister(items("A", 3)...)
	c := NewController(lister, nil)
	ctx := context.Background()
	require.NoError(t, c.Select(ctx, ptr("A")))

	restore, removed := c.RemoveOptimistic("A-00")
	require.True(t, removed)

	lister.mu.Lock()
	lister.items = lister.items[1:]
	lister.mu.Unlock()
	require.NoError(t, c.Refresh(ctx))

	restore()
	assert.Equal(t, []string{"A-01", "A-02"}, ids(c.View().Items))
}

func TestInsert(t *testing.T) {
	c := NewController(newFakeLister(items("A", 3)...), nil)
	ctx := context.Background()
	require.NoError(t, c.Select(ctx, ptr("A")))

	moved := models.Item{ID: "X", FolderID: "A", Title: "cat", CreatedAt: epoch.Add(90 * time.Second)}
	assert.True(t, c.Insert(moved))
	assert.Equal(t, []string{"A-00", "A-01", "X", "A-02"}, ids(c.View().Items))

	// Re-inserting replaces rather than duplicating
	moved.Title = "cat 2"
	assert.True(t, c.Insert(moved))
	assert.Len(t, c.View().Items, 4)

	require.NoError(t, c.SetFilter(ctx, "photo"))
	assert.False(t, c.Insert(models.Item{ID: "Y", Title: "dog", CreatedAt: epoch}))
	assert.False(t, c.ShowsItem("Y"))
}
