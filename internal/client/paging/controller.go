// Package paging keeps the client's selected folder, filter and page, and
// the item list behind them.
//
// The full item list for the selection is fetched and windowed locally.
// Every successful fetch replaces the local list outright; responses to
// superseded requests are dropped.
package paging

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"album/internal/config"
	"album/internal/domain"
	models "album/internal/domain/models/album"
)

// ItemLister fetches every item matching a folder and filter
type ItemLister interface {
	ListAllItems(ctx context.Context, folderID *string, filter string) ([]models.Item, error)
}

// View is what the grid renders
type View struct {
	Selected  *string // nil = all of the owner's items
	Filter    string
	PageIndex int
	PageSize  int
	PageCount int
	Total     int
	Items     []models.Item // current page only
}

// Controller owns selection, filter and paging state
type Controller struct {
	lister ItemLister
	logger *slog.Logger
	group  singleflight.Group

	mu        sync.Mutex
	selected  *string
	filter    string
	pageIndex int
	pageSize  int
	items     []models.Item
	version   uint64 // last request issued
	applied   uint64 // request whose response is shown
}

// NewController creates a controller showing all items, first page
func NewController(lister ItemLister, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		lister:   lister,
		logger:   logger,
		pageSize: config.DefaultPageSize,
	}
}

// Select changes the selected folder and refetches from the first page
func (c *Controller) Select(ctx context.Context, folderID *string) error {
	c.mu.Lock()
	c.selected = cloneString(folderID)
	c.pageIndex = 0
	c.mu.Unlock()
	return c.fetch(ctx, false)
}

// SetFilter changes the title filter and refetches from the first page
func (c *Controller) SetFilter(ctx context.Context, filter string) error {
	c.mu.Lock()
	c.filter = strings.TrimSpace(filter)
	c.pageIndex = 0
	c.mu.Unlock()
	return c.fetch(ctx, false)
}

// SetPageSize changes the page size and refetches from the first page.
// A size outside the allowed set leaves the state untouched.
func (c *Controller) SetPageSize(ctx context.Context, size int) error {
	if !config.IsAllowedPageSize(size) {
		return domain.NewValidation(fmt.Sprintf("page size must be one of %v", config.AllowedPageSizes))
	}
	c.mu.Lock()
	c.pageSize = size
	c.pageIndex = 0
	c.mu.Unlock()
	return c.fetch(ctx, false)
}

// SetPage moves the window without refetching. The index is clamped to the
// available pages.
func (c *Controller) SetPage(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageIndex = index
	c.clamp()
}

// Refresh refetches the current selection, never joining a fetch that
// started before the call
func (c *Controller) Refresh(ctx context.Context) error {
	return c.fetch(ctx, true)
}

// View returns the current page
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := min(c.pageIndex*c.pageSize, len(c.items))
	end := min(start+c.pageSize, len(c.items))
	return View{
		Selected:  cloneString(c.selected),
		Filter:    c.filter,
		PageIndex: c.pageIndex,
		PageSize:  c.pageSize,
		PageCount: c.pageCount(),
		Total:     len(c.items),
		Items:     slices.Clone(c.items[start:end]),
	}
}

// SelectedFolder returns the selected folder, nil when all items are shown
func (c *Controller) SelectedFolder() *string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneString(c.selected)
}

// ShowsItem reports whether the fetched list holds the item
func (c *Controller) ShowsItem(itemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexOf(itemID) >= 0
}

// RemoveOptimistic takes an item out of the local list ahead of a server
// confirmation. restore puts it back at its old position unless a newer
// fetch has replaced the list in the meantime.
func (c *Controller) RemoveOptimistic(itemID string) (restore func(), removed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(itemID)
	if idx < 0 {
		return func() {}, false
	}
	item := c.items[idx]
	generation := c.applied
	c.items = slices.Delete(slices.Clone(c.items), idx, idx+1)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.applied != generation || c.indexOf(item.ID) >= 0 {
				return
			}
			c.items = slices.Insert(c.items, min(idx, len(c.items)), item)
		})
	}, true
}

// Insert splices an item into the local list at the position a fetch would
// give it. Items not matching the filter are ignored.
func (c *Controller) Insert(item models.Item) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.filter != "" && !strings.Contains(strings.ToLower(item.Title), strings.ToLower(c.filter)) {
		return false
	}
	if idx := c.indexOf(item.ID); idx >= 0 {
		c.items[idx] = item
		return true
	}

	pos, _ := slices.BinarySearchFunc(c.items, item, compareItems)
	c.items = slices.Insert(slices.Clone(c.items), pos, item)
	return true
}

func (c *Controller) fetch(ctx context.Context, fresh bool) error {
	c.mu.Lock()
	c.version++
	version := c.version
	folderID := cloneString(c.selected)
	filter := c.filter
	c.mu.Unlock()

	key := queryKey(folderID, filter)
	if fresh {
		c.group.Forget(key)
	}

	res, err, shared := c.group.Do(key, func() (any, error) {
		return c.lister.ListAllItems(ctx, folderID, filter)
	})
	if err != nil {
		c.logger.Warn("item fetch failed", "query", key, "error", err)
		return err
	}
	items := res.([]models.Item)

	c.mu.Lock()
	defer c.mu.Unlock()

	if version < c.applied || queryKey(c.selected, c.filter) != key {
		c.logger.Debug("stale item fetch discarded", "query", key, "version", version)
		return nil
	}

	c.applied = version
	c.items = slices.Clone(items)
	c.clamp()

	c.logger.Debug("items fetched",
		"query", key,
		"version", version,
		"items", len(items),
		"shared", shared,
	)
	return nil
}

func (c *Controller) pageCount() int {
	if len(c.items) == 0 {
		return 1
	}
	return (len(c.items) + c.pageSize - 1) / c.pageSize
}

func (c *Controller) clamp() {
	c.pageIndex = max(0, min(c.pageIndex, c.pageCount()-1))
}

func (c *Controller) indexOf(itemID string) int {
	return slices.IndexFunc(c.items, func(it models.Item) bool { return it.ID == itemID })
}

// compareItems orders items the way the server lists them
func compareItems(a, b models.Item) int {
	if n := a.CreatedAt.Compare(b.CreatedAt); n != 0 {
		return n
	}
	return cmp.Compare(a.ID, b.ID)
}

func queryKey(folderID *string, filter string) string {
	if folderID == nil {
		return "*|" + filter
	}
	return "folder:" + *folderID + "|" + filter
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
