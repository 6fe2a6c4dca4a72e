// Package session wires one client session: the folder tree, the paged
// item grid and the move coordinator, sharing one drop target registry.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"album/internal/client/droptarget"
	"album/internal/client/move"
	"album/internal/client/paging"
	"album/internal/client/treeview"
	models "album/internal/domain/models/album"
)

// Transport is everything a session asks of the server
type Transport interface {
	treeview.FolderAPI
	paging.ItemLister
	move.ItemMover
	UploadItem(ctx context.Context, folderID, title, fileName string, content io.Reader) (*models.Item, error)
	RenameItem(ctx context.Context, itemID, title string) (*models.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
}

// Session is one user's view of the album
type Session struct {
	ID    string
	Tree  *treeview.TreeView
	Items *paging.Controller
	Moves *move.Coordinator

	transport Transport
	registry  *droptarget.Registry
	logger    *slog.Logger
}

// New creates a session registered under a fresh id
func New(transport Transport, registry *droptarget.Registry, moveOpts move.Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With("session", id)

	s := &Session{
		ID:        id,
		transport: transport,
		registry:  registry,
		logger:    logger,
	}
	s.Items = paging.NewController(transport, logger)
	s.Moves = move.NewCoordinator(id, registry, transport, s.Items, moveOpts, logger)
	s.Tree = treeview.New(transport, registry, id, treeview.Listeners{
		OnSelect: func(ctx context.Context, ev treeview.SelectionEvent) error {
			return s.Items.Select(ctx, ev.FolderID)
		},
		OnDrop: func(ctx context.Context, ev treeview.DropEvent) error {
			_, err := s.Drop(ctx, ev.ItemID, ev.Token)
			return err
		},
	}, logger)
	return s
}

// Open loads the tree and shows all items. A session whose tree never
// loaded has no drop targets.
func (s *Session) Open(ctx context.Context) error {
	if err := s.Tree.Load(ctx); err != nil {
		if s.Tree.Forest() == nil {
			s.registry.Clear(s.ID)
		}
		return err
	}
	return s.Tree.Select(ctx, nil)
}

// DropTargets subscribes to the session's drop target snapshots, for
// renderers that highlight the folders a drag can land on
func (s *Session) DropTargets() (<-chan droptarget.Snapshot, func()) {
	return s.registry.Subscribe(s.ID)
}

// Close releases the session's drop targets
func (s *Session) Close() {
	s.registry.Drop(s.ID)
}

// Select selects a folder, nil for all items
func (s *Session) Select(ctx context.Context, folderID *string) error {
	return s.Tree.Select(ctx, folderID)
}

// Drop runs a move through the coordinator. A committed move is followed by
// an authoritative refetch of the grid.
func (s *Session) Drop(ctx context.Context, itemID, token string) (*move.Outcome, error) {
	outcome, err := s.Moves.Drop(ctx, itemID, token)
	if err != nil {
		return nil, err
	}
	if outcome.State == move.Committed {
		if err := s.Items.Refresh(ctx); err != nil {
			s.logger.Warn("refresh after move", "item_id", itemID, "error", err)
		}
	}
	return outcome, nil
}

// Upload stores a photo in folderID and refreshes the grid
func (s *Session) Upload(ctx context.Context, folderID, title, fileName string, content io.Reader) (*models.Item, error) {
	item, err := s.transport.UploadItem(ctx, folderID, title, fileName, content)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", fileName, err)
	}
	return item, s.Items.Refresh(ctx)
}

// RenameItem retitles an item and refreshes the grid
func (s *Session) RenameItem(ctx context.Context, itemID, title string) (*models.Item, error) {
	item, err := s.transport.RenameItem(ctx, itemID, title)
	if err != nil {
		return nil, err
	}
	return item, s.Items.Refresh(ctx)
}

// DeleteItem deletes an item and refetches the grid rather than patching
// the window
func (s *Session) DeleteItem(ctx context.Context, itemID string) error {
	if err := s.transport.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	return s.Items.Refresh(ctx)
}

// DeleteFolder deletes a subtree and refreshes the grid, which may have
// shown items of the subtree
func (s *Session) DeleteFolder(ctx context.Context, folderID string) (*models.DeleteResult, error) {
	result, err := s.Tree.DeleteFolder(ctx, folderID)
	if err != nil {
		return result, err
	}
	return result, s.Items.Refresh(ctx)
}
