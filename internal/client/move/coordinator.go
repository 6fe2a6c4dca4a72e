// Package move runs the drag-and-drop move of one item onto a folder.
//
// A session has one Coordinator and therefore one move in flight at most:
//
//	Idle -> Dropped -> Committing -> Committed | RolledBack -> Idle
//
// The item leaves the local listing as soon as the move is committing. When
// the server rejects the move it is put back where it was.
package move

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"album/internal/client/api"
	"album/internal/domain"
	models "album/internal/domain/models/album"
)

// State of the coordinator's state machine
type State int

const (
	Idle State = iota
	Dropped
	Committing
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dropped:
		return "dropped"
	case Committing:
		return "committing"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy rejects a drop while another move is in flight
	ErrBusy = errors.New("another move is in progress")

	// ErrUnknownTarget rejects a drop onto a token that is not registered
	ErrUnknownTarget = errors.New("unknown drop target")
)

// ItemMover commits a move on the server
type ItemMover interface {
	MoveItem(ctx context.Context, itemID, folderID string) (*models.Item, error)
}

// Targets resolves drop target tokens of a session
type Targets interface {
	Resolve(sessionID, token string) (folderID string, ok bool)
}

// Listing is the locally cached item list the move updates
type Listing interface {
	ShowsItem(itemID string) bool
	RemoveOptimistic(itemID string) (restore func(), removed bool)
	Insert(item models.Item) bool
	SelectedFolder() *string
	Refresh(ctx context.Context) error
}

// Notifier is told about every finished move
type Notifier func(Outcome)

// Options tune a Coordinator
type Options struct {
	// ReconcileOnFailure refetches the listing after a transport failure,
	// since the server may have applied the move before the response was lost
	ReconcileOnFailure bool

	// Timeout bounds the commit call; 0 leaves it to the transport
	Timeout time.Duration

	Notifier Notifier
}

// Outcome describes a finished move
type Outcome struct {
	ItemID     string
	FolderID   string
	State      State // Committed or RolledBack
	Item       *models.Item
	Err        error
	Message    string // user-facing; empty when committed
	Reconciled bool
}

// Transition is one recorded state change
type Transition struct {
	From   State
	To     State
	ItemID string
	At     time.Time
}

// HistoryLimit bounds the transitions a Coordinator keeps, the last 16 moves
const HistoryLimit = 64

// Coordinator serializes moves for one session
type Coordinator struct {
	sessionID string
	targets   Targets
	mover     ItemMover
	listing   Listing
	opts      Options
	logger    *slog.Logger

	mu      sync.Mutex
	state   State
	history []Transition
}

// NewCoordinator creates an idle coordinator
func NewCoordinator(sessionID string, targets Targets, mover ItemMover, listing Listing, opts Options, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		sessionID: sessionID,
		targets:   targets,
		mover:     mover,
		listing:   listing,
		opts:      opts,
		logger:    logger,
	}
}

// State returns the current state
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns the most recent transitions, oldest first, at most
// HistoryLimit of them
func (c *Coordinator) History() []Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Transition(nil), c.history...)
}

// Drop moves itemID onto the folder behind token. It returns ErrBusy or
// ErrUnknownTarget when the gesture is rejected without any change. Any
// failure of the commit itself ends in RolledBack and is reported on the
// Outcome, not as an error.
func (c *Coordinator) Drop(ctx context.Context, itemID, token string) (*Outcome, error) {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	folderID, ok := c.targets.Resolve(c.sessionID, token)
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("drop rejected", "item_id", itemID, "token", token)
		return nil, ErrUnknownTarget
	}
	c.transition(Dropped, itemID)
	c.transition(Committing, itemID)
	c.mu.Unlock()

	restore := func() {}
	if c.listing.ShowsItem(itemID) {
		restore, _ = c.listing.RemoveOptimistic(itemID)
	}

	commitCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		commitCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	outcome := &Outcome{ItemID: itemID, FolderID: folderID}
	item, err := c.mover.MoveItem(commitCtx, itemID, folderID)
	if err != nil {
		restore()
		outcome.State = RolledBack
		outcome.Err = err
		outcome.Message = failureMessage(err)

		if c.opts.ReconcileOnFailure && api.IsTransportFailure(err) {
			if rerr := c.listing.Refresh(ctx); rerr != nil {
				c.logger.Warn("reconcile after failed move", "item_id", itemID, "error", rerr)
			} else {
				outcome.Reconciled = true
			}
		}

		c.logger.Warn("move rolled back",
			"item_id", itemID,
			"folder_id", folderID,
			"error", err,
		)
	} else {
		outcome.State = Committed
		outcome.Item = item
		if selected := c.listing.SelectedFolder(); selected == nil || *selected == folderID {
			c.listing.Insert(*item)
		}

		c.logger.Info("move committed", "item_id", itemID, "folder_id", folderID)
	}

	c.mu.Lock()
	c.transition(outcome.State, itemID)
	c.transition(Idle, itemID)
	c.mu.Unlock()

	if c.opts.Notifier != nil {
		c.opts.Notifier(*outcome)
	}
	return outcome, nil
}

// transition records a state change; callers hold c.mu
func (c *Coordinator) transition(to State, itemID string) {
	c.history = append(c.history, Transition{From: c.state, To: to, ItemID: itemID, At: time.Now()})
	if over := len(c.history) - HistoryLimit; over > 0 {
		c.history = append(c.history[:0], c.history[over:]...)
	}
	c.state = to
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "The photo or the destination folder no longer exists."
	case errors.Is(err, context.DeadlineExceeded), api.IsTransportFailure(err):
		return "The server could not be reached. The photo was not moved."
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict):
		return "The photo cannot be moved there: " + err.Error()
	default:
		return "Moving the photo failed: " + err.Error()
	}
}
