// Package droptarget publishes the set of folders that accept dropped items.
//
// Each session holds one full snapshot (folder id to token). The snapshot is
// rebuilt from the whole tree on every change and subscribers always receive
// the complete set, never a diff. Clear empties the set while no tree is
// loaded; Subscribe is how a renderer follows the set as it changes.
package droptarget

import (
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"album/internal/config"
	models "album/internal/domain/models/album"
	"album/internal/tree"
)

// Snapshot maps folder id to drop target token
type Snapshot map[string]string

// Token returns the drop target token of a folder
func Token(folderID string) string {
	return config.DropTargetPrefix + folderID
}

// FolderID extracts the folder id from a well-formed token
func FolderID(token string) (string, bool) {
	id, ok := strings.CutPrefix(token, config.DropTargetPrefix)
	return id, ok && id != ""
}

// Registry holds the drop target snapshot of every live session
type Registry struct {
	sessions *xsync.Map[string, *session]
	logger   *slog.Logger
}

type session struct {
	mu          sync.Mutex
	current     Snapshot
	byToken     map[string]string
	subscribers map[int]chan Snapshot
	nextSub     int
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: xsync.NewMap[string, *session](),
		logger:   logger,
	}
}

func (r *Registry) session(id string) *session {
	if s, ok := r.sessions.Load(id); ok {
		return s
	}
	s, _ := r.sessions.LoadOrStore(id, &session{
		current:     Snapshot{},
		byToken:     map[string]string{},
		subscribers: map[int]chan Snapshot{},
	})
	return s
}

// Rebuild replaces the session's snapshot with one token per node of forest
// and notifies every subscriber.
func (r *Registry) Rebuild(sessionID string, forest []*models.FolderTreeNode) Snapshot {
	next := Snapshot{}
	tree.Walk(forest, func(n *models.FolderTreeNode) bool {
		next[n.ID] = Token(n.ID)
		return true
	})

	r.publish(sessionID, next)
	r.logger.Debug("drop targets rebuilt", "session", sessionID, "targets", len(next))
	return maps.Clone(next)
}

// Clear publishes an empty snapshot, as when no tree is loaded
func (r *Registry) Clear(sessionID string) {
	r.publish(sessionID, Snapshot{})
}

func (r *Registry) publish(sessionID string, next Snapshot) {
	s := r.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = next
	s.byToken = make(map[string]string, len(next))
	for id, token := range next {
		s.byToken[token] = id
	}
	for _, ch := range s.subscribers {
		offer(ch, maps.Clone(next))
	}
}

// offer delivers snap, replacing an undelivered older snapshot. Callers
// hold the session lock, so only the receiver can race with it.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Subscribe returns a channel that yields the current snapshot at once and
// then every later one. A slow reader only ever sees the latest snapshot.
// cancel closes the channel.
func (r *Registry) Subscribe(sessionID string) (<-chan Snapshot, func()) {
	s := r.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 1)
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch
	ch <- maps.Clone(s.current)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Resolve returns the folder behind a token of the session's current snapshot
func (r *Registry) Resolve(sessionID, token string) (string, bool) {
	s, ok := r.sessions.Load(sessionID)
	if !ok {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byToken[token]
	return id, ok
}

// Snapshot returns a copy of the session's current snapshot
func (r *Registry) Snapshot(sessionID string) Snapshot {
	s, ok := r.sessions.Load(sessionID)
	if !ok {
		return Snapshot{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.current)
}

// Drop ends a session and closes its subscriptions
func (r *Registry) Drop(sessionID string) {
	s, ok := r.sessions.LoadAndDelete(sessionID)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

// Sessions returns the number of live sessions
func (r *Registry) Sessions() int {
	return r.sessions.Size()
}
