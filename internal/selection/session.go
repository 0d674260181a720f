// Package selection implements the interactive workflow for picking which
// unique-item instances to move between locations. Unique items cannot be
// transferred by quantity arithmetic, so the gateway walks the user through
// their instances one button press at a time and this package keeps the
// per-session state: a fixed candidate list, a cursor, and the selected
// subset.
//
// A session is a flat state machine: Browsing until it is confirmed,
// cancelled or times out, then inert. Every transition is validated against
// the initiating user's identity.
package selection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a session's lifecycle phase.
type State string

const (
	StateBrowsing  State = "browsing"
	StateConfirmed State = "confirmed"
	StateCancelled State = "cancelled"
	StateTimedOut  State = "timed_out"
)

// Session construction and transition failures.
var (
	// ErrNoCandidates means there is nothing to select; the workflow is a
	// no-op and no session is created.
	ErrNoCandidates = errors.New("no candidate instances")

	// ErrTooManyCandidates means the stored data already exceeds the
	// per-item instance cap. This is a data-integrity notice for
	// operators, not a user mistake.
	ErrTooManyCandidates = errors.New("candidate count exceeds the unique item limit")

	// ErrNotOwner rejects input from anyone but the session's initiator.
	ErrNotOwner = errors.New("session belongs to another user")

	// ErrFinished rejects input after the session reached a terminal
	// state.
	ErrFinished = errors.New("session is no longer active")
)

// CompleteFunc receives the selected instance IDs when the session is
// confirmed (or cancelled, with an empty selection). The callback performs
// the actual relocations; the session itself never touches storage.
type CompleteFunc func(ctx context.Context, selected []string) error

// Session is one user's in-flight instance selection.
type Session struct {
	mu sync.Mutex

	id         string
	ownerID    int64
	candidates []string
	selected   map[string]bool
	cursor     int
	state      State
	deadline   time.Time
	timeout    time.Duration
	complete   CompleteFunc

	now func() time.Time // test hook
}

// New creates a Browsing session over a fixed candidate list. limit is the
// configured per-item instance cap; a candidate list longer than that
// refuses to start with ErrTooManyCandidates.
func New(ownerID int64, candidates []string, limit int, timeout time.Duration, complete CompleteFunc) (*Session, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if limit > 0 && len(candidates) > limit {
		return nil, ErrTooManyCandidates
	}

	s := &Session{
		id:         uuid.NewString(),
		ownerID:    ownerID,
		candidates: append([]string(nil), candidates...),
		selected:   make(map[string]bool),
		state:      StateBrowsing,
		timeout:    timeout,
		complete:   complete,
		now:        time.Now,
	}
	s.deadline = s.now().Add(timeout)
	return s, nil
}

// ID returns the session's identity.
func (s *Session) ID() string { return s.id }

// OwnerID returns the initiating user's identity.
func (s *Session) OwnerID() int64 { return s.ownerID }

// guard validates a transition request: actor must be the owner and the
// session must still be browsing. An expired deadline flips the session to
// TimedOut without invoking the callback. Callers hold s.mu.
func (s *Session) guard(actorID int64) error {
	if actorID != s.ownerID {
		return ErrNotOwner
	}
	if s.state == StateBrowsing && s.now().After(s.deadline) {
		s.state = StateTimedOut
	}
	if s.state != StateBrowsing {
		return ErrFinished
	}
	return nil
}

// touch extends the idle deadline after accepted input. Callers hold s.mu.
func (s *Session) touch() {
	s.deadline = s.now().Add(s.timeout)
}

// ToggleCursor flips whether the instance under the cursor is selected.
func (s *Session) ToggleCursor(actorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(actorID); err != nil {
		return err
	}

	id := s.candidates[s.cursor]
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
	s.touch()
	return nil
}

// MoveCursor shifts the cursor by step. A step that would land outside the
// candidate list leaves the cursor where it is.
func (s *Session) MoveCursor(actorID int64, step int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(actorID); err != nil {
		return err
	}

	next := s.cursor + step
	if next >= 0 && next < len(s.candidates) {
		s.cursor = next
	}
	s.touch()
	return nil
}

// SelectAll selects every candidate.
func (s *Session) SelectAll(actorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(actorID); err != nil {
		return err
	}

	for _, id := range s.candidates {
		s.selected[id] = true
	}
	s.touch()
	return nil
}

// ClearSelection empties the selected set.
func (s *Session) ClearSelection(actorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(actorID); err != nil {
		return err
	}

	clear(s.selected)
	s.touch()
	return nil
}

// Confirm finishes the session and hands the selected IDs (in candidate
// order) to the completion callback. The session is inert afterwards even
// if the callback fails; the callback's error is returned to the caller.
func (s *Session) Confirm(ctx context.Context, actorID int64) error {
	s.mu.Lock()
	if err := s.guard(actorID); err != nil {
		s.mu.Unlock()
		return err
	}

	s.state = StateConfirmed
	selected := s.selectedLocked()
	complete := s.complete
	s.mu.Unlock()

	if complete == nil {
		return nil
	}
	return complete(ctx, selected)
}

// Cancel clears the selection and confirms with nothing selected, so
// cancelling and confirming an empty selection behave identically.
func (s *Session) Cancel(ctx context.Context, actorID int64) error {
	s.mu.Lock()
	if err := s.guard(actorID); err != nil {
		s.mu.Unlock()
		return err
	}

	clear(s.selected)
	s.state = StateCancelled
	complete := s.complete
	s.mu.Unlock()

	if complete == nil {
		return nil
	}
	return complete(ctx, nil)
}

// selectedLocked returns the selected IDs in candidate order. Callers hold
// s.mu.
func (s *Session) selectedLocked() []string {
	var ids []string
	for _, id := range s.candidates {
		if s.selected[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Snapshot is a render-ready view of the session for the gateway.
type Snapshot struct {
	SessionID   string   `json:"session_id"`
	State       State    `json:"state"`
	CursorIndex int      `json:"cursor_index"`
	CursorID    string   `json:"cursor_id"`
	Candidates  int      `json:"candidates"`
	Selected    []string `json:"selected"`
	CanPrevious bool     `json:"can_previous"`
	CanNext     bool     `json:"can_next"`
}

// Snapshot returns the session's current view. Reading also notices an
// expired deadline so the gateway sees timed-out controls as disabled.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateBrowsing && s.now().After(s.deadline) {
		s.state = StateTimedOut
	}

	return Snapshot{
		SessionID:   s.id,
		State:       s.state,
		CursorIndex: s.cursor,
		CursorID:    s.candidates[s.cursor],
		Candidates:  len(s.candidates),
		Selected:    s.selectedLocked(),
		CanPrevious: s.state == StateBrowsing && s.cursor > 0,
		CanNext:     s.state == StateBrowsing && s.cursor < len(s.candidates)-1,
	}
}

// Manager is an in-memory registry of live sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns an empty session registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Add registers a session.
func (m *Manager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
}

// Get returns a session by ID, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Remove drops a session from the registry.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Sweep drops sessions that reached a terminal state (including ones that
// timed out while idle) and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Snapshot().State != StateBrowsing {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps the registry at the given interval until ctx is done. Without
// it, sessions that time out idle would sit in memory for the life of the
// process.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Debug("swept finished selection sessions", "count", n)
			}
		}
	}
}
