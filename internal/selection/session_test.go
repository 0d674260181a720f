package selection

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

const testOwner = int64(1001)

func newTestSession(t *testing.T, candidates []string, complete CompleteFunc) *Session {
	t.Helper()

	s, err := New(testOwner, candidates, 10, time.Minute, complete)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNewRejectsEmptyCandidates(t *testing.T) {
	_, err := New(testOwner, nil, 10, time.Minute, nil)
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("New() error = %v, want ErrNoCandidates", err)
	}
}

func TestNewRejectsOversizedCandidates(t *testing.T) {
	_, err := New(testOwner, []string{"a", "b", "c"}, 2, time.Minute, nil)
	if !errors.Is(err, ErrTooManyCandidates) {
		t.Errorf("New() error = %v, want ErrTooManyCandidates", err)
	}
}

func TestConfirmDeliversSelectionInCandidateOrder(t *testing.T) {
	var got []string
	s := newTestSession(t, []string{"a", "b", "c"}, func(_ context.Context, selected []string) error {
		got = selected
		return nil
	})

	// Select c first, then a: the callback still sees candidate order.
	if err := s.MoveCursor(testOwner, 2); err != nil {
		t.Fatalf("MoveCursor() error = %v", err)
	}
	if err := s.ToggleCursor(testOwner); err != nil {
		t.Fatalf("ToggleCursor() error = %v", err)
	}
	if err := s.MoveCursor(testOwner, -2); err != nil {
		t.Fatalf("MoveCursor() error = %v", err)
	}
	if err := s.ToggleCursor(testOwner); err != nil {
		t.Fatalf("ToggleCursor() error = %v", err)
	}

	if err := s.Confirm(context.Background(), testOwner); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if want := []string{"a", "c"}; !slices.Equal(got, want) {
		t.Errorf("callback selection = %v, want %v", got, want)
	}

	if err := s.Confirm(context.Background(), testOwner); !errors.Is(err, ErrFinished) {
		t.Errorf("second Confirm() error = %v, want ErrFinished", err)
	}
}

func TestCancelDeliversNothing(t *testing.T) {
	calls := 0
	var got []string
	s := newTestSession(t, []string{"a", "b"}, func(_ context.Context, selected []string) error {
		calls++
		got = selected
		return nil
	})

	if err := s.SelectAll(testOwner); err != nil {
		t.Fatalf("SelectAll() error = %v", err)
	}
	if err := s.Cancel(context.Background(), testOwner); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
	if len(got) != 0 {
		t.Errorf("callback selection = %v, want empty", got)
	}
	if state := s.Snapshot().State; state != StateCancelled {
		t.Errorf("state = %q, want %q", state, StateCancelled)
	}
}

func TestToggleFlipsSelection(t *testing.T) {
	s := newTestSession(t, []string{"a"}, nil)

	if err := s.ToggleCursor(testOwner); err != nil {
		t.Fatalf("ToggleCursor() error = %v", err)
	}
	if got := s.Snapshot().Selected; !slices.Equal(got, []string{"a"}) {
		t.Errorf("selected = %v, want [a]", got)
	}

	if err := s.ToggleCursor(testOwner); err != nil {
		t.Fatalf("ToggleCursor() error = %v", err)
	}
	if got := s.Snapshot().Selected; len(got) != 0 {
		t.Errorf("selected = %v, want empty", got)
	}
}

func TestMoveCursorClampsAtEdges(t *testing.T) {
	s := newTestSession(t, []string{"a", "b"}, nil)

	if err := s.MoveCursor(testOwner, -1); err != nil {
		t.Fatalf("MoveCursor() error = %v", err)
	}
	if got := s.Snapshot().CursorIndex; got != 0 {
		t.Errorf("cursor after stepping past start = %d, want 0", got)
	}

	if err := s.MoveCursor(testOwner, 1); err != nil {
		t.Fatalf("MoveCursor() error = %v", err)
	}
	if err := s.MoveCursor(testOwner, 1); err != nil {
		t.Fatalf("MoveCursor() error = %v", err)
	}
	if got := s.Snapshot().CursorIndex; got != 1 {
		t.Errorf("cursor after stepping past end = %d, want 1", got)
	}
}

func TestSelectAllThenClear(t *testing.T) {
	s := newTestSession(t, []string{"a", "b", "c"}, nil)

	if err := s.SelectAll(testOwner); err != nil {
		t.Fatalf("SelectAll() error = %v", err)
	}
	if got := s.Snapshot().Selected; len(got) != 3 {
		t.Errorf("selected after SelectAll = %v, want 3 entries", got)
	}

	if err := s.ClearSelection(testOwner); err != nil {
		t.Fatalf("ClearSelection() error = %v", err)
	}
	if got := s.Snapshot().Selected; len(got) != 0 {
		t.Errorf("selected after ClearSelection = %v, want empty", got)
	}
}

func TestRejectsOtherUsers(t *testing.T) {
	calls := 0
	s := newTestSession(t, []string{"a"}, func(context.Context, []string) error {
		calls++
		return nil
	})

	stranger := int64(2002)
	if err := s.ToggleCursor(stranger); !errors.Is(err, ErrNotOwner) {
		t.Errorf("ToggleCursor() error = %v, want ErrNotOwner", err)
	}
	if err := s.Confirm(context.Background(), stranger); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Confirm() error = %v, want ErrNotOwner", err)
	}
	if err := s.Cancel(context.Background(), stranger); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Cancel() error = %v, want ErrNotOwner", err)
	}

	if calls != 0 {
		t.Errorf("callback calls = %d, want 0", calls)
	}
	snap := s.Snapshot()
	if snap.State != StateBrowsing || len(snap.Selected) != 0 {
		t.Errorf("session changed by stranger input: %+v", snap)
	}
}

func TestIdleSessionTimesOutWithoutCallback(t *testing.T) {
	calls := 0
	s := newTestSession(t, []string{"a"}, func(context.Context, []string) error {
		calls++
		return nil
	})

	now := time.Now()
	s.now = func() time.Time { return now.Add(2 * time.Minute) }

	if err := s.ToggleCursor(testOwner); !errors.Is(err, ErrFinished) {
		t.Errorf("ToggleCursor() after timeout error = %v, want ErrFinished", err)
	}
	if state := s.Snapshot().State; state != StateTimedOut {
		t.Errorf("state = %q, want %q", state, StateTimedOut)
	}
	if calls != 0 {
		t.Errorf("callback calls = %d, want 0", calls)
	}
}

func TestInputExtendsDeadline(t *testing.T) {
	s := newTestSession(t, []string{"a", "b"}, nil)

	base := time.Now()
	now := base
	s.now = func() time.Time { return now }

	// 50 seconds in, input resets the one-minute idle window.
	now = base.Add(50 * time.Second)
	if err := s.MoveCursor(testOwner, 1); err != nil {
		t.Fatalf("MoveCursor() error = %v", err)
	}

	// 100 seconds in: idle for only 50, still browsing.
	now = base.Add(100 * time.Second)
	if err := s.ToggleCursor(testOwner); err != nil {
		t.Errorf("ToggleCursor() error = %v, want session still active", err)
	}
}

func TestCallbackErrorStillFinishesSession(t *testing.T) {
	wantErr := errors.New("relocation failed")
	s := newTestSession(t, []string{"a"}, func(context.Context, []string) error {
		return wantErr
	})

	if err := s.SelectAll(testOwner); err != nil {
		t.Fatalf("SelectAll() error = %v", err)
	}
	if err := s.Confirm(context.Background(), testOwner); !errors.Is(err, wantErr) {
		t.Errorf("Confirm() error = %v, want %v", err, wantErr)
	}
	if state := s.Snapshot().State; state != StateConfirmed {
		t.Errorf("state = %q, want %q", state, StateConfirmed)
	}
}

func TestManagerSweepDropsFinishedSessions(t *testing.T) {
	m := NewManager()

	active := newTestSession(t, []string{"a"}, nil)
	done := newTestSession(t, []string{"b"}, nil)
	m.Add(active)
	m.Add(done)

	if err := done.Confirm(context.Background(), testOwner); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	if removed := m.Sweep(); removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if m.Get(done.ID()) != nil {
		t.Error("finished session still registered after sweep")
	}
	if m.Get(active.ID()) == nil {
		t.Error("active session removed by sweep")
	}
}

func TestManagerRunSweepsIdleSessions(t *testing.T) {
	m := NewManager()

	s := newTestSession(t, []string{"a"}, nil)
	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	m.Add(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx, time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for m.Get(s.ID()) != nil {
		if time.Now().After(deadline) {
			t.Fatal("idle session was never swept")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
