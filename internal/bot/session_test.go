package bot

import (
	"testing"
	"time"
)

func TestSessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	newSessions := func() *Sessions {
		s := NewSessions(10 * time.Minute)
		s.now = func() time.Time { return now }
		return s
	}

	t.Run("unknown subscriber is idle", func(t *testing.T) {
		if got := newSessions().Get(1); got.Step != StepIdle || got.Pending != nil {
			t.Errorf("unexpected session %+v", got)
		}
	})

	t.Run("set and get", func(t *testing.T) {
		s := newSessions()
		s.Set(1, Session{Step: StepAwaitingInterval, Pending: &Pending{ID: "PLx", Title: "X"}})
		got := s.Get(1)
		if got.Step != StepAwaitingInterval || got.Pending.ID != "PLx" || !got.UpdatedAt.Equal(now) {
			t.Errorf("unexpected session %+v", got)
		}
	})

	t.Run("expires after ttl", func(t *testing.T) {
		s := newSessions()
		s.Set(1, Session{Step: StepAwaitingReference})
		now = now.Add(11 * time.Minute)
		defer func() { now = now.Add(-11 * time.Minute) }()

		if got := s.Get(1); got.Step != StepIdle {
			t.Errorf("expected expired session to be idle, got %v", got.Step)
		}
		if s.Len() != 0 {
			t.Error("expired session should be dropped")
		}
	})

	t.Run("set sweeps expired entries", func(t *testing.T) {
		s := newSessions()
		s.Set(1, Session{Step: StepAwaitingReference})
		now = now.Add(11 * time.Minute)
		defer func() { now = now.Add(-11 * time.Minute) }()

		s.Set(2, Session{Step: StepAwaitingReference})
		if s.Len() != 1 {
			t.Errorf("expected 1 session after sweep, got %d", s.Len())
		}
	})

	t.Run("clear", func(t *testing.T) {
		s := newSessions()
		s.Set(1, Session{Step: StepAwaitingReference})
		s.Clear(1)
		if s.Get(1).Step != StepIdle {
			t.Error("expected idle after clear")
		}
	})

	t.Run("step names", func(t *testing.T) {
		for step, want := range map[Step]string{StepIdle: "idle", StepAwaitingReference: "awaiting-reference", StepAwaitingInterval: "awaiting-interval"} {
			if step.String() != want {
				t.Errorf("Step(%d) = %q, want %q", int(step), step.String(), want)
			}
		}
	})
}
