package tasks

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytwatch/internal/shared"
)

func newTestScheduler(t *testing.T, h *harness, opts SchedulerOptions) *Scheduler {
	t.Helper()
	if opts.Pause == 0 {
		opts.Pause = -1
	}
	opts.Logger = shared.NewLogger(io.Discard)
	s, err := NewScheduler(h.checker, h.store.Collections, opts)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	return s
}

func TestScheduler(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid cadence", func(t *testing.T) {
		h := newHarness(t)
		_, err := NewScheduler(h.checker, h.store.Collections, SchedulerOptions{Cadence: "every so often"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		h := newHarness(t)
		s, err := NewScheduler(h.checker, h.store.Collections, SchedulerOptions{})
		if err != nil {
			t.Fatalf("NewScheduler failed: %v", err)
		}
		if s.opts.Cadence != DefaultCadence || s.opts.InitialDelay != DefaultInitialDelay || s.opts.Pause != DefaultPause {
			t.Errorf("unexpected defaults %+v", s.opts)
		}
		if s.State() != StateIdle || s.State().String() != "idle" {
			t.Errorf("new scheduler should be idle, got %v", s.State())
		}
	})

	t.Run("failing collection does not stop the batch", func(t *testing.T) {
		h := newHarness(t)
		first := h.track(t, "PLbatch00001", 1)
		second := h.track(t, "PLbatch00002", 2)
		third := h.track(t, "PLbatch00003", 3)
		h.source.SetItems(first.ID, item("a", "A"))
		h.source.SetItems(third.ID, item("c", "C"))
		h.source.SetError(second.ID, shared.ErrProviderUnavailable)

		s := newTestScheduler(t, h, SchedulerOptions{})
		report := s.RunOnce(ctx)

		if report.Checked != 2 || report.Failed != 1 {
			t.Errorf("unexpected report %+v", report)
		}
		for _, id := range []string{first.ID, third.ID} {
			if count, _ := h.store.Items.Count(ctx, id); count != 1 {
				t.Errorf("%s should have been saved, got %d items", id, count)
			}
		}
		if report.RunID == "" {
			t.Error("expected a run id")
		}
		last, ok := s.LastRun()
		if !ok || last.RunID != report.RunID {
			t.Errorf("last run not recorded: %+v", last)
		}
	})

	t.Run("panicking collection is isolated", func(t *testing.T) {
		h := newHarness(t)
		first := h.track(t, "PLpanic00001", 1)
		second := h.track(t, "PLpanic00002", 1)
		h.source.Panics[first.ID] = true
		h.source.SetItems(second.ID, item("b", "B"))

		report := newTestScheduler(t, h, SchedulerOptions{}).RunOnce(ctx)
		if report.Checked != 1 || report.Failed != 1 {
			t.Errorf("unexpected report %+v", report)
		}
	})

	t.Run("only active collections are polled", func(t *testing.T) {
		h := newHarness(t)
		active := h.track(t, "PLactive0001", 1)
		paused := h.track(t, "PLpaused0001", 1)
		h.store.Collections.SetActive(ctx, paused.ID, false)

		newTestScheduler(t, h, SchedulerOptions{}).RunOnce(ctx)
		if h.source.FetchCount(active.ID) != 1 || h.source.FetchCount(paused.ID) != 0 {
			t.Errorf("unexpected fetches: active=%d paused=%d", h.source.FetchCount(active.ID), h.source.FetchCount(paused.ID))
		}
	})

	t.Run("respects intervals when enabled", func(t *testing.T) {
		h := newHarness(t)
		recent := h.track(t, "PLrecent0001", 1)
		fresh := h.track(t, "PLfresh00001", 1)
		if _, err := h.checker.Baseline(ctx, recent); err != nil {
			t.Fatalf("baseline failed: %v", err)
		}

		report := newTestScheduler(t, h, SchedulerOptions{RespectIntervals: true}).RunOnce(ctx)
		if report.Skipped != 1 || report.Checked != 1 {
			t.Errorf("unexpected report %+v", report)
		}
		if h.source.FetchCount(recent.ID) != 1 || h.source.FetchCount(fresh.ID) != 1 {
			t.Errorf("recent collection should only have its baseline fetch")
		}
	})

	t.Run("pause spaces consecutive collections", func(t *testing.T) {
		h := newHarness(t)
		h.track(t, "PLpause00001", 1)
		h.track(t, "PLpause00002", 1)
		h.track(t, "PLpause00003", 1)

		s := newTestScheduler(t, h, SchedulerOptions{Pause: 40 * time.Millisecond})
		start := time.Now()
		report := s.RunOnce(ctx)
		if report.Checked != 3 {
			t.Fatalf("unexpected report %+v", report)
		}
		if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
			t.Errorf("expected two pauses, run took %v", elapsed)
		}
	})

	t.Run("pause follows a slow check", func(t *testing.T) {
		h := newHarness(t)
		h.track(t, "PLslow000001", 1)
		h.track(t, "PLslow000002", 1)

		var mu sync.Mutex
		var starts, ends []time.Time
		h.source.OnFetch = func(ctx context.Context, id string) {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
			time.Sleep(120 * time.Millisecond)
			mu.Lock()
			ends = append(ends, time.Now())
			mu.Unlock()
		}

		report := newTestScheduler(t, h, SchedulerOptions{Pause: 80 * time.Millisecond}).RunOnce(ctx)
		if report.Checked != 2 {
			t.Fatalf("unexpected report %+v", report)
		}

		mu.Lock()
		defer mu.Unlock()
		if len(starts) != 2 || len(ends) != 2 {
			t.Fatalf("expected two fetches, got %d", len(starts))
		}
		if gap := starts[1].Sub(ends[0]); gap < 70*time.Millisecond {
			t.Errorf("expected a pause after the first check finished, gap was %v", gap)
		}
	})

	t.Run("cancel during pause stops the batch", func(t *testing.T) {
		h := newHarness(t)
		first := h.track(t, "PLwait000001", 1)
		second := h.track(t, "PLwait000002", 1)

		cctx, cancel := context.WithCancel(ctx)
		h.source.OnFetch = func(context.Context, string) { cancel() }

		report := newTestScheduler(t, h, SchedulerOptions{Pause: time.Hour}).RunOnce(cctx)
		fetches := h.source.FetchCount(first.ID) + h.source.FetchCount(second.ID)
		if report.Error == "" || fetches != 1 {
			t.Errorf("expected the batch to stop after one fetch, got %d fetches and %+v", fetches, report)
		}
	})

	t.Run("overlapping run is skipped", func(t *testing.T) {
		h := newHarness(t)
		s := newTestScheduler(t, h, SchedulerOptions{})
		s.state.Store(int32(StateRunning))

		if report := s.RunOnce(ctx); !report.Overlap {
			t.Errorf("expected overlap, got %+v", report)
		}
		if _, ok := s.LastRun(); ok {
			t.Error("skipped run must not be recorded")
		}
	})

	t.Run("cancelled context stops the batch", func(t *testing.T) {
		h := newHarness(t)
		h.track(t, "PLcancel0001", 1)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		report := newTestScheduler(t, h, SchedulerOptions{}).RunOnce(cctx)
		if report.Checked != 0 || report.Error == "" {
			t.Errorf("unexpected report %+v", report)
		}
	})

	t.Run("Start and Stop", func(t *testing.T) {
		h := newHarness(t)
		c := h.track(t, "PLstart00001", 1)
		h.source.SetItems(c.ID, item("a", "A"))

		s := newTestScheduler(t, h, SchedulerOptions{Cadence: "@every 1h", InitialDelay: 10 * time.Millisecond})
		if err := s.Start(ctx); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if err := s.Start(ctx); err == nil {
			t.Error("second Start should fail")
		}

		deadline := time.Now().Add(2 * time.Second)
		for {
			if _, ok := s.LastRun(); ok {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("initial run did not happen")
			}
			time.Sleep(5 * time.Millisecond)
		}

		st := s.Status()
		if st.Cadence != "@every 1h" || st.LastRun == nil || st.Next == nil {
			t.Errorf("unexpected status %+v", st)
		}
		s.Stop()
		if s.State() != StateIdle {
			t.Errorf("expected idle after stop, got %v", s.State())
		}
	})

	t.Run("Stop before initial delay", func(t *testing.T) {
		h := newHarness(t)
		s := newTestScheduler(t, h, SchedulerOptions{InitialDelay: time.Hour})
		if err := s.Start(ctx); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		s.Stop()
		if _, ok := s.LastRun(); ok {
			t.Error("no run expected")
		}
	})
}
