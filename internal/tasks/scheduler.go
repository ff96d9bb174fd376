package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytwatch/internal/shared"
	"github.com/robfig/cron/v3"
)

const (
	DefaultCadence      = "@every 60s"
	DefaultInitialDelay = 10 * time.Second
	DefaultPause        = 2 * time.Second
)

// State is the scheduler's run state.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// SchedulerOptions configures a [Scheduler]. Zero durations fall back to the defaults;
// a negative Pause disables spacing between collections.
type SchedulerOptions struct {
	Cadence          string
	InitialDelay     time.Duration
	Pause            time.Duration
	RespectIntervals bool
	Location         *time.Location
	Logger           *log.Logger
}

// RunReport summarizes one periodic batch.
type RunReport struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Checked   int           `json:"checked"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Notified  int           `json:"notified"`
	Overlap   bool          `json:"overlap,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	State   string     `json:"state"`
	Cadence string     `json:"cadence"`
	Next    *time.Time `json:"next_run,omitempty"`
	LastRun *RunReport `json:"last_run,omitempty"`
}

// Scheduler re-polls every active collection on a cron cadence, one at a time.
type Scheduler struct {
	checker     *Checker
	collections CollectionLister
	opts        SchedulerOptions
	schedule    cron.Schedule
	logger      *log.Logger

	state atomic.Int32

	mu      sync.RWMutex
	cron    *cron.Cron
	entryID cron.EntryID
	cancel  context.CancelFunc
	done    chan struct{}
	last    *RunReport

	now func() time.Time
}

// NewScheduler validates the cadence and builds an idle scheduler.
func NewScheduler(checker *Checker, collections CollectionLister, opts SchedulerOptions) (*Scheduler, error) {
	if opts.Cadence == "" {
		opts.Cadence = DefaultCadence
	}
	if opts.InitialDelay == 0 {
		opts.InitialDelay = DefaultInitialDelay
	}
	if opts.Pause == 0 {
		opts.Pause = DefaultPause
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	schedule, err := cron.ParseStandard(opts.Cadence)
	if err != nil {
		return nil, fmt.Errorf("%w: scheduler.cadence %q: %v", shared.ErrInvalidConfig, opts.Cadence, err)
	}

	return &Scheduler{
		checker:     checker,
		collections: collections,
		opts:        opts,
		schedule:    schedule,
		logger:      shared.WithLogger(opts.Logger, "component", "scheduler"),
		now:         time.Now,
	}, nil
}

// Start runs the first batch after the initial delay and then on every cadence tick.
// Overlapping ticks are skipped. Start returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	cl := cronLogger{s.logger}
	s.cron = cron.New(cron.WithLocation(s.opts.Location), cron.WithLogger(cl))
	job := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() {
		s.RunOnce(ctx)
	}))
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		timer := time.NewTimer(s.opts.InitialDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		s.mu.Lock()
		s.entryID = s.cron.Schedule(s.schedule, job)
		s.cron.Start()
		s.mu.Unlock()
		job.Run()
	}()

	s.logger.Info("scheduler started", "cadence", s.opts.Cadence, "initial_delay", s.opts.InitialDelay, "pause", s.opts.Pause)
	return nil
}

// Stop cancels pending work and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel, done := s.cron, s.cancel, s.done
	s.mu.Unlock()
	if c == nil {
		return
	}

	cancel()
	<-done
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// State returns the current run state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// LastRun returns the most recent completed batch, if any.
func (s *Scheduler) LastRun() (RunReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return RunReport{}, false
	}
	return *s.last, true
}

// Status reports state, next tick and last run.
func (s *Scheduler) Status() Status {
	st := Status{State: s.State().String(), Cadence: s.opts.Cadence}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cron != nil && s.entryID != 0 {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			st.Next = &next
		}
	}
	if s.last != nil {
		last := *s.last
		st.LastRun = &last
	}
	return st
}

// RunOnce polls every active collection in order and returns the batch report.
//
// A failure or panic in one collection is logged and counted without stopping the batch.
// When a batch is already running the call returns at once with Overlap set.
func (s *Scheduler) RunOnce(ctx context.Context) RunReport {
	report := RunReport{RunID: shared.GenerateID(), StartedAt: s.now()}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		report.Overlap = true
		return report
	}
	defer s.state.Store(int32(StateIdle))

	logger := s.logger.With("run_id", report.RunID)

	collections, err := s.collections.ListActive(ctx)
	if err != nil {
		logger.Error("failed to load active collections", "err", err)
		report.Error = err.Error()
		return s.finish(report)
	}

	polled := 0
	for _, c := range collections {
		if s.opts.RespectIntervals && !c.Due(s.now()) {
			report.Skipped++
			continue
		}
		if polled > 0 {
			if err := s.pause(ctx); err != nil {
				report.Error = err.Error()
				break
			}
		} else if err := ctx.Err(); err != nil {
			report.Error = err.Error()
			break
		}
		polled++

		n, err := s.checker.safeCheck(ctx, c)
		if err != nil {
			report.Failed++
			logger.Warn("collection skipped this cycle", "collection", c.ID, "kind", shared.KindOf(err), "err", err)
			continue
		}
		report.Checked++
		report.Notified += n
	}

	report = s.finish(report)
	logger.Info("run finished", "checked", report.Checked, "failed", report.Failed, "skipped", report.Skipped, "notified", report.Notified, "took", report.Duration)
	return report
}

// pause waits the configured gap after the previous check has finished.
func (s *Scheduler) pause(ctx context.Context) error {
	if s.opts.Pause <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.opts.Pause)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) finish(report RunReport) RunReport {
	report.Duration = s.now().Sub(report.StartedAt)
	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()
	return report
}

// cronLogger adapts a [log.Logger] to [cron.Logger].
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "err", err)...)
}
