package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/services"
	"github.com/desertthunder/ytwatch/internal/shared"
)

// CheckerOptions configures a [Checker].
type CheckerOptions struct {
	Source      services.Source
	Snapshots   SnapshotStore
	Collections CollectionLister
	Notifier    *Notifier
	MaxResults  int
	Logger      *log.Logger
}

// Checker runs the poll pipeline for one collection: fetch, diff against the stored snapshot,
// notify, then replace the snapshot.
type Checker struct {
	source      services.Source
	snapshots   SnapshotStore
	collections CollectionLister
	notifier    *Notifier
	maxResults  int
	logger      *log.Logger
	locks       *keyedMutex
	now         func() time.Time
}

// CollectionError is a collection that could not be checked.
type CollectionError struct {
	CollectionID string `json:"collection_id"`
	Err          error  `json:"-"`
	Message      string `json:"error"`
}

// CheckReport aggregates a manual check.
type CheckReport struct {
	Checked  int               `json:"checked"`
	Failed   int               `json:"failed"`
	Notified int               `json:"notified"`
	Errors   []CollectionError `json:"errors,omitempty"`
}

func NewChecker(opts CheckerOptions) *Checker {
	if opts.MaxResults <= 0 {
		opts.MaxResults = services.DefaultMaxResults
	}
	return &Checker{
		source:      opts.Source,
		snapshots:   opts.Snapshots,
		collections: opts.Collections,
		notifier:    opts.Notifier,
		maxResults:  opts.MaxResults,
		logger:      shared.WithLogger(opts.Logger, "component", "checker"),
		locks:       newKeyedMutex(),
		now:         time.Now,
	}
}

// CheckCollection polls c and returns the number of notifications sent.
//
// A fetch error is returned with the stored snapshot left untouched. The first poll of a
// collection only stores a baseline.
func (ch *Checker) CheckCollection(ctx context.Context, c *models.TrackedCollection) (int, error) {
	unlock := ch.locks.lock(c.ID)
	defer unlock()

	logger := ch.logger.With("collection", c.ID)

	items, err := ch.source.FetchItems(ctx, c.ID, ch.maxResults)
	if err != nil {
		logger.Error("fetch failed, keeping snapshot", "err", err)
		return 0, fmt.Errorf("failed to fetch %s: %w", c.ID, err)
	}

	prev, err := ch.snapshots.Snapshot(ctx, c.ID)
	if err != nil {
		return 0, err
	}

	if len(prev) == 0 {
		if err := ch.snapshots.ReplaceSnapshot(ctx, c.ID, items, ch.now()); err != nil {
			return 0, err
		}
		logger.Info("baseline stored", "items", len(items))
		return 0, nil
	}

	changes := Compare(prev, items)
	sent := 0
	if !changes.Empty() {
		logger.Debug("changes detected", "added", len(changes.Added), "removed", len(changes.Removed), "renamed", len(changes.Renamed))
		sent = ch.notifier.NotifyAndRecord(ctx, c.SubscriberID, c, changes)
	}

	if err := ch.snapshots.ReplaceSnapshot(ctx, c.ID, items, ch.now()); err != nil {
		return sent, err
	}
	return sent, nil
}

// Baseline fetches c and stores the result as its snapshot without notifying.
// It returns the number of stored items.
func (ch *Checker) Baseline(ctx context.Context, c *models.TrackedCollection) (int, error) {
	unlock := ch.locks.lock(c.ID)
	defer unlock()

	items, err := ch.source.FetchItems(ctx, c.ID, ch.maxResults)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s: %w", c.ID, err)
	}
	if err := ch.snapshots.ReplaceSnapshot(ctx, c.ID, items, ch.now()); err != nil {
		return 0, err
	}
	return len(items), nil
}

// CheckSubscriber runs the pipeline for every collection of a subscriber, inactive ones included.
// Per-collection failures are collected in the report; only a failure to list collections is returned.
func (ch *Checker) CheckSubscriber(ctx context.Context, subscriberID int64, progress chan<- ProgressUpdate) (CheckReport, error) {
	var report CheckReport

	sendProgress(progress, loadCollectionsUpdate())
	collections, err := ch.collections.ListBySubscriber(ctx, subscriberID)
	if err != nil {
		return report, err
	}

	total := len(collections)
	for i, c := range collections {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		sendProgress(progress, checkCollectionUpdate(i+1, total, c))
		n, err := ch.safeCheck(ctx, c)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, CollectionError{CollectionID: c.ID, Err: err, Message: err.Error()})
			sendProgress(progress, checkFailedUpdate(i+1, total, c, err))
			continue
		}
		report.Checked++
		report.Notified += n
		sendProgress(progress, checkDoneUpdate(i+1, total, c, n))
	}

	ch.logger.Info("manual check finished", "subscriber", subscriberID, "checked", report.Checked, "failed", report.Failed, "notified", report.Notified)
	return report, nil
}

// safeCheck runs [Checker.CheckCollection], turning a panic into an error.
func (ch *Checker) safeCheck(ctx context.Context, c *models.TrackedCollection) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			ch.logger.Error("check panicked", "collection", c.ID, "panic", r)
			err = fmt.Errorf("panic while checking %s: %v", c.ID, r)
		}
	}()
	return ch.CheckCollection(ctx, c)
}

// keyedMutex hands out one mutex per key, dropping it once nobody holds or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
