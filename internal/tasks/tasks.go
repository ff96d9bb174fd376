package tasks

import (
	"context"
	"time"

	"github.com/desertthunder/ytwatch/internal/models"
)

// Sender delivers a text message to a subscriber.
type Sender interface {
	SendText(ctx context.Context, subscriberID int64, text string) error
}

// Ledger records which changes were already delivered.
//
// Satisfied by repositories.NotificationRepository.
type Ledger interface {
	IsNotified(ctx context.Context, itemID, collectionID, kind string) (bool, error)
	MarkNotified(ctx context.Context, itemID, collectionID, kind string) error
}

// SnapshotStore reads and atomically replaces a collection's stored items.
//
// Satisfied by repositories.ItemRepository.
type SnapshotStore interface {
	Snapshot(ctx context.Context, collectionID string) ([]models.Item, error)
	ReplaceSnapshot(ctx context.Context, collectionID string, items []models.Item, checkedAt time.Time) error
}

// CollectionLister lists tracked collections.
//
// Satisfied by repositories.CollectionRepository.
type CollectionLister interface {
	ListActive(ctx context.Context) ([]*models.TrackedCollection, error)
	ListBySubscriber(ctx context.Context, subscriberID int64) ([]*models.TrackedCollection, error)
}

// Compare classifies the difference between two snapshots by item id.
//
// Duplicate ids keep their first occurrence. Added and renamed follow the order of next,
// removed follows the order of prev. Position changes are not reported.
func Compare(prev, next []models.Item) models.ChangeSet {
	prevByID := indexItems(prev)
	nextByID := indexItems(next)

	var changes models.ChangeSet
	seen := make(map[string]bool, len(next))
	for _, it := range next {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true

		old, ok := prevByID[it.ID]
		if !ok {
			changes.Added = append(changes.Added, it)
			continue
		}
		if old.Title != it.Title {
			changes.Renamed = append(changes.Renamed, models.Rename{
				ItemID:   it.ID,
				OldTitle: old.Title,
				NewTitle: it.Title,
				Label:    it.Label,
				URL:      it.Link(),
			})
		}
	}

	clear(seen)
	for _, it := range prev {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		if _, ok := nextByID[it.ID]; !ok {
			changes.Removed = append(changes.Removed, it)
		}
	}
	return changes
}

func indexItems(items []models.Item) map[string]models.Item {
	out := make(map[string]models.Item, len(items))
	for _, it := range items {
		if _, dup := out[it.ID]; !dup {
			out[it.ID] = it
		}
	}
	return out
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
