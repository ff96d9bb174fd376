package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytwatch/internal/formatter"
	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/shared"
)

// Notifier sends one message per change not yet in the ledger and records it on success.
type Notifier struct {
	ledger Ledger
	sender Sender
	logger *log.Logger
	now    func() time.Time
}

func NewNotifier(ledger Ledger, sender Sender, logger *log.Logger) *Notifier {
	return &Notifier{
		ledger: ledger,
		sender: sender,
		logger: shared.WithLogger(logger, "component", "notifier"),
		now:    time.Now,
	}
}

// NotifyAndRecord delivers added, removed and renamed changes, in that order, and returns how many were sent.
//
// A failed send leaves the change unmarked so the next cycle retries it. Failures never abort the batch.
func (n *Notifier) NotifyAndRecord(ctx context.Context, subscriberID int64, c *models.TrackedCollection, changes models.ChangeSet) int {
	at := n.now()
	sent := 0

	for _, it := range changes.Added {
		if n.deliver(ctx, subscriberID, c.ID, it.ID, models.KindAdded, func() string {
			return formatter.AddedMessage(c, it, at)
		}) {
			sent++
		}
	}
	for _, it := range changes.Removed {
		if n.deliver(ctx, subscriberID, c.ID, it.ID, models.KindRemoved, func() string {
			return formatter.RemovedMessage(c, it, at)
		}) {
			sent++
		}
	}
	for _, r := range changes.Renamed {
		if n.deliver(ctx, subscriberID, c.ID, r.ItemID, r.Kind(), func() string {
			return formatter.RenamedMessage(c, r, at)
		}) {
			sent++
		}
	}

	if sent > 0 {
		n.logger.Info("notifications sent", "collection", c.ID, "subscriber", subscriberID, "sent", sent, "changes", changes.Len())
	}
	return sent
}

func (n *Notifier) deliver(ctx context.Context, subscriberID int64, collectionID, itemID, kind string, text func() string) bool {
	logger := n.logger.With("collection", collectionID, "item", itemID, "kind", kind)

	notified, err := n.ledger.IsNotified(ctx, itemID, collectionID, kind)
	if err != nil {
		logger.Warn("ledger lookup failed, skipping change", "err", err)
		return false
	}
	if notified {
		return false
	}

	if err := n.sender.SendText(ctx, subscriberID, text()); err != nil {
		logger.Warn("notification not delivered", "err", fmt.Errorf("%w: %w", shared.ErrDeliveryFailed, err))
		return false
	}

	if err := n.ledger.MarkNotified(ctx, itemID, collectionID, kind); err != nil {
		logger.Warn("failed to record notification", "err", err)
	}
	return true
}
