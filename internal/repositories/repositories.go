// package repositories provides SQLite persistence for tracked playlists, snapshots and the notification ledger.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/ytwatch/internal/shared"
)

// Store bundles the repositories that share one database handle.
type Store struct {
	db            *sql.DB
	Collections   *CollectionRepository
	Items         *ItemRepository
	Notifications *NotificationRepository
}

// NewStore creates a [Store] over db. Migrations must already be applied.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:            db,
		Collections:   NewCollectionRepository(db),
		Items:         NewItemRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return persistErr("ping database", err)
	}
	return nil
}

// persistErr wraps err so callers can match [shared.ErrPersistence].
func persistErr(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", shared.ErrPersistence, op, err)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}
