package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/desertthunder/ytwatch/internal/models"
)

// NotificationRepository is the dedup ledger of delivered changes.
//
// Rows are keyed by (video, playlist, kind); marking an already present key is a no-op.
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new NotificationRepository with the given database connection
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// IsNotified reports whether the change was already delivered.
func (r *NotificationRepository) IsNotified(ctx context.Context, itemID, collectionID, kind string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM notified_changes WHERE video_id = ? AND playlist_id = ? AND change_type = ?
		)`, itemID, collectionID, kind).Scan(&exists)
	if err != nil {
		return false, persistErr("check ledger", err)
	}
	return exists, nil
}

// MarkNotified records a delivered change. Nothing is stored once the collection is gone.
func (r *NotificationRepository) MarkNotified(ctx context.Context, itemID, collectionID, kind string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO notified_changes (video_id, playlist_id, change_type, notified_at)
		SELECT ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM playlists WHERE playlist_id = ?)`,
		itemID, collectionID, kind, time.Now().UTC(), collectionID)
	if err != nil {
		return persistErr("mark notified", err)
	}
	return nil
}

// ListByCollection returns the ledger of a collection, newest first.
func (r *NotificationRepository) ListByCollection(ctx context.Context, collectionID string) ([]models.NotifiedChange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT video_id, playlist_id, change_type, notified_at
		FROM notified_changes
		WHERE playlist_id = ?
		ORDER BY notified_at DESC, id DESC`, collectionID)
	if err != nil {
		return nil, persistErr("query ledger", err)
	}
	defer rows.Close()

	var changes []models.NotifiedChange
	for rows.Next() {
		var c models.NotifiedChange
		if err := rows.Scan(&c.ItemID, &c.CollectionID, &c.Kind, &c.NotifiedAt); err != nil {
			return nil, persistErr("scan ledger", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate ledger", err)
	}
	return changes, nil
}
