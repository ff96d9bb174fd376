package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/shared"
)

// ItemRepository stores the last observed snapshot of each collection in the videos table.
type ItemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new ItemRepository with the given database connection
func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Snapshot returns the stored items of a collection ordered by position.
//
// An empty slice means the collection has never been polled successfully (or was empty).
func (r *ItemRepository) Snapshot(ctx context.Context, collectionID string) ([]models.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT video_id, playlist_id, title, channel_name, position, added_at
		FROM videos
		WHERE playlist_id = ?
		ORDER BY position ASC, id ASC`, collectionID)
	if err != nil {
		return nil, persistErr("query videos", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.CollectionID, &it.Title, &it.Label, &it.Position, &it.AddedAt); err != nil {
			return nil, persistErr("scan video", err)
		}
		it.URL = models.WatchURL(it.ID)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate videos", err)
	}
	return items, nil
}

// ReplaceSnapshot atomically swaps the stored items for a collection and stamps its last check.
//
// Items repeating an id already in the batch are dropped so the first occurrence wins.
// A collection removed while it was being polled yields [shared.ErrCollectionNotFound] and
// nothing is written.
func (r *ItemRepository) ReplaceSnapshot(ctx context.Context, collectionID string, items []models.Item, checkedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE playlists SET last_check = ? WHERE playlist_id = ?`, checkedAt.UTC(), collectionID)
	if err != nil {
		return persistErr("update last check", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return persistErr("update last check", err)
	} else if n == 0 {
		return fmt.Errorf("%w: %s", shared.ErrCollectionNotFound, collectionID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE playlist_id = ?`, collectionID); err != nil {
		return persistErr("clear videos", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO videos (video_id, playlist_id, title, channel_name, position, added_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return persistErr("prepare video insert", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, it := range items {
		addedAt := it.AddedAt
		if addedAt.IsZero() {
			addedAt = now
		}
		if _, err := stmt.ExecContext(ctx, it.ID, collectionID, it.Title, it.Label, it.Position, addedAt); err != nil {
			return persistErr("insert video", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return persistErr("commit snapshot", err)
	}
	return nil
}

// Count returns the number of stored items for a collection.
func (r *ItemRepository) Count(ctx context.Context, collectionID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos WHERE playlist_id = ?`, collectionID).Scan(&n); err != nil {
		return 0, persistErr("count videos", err)
	}
	return n, nil
}
