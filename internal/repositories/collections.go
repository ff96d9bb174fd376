package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/shared"
)

const collectionColumns = `playlist_id, playlist_title, user_id, check_interval, is_active, last_check, created_at`

// CollectionRepository persists [models.TrackedCollection] rows in the playlists table.
type CollectionRepository struct {
	db *sql.DB
}

// NewCollectionRepository creates a new CollectionRepository with the given database connection
func NewCollectionRepository(db *sql.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Create tracks a collection for its subscriber.
//
// Re-adding a collection the subscriber already tracks refreshes its title and interval
// and re-activates it, keeping the stored snapshot. A collection owned by a different
// subscriber is rejected with [shared.ErrAlreadyTracked].
func (r *CollectionRepository) Create(ctx context.Context, c *models.TrackedCollection) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin transaction", err)
	}
	defer tx.Rollback()

	var owner int64
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM playlists WHERE playlist_id = ?`, c.ID).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO playlists (playlist_id, playlist_title, user_id, check_interval, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.Title, c.SubscriberID, c.IntervalSeconds, c.Active, c.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", shared.ErrAlreadyTracked, c.ID)
			}
			return persistErr("insert playlist", err)
		}
	case err != nil:
		return persistErr("look up playlist owner", err)
	case owner != c.SubscriberID:
		return fmt.Errorf("%w: %s", shared.ErrAlreadyTracked, c.ID)
	default:
		c.Active = true
		_, err = tx.ExecContext(ctx, `
			UPDATE playlists SET playlist_title = ?, check_interval = ?, is_active = 1
			WHERE playlist_id = ?`,
			c.Title, c.IntervalSeconds, c.ID,
		)
		if err != nil {
			return persistErr("update playlist", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return persistErr("commit playlist", err)
	}
	return nil
}

// Get retrieves a collection by its playlist id.
func (r *CollectionRepository) Get(ctx context.Context, id string) (*models.TrackedCollection, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM playlists WHERE playlist_id = ?`, id)
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrCollectionNotFound, id)
	}
	if err != nil {
		return nil, persistErr("get playlist", err)
	}
	return c, nil
}

// ListBySubscriber returns every collection the subscriber owns, active or not, oldest first.
func (r *CollectionRepository) ListBySubscriber(ctx context.Context, subscriberID int64) ([]*models.TrackedCollection, error) {
	return r.list(ctx, `WHERE user_id = ?`, subscriberID)
}

// ListActive returns every active collection across subscribers in insertion order.
func (r *CollectionRepository) ListActive(ctx context.Context) ([]*models.TrackedCollection, error) {
	return r.list(ctx, `WHERE is_active = 1`)
}

// ListAll returns every collection.
func (r *CollectionRepository) ListAll(ctx context.Context) ([]*models.TrackedCollection, error) {
	return r.list(ctx, ``)
}

// SetActive toggles one collection. Reports false when the id is unknown.
func (r *CollectionRepository) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	return r.update(ctx, "set active", `UPDATE playlists SET is_active = ? WHERE playlist_id = ?`, active, id)
}

// SetActiveForSubscriber toggles every collection of a subscriber and returns how many rows changed.
func (r *CollectionRepository) SetActiveForSubscriber(ctx context.Context, subscriberID int64, active bool) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE playlists SET is_active = ? WHERE user_id = ?`, active, subscriberID)
	if err != nil {
		return 0, persistErr("set active for subscriber", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistErr("get affected rows", err)
	}
	return n, nil
}

// SetInterval stores a new polling interval in seconds. Reports false when the id is unknown.
func (r *CollectionRepository) SetInterval(ctx context.Context, id string, seconds int) (bool, error) {
	if seconds <= 0 {
		return false, fmt.Errorf("%w: interval must be positive", shared.ErrInvalidArgument)
	}
	return r.update(ctx, "set interval", `UPDATE playlists SET check_interval = ? WHERE playlist_id = ?`, seconds, id)
}

// Delete removes a collection owned by subscriberID together with its snapshot and ledger rows.
//
// Returns [shared.ErrNotOwner] when the subscriber does not track the collection.
func (r *CollectionRepository) Delete(ctx context.Context, subscriberID int64, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin transaction", err)
	}
	defer tx.Rollback()

	var owner int64
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM playlists WHERE playlist_id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != subscriberID) {
		return fmt.Errorf("%w: %s", shared.ErrNotOwner, id)
	}
	if err != nil {
		return persistErr("look up playlist owner", err)
	}

	for _, stmt := range []string{
		`DELETE FROM videos WHERE playlist_id = ?`,
		`DELETE FROM notified_changes WHERE playlist_id = ?`,
		`DELETE FROM playlists WHERE playlist_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return persistErr("delete playlist", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return persistErr("commit delete", err)
	}
	return nil
}

func (r *CollectionRepository) update(ctx context.Context, op, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, persistErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, persistErr("get affected rows", err)
	}
	return n > 0, nil
}

func (r *CollectionRepository) list(ctx context.Context, where string, args ...any) ([]*models.TrackedCollection, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+collectionColumns+` FROM playlists `+where+` ORDER BY id ASC`, args...)
	if err != nil {
		return nil, persistErr("query playlists", err)
	}
	defer rows.Close()

	var collections []*models.TrackedCollection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, persistErr("scan playlist", err)
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate playlists", err)
	}
	return collections, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCollection(s scanner) (*models.TrackedCollection, error) {
	var (
		c         models.TrackedCollection
		lastCheck sql.NullTime
	)
	if err := s.Scan(&c.ID, &c.Title, &c.SubscriberID, &c.IntervalSeconds, &c.Active, &lastCheck, &c.CreatedAt); err != nil {
		return nil, err
	}
	if lastCheck.Valid {
		t := lastCheck.Time
		c.LastCheck = &t
	}
	return &c, nil
}
