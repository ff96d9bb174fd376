package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func items(collectionID string, pairs ...string) []models.Item {
	out := make([]models.Item, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.Item{
			ID:           pairs[i],
			CollectionID: collectionID,
			Title:        pairs[i+1],
			Label:        "Channel",
			Position:     i / 2,
		})
	}
	return out
}

func TestCollectionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create and Get", func(t *testing.T) {
		repo := NewCollectionRepository(setupTestDB(t))
		c := models.NewTrackedCollection("PL1", "Mix", 42, 600)

		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("failed to create collection: %v", err)
		}

		got, err := repo.Get(ctx, "PL1")
		if err != nil {
			t.Fatalf("failed to get collection: %v", err)
		}
		if got.Title != "Mix" || got.SubscriberID != 42 || got.IntervalSeconds != 600 || !got.Active {
			t.Errorf("unexpected collection %+v", got)
		}
		if got.LastCheck != nil {
			t.Error("expected nil last check for a new collection")
		}
	})

	t.Run("Create by same owner refreshes", func(t *testing.T) {
		repo := NewCollectionRepository(setupTestDB(t))
		if err := repo.Create(ctx, models.NewTrackedCollection("PL1", "Old", 42, 300)); err != nil {
			t.Fatalf("failed to create collection: %v", err)
		}
		if _, err := repo.SetActive(ctx, "PL1", false); err != nil {
			t.Fatalf("failed to deactivate: %v", err)
		}

		if err := repo.Create(ctx, models.NewTrackedCollection("PL1", "New", 42, 900)); err != nil {
			t.Fatalf("re-adding own collection should succeed: %v", err)
		}

		got, _ := repo.Get(ctx, "PL1")
		if got.Title != "New" || got.IntervalSeconds != 900 || !got.Active {
			t.Errorf("expected refreshed active collection, got %+v", got)
		}
	})

	t.Run("Create by other owner is rejected", func(t *testing.T) {
		repo := NewCollectionRepository(setupTestDB(t))
		if err := repo.Create(ctx, models.NewTrackedCollection("PL1", "Mix", 1, 300)); err != nil {
			t.Fatalf("failed to create collection: %v", err)
		}

		err := repo.Create(ctx, models.NewTrackedCollection("PL1", "Mix", 2, 300))
		if !errors.Is(err, shared.ErrAlreadyTracked) {
			t.Fatalf("expected ErrAlreadyTracked, got %v", err)
		}

		got, _ := repo.Get(ctx, "PL1")
		if got.SubscriberID != 1 {
			t.Errorf("ownership should not change, got %d", got.SubscriberID)
		}
	})

	t.Run("Create validates", func(t *testing.T) {
		repo := NewCollectionRepository(setupTestDB(t))
		if err := repo.Create(ctx, &models.TrackedCollection{ID: "", SubscriberID: 1, IntervalSeconds: 1}); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewCollectionRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "nope"); !errors.Is(err, shared.ErrCollectionNotFound) {
			t.Errorf("expected ErrCollectionNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewCollectionRepository(setupTestDB(t))
		for _, c := range []*models.TrackedCollection{
			models.NewTrackedCollection("A", "a", 1, 300),
			models.NewTrackedCollection("B", "b", 2, 300),
			models.NewTrackedCollection("C", "c", 1, 300),
		} {
			if err := repo.Create(ctx, c); err != nil {
				t.Fatalf("failed to create %s: %v", c.ID, err)
			}
		}
		if _, err := repo.SetActive(ctx, "C", false); err != nil {
			t.Fatalf("failed to deactivate: %v", err)
		}

		mine, err := repo.ListBySubscriber(ctx, 1)
		if err != nil {
			t.Fatalf("ListBySubscriber failed: %v", err)
		}
		if len(mine) != 2 || mine[0].ID != "A" || mine[1].ID != "C" {
			t.Errorf("expected [A C] including inactive, got %v", ids(mine))
		}

		active, err := repo.ListActive(ctx)
		if err != nil {
			t.Fatalf("ListActive failed: %v", err)
		}
		if len(active) != 2 || active[0].ID != "A" || active[1].ID != "B" {
			t.Errorf("expected [A B], got %v", ids(active))
		}

		all, _ := repo.ListAll(ctx)
		if len(all) != 3 {
			t.Errorf("expected 3 collections, got %d", len(all))
		}
	})

	t.Run("SetActiveForSubscriber", func(t *testing.T) {
		repo := NewCollectionRepository(setupTestDB(t))
		repo.Create(ctx, models.NewTrackedCollection("A", "a", 1, 300))
		repo.Create(ctx, models.NewTrackedCollection("B", "b", 1, 300))
		repo.Create(ctx, models.NewTrackedCollection("C", "c", 2, 300))

		n, err := repo.SetActiveForSubscriber(ctx, 1, false)
		if err != nil {
			t.Fatalf("SetActiveForSubscriber failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 rows changed, got %d", n)
		}

		active, _ := repo.ListActive(ctx)
		if len(active) != 1 || active[0].ID != "C" {
			t.Errorf("expected only C active, got %v", ids(active))
		}
	})

	t.Run("SetInterval", func(t *testing.T) {
		repo := NewCollectionRepository(setupTestDB(t))
		repo.Create(ctx, models.NewTrackedCollection("A", "a", 1, 300))

		ok, err := repo.SetInterval(ctx, "A", 3600)
		if err != nil || !ok {
			t.Fatalf("SetInterval failed: ok=%v err=%v", ok, err)
		}
		got, _ := repo.Get(ctx, "A")
		if got.IntervalSeconds != 3600 {
			t.Errorf("expected 3600, got %d", got.IntervalSeconds)
		}

		if ok, _ := repo.SetInterval(ctx, "missing", 60); ok {
			t.Error("expected false for unknown collection")
		}
		if _, err := repo.SetInterval(ctx, "A", 0); err == nil {
			t.Error("expected error for non-positive interval")
		}
	})

	t.Run("Delete cascades", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)
		store.Collections.Create(ctx, models.NewTrackedCollection("A", "a", 1, 300))
		if err := store.Items.ReplaceSnapshot(ctx, "A", items("A", "v1", "one", "v2", "two"), time.Now()); err != nil {
			t.Fatalf("ReplaceSnapshot failed: %v", err)
		}
		store.Notifications.MarkNotified(ctx, "v1", "A", models.KindAdded)

		if err := store.Collections.Delete(ctx, 2, "A"); !errors.Is(err, shared.ErrNotOwner) {
			t.Fatalf("expected ErrNotOwner for foreign subscriber, got %v", err)
		}

		if err := store.Collections.Delete(ctx, 1, "A"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		if _, err := store.Collections.Get(ctx, "A"); !errors.Is(err, shared.ErrCollectionNotFound) {
			t.Errorf("expected collection to be gone, got %v", err)
		}
		if n, _ := store.Items.Count(ctx, "A"); n != 0 {
			t.Errorf("expected snapshot to be gone, got %d items", n)
		}
		if ok, _ := store.Notifications.IsNotified(ctx, "v1", "A", models.KindAdded); ok {
			t.Error("expected ledger rows to be gone")
		}

		if err := store.Collections.Delete(ctx, 1, "A"); !errors.Is(err, shared.ErrNotOwner) {
			t.Errorf("expected ErrNotOwner for missing collection, got %v", err)
		}
	})
}

func TestItemRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("ReplaceSnapshot round trip", func(t *testing.T) {
		store := NewStore(setupTestDB(t))
		store.Collections.Create(ctx, models.NewTrackedCollection("A", "a", 1, 300))

		empty, err := store.Items.Snapshot(ctx, "A")
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("expected empty snapshot, got %d", len(empty))
		}

		checkedAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		if err := store.Items.ReplaceSnapshot(ctx, "A", items("A", "v1", "one", "v2", "two"), checkedAt); err != nil {
			t.Fatalf("ReplaceSnapshot failed: %v", err)
		}

		snap, _ := store.Items.Snapshot(ctx, "A")
		if len(snap) != 2 || snap[0].ID != "v1" || snap[1].ID != "v2" {
			t.Fatalf("unexpected snapshot %+v", snap)
		}
		if snap[1].Position != 1 || snap[1].URL != "https://www.youtube.com/watch?v=v2" {
			t.Errorf("unexpected item %+v", snap[1])
		}

		c, _ := store.Collections.Get(ctx, "A")
		if c.LastCheck == nil || !c.LastCheck.Equal(checkedAt) {
			t.Errorf("expected last check %v, got %v", checkedAt, c.LastCheck)
		}
	})

	t.Run("ReplaceSnapshot overwrites", func(t *testing.T) {
		store := NewStore(setupTestDB(t))
		store.Collections.Create(ctx, models.NewTrackedCollection("A", "a", 1, 300))
		store.Items.ReplaceSnapshot(ctx, "A", items("A", "v1", "one", "v2", "two"), time.Now())
		store.Items.ReplaceSnapshot(ctx, "A", items("A", "v3", "three"), time.Now())

		snap, _ := store.Items.Snapshot(ctx, "A")
		if len(snap) != 1 || snap[0].ID != "v3" {
			t.Errorf("expected only v3, got %+v", snap)
		}
	})

	t.Run("duplicate ids keep first occurrence", func(t *testing.T) {
		store := NewStore(setupTestDB(t))
		store.Collections.Create(ctx, models.NewTrackedCollection("A", "a", 1, 300))
		batch := items("A", "v1", "first", "v2", "two", "v1", "second")

		if err := store.Items.ReplaceSnapshot(ctx, "A", batch, time.Now()); err != nil {
			t.Fatalf("ReplaceSnapshot failed: %v", err)
		}

		snap, _ := store.Items.Snapshot(ctx, "A")
		if len(snap) != 2 || snap[0].Title != "first" {
			t.Errorf("expected first occurrence to win, got %+v", snap)
		}
	})

	t.Run("ReplaceSnapshot after Delete stores nothing", func(t *testing.T) {
		store := NewStore(setupTestDB(t))
		store.Collections.Create(ctx, models.NewTrackedCollection("A", "a", 1, 300))
		if err := store.Collections.Delete(ctx, 1, "A"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		err := store.Items.ReplaceSnapshot(ctx, "A", items("A", "v1", "one", "v2", "two"), time.Now())
		if !errors.Is(err, shared.ErrCollectionNotFound) {
			t.Errorf("expected ErrCollectionNotFound, got %v", err)
		}
		if n, _ := store.Items.Count(ctx, "A"); n != 0 {
			t.Errorf("expected no orphan items, got %d", n)
		}

		if err := store.Notifications.MarkNotified(ctx, "v1", "A", models.KindAdded); err != nil {
			t.Fatalf("MarkNotified failed: %v", err)
		}
		if ok, _ := store.Notifications.IsNotified(ctx, "v1", "A", models.KindAdded); ok {
			t.Error("expected no orphan ledger row")
		}
	})

	t.Run("orphan rows are rejected by the schema", func(t *testing.T) {
		db := setupTestDB(t)
		_, err := db.ExecContext(ctx, `INSERT INTO videos (video_id, playlist_id, title) VALUES ('v1', 'missing', 'x')`)
		if err == nil {
			t.Error("expected a foreign key violation")
		}
	})

	t.Run("snapshots are per collection", func(t *testing.T) {
		store := NewStore(setupTestDB(t))
		store.Collections.Create(ctx, models.NewTrackedCollection("A", "a", 1, 300))
		store.Collections.Create(ctx, models.NewTrackedCollection("B", "b", 1, 300))
		store.Items.ReplaceSnapshot(ctx, "A", items("A", "v1", "one"), time.Now())
		store.Items.ReplaceSnapshot(ctx, "B", items("B", "v1", "uno", "v2", "dos"), time.Now())

		if n, _ := store.Items.Count(ctx, "A"); n != 1 {
			t.Errorf("expected 1 item in A, got %d", n)
		}
		if n, _ := store.Items.Count(ctx, "B"); n != 2 {
			t.Errorf("expected 2 items in B, got %d", n)
		}
	})
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	if err := NewCollectionRepository(db).Create(ctx, models.NewTrackedCollection("A", "a", 1, 300)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	repo := NewNotificationRepository(db)

	ok, err := repo.IsNotified(ctx, "v1", "A", models.KindAdded)
	if err != nil {
		t.Fatalf("IsNotified failed: %v", err)
	}
	if ok {
		t.Error("expected nothing notified yet")
	}

	for range 2 {
		if err := repo.MarkNotified(ctx, "v1", "A", models.KindAdded); err != nil {
			t.Fatalf("MarkNotified should be idempotent: %v", err)
		}
	}

	if ok, _ := repo.IsNotified(ctx, "v1", "A", models.KindAdded); !ok {
		t.Error("expected change to be notified")
	}
	if ok, _ := repo.IsNotified(ctx, "v1", "A", models.KindRemoved); ok {
		t.Error("kinds are independent")
	}
	if ok, _ := repo.IsNotified(ctx, "v1", "B", models.KindAdded); ok {
		t.Error("collections are independent")
	}

	repo.MarkNotified(ctx, "v1", "A", models.TitleKind("x", "y"))
	list, err := repo.ListByCollection(ctx, "A")
	if err != nil {
		t.Fatalf("ListByCollection failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 ledger rows, got %d", len(list))
	}
}

func TestStorePing(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	db.Close()
	if err := store.Ping(context.Background()); !errors.Is(err, shared.ErrPersistence) {
		t.Errorf("expected ErrPersistence after close, got %v", err)
	}
}

func ids(cs []*models.TrackedCollection) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
