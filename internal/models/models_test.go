package models

import (
	"strings"
	"testing"
	"time"
)

func TestTitleKind(t *testing.T) {
	t.Run("short titles", func(t *testing.T) {
		if got := TitleKind("A", "B"); got != "title_A_B" {
			t.Errorf("TitleKind() = %q", got)
		}
	})

	t.Run("truncates to 50 characters", func(t *testing.T) {
		got := TitleKind(strings.Repeat("x", 40), strings.Repeat("y", 40))
		want := "title_" + strings.Repeat("x", 40) + "_" + strings.Repeat("y", 9)
		if got != want {
			t.Errorf("TitleKind() = %q, want %q", got, want)
		}
	})

	t.Run("distinct transitions differ", func(t *testing.T) {
		if TitleKind("A", "B") == TitleKind("B", "C") {
			t.Error("expected distinct kinds for distinct transitions")
		}
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		got := TitleKind(strings.Repeat("é", 60), "")
		if n := len([]rune(strings.TrimPrefix(got, "title_"))); n != 50 {
			t.Errorf("expected 50 runes, got %d", n)
		}
	})
}

func TestTrackedCollection(t *testing.T) {
	t.Run("NewTrackedCollection defaults", func(t *testing.T) {
		c := NewTrackedCollection("PL1", "Mix", 7, 0)
		if c.IntervalSeconds != DefaultIntervalSeconds {
			t.Errorf("expected default interval, got %d", c.IntervalSeconds)
		}
		if !c.Active {
			t.Error("expected new collection to be active")
		}
		if err := c.Validate(); err != nil {
			t.Errorf("unexpected validation error: %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := (&TrackedCollection{SubscriberID: 1, IntervalSeconds: 60}).Validate(); err == nil {
			t.Error("expected error for missing id")
		}
		if err := (&TrackedCollection{ID: "PL1", IntervalSeconds: 60}).Validate(); err == nil {
			t.Error("expected error for missing subscriber")
		}
	})

	t.Run("Due", func(t *testing.T) {
		now := time.Now()
		c := NewTrackedCollection("PL1", "", 1, 300)
		if !c.Due(now) {
			t.Error("never-checked collection should be due")
		}

		recent := now.Add(-time.Minute)
		c.LastCheck = &recent
		if c.Due(now) {
			t.Error("collection checked a minute ago should not be due")
		}

		old := now.Add(-5 * time.Minute)
		c.LastCheck = &old
		if !c.Due(now) {
			t.Error("collection checked exactly one interval ago should be due")
		}
	})
}

func TestItemLink(t *testing.T) {
	if got := (Item{ID: "abc"}).Link(); got != "https://www.youtube.com/watch?v=abc" {
		t.Errorf("Link() = %q", got)
	}
	if got := (Item{ID: "abc", URL: "https://example.com/x"}).Link(); got != "https://example.com/x" {
		t.Errorf("Link() = %q", got)
	}
}
