// package models defines the data model for the playlist watcher
package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultIntervalSeconds is the polling interval assigned when none is chosen.
	DefaultIntervalSeconds = 300
	// UnknownText fills titles and labels the provider leaves empty.
	UnknownText = "Unknown"

	watchURLPrefix = "https://www.youtube.com/watch?v="
	titleKindLimit = 50
)

// TrackedCollection is a playlist watched on behalf of one subscriber.
type TrackedCollection struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	SubscriberID    int64      `json:"subscriber_id"`
	IntervalSeconds int        `json:"interval_seconds"`
	Active          bool       `json:"active"`
	LastCheck       *time.Time `json:"last_check,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewTrackedCollection builds an active collection, falling back to [DefaultIntervalSeconds].
func NewTrackedCollection(id, title string, subscriberID int64, intervalSeconds int) *TrackedCollection {
	if intervalSeconds <= 0 {
		intervalSeconds = DefaultIntervalSeconds
	}
	return &TrackedCollection{
		ID:              id,
		Title:           title,
		SubscriberID:    subscriberID,
		IntervalSeconds: intervalSeconds,
		Active:          true,
		CreatedAt:       time.Now().UTC(),
	}
}

// Validate checks the identity fields.
func (c *TrackedCollection) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("collection id is required")
	}
	if c.SubscriberID == 0 {
		return errors.New("subscriber id is required")
	}
	if c.IntervalSeconds <= 0 {
		return errors.New("interval must be positive")
	}
	return nil
}

// Due reports whether the collection's own interval has elapsed at now.
// A collection that was never checked is always due.
func (c *TrackedCollection) Due(now time.Time) bool {
	if c.LastCheck == nil {
		return true
	}
	return !c.LastCheck.Add(time.Duration(c.IntervalSeconds) * time.Second).After(now)
}

// Item is one entry of a collection snapshot.
type Item struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collection_id"`
	Title        string    `json:"title"`
	Label        string    `json:"label"`
	Position     int       `json:"position"`
	URL          string    `json:"url"`
	AddedAt      time.Time `json:"added_at"`
}

// WatchURL builds the public watch link for an item id.
func WatchURL(itemID string) string {
	return watchURLPrefix + itemID
}

// Link returns the stored URL or the constructed watch link.
func (i Item) Link() string {
	if i.URL != "" {
		return i.URL
	}
	return WatchURL(i.ID)
}

// Rename is a title change observed on an item present in both snapshots.
type Rename struct {
	ItemID   string `json:"item_id"`
	OldTitle string `json:"old_title"`
	NewTitle string `json:"new_title"`
	Label    string `json:"label"`
	URL      string `json:"url"`
}

// Kind returns the ledger kind identifying this particular transition.
func (r Rename) Kind() string {
	return TitleKind(r.OldTitle, r.NewTitle)
}

// ChangeSet is the classified difference between two snapshots.
type ChangeSet struct {
	Added   []Item   `json:"added"`
	Removed []Item   `json:"removed"`
	Renamed []Rename `json:"renamed"`
}

// Empty reports whether nothing changed.
func (c ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Renamed) == 0
}

// Len is the total number of changes.
func (c ChangeSet) Len() int {
	return len(c.Added) + len(c.Removed) + len(c.Renamed)
}

// NotifiedChange is a ledger row marking a change as already delivered.
type NotifiedChange struct {
	ItemID       string    `json:"item_id"`
	CollectionID string    `json:"collection_id"`
	Kind         string    `json:"kind"`
	NotifiedAt   time.Time `json:"notified_at"`
}

const (
	KindAdded   = "added"
	KindRemoved = "removed"
)

// TitleKind fingerprints a title transition as "title_" plus the first 50 characters of old+"_"+new.
func TitleKind(oldTitle, newTitle string) string {
	joined := oldTitle + "_" + newTitle
	if utf8.RuneCountInString(joined) > titleKindLimit {
		joined = string([]rune(joined)[:titleKindLimit])
	}
	return "title_" + joined
}
