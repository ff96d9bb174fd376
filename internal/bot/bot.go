// package bot implements the Telegram conversation: menus, the add-playlist flow and manual checks.
//
// Transport lives in [Telegram]; [Handler] only sees [Update] values and talks back through a [Messenger],
// so the conversation can be driven without a Telegram connection.
package bot

import (
	"context"
	"strings"

	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/tasks"
)

// UpdateKind distinguishes inbound events.
type UpdateKind int

const (
	UpdateMessage UpdateKind = iota
	UpdateCommand
	UpdateCallback
)

// Update is one inbound event from a subscriber.
type Update struct {
	Kind       UpdateKind
	ChatID     int64
	MessageID  int    // message to edit when answering a callback
	CallbackID string // set for callbacks
	Text       string // message text, or the command without its slash
	Data       string // callback data
}

// Button is an inline keyboard button carrying callback data.
type Button struct {
	Text string
	Data string
}

// Menu is an inline keyboard, one slice per row.
type Menu [][]Button

// Messenger sends and edits messages on behalf of the [Handler].
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, menu Menu) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, text string, menu Menu) error
	Answer(ctx context.Context, callbackID, text string) error
}

// CollectionStore is the slice of the store the conversation needs.
type CollectionStore interface {
	Create(ctx context.Context, c *models.TrackedCollection) error
	ListBySubscriber(ctx context.Context, subscriberID int64) ([]*models.TrackedCollection, error)
	SetActiveForSubscriber(ctx context.Context, subscriberID int64, active bool) (int64, error)
	Delete(ctx context.Context, subscriberID int64, id string) error
}

// Checker runs baselines and manual checks.
type Checker interface {
	Baseline(ctx context.Context, c *models.TrackedCollection) (int, error)
	CheckSubscriber(ctx context.Context, subscriberID int64, progress chan<- tasks.ProgressUpdate) (tasks.CheckReport, error)
}

// ParseCommand returns the command name of text like "/start" or "/check@mybot", lowercased.
func ParseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.Fields(text[1:])
	if len(name) == 0 {
		return "", false
	}
	cmd, _, _ := strings.Cut(name[0], "@")
	return strings.ToLower(cmd), cmd != ""
}
