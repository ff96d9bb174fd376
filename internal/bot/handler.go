package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytwatch/internal/formatter"
	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/services"
	"github.com/desertthunder/ytwatch/internal/shared"
)

// HandlerOptions wires a [Handler].
type HandlerOptions struct {
	Collections CollectionStore
	Source      services.Source
	Checker     Checker
	Sessions    *Sessions
	Messenger   Messenger
	Logger      *log.Logger
}

// Handler drives the conversation for every subscriber.
type Handler struct {
	collections CollectionStore
	source      services.Source
	checker     Checker
	sessions    *Sessions
	out         Messenger
	logger      *log.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	if opts.Sessions == nil {
		opts.Sessions = NewSessions(DefaultSessionTTL)
	}
	return &Handler{
		collections: opts.Collections,
		source:      opts.Source,
		checker:     opts.Checker,
		sessions:    opts.Sessions,
		out:         opts.Messenger,
		logger:      shared.WithLogger(opts.Logger, "component", "bot"),
	}
}

// Handle processes one update. Errors are reported to the subscriber where possible
// and returned for logging; they never concern other subscribers.
func (h *Handler) Handle(ctx context.Context, u Update) error {
	switch u.Kind {
	case UpdateCallback:
		if err := h.out.Answer(ctx, u.CallbackID, ""); err != nil {
			h.logger.Debug("callback answer failed", "err", err)
		}
		return h.handleCallback(ctx, u)
	case UpdateCommand:
		return h.handleCommand(ctx, u)
	default:
		if cmd, ok := ParseCommand(u.Text); ok {
			u.Kind, u.Text = UpdateCommand, cmd
			return h.handleCommand(ctx, u)
		}
		return h.handleText(ctx, u)
	}
}

func (h *Handler) handleCommand(ctx context.Context, u Update) error {
	switch strings.TrimPrefix(u.Text, "/") {
	case "start":
		h.sessions.Clear(u.ChatID)
		return h.reply(ctx, u, welcomeText, mainMenu())
	case "help":
		return h.reply(ctx, u, helpText, backMenu())
	case "list":
		return h.list(ctx, u)
	case "check":
		return h.check(ctx, u)
	case "add":
		return h.startAdd(ctx, u)
	case "cancel":
		return h.cancel(ctx, u)
	default:
		return h.reply(ctx, u, promptText, mainMenu())
	}
}

func (h *Handler) handleCallback(ctx context.Context, u Update) error {
	switch data := u.Data; {
	case data == ActionMainMenu:
		return h.reply(ctx, u, mainMenuText, mainMenu())
	case data == ActionAdd:
		return h.startAdd(ctx, u)
	case data == ActionRemove:
		return h.removeMenu(ctx, u)
	case strings.HasPrefix(data, deletePrefix):
		return h.remove(ctx, u, strings.TrimPrefix(data, deletePrefix))
	case data == ActionList:
		return h.list(ctx, u)
	case data == ActionCheck:
		return h.check(ctx, u)
	case data == ActionStartMonitor:
		return h.setMonitoring(ctx, u, true)
	case data == ActionStopMonitor:
		return h.setMonitoring(ctx, u, false)
	case data == ActionHelp:
		return h.reply(ctx, u, helpText, backMenu())
	case data == ActionCancel:
		return h.cancel(ctx, u)
	case strings.HasPrefix(data, intervalPrefix):
		return h.chooseInterval(ctx, u, strings.TrimPrefix(data, intervalPrefix))
	default:
		h.logger.Debug("unknown callback", "data", data)
		return h.reply(ctx, u, mainMenuText, mainMenu())
	}
}

func (h *Handler) handleText(ctx context.Context, u Update) error {
	if h.sessions.Get(u.ChatID).Step != StepAwaitingReference {
		return h.reply(ctx, u, promptText, mainMenu())
	}

	id, err := services.ParseReference(u.Text)
	if err != nil {
		return h.reply(ctx, u, "❌ "+shared.UserMessage(err)+"\n\nSend a valid link:", cancelMenu())
	}

	if _, err := h.out.Send(ctx, u.ChatID, "🔍 Checking playlist...", nil); err != nil {
		h.logger.Debug("progress message failed", "err", err)
	}

	title, err := h.source.ValidateCollection(ctx, id)
	if err != nil {
		h.sessions.Clear(u.ChatID)
		h.logger.Info("playlist rejected", "subscriber", u.ChatID, "collection", id, "kind", shared.KindOf(err), "err", err)
		return h.reply(ctx, u, "❌ "+shared.UserMessage(err), backMenu())
	}

	h.sessions.Set(u.ChatID, Session{Step: StepAwaitingInterval, Pending: &Pending{ID: id, Title: title}})
	return h.reply(ctx, u, fmt.Sprintf("✅ Found:\n📋 %s\n\nHow often should I check it?", title), intervalMenu())
}

func (h *Handler) startAdd(ctx context.Context, u Update) error {
	h.sessions.Set(u.ChatID, Session{Step: StepAwaitingReference})
	return h.reply(ctx, u, askReferenceText, cancelMenu())
}

func (h *Handler) cancel(ctx context.Context, u Update) error {
	h.sessions.Clear(u.ChatID)
	return h.reply(ctx, u, "❌ Cancelled", backMenu())
}

func (h *Handler) chooseInterval(ctx context.Context, u Update, raw string) error {
	sess := h.sessions.Get(u.ChatID)
	minutes, err := strconv.Atoi(raw)
	if sess.Step != StepAwaitingInterval || sess.Pending == nil || err != nil || !validInterval(minutes) {
		h.sessions.Clear(u.ChatID)
		return h.reply(ctx, u, "❌ Something went wrong. Start again with \"Add playlist\".", backMenu())
	}
	h.sessions.Clear(u.ChatID)

	c := models.NewTrackedCollection(sess.Pending.ID, sess.Pending.Title, u.ChatID, minutes*60)
	if err := h.collections.Create(ctx, c); err != nil {
		h.logger.Warn("failed to add playlist", "subscriber", u.ChatID, "collection", c.ID, "err", err)
		return h.reply(ctx, u, "❌ Could not add the playlist. "+shared.UserMessage(err), backMenu())
	}

	count, err := h.checker.Baseline(ctx, c)
	if err != nil {
		h.logger.Warn("baseline fetch failed", "collection", c.ID, "err", err)
	}

	h.logger.Info("playlist added", "subscriber", u.ChatID, "collection", c.ID, "items", count, "interval", c.IntervalSeconds)
	return h.reply(ctx, u, fmt.Sprintf("✅ Added!\n\n📋 %s\n📹 %d videos\n⏱ every %s", c.Title, count, formatter.FormatInterval(c.IntervalSeconds)), backMenu())
}

func (h *Handler) list(ctx context.Context, u Update) error {
	cs, err := h.collections.ListBySubscriber(ctx, u.ChatID)
	if err != nil {
		return h.failed(ctx, u, "list playlists", err)
	}
	return h.reply(ctx, u, formatter.CollectionList(cs), backMenu())
}

func (h *Handler) removeMenu(ctx context.Context, u Update) error {
	cs, err := h.collections.ListBySubscriber(ctx, u.ChatID)
	if err != nil {
		return h.failed(ctx, u, "list playlists", err)
	}
	if len(cs) == 0 {
		return h.reply(ctx, u, "📭 There are no playlists to remove.", backMenu())
	}
	return h.reply(ctx, u, "Choose the playlist to remove:", removeMenu(cs))
}

func (h *Handler) remove(ctx context.Context, u Update, id string) error {
	if err := h.collections.Delete(ctx, u.ChatID, id); err != nil {
		if errors.Is(err, shared.ErrNotOwner) || errors.Is(err, shared.ErrCollectionNotFound) {
			return h.reply(ctx, u, "❌ Could not remove it. "+shared.UserMessage(err), backMenu())
		}
		return h.failed(ctx, u, "remove playlist", err)
	}
	h.logger.Info("playlist removed", "subscriber", u.ChatID, "collection", id)
	return h.reply(ctx, u, "✅ Removed", backMenu())
}

func (h *Handler) setMonitoring(ctx context.Context, u Update, active bool) error {
	n, err := h.collections.SetActiveForSubscriber(ctx, u.ChatID, active)
	if err != nil {
		return h.failed(ctx, u, "update monitoring", err)
	}
	switch {
	case active && n == 0:
		return h.reply(ctx, u, "📭 Add a playlist first.", backMenu())
	case active:
		return h.reply(ctx, u, fmt.Sprintf("🟢 Monitoring on for %d playlist(s)", n), backMenu())
	default:
		return h.reply(ctx, u, fmt.Sprintf("🔴 Monitoring off for %d playlist(s)", n), backMenu())
	}
}

func (h *Handler) check(ctx context.Context, u Update) error {
	cs, err := h.collections.ListBySubscriber(ctx, u.ChatID)
	if err != nil {
		return h.failed(ctx, u, "list playlists", err)
	}
	if len(cs) == 0 {
		return h.reply(ctx, u, "📭 No playlists to check.", backMenu())
	}

	if err := h.reply(ctx, u, "🔍 Checking...", nil); err != nil {
		h.logger.Debug("progress message failed", "err", err)
	}

	report, err := h.checker.CheckSubscriber(ctx, u.ChatID, nil)
	if err != nil {
		return h.failed(ctx, u, "check playlists", err)
	}
	return h.reply(ctx, u, formatter.CheckSummary(report.Checked, report.Failed, report.Notified), backMenu())
}

// failed reports a store failure to the subscriber and returns it.
func (h *Handler) failed(ctx context.Context, u Update, op string, err error) error {
	h.logger.Error("operation failed", "op", op, "subscriber", u.ChatID, "err", err)
	if rerr := h.reply(ctx, u, "❌ "+shared.UserMessage(err), backMenu()); rerr != nil {
		h.logger.Debug("failure reply not delivered", "err", rerr)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// reply edits the originating message for callbacks and sends a new one otherwise.
func (h *Handler) reply(ctx context.Context, u Update, text string, menu Menu) error {
	if u.Kind == UpdateCallback && u.MessageID != 0 {
		return h.out.Edit(ctx, u.ChatID, u.MessageID, text, menu)
	}
	_, err := h.out.Send(ctx, u.ChatID, text, menu)
	return err
}
