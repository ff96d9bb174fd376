package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytwatch/internal/shared"
	tele "gopkg.in/telebot.v4"
)

// TextLimit is the longest chunk sent in one Telegram message, in runes.
const TextLimit = 4000

// TelegramOptions configures [NewTelegram].
type TelegramOptions struct {
	Token       string
	PollTimeout time.Duration
	// URL overrides the Bot API endpoint.
	URL string
	// Offline skips the getMe call made when the bot is created.
	Offline bool
	Logger  *log.Logger
}

// Telegram adapts telebot to the [Handler] and implements outbound delivery.
type Telegram struct {
	bot    *tele.Bot
	logger *log.Logger

	runMu   sync.Mutex
	running bool
}

func NewTelegram(opts TelegramOptions) (*Telegram, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, fmt.Errorf("%w: telegram token is empty", shared.ErrMissingCredentials)
	}
	timeout := opts.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	b, err := tele.NewBot(tele.Settings{
		URL:     opts.URL,
		Token:   opts.Token,
		Poller:  &tele.LongPoller{Timeout: timeout},
		Offline: opts.Offline,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Telegram{bot: b, logger: shared.WithLogger(opts.Logger, "component", "telegram")}, nil
}

// UpdateHandler consumes inbound updates.
type UpdateHandler interface {
	Handle(ctx context.Context, u Update) error
}

// Run registers handlers and commands, then long-polls until ctx is cancelled.
func (t *Telegram) Run(ctx context.Context, h UpdateHandler) error {
	t.runMu.Lock()
	if t.running {
		t.runMu.Unlock()
		return errors.New("telegram bot already running")
	}
	t.running = true
	t.runMu.Unlock()
	defer func() {
		t.runMu.Lock()
		t.running = false
		t.runMu.Unlock()
	}()

	dispatch := func(u Update) error {
		if err := h.Handle(ctx, u); err != nil {
			t.logger.Warn("update handling failed", "chat", u.ChatID, "err", err)
		}
		return nil
	}

	for _, cmd := range []string{"start", "help", "list", "check", "add", "cancel"} {
		t.bot.Handle("/"+cmd, func(c tele.Context) error {
			return dispatch(Update{Kind: UpdateCommand, ChatID: c.Chat().ID, Text: cmd})
		})
	}

	t.bot.Handle(tele.OnText, func(c tele.Context) error {
		m := c.Message()
		if m == nil || m.Chat == nil {
			return nil
		}
		return dispatch(Update{Kind: UpdateMessage, ChatID: m.Chat.ID, MessageID: m.ID, Text: m.Text})
	})

	t.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		u := Update{Kind: UpdateCallback, CallbackID: cb.ID, Data: strings.TrimSpace(cb.Data)}
		if m := cb.Message; m != nil && m.Chat != nil {
			u.ChatID, u.MessageID = m.Chat.ID, m.ID
		} else if cb.Sender != nil {
			u.ChatID = cb.Sender.ID
		}
		return dispatch(u)
	})

	if err := t.bot.SetCommands([]tele.Command{
		{Text: "start", Description: "Start the bot and show the main menu"},
		{Text: "list", Description: "List your playlists"},
		{Text: "check", Description: "Check your playlists now"},
		{Text: "help", Description: "How to use the bot"},
	}); err != nil {
		t.logger.Warn("failed to register commands", "err", err)
	}

	go func() {
		<-ctx.Done()
		t.bot.Stop()
	}()

	t.logger.Info("polling started")
	t.bot.Start()
	t.logger.Info("polling stopped")
	return nil
}

// SendText delivers text to a subscriber, split into chunks of at most [TextLimit] runes.
func (t *Telegram) SendText(ctx context.Context, subscriberID int64, text string) error {
	for _, chunk := range splitText(text, TextLimit) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrDeliveryFailed, err)
		}
		if _, err := t.bot.Send(&tele.Chat{ID: subscriberID}, chunk); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrDeliveryFailed, err)
		}
	}
	return nil
}

// Send posts a message with an optional inline keyboard and returns its id.
func (t *Telegram) Send(ctx context.Context, chatID int64, text string, menu Menu) (int, error) {
	msg, err := t.bot.Send(&tele.Chat{ID: chatID}, text, &tele.SendOptions{ReplyMarkup: markup(menu)})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", shared.ErrDeliveryFailed, err)
	}
	return msg.ID, nil
}

// Edit replaces the text and keyboard of a message. Editing to identical content is not an error.
func (t *Telegram) Edit(ctx context.Context, chatID int64, messageID int, text string, menu Menu) error {
	m := &tele.Message{ID: messageID, Chat: &tele.Chat{ID: chatID}}
	_, err := t.bot.Edit(m, text, &tele.SendOptions{ReplyMarkup: markup(menu)})
	if err != nil && !errors.Is(err, tele.ErrSameMessageContent) {
		return fmt.Errorf("%w: %w", shared.ErrDeliveryFailed, err)
	}
	return nil
}

// Answer acknowledges a callback query.
func (t *Telegram) Answer(ctx context.Context, callbackID, text string) error {
	return t.bot.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: text})
}

func markup(menu Menu) *tele.ReplyMarkup {
	if len(menu) == 0 {
		return nil
	}
	rm := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(menu))
	for _, row := range menu {
		btns := make([]tele.Btn, 0, len(row))
		for _, b := range row {
			btns = append(btns, tele.Btn{Text: b.Text, Data: b.Data})
		}
		rows = append(rows, rm.Row(btns...))
	}
	rm.Inline(rows...)
	return rm
}

// splitText cuts s into chunks of at most limit runes, preferring newline boundaries.
func splitText(s string, limit int) []string {
	if limit <= 0 {
		limit = TextLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end >= len(rs) {
			out = append(out, string(rs[start:]))
			break
		}
		for i := end - 1; i > start; i-- {
			if rs[i] == '\n' && i-start >= limit/3 {
				end = i + 1
				break
			}
		}
		out = append(out, string(rs[start:end]))
		start = end
	}
	return out
}
