package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/desertthunder/ytwatch/internal/bot"
	"github.com/desertthunder/ytwatch/internal/formatter"
	"github.com/desertthunder/ytwatch/internal/shared"
	"github.com/desertthunder/ytwatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// printSender writes notifications to a terminal instead of Telegram.
type printSender struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printSender) SendText(ctx context.Context, subscriberID int64, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.w, "── to %d ──\n%s\n\n", subscriberID, text)
	return err
}

// newTelegram connects to the Bot API with the configured token.
func (r *Runner) newTelegram() (*bot.Telegram, error) {
	cfg := r.config.Telegram
	return bot.NewTelegram(bot.TelegramOptions{
		Token:       cfg.Token,
		PollTimeout: shared.ParseDurationOrDefault(cfg.PollTimeout, 10*time.Second),
		Logger:      r.logger,
	})
}

// sender returns the stdout printer when toStdout is set, else the Telegram gateway.
func (r *Runner) sender(toStdout bool) (tasks.Sender, error) {
	if toStdout {
		return &printSender{w: r.output}, nil
	}
	tg, err := r.newTelegram()
	if err != nil {
		return nil, err
	}
	return tg, nil
}

// Check runs one poll. With --subscriber every playlist of that subscriber is checked,
// paused ones included; otherwise every active playlist is checked like a scheduled run.
func (r *Runner) Check(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}
	source, err := r.openSource()
	if err != nil {
		return err
	}
	sender, err := r.sender(cmd.Bool("print"))
	if err != nil {
		return err
	}
	checker := r.newChecker(store, source, sender)

	if sub := cmd.Int64("subscriber"); sub != 0 {
		return r.checkSubscriber(ctx, cmd, checker, sub)
	}

	opts := r.schedulerOptions()
	opts.RespectIntervals = false
	sched, err := tasks.NewScheduler(checker, store.Collections, opts)
	if err != nil {
		return err
	}

	report := sched.RunOnce(ctx)
	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Check " + report.RunID)
	r.writePlain("%s\n", formatter.CheckSummary(report.Checked, report.Failed, report.Notified))
	r.writePlain("Duration: %s\n", report.Duration.Round(time.Millisecond))
	if report.Error != "" {
		return fmt.Errorf("check aborted: %s", report.Error)
	}
	return nil
}

func (r *Runner) checkSubscriber(ctx context.Context, cmd *cli.Command, checker *tasks.Checker, sub int64) error {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Debug(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()

	report, err := checker.CheckSubscriber(ctx, sub, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}
	r.writePlain("%s\n", formatter.CheckSummary(report.Checked, report.Failed, report.Notified))
	for _, e := range report.Errors {
		r.writePlain("  %s %s: %s\n", r.palette.Err.Render("✗"), e.CollectionID, e.Message)
	}
	return nil
}
