package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/ytwatch/internal/bot"
	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/repositories"
	"github.com/desertthunder/ytwatch/internal/server"
	"github.com/desertthunder/ytwatch/internal/shared"
	"github.com/desertthunder/ytwatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// statusLister joins collections with their stored item counts for the status server.
type statusLister struct {
	collections *repositories.CollectionRepository
	items       *repositories.ItemRepository
}

func (s statusLister) ListBySubscriber(ctx context.Context, subscriberID int64) ([]*models.TrackedCollection, error) {
	return s.collections.ListBySubscriber(ctx, subscriberID)
}

func (s statusLister) Count(ctx context.Context, collectionID string) (int, error) {
	return s.items.Count(ctx, collectionID)
}

// Serve runs the Telegram bot, the scheduler and, when enabled, the status server until
// the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}
	source, err := r.openSource()
	if err != nil {
		return err
	}
	tg, err := r.newTelegram()
	if err != nil {
		return err
	}

	checker := r.newChecker(store, source, tg)
	sched, err := tasks.NewScheduler(checker, store.Collections, r.schedulerOptions())
	if err != nil {
		return err
	}

	handler := bot.NewHandler(bot.HandlerOptions{
		Collections: store.Collections,
		Source:      source,
		Checker:     checker,
		Sessions:    bot.NewSessions(shared.ParseDurationOrDefault(r.config.Bot.SessionTTL, bot.DefaultSessionTTL)),
		Messenger:   tg,
		Logger:      r.logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	if r.config.Server.Enabled || cmd.Bool("server") {
		srv := server.New(server.Options{
			Store:     store,
			Scheduler: sched,
			Lister:    statusLister{collections: store.Collections, items: store.Items},
			Logger:    r.logger,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(ctx, r.config.Server.Addr()); err != nil {
				errCh <- err
				cancel()
			}
		}()
	}

	r.logger.Info("ytwatch started",
		"source", source.Name(),
		"cadence", sched.Status().Cadence,
		"database", r.config.Database.Path,
	)

	start := time.Now()
	if err := tg.Run(ctx, handler); err != nil {
		cancel()
		wg.Wait()
		return fmt.Errorf("bot stopped: %w", err)
	}
	cancel()
	wg.Wait()

	r.logger.Info("ytwatch stopped", "uptime", time.Since(start).Round(time.Second))
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
