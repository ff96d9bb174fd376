package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/ytwatch/internal/formatter"
	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/services"
	"github.com/desertthunder/ytwatch/internal/shared"
	"github.com/urfave/cli/v3"
)

// CollectionsAdd validates a reference, stores the playlist and records its baseline snapshot.
func (r *Runner) CollectionsAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := services.ParseReference(cmd.StringArg("reference"))
	if err != nil {
		return err
	}

	interval := cmd.Int("interval")
	if interval <= 0 {
		interval = r.config.Scheduler.DefaultInterval
	}

	source, err := r.openSource()
	if err != nil {
		return err
	}
	store, err := r.openStore()
	if err != nil {
		return err
	}

	title, err := source.ValidateCollection(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to validate %s: %w", id, err)
	}

	c := models.NewTrackedCollection(id, title, cmd.Int64("subscriber"), interval)
	if err := c.Validate(); err != nil {
		return err
	}
	if err := store.Collections.Create(ctx, c); err != nil {
		return err
	}
	r.logger.Info("playlist added", "collection", c.ID, "subscriber", c.SubscriberID, "interval", c.IntervalSeconds)

	count := 0
	if !cmd.Bool("no-baseline") {
		checker := r.newChecker(store, source, nil)
		if count, err = checker.Baseline(ctx, c); err != nil {
			r.logger.Warn("baseline fetch failed", "collection", c.ID, "err", err)
		}
	}

	r.writePlain("✓ Tracking %s\n", title)
	r.writePlain("  ID: %s\n", c.ID)
	r.writePlain("  Videos: %d\n", count)
	r.writePlain("  Every: %s\n", formatter.FormatInterval(c.IntervalSeconds))
	return nil
}

// CollectionsList prints tracked playlists, optionally for one subscriber.
func (r *Runner) CollectionsList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	var cs []*models.TrackedCollection
	if sub := cmd.Int64("subscriber"); sub != 0 {
		cs, err = store.Collections.ListBySubscriber(ctx, sub)
	} else {
		cs, err = store.Collections.ListAll(ctx)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if cs == nil {
			cs = []*models.TrackedCollection{}
		}
		return r.writeJSON(cs, cmd.Bool("pretty"))
	}
	return r.writePlain("%s\n", r.palette.CollectionTable(cs))
}

// CollectionsRemove deletes a subscriber's playlist together with its snapshot and ledger.
func (r *Runner) CollectionsRemove(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}
	if err := store.Collections.Delete(ctx, cmd.Int64("subscriber"), id); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s\n", id)
}

// CollectionsActivate resumes or pauses monitoring depending on the invoked command name.
func (r *Runner) CollectionsActivate(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	active := cmd.Name != "deactivate"

	store, err := r.openStore()
	if err != nil {
		return err
	}
	ok, err := store.Collections.SetActive(ctx, id, active)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrCollectionNotFound, id)
	}

	if active {
		return r.writePlain("🟢 Monitoring %s\n", id)
	}
	return r.writePlain("🔴 Paused %s\n", id)
}

// CollectionsInterval stores a new check interval in seconds.
func (r *Runner) CollectionsInterval(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	seconds, err := strconv.Atoi(strings.TrimSpace(cmd.StringArg("seconds")))
	if id == "" || err != nil || seconds <= 0 {
		return fmt.Errorf("%w: usage: collections interval <id> <seconds>", shared.ErrInvalidArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}
	ok, err := store.Collections.SetInterval(ctx, id, seconds)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrCollectionNotFound, id)
	}
	return r.writePlain("⏱ %s now checked every %s\n", id, formatter.FormatInterval(seconds))
}
