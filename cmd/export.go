package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ytwatch/internal/formatter"
	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/repositories"
	"github.com/desertthunder/ytwatch/internal/services"
	"github.com/desertthunder/ytwatch/internal/shared"
	"github.com/desertthunder/ytwatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Resolve parses a reference, validates it with the provider and optionally lists its items.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	id, err := services.ParseReference(cmd.StringArg("reference"))
	if err != nil {
		return err
	}
	source, err := r.openSource()
	if err != nil {
		return err
	}

	title, err := source.ValidateCollection(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", id, err)
	}

	var items []models.Item
	if cmd.Bool("items") {
		if items, err = source.FetchItems(ctx, id, r.config.YouTube.MaxResults); err != nil {
			return fmt.Errorf("failed to fetch %s: %w", id, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"id": id, "title": title, "source": source.Name(), "items": items}, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", r.palette.Title.Render(title))
	r.writePlain("ID: %s\n", id)
	r.writePlain("Source: %s\n", source.Name())
	for _, it := range items {
		r.writePlain("%3d. %s - %s\n", it.Position+1, it.Label, it.Title)
	}
	return nil
}

// Export writes one stored snapshot to a file, or every snapshot with --all.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	switch format {
	case "json", "csv", "txt", "text":
	default:
		return fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	if cmd.Bool("all") {
		return r.exportAll(ctx, cmd, store, format)
	}

	id := strings.TrimSpace(cmd.String("id"))
	if id == "" {
		return fmt.Errorf("%w: --id or --all", shared.ErrMissingArgument)
	}

	c, err := store.Collections.Get(ctx, id)
	if err != nil {
		return err
	}
	items, err := store.Items.Snapshot(ctx, id)
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if path == "" {
		path = id + formatter.Extension(format)
	}

	snapshot := &formatter.Snapshot{Collection: c, Items: items, ExportedAt: time.Now().UTC()}
	if err := formatter.WriteExport(snapshot, format, path); err != nil {
		return err
	}

	r.logger.Info("snapshot exported", "collection", id, "items", len(items), "path", path)
	return r.writePlain("✓ Exported %d videos to %s\n", len(items), path)
}

func (r *Runner) exportAll(ctx context.Context, cmd *cli.Command, store *repositories.Store, format string) error {
	cs, err := store.Collections.ListAll(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Info(u.Message, "step", u.Step, "total", u.Total)
		}
	}()

	result, err := tasks.BulkExport(ctx, progress, store.Items, cs, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainHeader("Export")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalCollections)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  %s %s: %s\n", r.palette.Err.Render("✗"), res.CollectionID, res.Message)
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	return nil
}
