package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/ytwatch/internal/formatter"
	"github.com/desertthunder/ytwatch/internal/models"
)

// BulkExportOpts contains configuration for bulk snapshot exports.
type BulkExportOpts struct {
	Format     string // Export format: json, csv, txt
	OutputDir  string // Base output directory (default: ytwatch_export_{epoch})
	NumWorkers int    // Concurrent workers (default: 4)
}

// SnapshotExportResult is the outcome for one collection.
type SnapshotExportResult struct {
	CollectionID string `json:"collection_id"`
	Title        string `json:"title"`
	Items        int    `json:"items"`
	File         string `json:"file,omitempty"`
	Success      bool   `json:"success"`
	Error        error  `json:"-"`
	Message      string `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalCollections  int                    `json:"total_collections"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"-"`
	Results           []SnapshotExportResult `json:"results"`
}

type exportJob struct {
	collection *models.TrackedCollection
}

// BulkExport writes the stored snapshot of each collection to its own file using a worker pool,
// then writes export_manifest.json. Per-collection failures are recorded, not returned.
func BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	snapshots SnapshotStore,
	collections []*models.TrackedCollection,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("ytwatch_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.Format == "" {
		opts.Format = "json"
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalCollections: len(collections),
		OutputDirectory:  opts.OutputDir,
		Results:          make([]SnapshotExportResult, 0, len(collections)),
	}

	jobs := make(chan exportJob, len(collections))
	results := make(chan SnapshotExportResult, len(collections))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					results <- SnapshotExportResult{CollectionID: job.collection.ID, Error: ctx.Err(), Message: ctx.Err().Error()}
					continue
				}
				results <- exportSnapshot(ctx, snapshots, job.collection, opts)
			}
		}()
	}

	for _, c := range collections {
		jobs <- exportJob{collection: c}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(collections), res.CollectionID, res.File))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(collections), res.CollectionID, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteJSONFile(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func exportSnapshot(ctx context.Context, snapshots SnapshotStore, c *models.TrackedCollection, opts BulkExportOpts) SnapshotExportResult {
	res := SnapshotExportResult{CollectionID: c.ID, Title: c.Title}

	items, err := snapshots.Snapshot(ctx, c.ID)
	if err != nil {
		res.Error = err
		res.Message = err.Error()
		return res
	}
	res.Items = len(items)

	path := filepath.Join(opts.OutputDir, c.ID+formatter.Extension(opts.Format))
	snap := &formatter.Snapshot{Collection: c, Items: items, ExportedAt: time.Now().UTC()}
	if err := formatter.WriteExport(snap, opts.Format, path); err != nil {
		res.Error = err
		res.Message = err.Error()
		return res
	}

	res.File = path
	res.Success = true
	return res
}
