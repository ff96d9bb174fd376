package tasks

import (
	"fmt"

	"github.com/desertthunder/ytwatch/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the bot or CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	LoadCollections Phase = iota
	CheckCollection
	CheckDone
	CheckFailed
	ExportSnapshot
)

func (p Phase) String() string {
	switch p {
	case LoadCollections:
		return "load_collections"
	case CheckCollection:
		return "check_collection"
	case CheckDone:
		return "check_done"
	case CheckFailed:
		return "check_failed"
	case ExportSnapshot:
		return "export_snapshot"
	default:
		return ""
	}
}

func loadCollectionsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadCollections,
		Step:    1,
		Total:   1,
		Message: "Loading playlists...",
	}
}

func checkCollectionUpdate(step, total int, c *models.TrackedCollection) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Checking %s...", step, total, collectionName(c)),
		Data:    c,
	}
}

func checkDoneUpdate(step, total int, c *models.TrackedCollection, notified int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d notified)", step, total, collectionName(c), notified),
		Data:    notified,
	}
}

func checkFailedUpdate(step, total int, c *models.TrackedCollection, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, collectionName(c), err),
		Data:    err,
	}
}

func exportCompletedUpdate(step, total int, id string, file string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSnapshot,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s → %s", step, total, id, file),
	}
}

func exportFailedUpdate(step, total int, id string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSnapshot,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, id, err),
	}
}

func collectionName(c *models.TrackedCollection) string {
	if c.Title != "" {
		return c.Title
	}
	return c.ID
}
