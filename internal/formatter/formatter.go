// package formatter renders snapshots for export (CSV, JSON, plain text) and builds subscriber-facing messages
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/ytwatch/internal/models"
)

// Snapshot is a collection with its stored items, as written by the exporters.
type Snapshot struct {
	Collection *models.TrackedCollection `json:"collection"`
	Items      []models.Item             `json:"items"`
	ExportedAt time.Time                 `json:"exported_at"`
}

// ExportToCSV converts a snapshot to CSV with columns: Position, ID, Title, Channel, URL, AddedAt
func ExportToCSV(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "ID", "Title", "Channel", "URL", "AddedAt"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, it := range s.Items {
		record := []string{
			strconv.Itoa(it.Position),
			it.ID,
			it.Title,
			it.Label,
			it.Link(),
			formatTime(it.AddedAt),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToJSON marshals the snapshot, indented when pretty is set.
func ExportToJSON(s *Snapshot, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = json.Marshal(s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// ExportToText converts a snapshot to a numbered plain text listing.
func ExportToText(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	title := s.Collection.Title
	if title == "" {
		title = s.Collection.ID
	}
	fmt.Fprintf(&buf, "Playlist: %s\n", title)
	fmt.Fprintf(&buf, "ID: %s\n", s.Collection.ID)
	fmt.Fprintf(&buf, "Videos: %d\n", len(s.Items))
	if s.Collection.LastCheck != nil {
		fmt.Fprintf(&buf, "Last check: %s\n", formatTime(*s.Collection.LastCheck))
	}
	buf.WriteString("\n")

	for i, it := range s.Items {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, it.Label, it.Title)
	}
	return buf.Bytes(), nil
}

// WriteExport renders the snapshot in format ("csv", "json" or "text") and writes it to path.
func WriteExport(s *Snapshot, format, path string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "csv":
		data, err = ExportToCSV(s)
	case "json":
		data, err = ExportToJSON(s, true)
	case "text", "txt":
		data, err = ExportToText(s)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Extension returns the file extension used for format.
func Extension(format string) string {
	switch format {
	case "csv":
		return ".csv"
	case "text", "txt":
		return ".txt"
	default:
		return ".json"
	}
}

// WriteJSONFile writes v as indented JSON to path.
func WriteJSONFile(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
