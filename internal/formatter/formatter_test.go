package formatter

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytwatch/internal/models"
	th "github.com/desertthunder/ytwatch/internal/testing"
)

func testSnapshot() *Snapshot {
	checked := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := models.NewTrackedCollection("PLroadtrip01", "Road Trip", 42, 0)
	c.LastCheck = &checked
	return &Snapshot{
		Collection: c,
		Items: []models.Item{
			{ID: "aaa111", CollectionID: c.ID, Title: "First Song", Label: "Band One", Position: 0},
			{ID: "bbb222", CollectionID: c.ID, Title: "Second, Song", Label: "Band Two", Position: 1, URL: "https://youtu.be/bbb222"},
		},
		ExportedAt: checked,
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testSnapshot())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Position,ID,Title,Channel,URL,AddedAt") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "https://www.youtube.com/watch?v=aaa111") {
			t.Errorf("CSV missing constructed watch link")
		}
		if !strings.Contains(output, `"Second, Song"`) {
			t.Errorf("CSV did not quote title with comma, got: %s", output)
		}
		if !strings.Contains(output, "https://youtu.be/bbb222") {
			t.Errorf("CSV should keep stored URL")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testSnapshot(), true)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var got Snapshot
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got.Collection.ID != "PLroadtrip01" || len(got.Items) != 2 {
			t.Errorf("unexpected decoded snapshot %+v", got)
		}
		if !strings.Contains(string(data), "\n  ") {
			t.Errorf("pretty output should be indented")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testSnapshot())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{"Playlist: Road Trip", "Videos: 2", "1. Band One - First Song", "2. Band Two - Second, Song"} {
			if !strings.Contains(output, want) {
				t.Errorf("text export missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("WriteExport", func(t *testing.T) {
		dir := t.TempDir()
		for _, format := range []string{"csv", "json", "text"} {
			path := filepath.Join(dir, "export."+format)
			if err := WriteExport(testSnapshot(), format, path); err != nil {
				t.Fatalf("WriteExport(%s) failed: %v", format, err)
			}
			th.AssertFileExists(t, path)
		}

		if err := WriteExport(testSnapshot(), "xml", filepath.Join(dir, "export.xml")); err == nil {
			t.Error("expected error for unsupported format")
		}
	})
}

func TestMessages(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 5, 0, 0, time.UTC)
	c := models.NewTrackedCollection("PLroadtrip01", "Road Trip", 42, 0)
	item := models.Item{ID: "aaa111", Title: "First Song", Label: "Band One"}

	t.Run("AddedMessage", func(t *testing.T) {
		msg := AddedMessage(c, item, at)
		for _, want := range []string{"New video in Road Trip", "First Song", "Band One", "https://www.youtube.com/watch?v=aaa111", "2024-06-01 09:05"} {
			if !strings.Contains(msg, want) {
				t.Errorf("added message missing %q:\n%s", want, msg)
			}
		}
	})

	t.Run("RemovedMessage", func(t *testing.T) {
		msg := RemovedMessage(c, item, at)
		if !strings.Contains(msg, "Video removed in Road Trip") || !strings.Contains(msg, "First Song") {
			t.Errorf("unexpected removed message:\n%s", msg)
		}
		if strings.Contains(msg, "https://") {
			t.Errorf("removed message should not carry a link:\n%s", msg)
		}
	})

	t.Run("RenamedMessage", func(t *testing.T) {
		r := models.Rename{ItemID: "aaa111", OldTitle: "A", NewTitle: "B", Label: "Band One", URL: models.WatchURL("aaa111")}
		msg := RenamedMessage(c, r, at)
		if !strings.Contains(msg, "Old: A") || !strings.Contains(msg, "New: B") {
			t.Errorf("unexpected renamed message:\n%s", msg)
		}
	})

	t.Run("untitled collection", func(t *testing.T) {
		msg := AddedMessage(models.NewTrackedCollection("PLx", "", 1, 0), item, at)
		if !strings.HasPrefix(msg, "🆕 New video!") {
			t.Errorf("unexpected header:\n%s", msg)
		}
	})
}

func TestFormatInterval(t *testing.T) {
	tc := []struct {
		seconds int
		want    string
	}{
		{seconds: 30, want: "30 s"},
		{seconds: 300, want: "5 min"},
		{seconds: 1800, want: "30 min"},
		{seconds: 3600, want: "1 h"},
		{seconds: 5400, want: "90 min"},
		{seconds: 7200, want: "2 h"},
	}
	for _, tt := range tc {
		if got := FormatInterval(tt.seconds); got != tt.want {
			t.Errorf("FormatInterval(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestCollectionList(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := CollectionList(nil); !strings.Contains(got, "not watching") {
			t.Errorf("unexpected empty list: %q", got)
		}
	})

	t.Run("entries", func(t *testing.T) {
		active := models.NewTrackedCollection("PLactive0001", "Active One", 1, 600)
		paused := models.NewTrackedCollection("PLpaused0001", "", 1, 0)
		paused.Active = false

		got := CollectionList([]*models.TrackedCollection{active, paused})
		for _, want := range []string{"1. 🟢 Active One", "every 10 min", "2. 🔴 PLpaused0001", "last check never", "list=PLpaused0001"} {
			if !strings.Contains(got, want) {
				t.Errorf("list missing %q:\n%s", want, got)
			}
		}
	})
}

func TestCheckSummary(t *testing.T) {
	if got := CheckSummary(0, 0, 0); !strings.Contains(got, "No playlists") {
		t.Errorf("unexpected summary %q", got)
	}
	got := CheckSummary(3, 1, 4)
	if !strings.Contains(got, "Checked 3 playlist(s), 4 new change(s)") || !strings.Contains(got, "1 playlist(s) could not be fetched") {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestPalette(t *testing.T) {
	p := NewPalette("#000000", "#00FF00", "#FF0000", "#FFA500", "#626262")
	if got := p.CollectionTable(nil); !strings.Contains(got, "no playlists tracked") {
		t.Errorf("unexpected empty table %q", got)
	}

	c := models.NewTrackedCollection("PLtable00001", "Table", 7, 0)
	got := p.CollectionTable([]*models.TrackedCollection{c})
	for _, want := range []string{"PLAYLIST", "PLtable00001", "active", "Table"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
}
