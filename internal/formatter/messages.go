package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ytwatch/internal/models"
)

const stampLayout = "2006-01-02 15:04"

// AddedMessage announces a new video.
func AddedMessage(c *models.TrackedCollection, it models.Item, at time.Time) string {
	return strings.Join([]string{
		"🆕 New video" + inPlaylist(c),
		"",
		"📹 " + it.Title,
		"📺 " + it.Label,
		"🔗 " + it.Link(),
		"🕐 " + at.Format(stampLayout),
	}, "\n")
}

// RemovedMessage announces a removed video. Removed videos carry no link.
func RemovedMessage(c *models.TrackedCollection, it models.Item, at time.Time) string {
	return strings.Join([]string{
		"🗑 Video removed" + inPlaylist(c),
		"",
		"📹 " + it.Title,
		"📺 " + it.Label,
		"🕐 " + at.Format(stampLayout),
	}, "\n")
}

// RenamedMessage announces a title change.
func RenamedMessage(c *models.TrackedCollection, r models.Rename, at time.Time) string {
	return strings.Join([]string{
		"✏️ Title changed" + inPlaylist(c),
		"",
		"📹 Old: " + r.OldTitle,
		"📹 New: " + r.NewTitle,
		"📺 " + r.Label,
		"🔗 " + r.URL,
		"🕐 " + at.Format(stampLayout),
	}, "\n")
}

func inPlaylist(c *models.TrackedCollection) string {
	if c == nil || c.Title == "" {
		return "!"
	}
	return " in " + c.Title + "!"
}

// FormatInterval renders seconds as minutes or hours.
func FormatInterval(seconds int) string {
	d := time.Duration(seconds) * time.Second
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%d h", int(d/time.Hour))
	case d >= time.Minute:
		return fmt.Sprintf("%d min", int(d/time.Minute))
	default:
		return fmt.Sprintf("%d s", seconds)
	}
}

// CollectionList renders a subscriber's collections for the list menu.
func CollectionList(cs []*models.TrackedCollection) string {
	if len(cs) == 0 {
		return "📭 You are not watching any playlists yet."
	}

	var b strings.Builder
	b.WriteString("📋 Your playlists:\n")
	for i, c := range cs {
		status := "🟢"
		if !c.Active {
			status = "🔴"
		}
		last := "never"
		if c.LastCheck != nil {
			last = c.LastCheck.Local().Format(stampLayout)
		}
		fmt.Fprintf(&b, "\n%d. %s %s\n   ⏱ every %s · last check %s\n   🔗 https://www.youtube.com/playlist?list=%s\n",
			i+1, status, displayTitle(c), FormatInterval(c.IntervalSeconds), last, c.ID)
	}
	return b.String()
}

// CheckSummary reports the result of a manual check.
func CheckSummary(checked, failed, notified int) string {
	if checked == 0 && failed == 0 {
		return "📭 No playlists to check."
	}
	msg := fmt.Sprintf("✅ Checked %d playlist(s), %d new change(s).", checked, notified)
	if failed > 0 {
		msg += fmt.Sprintf("\n⚠️ %d playlist(s) could not be fetched.", failed)
	}
	return msg
}

func displayTitle(c *models.TrackedCollection) string {
	if c.Title != "" {
		return c.Title
	}
	return c.ID
}
