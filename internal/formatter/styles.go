package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytwatch/internal/models"
)

// DefaultPalette is used by the CLI for terminal output.
var DefaultPalette = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	Title lipgloss.Style
	OK    lipgloss.Style
	Err   lipgloss.Style
	Warn  lipgloss.Style
	Muted lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		Title: NewBold(t).MarginBottom(1),
		OK:    NewBold(s),
		Err:   NewBold(e),
		Warn:  NewStyle(w),
		Muted: NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// CollectionTable renders collections as aligned rows for the terminal.
func (p *Palette) CollectionTable(cs []*models.TrackedCollection) string {
	if len(cs) == 0 {
		return p.Muted.Render("no playlists tracked")
	}

	var b strings.Builder
	b.WriteString(p.Title.Render(fmt.Sprintf("%-4s %-36s %-12s %-8s %-8s %s", "#", "PLAYLIST", "SUBSCRIBER", "EVERY", "STATE", "TITLE")))
	b.WriteString("\n")
	for i, c := range cs {
		state := p.OK.Render(fmt.Sprintf("%-8s", "active"))
		if !c.Active {
			state = p.Warn.Render(fmt.Sprintf("%-8s", "paused"))
		}
		fmt.Fprintf(&b, "%-4d %-36s %-12d %-8s %s %s\n",
			i+1, c.ID, c.SubscriberID, FormatInterval(c.IntervalSeconds), state, displayTitle(c))
	}
	return b.String()
}
