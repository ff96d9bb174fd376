package bot

import (
	"fmt"

	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/shared"
)

// Callback data understood by the [Handler].
const (
	ActionMainMenu     = "main_menu"
	ActionAdd          = "add"
	ActionRemove       = "remove"
	ActionList         = "list"
	ActionCheck        = "check"
	ActionStartMonitor = "start_monitor"
	ActionStopMonitor  = "stop_monitor"
	ActionHelp         = "help"
	ActionCancel       = "cancel"

	deletePrefix   = "del_"
	intervalPrefix = "interval_"
)

// IntervalChoices are the offered polling intervals in minutes.
var IntervalChoices = []int{5, 10, 15, 30, 60, 120}

const (
	welcomeText  = "🎬 Hi! I watch YouTube playlists and tell you when they change.\n\nChoose an option:"
	mainMenuText = "🎬 Main menu\n\nChoose an option:"
	promptText   = "Choose an option:"
	helpText     = "📖 How to use:\n\n" +
		"1️⃣ Tap \"Add playlist\"\n" +
		"2️⃣ Paste the playlist link\n" +
		"3️⃣ Pick how often to check\n" +
		"4️⃣ Turn monitoring on\n\n" +
		"📨 You get a message when:\n" +
		"• a video is added\n" +
		"• a video is removed\n" +
		"• a title changes\n\n" +
		"Commands: /start /list /check /help /cancel"
	askReferenceText = "📥 Send the playlist link:\n\nExample:\nhttps://youtube.com/playlist?list=PLxxxxxxxx"
)

func mainMenu() Menu {
	return Menu{
		{{Text: "➕ Add playlist", Data: ActionAdd}, {Text: "🗑 Remove playlist", Data: ActionRemove}},
		{{Text: "📋 My playlists", Data: ActionList}, {Text: "🔍 Check now", Data: ActionCheck}},
		{{Text: "▶️ Start monitoring", Data: ActionStartMonitor}, {Text: "⏹ Stop monitoring", Data: ActionStopMonitor}},
		{{Text: "❓ Help", Data: ActionHelp}},
	}
}

func backMenu() Menu {
	return Menu{{{Text: "🔙 Main menu", Data: ActionMainMenu}}}
}

func cancelMenu() Menu {
	return Menu{{{Text: "❌ Cancel", Data: ActionCancel}}}
}

func intervalMenu() Menu {
	var menu Menu
	var row []Button
	for i, minutes := range IntervalChoices {
		row = append(row, Button{Text: fmt.Sprintf("%d min", minutes), Data: fmt.Sprintf("%s%d", intervalPrefix, minutes)})
		if (i+1)%3 == 0 {
			menu = append(menu, row)
			row = nil
		}
	}
	if len(row) > 0 {
		menu = append(menu, row)
	}
	return append(menu, []Button{{Text: "❌ Cancel", Data: ActionCancel}})
}

func removeMenu(cs []*models.TrackedCollection) Menu {
	menu := make(Menu, 0, len(cs)+1)
	for _, c := range cs {
		title := c.Title
		if title == "" {
			title = c.ID
		}
		menu = append(menu, []Button{{Text: "🗑 " + shared.Truncate(title, 30), Data: deletePrefix + c.ID}})
	}
	return append(menu, []Button{{Text: "🔙 Back", Data: ActionMainMenu}})
}

func validInterval(minutes int) bool {
	for _, m := range IntervalChoices {
		if m == minutes {
			return true
		}
	}
	return false
}
