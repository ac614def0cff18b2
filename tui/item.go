package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/livetv-cli/livetv/catalog"
	"github.com/livetv-cli/livetv/history"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/style"
	"github.com/spf13/viper"
)

// listItem implements the list.Item interface for channels, categories and history records.
type listItem struct {
	internal any
	// favorite and categoryLabel are resolved when the item is built.
	favorite      bool
	categoryLabel string
	current       bool
}

var newBadge = lipgloss.NewStyle().Foreground(style.Base).Background(style.Green).Padding(0, 1).Render("NEW")

func (t *listItem) Title() string {
	var sb strings.Builder
	sb.WriteString(t.FilterValue())

	switch e := t.internal.(type) {
	case *catalog.Channel:
		if t.favorite {
			sb.WriteString(" ")
			sb.WriteString(style.Fg(style.Yellow)(icon.Get(icon.Favorite)))
		}
		if e.IsRecent(time.Now()) {
			sb.WriteString(" ")
			sb.WriteString(newBadge)
		}
		if e.OpensExternally() {
			sb.WriteString(" ")
			sb.WriteString(style.Faint(icon.Get(icon.Browser)))
		}
	case *catalog.Category:
		if t.current {
			sb.WriteString(" ")
			sb.WriteString(style.Fg(style.AccentColor)(icon.Get(icon.Check)))
		}
	}

	return sb.String()
}

func (t *listItem) Description() string {
	switch e := t.internal.(type) {
	case *catalog.Channel:
		parts := []string{style.Fg(style.Peach)(t.categoryLabel)}
		if viper.GetBool(key.TUIShowURLs) {
			parts = append(parts, style.Faint(e.Link))
		}
		return strings.Join(parts, " • ")
	case *history.Record:
		return fmt.Sprintf("%s • played %s", e.PlayedAt.Format("Jan 2 15:04"), plays(e.Plays))
	default:
		return ""
	}
}

func plays(n int) string {
	if n == 1 {
		return "once"
	}
	return fmt.Sprintf("%d times", n)
}

func (t *listItem) FilterValue() string {
	switch e := t.internal.(type) {
	case *catalog.Channel:
		return e.Name
	case *catalog.Category:
		return e.Label
	case *history.Record:
		return e.Name
	case string:
		return e
	default:
		return ""
	}
}
