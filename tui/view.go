package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/controls"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/playback"
	"github.com/livetv-cli/livetv/session"
	"github.com/livetv-cli/livetv/stream"
	"github.com/livetv-cli/livetv/style"
	"github.com/muesli/reflow/wrap"
	"github.com/samber/lo"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)

	liveBadge = style.Tag(color.New("230"), style.ErrorColor)("● LIVE")
)

// controlBarLine is the line of the player view holding the control bar.
// The quality menu rows follow it.
const controlBarLine = 4

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case loadingState:
		output = b.viewLoading()
	case channelsState:
		output = listExtraPaddingStyle.Render(b.channelsC.View())
	case searchState:
		output = b.viewSearch()
	case categoriesState:
		output = listExtraPaddingStyle.Render(b.categoriesC.View())
	case historyState:
		output = listExtraPaddingStyle.Render(b.historyC.View())
	case playerState:
		output = b.viewPlayer()
	case errorState:
		output = b.viewError()
	default:
		output = "Unknown state"
	}

	return b.notifier.View(output)
}

func (b *statefulBubble) viewLoading() string {
	return b.renderLines(
		true,
		[]string{
			style.Title("Loading"),
			"",
			b.spinnerC.View() + " " + b.progressStatus,
		},
	)
}

func (b *statefulBubble) viewSearch() string {
	lines := []string{
		style.Title("Search " + b.categoryLabel(b.category)),
		"",
		b.inputC.View(),
		"",
		style.Faint(fmt.Sprintf("%d matching", len(b.channelsC.Items()))),
	}

	if suggestion, ok := b.searchSuggestion.Get(); ok {
		lines = append(lines, "", fmt.Sprintf("Did you mean %s?", style.Fg(style.AccentColor)(suggestion)))
	}

	return b.renderLines(true, lines)
}

func (b *statefulBubble) viewPlayer() string {
	if b.playback == nil {
		return b.viewLoading()
	}

	v := b.playback.View()
	visible := v.Controls != controls.Hidden

	lines := make([]string, 0, controlBarLine+len(v.Menu)+1)

	if visible {
		lines = append(lines, style.Truncate(b.width)(style.Title(v.Source.Title)+" "+liveBadge))
	} else {
		lines = append(lines, "")
	}

	lines = append(lines, "", style.Truncate(b.width)(b.status(v)), "")

	if !visible {
		lines = append(lines, style.Faint("Move the mouse or press a key to show the controls"))
		return b.renderLines(false, lines)
	}

	lines = append(lines, b.controlBar(v))

	if v.Controls == controls.VisiblePinned {
		lines = append(lines, b.qualityMenu(v)...)
	}

	return b.renderLines(true, lines)
}

func (b *statefulBubble) status(v playback.View) string {
	switch {
	case v.State.Error.IsPresent():
		return icon.Get(icon.Fail) + " " + style.Fg(style.ErrorColor)(v.State.Error.MustGet())
	case v.Strategy.Kind == stream.EmbeddedProvider:
		return icon.Get(icon.Browser) + " Playing on the provider page " + style.Faint(v.Strategy.EmbedURL)
	case v.State.Loading:
		return b.spinnerC.View() + " Loading..."
	case v.State.Playing:
		return icon.Get(icon.Play) + " Playing"
	default:
		return icon.Get(icon.Pause) + " Paused"
	}
}

func qualityLabel(v playback.View) string {
	if v.Selected == session.Auto {
		return "Auto"
	}

	level, ok := lo.Find(v.Levels, func(l session.QualityLevel) bool {
		return l.Index == v.Selected
	})
	if !ok {
		return "Auto"
	}
	return level.Label
}

func (b *statefulBubble) controlBar(v playback.View) string {
	var parts []string

	if v.State.Playing {
		parts = append(parts, icon.Get(icon.Pause))
	} else {
		parts = append(parts, icon.Get(icon.Play))
	}

	volume := v.State.Volume
	if v.State.Muted {
		parts = append(parts, icon.Get(icon.Mute)+" "+b.volumeC.ViewAs(0))
	} else {
		parts = append(parts, icon.Get(icon.Volume)+" "+b.volumeC.ViewAs(volume))
	}

	if v.Adaptive {
		parts = append(parts, icon.Get(icon.Quality)+" "+qualityLabel(v))
	}

	if v.State.Fullscreen {
		parts = append(parts, icon.Get(icon.Windowed))
	} else {
		parts = append(parts, icon.Get(icon.Fullscreen))
	}

	return strings.Join(parts, "  ")
}

func (b *statefulBubble) qualityMenu(v playback.View) []string {
	return lo.Map(v.Menu, func(item controls.MenuItem, i int) string {
		cursor := "  "
		if i == b.menuCursor {
			cursor = style.Fg(style.AccentColor)("> ")
		}

		label := item.Label
		switch {
		case item.Placeholder:
			label = style.Faint(label)
		case item.Selected:
			label = style.Fg(style.AccentColor)(label + " " + icon.Get(icon.Check))
		}

		return cursor + label
	})
}

func (b *statefulBubble) viewError() string {
	errorStyle := lipgloss.NewStyle().Foreground(style.ErrorColor).Bold(true)
	errorMsg := wrap.String(errorStyle.Render(b.lastError.Error()), b.width)

	return b.renderLines(
		true,
		[]string{
			style.ErrorTitle("Error"),
			"",
			icon.Get(icon.Fail) + " An error occurred:",
			"",
			errorMsg,
		},
	)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
