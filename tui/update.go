package tui

import (
	"fmt"

	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/livetv-cli/livetv/catalog"
	"github.com/livetv-cli/livetv/controls"
	"github.com/livetv-cli/livetv/history"
	"github.com/livetv-cli/livetv/internal/ui"
	"github.com/livetv-cli/livetv/log"
	"github.com/samber/lo"
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	notice := b.notifier.Update(msg)

	switch msg := msg.(type) {
	case ui.NoticeMsg:
		return b, notice
	case error:
		b.raiseError(msg)
		return b, nil
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
	case playbackNotifyMsg:
		if msg.player != b.playback {
			return b, nil
		}
		b.playback.Dispatch()
		return b, tea.Batch(b.scheduleTimers(), b.waitForPlayback())
	case timerMsg:
		if msg.player != b.playback {
			return b, nil
		}
		b.playback.Fire(msg.timer)
		return b, b.scheduleTimers()
	case playerExitedMsg:
		log.Info("mpv exited")
		b.stopPlayback()
		b.playback = nil
		b.mpv = nil
		if b.state == playerState {
			b.previousState()
		}
		return b, ui.Notify("Player window closed")
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			return b, tea.Quit
		}
	}

	var (
		model tea.Model
		cmd   tea.Cmd
	)

	switch b.state {
	case loadingState:
		model, cmd = b.updateLoading(msg)
	case channelsState:
		model, cmd = b.updateChannels(msg)
	case searchState:
		model, cmd = b.updateSearch(msg)
	case categoriesState:
		model, cmd = b.updateCategories(msg)
	case historyState:
		model, cmd = b.updateHistory(msg)
	case playerState:
		model, cmd = b.updatePlayer(msg)
	case errorState:
		model, cmd = b.updateError(msg)
	default:
		model = b
	}

	return model, tea.Batch(cmd, notice)
}

func (b *statefulBubble) updateLoading(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case playerStartedMsg:
		return b, b.attach(msg.mpv)
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.back) {
			b.pending = nil
			b.previousState()
			return b, nil
		}
	}

	b.spinnerC, cmd = b.spinnerC.Update(msg)
	return b, cmd
}

// wrapCursor moves the cursor from one end of l to the other. It reports
// whether it handled the key.
func (b *statefulBubble) wrapCursor(l *list.Model, msg tea.KeyMsg) bool {
	n := len(l.Items())
	if n == 0 {
		return false
	}

	switch {
	case bubblesKey.Matches(msg, b.keymap.up) && l.Index() == 0:
		l.Select(n - 1)
		return true
	case bubblesKey.Matches(msg, b.keymap.down) && l.Index() == n-1:
		l.Select(0)
		return true
	}
	return false
}

func (b *statefulBubble) selectedChannel() (*catalog.Channel, bool) {
	item, ok := b.channelsC.SelectedItem().(*listItem)
	if !ok {
		return nil, false
	}
	channel, ok := item.internal.(*catalog.Channel)
	return channel, ok
}

func (b *statefulBubble) updateChannels(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		if b.wrapCursor(&b.channelsC, msg) {
			return b, nil
		}

		switch {
		case bubblesKey.Matches(msg, b.keymap.play):
			if channel, ok := b.selectedChannel(); ok {
				return b, b.play(channel)
			}
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.search):
			b.newState(searchState)
			return b, tea.Batch(b.inputC.Focus(), textinput.Blink)
		case bubblesKey.Matches(msg, b.keymap.categories):
			b.newState(categoriesState)
			return b, b.loadCategories()
		case bubblesKey.Matches(msg, b.keymap.recent):
			cmd, err := b.loadHistory()
			if err != nil {
				b.raiseError(err)
				return b, nil
			}
			b.newState(historyState)
			return b, cmd
		case bubblesKey.Matches(msg, b.keymap.favorite):
			if channel, ok := b.selectedChannel(); ok {
				return b, b.toggleFavorite(channel)
			}
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.openURL):
			if channel, ok := b.selectedChannel(); ok {
				return b, b.openExternally(channel)
			}
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.back):
			if b.inputC.Value() != "" {
				b.inputC.SetValue("")
				return b, b.loadChannels("")
			}
			b.previousState()
			return b, nil
		}
	}

	b.channelsC, cmd = b.channelsC.Update(msg)
	return b, cmd
}

func (b *statefulBubble) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case bubblesKey.Matches(msg, b.keymap.confirm):
			b.inputC.Blur()
			b.previousState()
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.back):
			b.inputC.SetValue("")
			b.inputC.Blur()
			b.previousState()
			return b, b.loadChannels("")
		case bubblesKey.Matches(msg, b.keymap.acceptSearchSuggestion):
			if suggestion, ok := b.searchSuggestion.Get(); ok {
				b.inputC.SetValue(suggestion)
				b.inputC.CursorEnd()
				return b, b.loadChannels(suggestion)
			}
			return b, nil
		}
	}

	before := b.inputC.Value()
	b.inputC, cmd = b.inputC.Update(msg)
	if after := b.inputC.Value(); after != before {
		cmd = tea.Batch(cmd, b.loadChannels(after))
	}

	return b, cmd
}

func (b *statefulBubble) updateCategories(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		if b.wrapCursor(&b.categoriesC, msg) {
			return b, nil
		}

		switch {
		case bubblesKey.Matches(msg, b.keymap.confirm):
			item, ok := b.categoriesC.SelectedItem().(*listItem)
			if !ok {
				return b, nil
			}

			b.category = item.internal.(*catalog.Category).ID
			b.previousState()
			cmd = b.loadChannels(b.inputC.Value())
			b.channelsC.Select(0)
			return b, tea.Batch(cmd, b.loadCategories())
		case bubblesKey.Matches(msg, b.keymap.back):
			b.previousState()
			return b, nil
		}
	}

	b.categoriesC, cmd = b.categoriesC.Update(msg)
	return b, cmd
}

func (b *statefulBubble) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		if b.wrapCursor(&b.historyC, msg) {
			return b, nil
		}

		item, selected := b.historyC.SelectedItem().(*listItem)

		switch {
		case bubblesKey.Matches(msg, b.keymap.play):
			if selected {
				return b, b.play(b.channelOf(item.internal.(*history.Record)))
			}
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.remove):
			if !selected {
				return b, nil
			}
			if err := history.Remove(item.internal.(*history.Record).ChannelID); err != nil {
				b.raiseError(err)
				return b, nil
			}
			cmd, err := b.loadHistory()
			if err != nil {
				b.raiseError(err)
				return b, nil
			}
			return b, cmd
		case bubblesKey.Matches(msg, b.keymap.back):
			b.previousState()
			return b, nil
		}
	}

	b.historyC, cmd = b.historyC.Update(msg)
	return b, cmd
}

// controlRows are the screen rows of the control bar and the quality menu.
func (b *statefulBubble) controlRows() (first, last int) {
	top, _, _, _ := paddingStyle.GetPadding()
	first = top + controlBarLine
	return first, first + len(b.playback.View().Menu)
}

func (b *statefulBubble) updatePlayer(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if b.playback == nil {
		b.previousState()
		return b, nil
	}

	switch msg := msg.(type) {
	case spinner.TickMsg:
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return b, cmd
	case tea.FocusMsg:
		b.playback.PointerMoved()
	case tea.BlurMsg:
		b.playback.PointerLeft()
	case tea.MouseMsg:
		switch {
		case msg.Action == tea.MouseActionMotion:
			b.playback.PointerMoved()
		case msg.Button == tea.MouseButtonWheelUp:
			b.playback.VolumeUp()
		case msg.Button == tea.MouseButtonWheelDown:
			b.playback.VolumeDown()
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			first, last := b.controlRows()
			b.playback.Tap(msg.Y >= first && msg.Y <= last)
		}
	case tea.KeyMsg:
		if b.playback.View().Controls == controls.VisiblePinned {
			cmd = b.updateQualityMenu(msg)
			break
		}

		switch {
		case bubblesKey.Matches(msg, b.keymap.playPause):
			b.playback.TogglePlay()
		case bubblesKey.Matches(msg, b.keymap.mute):
			b.playback.PointerMoved()
			b.playback.ToggleMute()
		case bubblesKey.Matches(msg, b.keymap.volumeUp):
			b.playback.PointerMoved()
			b.playback.VolumeUp()
		case bubblesKey.Matches(msg, b.keymap.volumeDown):
			b.playback.PointerMoved()
			b.playback.VolumeDown()
		case bubblesKey.Matches(msg, b.keymap.fullscreen):
			b.playback.PointerMoved()
			b.playback.ToggleFullscreen()
		case bubblesKey.Matches(msg, b.keymap.quality):
			b.playback.ToggleMenu()
			b.menuCursor = b.selectedMenuRow()
		case bubblesKey.Matches(msg, b.keymap.showHelp):
			b.helpC.ShowAll = !b.helpC.ShowAll
		case bubblesKey.Matches(msg, b.keymap.back):
			b.stopPlayback()
			b.previousState()
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.quit):
			return b, tea.Quit
		default:
			b.playback.PointerMoved()
		}
	}

	return b, tea.Batch(cmd, b.scheduleTimers())
}

func (b *statefulBubble) selectedMenuRow() int {
	_, index, ok := lo.FindIndexOf(b.playback.View().Menu, func(item controls.MenuItem) bool {
		return item.Selected
	})
	if !ok {
		return 0
	}
	return index
}

func (b *statefulBubble) updateQualityMenu(msg tea.KeyMsg) tea.Cmd {
	menu := b.playback.View().Menu

	switch {
	case bubblesKey.Matches(msg, b.keymap.up):
		b.menuCursor = (b.menuCursor - 1 + len(menu)) % len(menu)
	case bubblesKey.Matches(msg, b.keymap.down):
		b.menuCursor = (b.menuCursor + 1) % len(menu)
	case bubblesKey.Matches(msg, b.keymap.confirm):
		item := menu[min(b.menuCursor, len(menu)-1)]
		if item.Placeholder {
			b.playback.CloseMenu()
			return nil
		}
		if !b.playback.SelectQuality(item.Index) {
			return ui.Notify(fmt.Sprintf("%s is not available", item.Label))
		}
		return ui.Notify(fmt.Sprintf("Quality set to %s", item.Label))
	case bubblesKey.Matches(msg, b.keymap.back, b.keymap.quality):
		b.playback.CloseMenu()
	}

	return nil
}

func (b *statefulBubble) updateError(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case bubblesKey.Matches(msg, b.keymap.quit):
			return b, tea.Quit
		case bubblesKey.Matches(msg, b.keymap.back):
			b.previousState()
		}
	}
	return b, nil
}
