package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/livetv-cli/livetv/catalog"
	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/history"
	"github.com/livetv-cli/livetv/internal/ui"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/network"
	"github.com/livetv-cli/livetv/open"
	"github.com/livetv-cli/livetv/playback"
	"github.com/livetv-cli/livetv/player"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

type (
	playerStartedMsg struct {
		mpv player.Player
	}

	// playbackNotifyMsg means envelopes are waiting for Dispatch.
	playbackNotifyMsg struct {
		player *playback.Player
	}

	playerExitedMsg struct{}

	timerMsg struct {
		player *playback.Player
		timer  playback.Timer
	}
)

func (b *statefulBubble) categoryLabel(id string) string {
	switch id {
	case constant.CategoryFavorites:
		return "Favorites"
	case "", constant.CategoryAll:
		id = constant.CategoryAll
	}

	if category, ok := b.catalog.Category(id).Get(); ok {
		return category.Label
	}
	return id
}

// loadChannels fills the channel list with the current category filtered by query.
func (b *statefulBubble) loadChannels(query string) tea.Cmd {
	channels := b.catalog.Filter(b.category, query)

	items := lo.Map(channels, func(channel *catalog.Channel, _ int) list.Item {
		return &listItem{
			internal:      channel,
			favorite:      b.catalog.IsFavorite(channel.ID),
			categoryLabel: b.categoryLabel(channel.Category),
		}
	})

	b.channelsC.Title = b.categoryLabel(b.category)
	if query != "" {
		b.channelsC.Title = fmt.Sprintf("%s - %q", b.channelsC.Title, query)
	}

	if len(channels) == 0 && query != "" {
		b.searchSuggestion = b.catalog.Suggest(query)
	} else {
		b.searchSuggestion = mo.None[string]()
	}

	return b.channelsC.SetItems(items)
}

func (b *statefulBubble) loadCategories() tea.Cmd {
	favorites := &catalog.Category{ID: constant.CategoryFavorites, Label: "Favorites"}
	categories := append(b.catalog.Categories(), favorites)

	items := lo.Map(categories, func(category *catalog.Category, _ int) list.Item {
		return &listItem{
			internal: category,
			current:  category.ID == b.category,
		}
	})

	return b.categoriesC.SetItems(items)
}

func (b *statefulBubble) loadHistory() (tea.Cmd, error) {
	records, err := history.Recent()
	if err != nil {
		return nil, err
	}

	items := lo.Map(records, func(record *history.Record, _ int) list.Item {
		return &listItem{internal: record}
	})

	return b.historyC.SetItems(items), nil
}

// channelOf resolves a history record to its catalog channel, or a detached
// channel when it has since been removed.
func (b *statefulBubble) channelOf(record *history.Record) *catalog.Channel {
	if channel, err := b.catalog.Find(record.ChannelID); err == nil {
		return channel
	}

	return &catalog.Channel{
		ID:       record.ChannelID,
		Name:     record.Name,
		Link:     record.Link,
		Category: constant.CategoryAll,
	}
}

func (b *statefulBubble) toggleFavorite(channel *catalog.Channel) tea.Cmd {
	starred, err := b.catalog.ToggleFavorite(channel.ID)
	if err == nil {
		err = b.catalog.Save()
	}
	if err != nil {
		b.raiseError(err)
		return nil
	}

	index := b.channelsC.Index()
	cmd := b.loadChannels(b.inputC.Value())
	b.channelsC.Select(index)

	if starred {
		return tea.Batch(cmd, ui.Notify(fmt.Sprintf("Added %s to favorites", channel.Name)))
	}
	return tea.Batch(cmd, ui.Notify(fmt.Sprintf("Removed %s from favorites", channel.Name)))
}

func (b *statefulBubble) openExternally(channel *catalog.Channel) tea.Cmd {
	if err := open.Start(channel.Link); err != nil {
		b.raiseError(err)
		return nil
	}
	return ui.Notify(fmt.Sprintf("Opened %s in the browser", channel.Name))
}

// play starts channel, launching mpv first when it is not running.
func (b *statefulBubble) play(channel *catalog.Channel) tea.Cmd {
	if channel.OpensExternally() {
		return b.openExternally(channel)
	}

	if b.mpv == nil || !b.mpv.IsRunning() {
		b.pending = channel
		b.progressStatus = "Starting mpv..."
		b.newState(loadingState)
		return tea.Batch(b.spinnerC.Tick, b.startPlayer())
	}

	return b.setSource(channel)
}

func (b *statefulBubble) startPlayer() tea.Cmd {
	path := viper.GetString(key.PlayerMPVPath)

	return func() tea.Msg {
		mpv := player.NewMPV(path)
		if err := mpv.Start(); err != nil {
			return fmt.Errorf("start mpv: %w", err)
		}
		return playerStartedMsg{mpv: mpv}
	}
}

// attach wraps a freshly started mpv in a playback player and plays the pending channel.
func (b *statefulBubble) attach(mpv player.Player) tea.Cmd {
	b.mpv = mpv
	b.playback = playback.New(mpv, mpv, playback.OptionsFromConfig(network.FromConfig()))

	channel := b.pending
	b.pending = nil

	cmds := []tea.Cmd{b.waitForPlayback()}
	if channel != nil {
		cmds = append(cmds, b.setSource(channel))
	}
	return tea.Batch(cmds...)
}

func (b *statefulBubble) setSource(channel *catalog.Channel) tea.Cmd {
	b.playing = channel
	b.menuCursor = 0

	if viper.GetBool(key.HistorySaveOnPlay) {
		if err := history.Save(channel); err != nil {
			log.Warnf("history: %s", err)
		}
	}

	if err := b.mpv.SetTitle(channel.Name); err != nil {
		log.Debugf("set title: %s", err)
	}

	log.Infof("playing %s (%s)", channel.Name, channel.Link)
	b.playback.SetSource(playback.Source{
		URL:      channel.Link,
		Title:    channel.Name,
		AutoPlay: viper.GetBool(key.PlayerAutoplay),
	})

	b.newState(playerState)
	return tea.Batch(b.scheduleTimers(), b.spinnerC.Tick)
}

// waitForPlayback blocks until the player has envelopes to dispatch or mpv exits.
// Exactly one wait is outstanding per player.
func (b *statefulBubble) waitForPlayback() tea.Cmd {
	p := b.playback
	notify, exited := p.Notify(), b.mpv.Wait()

	return func() tea.Msg {
		select {
		case <-notify:
			return playbackNotifyMsg{player: p}
		case <-exited:
			return playerExitedMsg{}
		}
	}
}

// scheduleTimers turns the timers the player asked for into ticks.
func (b *statefulBubble) scheduleTimers() tea.Cmd {
	if b.playback == nil {
		return nil
	}

	p := b.playback
	return tea.Batch(lo.Map(p.Timers(), func(t playback.Timer, _ int) tea.Cmd {
		return tea.Tick(t.After, func(time.Time) tea.Msg {
			return timerMsg{player: p, timer: t}
		})
	})...)
}

// stopPlayback unmounts the current channel and keeps mpv idle for the next one.
func (b *statefulBubble) stopPlayback() {
	if b.playback != nil {
		b.playback.Unmount()
	}
	b.playing = nil
}

// shutdown releases the player when the program exits.
func (b *statefulBubble) shutdown() {
	b.stopPlayback()

	if b.mpv != nil {
		if err := b.mpv.Close(); err != nil {
			log.Warnf("close mpv: %s", err)
		}
	}
}
