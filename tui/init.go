package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Init starts the channel given on the command line, if any.
func (b *statefulBubble) Init() tea.Cmd {
	if b.options.Play == "" {
		return nil
	}

	channel, err := b.catalog.Find(b.options.Play)
	if err != nil {
		b.raiseError(err)
		return nil
	}

	return b.play(channel)
}
