// Package tui provides the primary terminal user interface implementation.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/livetv-cli/livetv/catalog"
)

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	// Category selected when the channel list opens.
	Category string
	// Play is a channel id or name to start right away.
	Play string
	// History opens the recently played list first.
	History bool
}

// Run initializes and executes the primary Bubble Tea application loop.
func Run(options *Options) error {
	c, err := catalog.Load()
	if err != nil {
		return err
	}

	bubble := newBubble(c, options)
	if options.History {
		if _, err := bubble.loadHistory(); err != nil {
			return err
		}
		bubble.newState(historyState)
	}

	_, err = tea.NewProgram(
		bubble,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	).Run()

	bubble.shutdown()
	return err
}
