// Package style provides a functional API for composing and applying lipgloss-based TUI styles.
package style

import "github.com/charmbracelet/lipgloss"

var (
	Base    = lipgloss.Color("#0f1113")
	Text    = lipgloss.Color("#cdd6f4")
	Overlay = lipgloss.Color("#6c7086")
	Surface = lipgloss.Color("#15181a")

	Red    = lipgloss.Color("#f38ba8")
	Peach  = lipgloss.Color("#fab387")
	Yellow = lipgloss.Color("#f9e2af")
	Green  = lipgloss.Color("#a6e3a1")
	Blue   = lipgloss.Color("#89b4fa")
	Cyan   = lipgloss.Color("#00d1ff")

	AccentColor = Cyan
	ErrorColor  = Red
	FaintColor  = Overlay
)
