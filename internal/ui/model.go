// Package ui renders short-lived status notices at the bottom of the TUI.
package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/livetv-cli/livetv/style"
)

// NoticeLifetime is how long a notice stays on screen.
const NoticeLifetime = 3 * time.Second

// Model holds the notice currently shown, if any.
type Model struct {
	notice string
	id     int
}

// NoticeMsg shows Text until it expires or is replaced.
type NoticeMsg struct {
	Text string
}

type clearMsg struct {
	id int
}

// Notify returns a command that shows text as a notice.
func Notify(text string) tea.Cmd {
	return func() tea.Msg {
		return NoticeMsg{Text: text}
	}
}

// Notice returns the text on screen.
func (m *Model) Notice() string {
	return m.notice
}

// Update consumes notice messages. A clear only applies to the notice it was
// scheduled for, so a newer notice keeps its full lifetime.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case NoticeMsg:
		m.id++
		m.notice = msg.Text
		id := m.id
		return tea.Tick(NoticeLifetime, func(time.Time) tea.Msg {
			return clearMsg{id: id}
		})
	case clearMsg:
		if msg.id == m.id {
			m.notice = ""
		}
	}
	return nil
}

// View appends the notice to the last line of content.
func (m *Model) View(content string) string {
	if m.notice == "" {
		return content
	}

	lines := strings.Split(content, "\n")
	lines[len(lines)-1] += "  " + style.Faint(m.notice)
	return strings.Join(lines, "\n")
}
