// Package player implements the media element on top of an external player process.
// The primary backend is mpv, driven through its JSON-IPC interface.
package player

import (
	"errors"

	"github.com/livetv-cli/livetv/media"
	"github.com/livetv-cli/livetv/session"
)

// ErrNotRunning is returned by commands issued before Start or after the process exited.
var ErrNotRunning = errors.New("player is not running")

// Player is a media element backed by a separate process.
type Player interface {
	session.Element
	media.Container

	// Start launches the process with an empty playlist.
	Start() error

	// SetTitle changes the window title.
	SetTitle(title string) error

	// IsRunning validates the liveness of the underlying process.
	IsRunning() bool

	// Wait returns a channel that is closed when the process exits.
	Wait() <-chan struct{}

	// Close terminates the process and releases the IPC socket.
	Close() error
}

var _ Player = (*MPV)(nil)
