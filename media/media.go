// Package media mirrors the state of a media element and turns user intents into element calls.
package media

import "github.com/samber/mo"

// EventKind identifies an element lifecycle event.
type EventKind int

const (
	Playing EventKind = iota
	Paused
	// DataReady fires once the first frame can be rendered.
	DataReady
	ElementError
	FullscreenChanged
)

func (k EventKind) String() string {
	switch k {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case DataReady:
		return "data-ready"
	case ElementError:
		return "error"
	case FullscreenChanged:
		return "fullscreen"
	default:
		return "unknown"
	}
}

// Event is emitted by an Element.
type Event struct {
	Kind       EventKind
	Fullscreen bool
	Err        error
}

// Element is a playable surface.
type Element interface {
	// Play may be refused, e.g. when nothing is loaded.
	Play() error
	Pause() error
	Paused() bool
	// SetVolume takes a level in [0, 1].
	SetVolume(volume float64) error
	SetMuted(muted bool) error
	SetSource(uri string) error
	Stop() error
	// Subscribe registers fn for lifecycle events until the returned func is called.
	Subscribe(fn func(Event)) (unsubscribe func())
}

// Container owns the window the element renders into.
type Container interface {
	RequestFullscreen() error
	ExitFullscreen() error
	IsFullscreen() bool
}

// PlaybackState is what the control surface renders.
type PlaybackState struct {
	Playing    bool
	Muted      bool
	Volume     float64
	Fullscreen bool
	Loading    bool
	// Error holds the terminal message once playback has failed.
	Error mo.Option[string]
}

// InitialState is the state of a freshly mounted player.
func InitialState() PlaybackState {
	return PlaybackState{
		Volume:  1,
		Loading: true,
		Error:   mo.None[string](),
	}
}
