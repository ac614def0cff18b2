// Package hls is a small adaptive streaming client.
//
// It fetches and decodes HLS playlists, exposes the bitrate ladder as levels
// and hands the chosen rendition to an attached Media sink. Everything it
// learns is reported through an event callback; the callback is never invoked
// after Destroy.
package hls

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrDestroyed is returned by operations on a destroyed engine.
var ErrDestroyed = errors.New("hls: engine destroyed")

// ErrorType groups engine errors by the recovery they need.
type ErrorType int

const (
	NetworkError ErrorType = iota
	MediaError
	OtherError
)

func (t ErrorType) String() string {
	switch t {
	case NetworkError:
		return "NETWORK"
	case MediaError:
		return "MEDIA"
	default:
		return "OTHER"
	}
}

// ErrorData describes an engine failure.
type ErrorData struct {
	Fatal   bool
	Type    ErrorType
	Details string
	Err     error
}

func (e *ErrorData) Error() string {
	severity := "non-fatal"
	if e.Fatal {
		severity = "fatal"
	}

	if e.Err != nil {
		return fmt.Sprintf("%s %s error (%s): %s", severity, e.Type, e.Details, e.Err)
	}
	return fmt.Sprintf("%s %s error (%s)", severity, e.Type, e.Details)
}

func (e *ErrorData) Unwrap() error {
	return e.Err
}

// Level is one rendition of the bitrate ladder.
type Level struct {
	// Index is the position in the master playlist.
	Index     int    `json:"index"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bandwidth int    `json:"bandwidth"`
	Codecs    string `json:"codecs,omitempty"`
	URI       string `json:"uri"`
}

// EventKind identifies an engine event.
type EventKind int

const (
	ManifestParsed EventKind = iota
	LevelSwitched
	Error
)

func (k EventKind) String() string {
	switch k {
	case ManifestParsed:
		return "manifest-parsed"
	case LevelSwitched:
		return "level-switched"
	default:
		return "error"
	}
}

// Event is emitted by an Engine.
type Event struct {
	Kind EventKind
	// Levels is set for ManifestParsed.
	Levels []Level
	// Level is set for LevelSwitched; -1 means automatic selection.
	Level int
	// Error is set for Error.
	Error *ErrorData
}

// Config tunes a new engine.
type Config struct {
	// CapLevelToPlayerSize limits automatic selection to renditions that fit the rendered size.
	CapLevelToPlayerSize bool
	// AutoStartLoad starts fetching as soon as a source and media are both known.
	AutoStartLoad bool
	// Client performs playlist requests. http.DefaultClient when nil.
	Client *http.Client
}

// Media is the sink an engine feeds.
type Media interface {
	// SetSource points the sink at a playlist or rendition URI.
	SetSource(uri string) error
	// SetMaxBitrate limits automatic rendition selection. Zero removes the limit.
	SetMaxBitrate(bps int) error
	// VideoSize reports the rendered size, zero when unknown.
	VideoSize() (width, height int)
}

// Engine is an adaptive streaming session.
type Engine interface {
	LoadSource(uri string)
	AttachMedia(media Media)
	// StartLoad (re)starts manifest loading.
	StartLoad()
	// RecoverMediaError re-attaches the current rendition to the media sink.
	RecoverMediaError()
	// SetCurrentLevel pins a level by index, -1 for automatic selection.
	SetCurrentLevel(index int)
	CurrentLevel() int
	Levels() []Level
	Destroy()
}

// Factory builds engines. A nil Factory means adaptive playback is unavailable.
type Factory func(cfg Config, emit func(Event)) Engine

// NewFactory returns a Factory producing Client engines.
func NewFactory() Factory {
	return func(cfg Config, emit func(Event)) Engine {
		return New(cfg, emit)
	}
}
