// Package session owns the lifecycle of a single playback session.
//
// A session either drives an adaptive engine attached to the media element
// or hands the URL to the element directly. The Manager applies the error
// recovery policy to engine events and tells the caller what changed.
package session

import (
	"fmt"
	"net/http"

	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/hls"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/media"
	"github.com/livetv-cli/livetv/stream"
	"github.com/samber/lo"
)

// Element is what a session plays into.
type Element interface {
	media.Element
	hls.Media
}

// Options configure a Manager.
type Options struct {
	// Factory builds adaptive engines. Nil means adaptive playback is unavailable.
	Factory              hls.Factory
	Client               *http.Client
	CapLevelToPlayerSize bool
	// MaxRecoveries bounds recovery attempts per error type. Zero disables recovery.
	MaxRecoveries int
}

// Manager opens and closes sessions and applies the recovery policy.
type Manager struct {
	options Options
}

func NewManager(options Options) *Manager {
	return &Manager{options: options}
}

// Session is the handle returned by Open. It is owned by the caller until Close.
type Session struct {
	url      string
	autoPlay bool
	element  Element
	engine   hls.Engine

	levels     []QualityLevel
	selected   int
	recoveries map[hls.ErrorType]int
	closed     bool
}

// Adaptive reports whether the session is driven by an engine.
func (s *Session) Adaptive() bool {
	return s != nil && s.engine != nil
}

// Levels returns the quality ladder, highest first.
func (s *Session) Levels() []QualityLevel {
	if s == nil {
		return nil
	}
	return s.levels
}

// Selected returns the selected level index or Auto.
func (s *Session) Selected() int {
	if s == nil {
		return Auto
	}
	return s.selected
}

func (s *Session) Closed() bool {
	return s == nil || s.closed
}

// Open starts playback of url on element.
// Engine events are delivered to emit and must be fed back through Handle.
func (m *Manager) Open(url string, autoPlay bool, element Element, emit func(hls.Event)) (*Session, error) {
	s := &Session{
		url:        url,
		autoPlay:   autoPlay,
		element:    element,
		selected:   Auto,
		recoveries: make(map[hls.ErrorType]int),
	}

	if stream.IsManifest(url) && m.options.Factory != nil {
		log.Infof("opening adaptive session for %s", url)
		s.engine = m.options.Factory(hls.Config{
			CapLevelToPlayerSize: m.options.CapLevelToPlayerSize,
			AutoStartLoad:        true,
			Client:               m.options.Client,
		}, emit)
		s.engine.LoadSource(url)
		s.engine.AttachMedia(element)
		return s, nil
	}

	log.Infof("opening native session for %s", url)
	if err := element.SetSource(url); err != nil {
		return nil, fmt.Errorf("set source: %w", err)
	}

	if autoPlay {
		play(element)
	}

	return s, nil
}

// play requests playback; a refusal is not an error.
func play(element Element) {
	if err := element.Play(); err != nil {
		log.Debugf("autoplay refused: %v", err)
	}
}

// OutcomeKind says how the caller should react to a handled event.
type OutcomeKind int

const (
	// Ignored events need no reaction.
	Ignored OutcomeKind = iota
	// Ready means the manifest was parsed and the ladder is known.
	Ready
	// Switched means the engine moved to another level.
	Switched
	// Recovering means a fatal error is being retried.
	Recovering
	// Terminal means the session was closed and playback cannot continue.
	Terminal
)

type Outcome struct {
	Kind OutcomeKind
	// Levels is set for Ready.
	Levels []QualityLevel
	// Level is set for Switched.
	Level int
	// Message is set for Terminal.
	Message string
}

// Handle applies an engine event to s. Events for closed sessions are ignored.
func (m *Manager) Handle(s *Session, ev hls.Event) Outcome {
	if s.Closed() || s.engine == nil {
		return Outcome{Kind: Ignored}
	}

	switch ev.Kind {
	case hls.ManifestParsed:
		s.levels = Ladder(ev.Levels)
		if s.autoPlay {
			play(s.element)
		}
		return Outcome{Kind: Ready, Levels: s.levels}
	case hls.LevelSwitched:
		return Outcome{Kind: Switched, Level: ev.Level}
	case hls.Error:
		return m.handleError(s, ev.Error)
	default:
		return Outcome{Kind: Ignored}
	}
}

func (m *Manager) handleError(s *Session, data *hls.ErrorData) Outcome {
	if data == nil {
		return Outcome{Kind: Ignored}
	}

	if !data.Fatal {
		log.Warnf("stream warning: %v", data)
		return Outcome{Kind: Ignored}
	}

	s.recoveries[data.Type]++
	attempt := s.recoveries[data.Type]

	if data.Type == hls.OtherError || attempt > m.options.MaxRecoveries {
		log.Errorf("giving up on %s after %d attempt(s): %v", s.url, attempt, data)
		m.Close(s)
		return Outcome{Kind: Terminal, Message: constant.PlaybackErrorMessage}
	}

	log.Warnf("recovering from %v (attempt %d of %d)", data, attempt, m.options.MaxRecoveries)
	switch data.Type {
	case hls.NetworkError:
		s.engine.StartLoad()
	case hls.MediaError:
		s.engine.RecoverMediaError()
	}

	return Outcome{Kind: Recovering}
}

// Recovered resets the recovery budget once the element has rendered data,
// so later failures get a fresh set of attempts.
func (m *Manager) Recovered(s *Session) {
	if s.Closed() {
		return
	}
	clear(s.recoveries)
}

// SetQuality selects a level by engine index, or Auto. It reports whether the selection was applied.
func (m *Manager) SetQuality(s *Session, index int) bool {
	if s.Closed() || s.engine == nil {
		return false
	}

	if index != Auto && !lo.ContainsBy(s.levels, func(l QualityLevel) bool { return l.Index == index }) {
		return false
	}

	s.selected = index
	s.engine.SetCurrentLevel(index)
	return true
}

// Close releases the engine and stops the element. It is safe to call more than once and on nil.
func (m *Manager) Close(s *Session) {
	if s.Closed() {
		return
	}
	s.closed = true

	if s.engine != nil {
		s.engine.Destroy()
	}

	if err := s.element.Stop(); err != nil {
		log.Warnf("stop element: %v", err)
	}
}
