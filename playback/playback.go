// Package playback composes the stream classifier, the session manager, the
// media controller and the control surface into a single player.
//
// A Player is driven from one goroutine. Engine and element callbacks only
// post generation-tagged envelopes; Dispatch applies them on the owner's
// goroutine and drops anything produced for an earlier source.
package playback

import (
	"time"

	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/controls"
	"github.com/livetv-cli/livetv/hls"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/media"
	"github.com/livetv-cli/livetv/session"
	"github.com/livetv-cli/livetv/stream"
	"github.com/samber/mo"
)

// Source is what to play.
type Source struct {
	URL      string
	Title    string
	AutoPlay bool
}

type TimerKind int

const (
	IdleHide TimerKind = iota
	LoadTimeout
)

// Timer asks the owner to call Fire with it after After has elapsed.
type Timer struct {
	Kind  TimerKind
	ID    int
	After time.Duration
}

type Player struct {
	options    Options
	element    session.Element
	manager    *session.Manager
	controller *media.Controller
	surface    *controls.Surface
	inbox      *inbox

	source     Source
	strategy   stream.Strategy
	session    *session.Session
	generation int
	mounted    bool
	timers     []Timer
}

// New creates a player rendering into element, with container providing fullscreen.
func New(element session.Element, container media.Container, options Options) *Player {
	if options.VolumeStep <= 0 {
		options.VolumeStep = 0.05
	}

	return &Player{
		options:    options,
		element:    element,
		manager:    session.NewManager(options.Session),
		controller: media.NewController(container),
		surface:    controls.New(options.IdleTimeout),
		inbox:      newInbox(),
	}
}

// Notify is signalled whenever envelopes are waiting for Dispatch.
func (p *Player) Notify() <-chan struct{} {
	return p.inbox.notify
}

// SetSource switches to src. The previous session is closed before anything
// else happens; passing the current URL again only updates the title.
func (p *Player) SetSource(src Source) {
	if p.mounted && src.URL == p.source.URL {
		p.source.Title = src.Title
		return
	}

	p.teardown()

	p.generation++
	generation := p.generation
	p.source = src
	p.mounted = true
	p.controller.Reset()
	p.surface.Reset()
	p.timers = nil

	p.strategy = stream.Classify(src.URL)
	if p.strategy.Kind == stream.EmbeddedProvider {
		p.controller.SetLoading(false)
		p.openEmbedded()
		return
	}

	p.controller.Bind(p.element, func(ev media.Event) {
		p.inbox.post(envelope{generation: generation, media: &ev})
	})

	s, err := p.manager.Open(src.URL, src.AutoPlay, p.element, func(ev hls.Event) {
		p.inbox.post(envelope{generation: generation, engine: &ev})
	})
	if err != nil {
		log.Errorf("open %s: %v", src.URL, err)
		p.controller.Fail(constant.PlaybackErrorMessage)
		return
	}
	p.session = s

	if p.options.LoadTimeout > 0 {
		p.timers = append(p.timers, Timer{Kind: LoadTimeout, ID: generation, After: p.options.LoadTimeout})
	}
}

func (p *Player) openEmbedded() {
	log.Infof("handing %s to the provider page", p.strategy.EmbedURL)
	if p.options.Opener == nil {
		return
	}

	if err := p.options.Opener(p.strategy.EmbedURL); err != nil {
		log.Errorf("open embed url: %v", err)
		p.controller.Fail(constant.PlaybackErrorMessage)
	}
}

// teardown closes the session before releasing the element subscriptions.
func (p *Player) teardown() {
	p.manager.Close(p.session)
	p.session = nil
	p.controller.Unbind()
}

// Unmount stops playback and invalidates every pending event and timer.
func (p *Player) Unmount() {
	p.teardown()
	p.surface.Reset()
	p.generation++
	p.mounted = false
	p.timers = nil
	p.inbox.drain()
}

// Dispatch applies every queued envelope of the current generation.
func (p *Player) Dispatch() {
	for _, env := range p.inbox.drain() {
		if !p.mounted || env.generation != p.generation {
			continue
		}

		switch {
		case env.media != nil:
			p.handleMedia(*env.media)
		case env.engine != nil:
			p.handleEngine(*env.engine)
		}
	}
}

func (p *Player) handleMedia(ev media.Event) {
	p.controller.Handle(ev)

	switch ev.Kind {
	case media.Playing:
		p.surface.SetPlaying(true)
	case media.Paused:
		p.surface.SetPlaying(false)
	case media.DataReady:
		p.manager.Recovered(p.session)
	}
}

func (p *Player) handleEngine(ev hls.Event) {
	out := p.manager.Handle(p.session, ev)

	switch out.Kind {
	case session.Ready:
		p.controller.SetLoading(false)
	case session.Switched:
		log.Infof("switched to level %d", out.Level)
	case session.Terminal:
		p.controller.Fail(out.Message)
	}
}

// Fire delivers an elapsed timer. Timers from an earlier source or a superseded
// idle period are ignored.
func (p *Player) Fire(t Timer) {
	switch t.Kind {
	case IdleHide:
		p.surface.IdleElapsed(t.ID)
	case LoadTimeout:
		state := p.controller.State()
		if !p.mounted || t.ID != p.generation || !state.Loading || state.Error.IsPresent() {
			return
		}

		log.Warnf("%s did not become ready within %s", p.source.URL, t.After)
		p.manager.Close(p.session)
		p.controller.Fail(constant.PlaybackErrorMessage)
	}
}

// Timers returns and clears the timers requested since the last call.
func (p *Player) Timers() []Timer {
	timers := p.timers
	p.timers = nil
	return timers
}

func (p *Player) schedule(timer mo.Option[controls.Timer]) {
	if t, ok := timer.Get(); ok {
		p.timers = append(p.timers, Timer{Kind: IdleHide, ID: t.ID, After: t.After})
	}
}
