// Package mediatest provides an in-memory media element for tests.
package mediatest

import (
	"errors"
	"sync"

	"github.com/livetv-cli/livetv/media"
)

// ErrAutoplay is what Play returns while PlayRefused is set.
var ErrAutoplay = errors.New("play() refused")

// Element records every call made to it. It also implements media.Container
// and the hls.Media sink.
type Element struct {
	mu sync.Mutex

	PlayRefused bool
	SourceErr   error
	Height      int

	paused      bool
	volume      float64
	muted       bool
	fullscreen  bool
	sources     []string
	bitrates    []int
	plays       int
	stops       int
	nextID      int
	subscribers map[int]func(media.Event)
}

func New() *Element {
	return &Element{
		paused:      true,
		volume:      1,
		subscribers: make(map[int]func(media.Event)),
	}
}

func (e *Element) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.plays++
	if e.PlayRefused {
		return ErrAutoplay
	}
	e.paused = false
	return nil
}

func (e *Element) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
	return nil
}

func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Element) SetVolume(volume float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = volume
	return nil
}

func (e *Element) SetMuted(muted bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = muted
	return nil
}

func (e *Element) SetSource(uri string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.SourceErr != nil {
		return e.SourceErr
	}
	e.sources = append(e.sources, uri)
	return nil
}

func (e *Element) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
	e.paused = true
	return nil
}

func (e *Element) Subscribe(fn func(media.Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.subscribers[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

func (e *Element) SetMaxBitrate(bps int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bitrates = append(e.bitrates, bps)
	return nil
}

func (e *Element) VideoSize() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Height * 16 / 9, e.Height
}

func (e *Element) RequestFullscreen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fullscreen = true
	return nil
}

func (e *Element) ExitFullscreen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fullscreen = false
	return nil
}

func (e *Element) IsFullscreen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fullscreen
}

// Emit delivers ev to every subscriber.
func (e *Element) Emit(ev media.Event) {
	e.mu.Lock()
	subscribers := make([]func(media.Event), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subscribers = append(subscribers, fn)
	}
	e.mu.Unlock()

	for _, fn := range subscribers {
		fn(ev)
	}
}

func (e *Element) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subscribers)
}

func (e *Element) Sources() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.sources...)
}

func (e *Element) Plays() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plays
}

func (e *Element) Stops() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stops
}

func (e *Element) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *Element) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}
