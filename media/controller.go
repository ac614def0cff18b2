package media

import (
	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/util"
	"github.com/samber/mo"
)

// Controller keeps PlaybackState in sync with a bound element.
// It is not safe for concurrent use; events reach it through Handle.
type Controller struct {
	state       PlaybackState
	container   Container
	element     Element
	unsubscribe func()
}

func NewController(container Container) *Controller {
	return &Controller{
		state:     InitialState(),
		container: container,
	}
}

func (c *Controller) State() PlaybackState {
	return c.state
}

// Bind subscribes dispatch to element events and applies the current volume and mute to it.
// A previously bound element is released first.
func (c *Controller) Bind(element Element, dispatch func(Event)) {
	c.Unbind()

	c.element = element
	c.unsubscribe = element.Subscribe(dispatch)

	if err := element.SetVolume(c.state.Volume); err != nil {
		log.Debugf("set initial volume: %v", err)
	}
	if err := element.SetMuted(c.state.Muted); err != nil {
		log.Debugf("set initial mute: %v", err)
	}
}

// Unbind releases the element subscription. It is idempotent.
func (c *Controller) Unbind() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.element = nil
}

func (c *Controller) Bound() bool {
	return c.element != nil
}

// Reset prepares the state for a new source.
func (c *Controller) Reset() {
	c.state.Loading = true
	c.state.Error = mo.None[string]()
}

func (c *Controller) SetLoading(loading bool) {
	c.state.Loading = loading
}

// Fail records a terminal error.
func (c *Controller) Fail(message string) {
	c.state.Error = mo.Some(message)
	c.state.Loading = false
}

func (c *Controller) Handle(ev Event) {
	switch ev.Kind {
	case Playing:
		c.state.Playing = true
	case Paused:
		c.state.Playing = false
	case DataReady:
		c.state.Loading = false
	case ElementError:
		log.Errorf("media element error: %v", ev.Err)
		c.Fail(constant.PlaybackErrorMessage)
	case FullscreenChanged:
		c.state.Fullscreen = ev.Fullscreen
	}
}

func (c *Controller) TogglePlay() {
	if c.element == nil {
		return
	}

	if c.element.Paused() {
		if err := c.element.Play(); err != nil {
			log.Warnf("play failed: %v", err)
		}
		return
	}

	if err := c.element.Pause(); err != nil {
		log.Warnf("pause failed: %v", err)
	}
}

// ToggleMute flips the mute flag. The displayed volume jumps to 0 when muting
// and back to 1 when unmuting, whatever the element volume was.
func (c *Controller) ToggleMute() {
	if c.element == nil {
		return
	}

	muted := !c.state.Muted
	if err := c.element.SetMuted(muted); err != nil {
		log.Warnf("mute failed: %v", err)
		return
	}

	c.state.Muted = muted
	if muted {
		c.state.Volume = 0
	} else {
		c.state.Volume = 1
	}
}

// SetVolume clamps volume to [0, 1]; zero mutes, anything else unmutes.
func (c *Controller) SetVolume(volume float64) {
	volume = util.Clamp(volume, 0, 1)
	c.state.Volume = volume
	c.state.Muted = volume == 0

	if c.element == nil {
		return
	}

	if err := c.element.SetVolume(volume); err != nil {
		log.Warnf("set volume failed: %v", err)
	}
	if err := c.element.SetMuted(volume == 0); err != nil {
		log.Warnf("set mute failed: %v", err)
	}
}

func (c *Controller) ToggleFullscreen() {
	if c.container == nil {
		return
	}

	if !c.container.IsFullscreen() {
		if err := c.container.RequestFullscreen(); err != nil {
			log.Warnf("enter fullscreen: %v", err)
			return
		}
		c.state.Fullscreen = true
		return
	}

	if err := c.container.ExitFullscreen(); err != nil {
		log.Warnf("exit fullscreen: %v", err)
		return
	}
	c.state.Fullscreen = false
}
