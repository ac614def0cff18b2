// Package controls models the visibility of the player controls and the quality menu.
//
// The surface never sleeps or schedules anything itself. Operations that need
// the idle timer return a Timer for the caller to schedule; when it fires the
// caller reports it back with IdleElapsed, and stale timers are recognised by id.
package controls

import (
	"time"

	"github.com/samber/mo"
)

// DefaultIdleTimeout is how long transient controls stay up without activity.
const DefaultIdleTimeout = 3 * time.Second

type State int

const (
	Hidden State = iota
	// VisibleTransient controls hide after the idle timeout while playing.
	VisibleTransient
	// VisiblePinned controls stay up while the quality menu is open.
	VisiblePinned
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case VisibleTransient:
		return "visible"
	case VisiblePinned:
		return "pinned"
	default:
		return "unknown"
	}
}

// Timer is an idle timer request.
type Timer struct {
	ID    int
	After time.Duration
}

type Surface struct {
	idle    time.Duration
	state   State
	playing bool
	timerID int
	lastID  int
}

func New(idle time.Duration) *Surface {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	return &Surface{
		idle:  idle,
		state: VisibleTransient,
	}
}

func (s *Surface) State() State {
	return s.state
}

func (s *Surface) Visible() bool {
	return s.state != Hidden
}

func (s *Surface) MenuOpen() bool {
	return s.state == VisiblePinned
}

// PendingTimer returns the id of the armed idle timer, zero when none is armed.
func (s *Surface) PendingTimer() int {
	return s.timerID
}

func (s *Surface) restart() mo.Option[Timer] {
	s.lastID++
	s.timerID = s.lastID
	return mo.Some(Timer{ID: s.timerID, After: s.idle})
}

func (s *Surface) cancel() {
	s.timerID = 0
}

// PointerMoved shows the controls and restarts the idle timer.
func (s *Surface) PointerMoved() mo.Option[Timer] {
	if s.state == VisiblePinned {
		return mo.None[Timer]()
	}

	s.state = VisibleTransient
	return s.restart()
}

// PointerLeft hides the controls immediately while playing.
func (s *Surface) PointerLeft() {
	if s.playing && s.state == VisibleTransient {
		s.state = Hidden
		s.cancel()
	}
}

// Tap toggles the controls. Taps on interactive controls are ignored;
// a tap while the menu is open only closes the menu.
func (s *Surface) Tap(interactive bool) mo.Option[Timer] {
	if interactive {
		return mo.None[Timer]()
	}

	switch s.state {
	case VisiblePinned:
		return s.CloseMenu()
	case VisibleTransient:
		s.state = Hidden
		s.cancel()
		return mo.None[Timer]()
	default:
		s.state = VisibleTransient
		return s.restart()
	}
}

// OpenMenu pins the controls and cancels the idle timer.
func (s *Surface) OpenMenu() {
	s.state = VisiblePinned
	s.cancel()
}

// CloseMenu unpins the controls and restarts the idle timer.
func (s *Surface) CloseMenu() mo.Option[Timer] {
	if s.state != VisiblePinned {
		return mo.None[Timer]()
	}

	s.state = VisibleTransient
	return s.restart()
}

func (s *Surface) ToggleMenu() mo.Option[Timer] {
	if s.state == VisiblePinned {
		return s.CloseMenu()
	}

	s.OpenMenu()
	return mo.None[Timer]()
}

// SetPlaying records the playback state. Pausing brings the controls back.
func (s *Surface) SetPlaying(playing bool) {
	s.playing = playing
	if !playing && s.state == Hidden {
		s.state = VisibleTransient
	}
}

// IdleElapsed handles a fired idle timer. It reports whether the timer was current.
func (s *Surface) IdleElapsed(id int) bool {
	if id == 0 || id != s.timerID {
		return false
	}
	s.cancel()

	if s.state == VisibleTransient && s.playing {
		s.state = Hidden
	}
	return true
}

// Reset returns to visible controls with a closed menu and no armed timer.
func (s *Surface) Reset() {
	s.state = VisibleTransient
	s.playing = false
	s.cancel()
}
