package playback

import (
	"github.com/livetv-cli/livetv/controls"
	"github.com/livetv-cli/livetv/media"
	"github.com/livetv-cli/livetv/session"
	"github.com/livetv-cli/livetv/stream"
)

// View is a snapshot of everything the control surface renders.
type View struct {
	Source     Source
	Strategy   stream.Strategy
	Generation int
	Mounted    bool
	Adaptive   bool

	State    media.PlaybackState
	Controls controls.State
	Levels   []session.QualityLevel
	Selected int
	Menu     []controls.MenuItem
}

func (p *Player) View() View {
	return View{
		Source:     p.source,
		Strategy:   p.strategy,
		Generation: p.generation,
		Mounted:    p.mounted,
		Adaptive:   p.session.Adaptive(),
		State:      p.controller.State(),
		Controls:   p.surface.State(),
		Levels:     p.session.Levels(),
		Selected:   p.session.Selected(),
		Menu:       controls.Menu(p.session.Levels(), p.session.Selected()),
	}
}
