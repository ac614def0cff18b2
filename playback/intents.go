package playback

func (p *Player) TogglePlay() {
	p.controller.TogglePlay()
	p.schedule(p.surface.PointerMoved())
}

func (p *Player) ToggleMute() {
	p.controller.ToggleMute()
}

func (p *Player) SetVolume(volume float64) {
	p.controller.SetVolume(volume)
}

func (p *Player) VolumeUp() {
	p.controller.SetVolume(p.controller.State().Volume + p.options.VolumeStep)
}

func (p *Player) VolumeDown() {
	p.controller.SetVolume(p.controller.State().Volume - p.options.VolumeStep)
}

func (p *Player) ToggleFullscreen() {
	p.controller.ToggleFullscreen()
}

func (p *Player) PointerMoved() {
	p.schedule(p.surface.PointerMoved())
}

func (p *Player) PointerLeft() {
	p.surface.PointerLeft()
}

// Tap toggles the controls unless it landed on an interactive control.
func (p *Player) Tap(interactive bool) {
	p.schedule(p.surface.Tap(interactive))
}

func (p *Player) ToggleMenu() {
	p.schedule(p.surface.ToggleMenu())
}

func (p *Player) CloseMenu() {
	p.schedule(p.surface.CloseMenu())
}

// SelectQuality pins a level, or session.Auto, and closes the menu.
// It reports whether the session accepted the selection.
func (p *Player) SelectQuality(index int) bool {
	ok := p.manager.SetQuality(p.session, index)
	p.schedule(p.surface.CloseMenu())
	return ok
}
