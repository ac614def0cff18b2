// Package icon provides a multi-variant rendering engine for UI symbols.
//
// Icons can be displayed as emoji, nerd-font glyphs, plain ASCII, kaomoji,
// or Unicode squares depending on user preference.
package icon

import (
	"github.com/livetv-cli/livetv/key"
	"github.com/spf13/viper"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	kaomoji = "kaomoji"
	squares = "squares"
)

// AvailableVariants returns all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, kaomoji, squares}
}

// Icon identifies a symbol in the registry.
type Icon int

const (
	Fail Icon = iota
	Success
	Progress
	Play
	Pause
	Volume
	Mute
	Fullscreen
	Windowed
	Quality
	Check
	Live
	Favorite
	Browser
)

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	kaomoji string
	squares string
}

func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case kaomoji:
		return d.kaomoji
	case squares:
		return d.squares
	default:
		return ""
	}
}

var icons = map[Icon]*iconDef{
	Fail:       {emoji: "💀", nerd: "", plain: "x", kaomoji: "(×_×)", squares: "🟥"},
	Success:    {emoji: "🎉", nerd: "", plain: "ok", kaomoji: "(ᵔᴥᵔ)", squares: "🟩"},
	Progress:   {emoji: "👾", nerd: "", plain: "...", kaomoji: "(・_・)", squares: "🟦"},
	Play:       {emoji: "▶️", nerd: "", plain: ">", kaomoji: "(▶)", squares: "▶"},
	Pause:      {emoji: "⏸️", nerd: "", plain: "||", kaomoji: "(||)", squares: "⏸"},
	Volume:     {emoji: "🔊", nerd: "", plain: "vol", kaomoji: "(♪)", squares: "🔊"},
	Mute:       {emoji: "🔇", nerd: "", plain: "mute", kaomoji: "(-_-)", squares: "🔇"},
	Fullscreen: {emoji: "🖥️", nerd: "", plain: "[ ]", kaomoji: "[◉]", squares: "⬜"},
	Windowed:   {emoji: "🪟", nerd: "", plain: "[-]", kaomoji: "[・]", squares: "▫"},
	Quality:    {emoji: "⚙️", nerd: "", plain: "Q", kaomoji: "(⚙)", squares: "⚙"},
	Check:      {emoji: "✅", nerd: "", plain: "*", kaomoji: "(✓)", squares: "☑"},
	Live:       {emoji: "🔴", nerd: "", plain: "LIVE", kaomoji: "(●)", squares: "🟥"},
	Favorite:   {emoji: "❤️", nerd: "", plain: "<3", kaomoji: "(♥)", squares: "💟"},
	Browser:    {emoji: "🌐", nerd: "", plain: "www", kaomoji: "(🌐)", squares: "🟦"},
}

// Get returns the rendered string for an icon under the configured variant.
func Get(i Icon) string {
	def, ok := icons[i]
	if !ok {
		return ""
	}
	return def.Get()
}
