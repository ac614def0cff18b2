package controls

import (
	"github.com/livetv-cli/livetv/session"
	"github.com/samber/lo"
)

// MenuItem is one row of the quality menu.
type MenuItem struct {
	Label string
	// Index is the level to select; session.Auto for the automatic entry.
	Index    int
	Selected bool
	// Placeholder rows are informational and cannot be selected.
	Placeholder bool
}

// Menu builds the quality menu for levels with selected as the current choice.
func Menu(levels []session.QualityLevel, selected int) []MenuItem {
	if len(levels) == 0 {
		return []MenuItem{{
			Label:       "Auto only",
			Index:       session.Auto,
			Selected:    true,
			Placeholder: true,
		}}
	}

	auto := MenuItem{
		Label:    "Auto",
		Index:    session.Auto,
		Selected: selected == session.Auto,
	}

	return append([]MenuItem{auto}, lo.Map(levels, func(l session.QualityLevel, _ int) MenuItem {
		return MenuItem{
			Label:    l.Label,
			Index:    l.Index,
			Selected: selected == l.Index,
		}
	})...)
}
