package session

import (
	"fmt"
	"sort"

	"github.com/livetv-cli/livetv/hls"
	"github.com/samber/lo"
)

// Auto selects renditions automatically.
const Auto = -1

// QualityLevel is one entry of the quality menu.
type QualityLevel struct {
	// Index is the engine level index.
	Index  int    `json:"index"`
	Height int    `json:"height"`
	Label  string `json:"label"`
}

// Label formats a rendition height for display.
func Label(height int) string {
	switch {
	case height >= 2160:
		return "4K"
	case height >= 1440:
		return "2K"
	case height >= 1080:
		return "1080p"
	case height >= 720:
		return "720p"
	case height >= 480:
		return "480p"
	case height >= 360:
		return "360p"
	default:
		return fmt.Sprintf("%dp", height)
	}
}

// Ladder turns engine levels into menu entries, highest first.
// Levels without a known height are left out; levels sharing a height collapse
// into the one with the highest bandwidth.
func Ladder(levels []hls.Level) []QualityLevel {
	best := make(map[int]hls.Level)
	for _, level := range levels {
		if level.Height <= 0 {
			continue
		}

		current, ok := best[level.Height]
		if !ok || level.Bandwidth > current.Bandwidth {
			best[level.Height] = level
		}
	}

	ladder := lo.MapToSlice(best, func(height int, level hls.Level) QualityLevel {
		return QualityLevel{
			Index:  level.Index,
			Height: height,
			Label:  Label(height),
		}
	})

	sort.Slice(ladder, func(i, j int) bool {
		return ladder[i].Height > ladder[j].Height
	})

	return ladder
}
