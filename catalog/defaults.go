package catalog

import (
	"fmt"
	"time"

	"github.com/livetv-cli/livetv/constant"
)

func defaultCategories() []*Category {
	return []*Category{
		{ID: constant.CategoryAll, Label: "All Channels", System: true},
		{ID: "tamil", Label: "Tamil"},
		{ID: "news", Label: "News"},
		{ID: "sports", Label: "Sports"},
		{ID: constant.CategoryMovie, Label: "Movies Download"},
		{ID: "kids", Label: "Kids"},
		{ID: "music", Label: "Music"},
		{ID: "international", Label: "International"},
		{ID: "devotional", Label: "Devotional"},
	}
}

func logo(id int) string {
	return fmt.Sprintf("https://picsum.photos/id/%d/320/180", id)
}

// seed builds the catalog shown before the user adds anything. The seed
// channels are dated a day back so they are not badged as new.
func seed(now time.Time) *state {
	created := now.Add(-RecentWindow)

	return &state{
		Categories: defaultCategories(),
		Channels: []*Channel{
			{
				ID:        "1",
				Name:      "Sample News",
				Logo:      logo(1),
				Link:      "https://www.youtube.com/embed/live_stream?channel=UC4R8DWoMoI7CAwX8_LjQHig",
				Category:  "news",
				CreatedAt: created,
			},
			{
				ID:        "2",
				Name:      "Sample Sports (HLS)",
				Logo:      logo(2),
				Link:      "https://test-streams.mux.dev/x36xhzz/x36xhzz.m3u8",
				Category:  "sports",
				CreatedAt: created,
			},
			{
				ID:        "3",
				Name:      "Kids Clip (MP4)",
				Logo:      logo(3),
				Link:      "https://www.w3schools.com/html/mov_bbb.mp4",
				Category:  "kids",
				CreatedAt: created,
			},
			{
				ID:        "4",
				Name:      "Music Stream",
				Logo:      logo(4),
				Link:      "https://www.w3schools.com/html/mov_bbb.mp4",
				Category:  "music",
				CreatedAt: created,
			},
		},
	}
}
