package hls

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/grafov/m3u8"
	"github.com/livetv-cli/livetv/constant"
	"github.com/samber/lo"
)

// Manifest is a decoded playlist.
type Manifest struct {
	URI string `json:"uri"`
	// Master is false when the URI points directly at a media playlist.
	Master bool    `json:"master"`
	Levels []Level `json:"levels"`
	// Live is set for media playlists without an end tag.
	Live           bool    `json:"live"`
	Segments       int     `json:"segments"`
	TargetDuration float64 `json:"target_duration"`
}

// Probe fetches and decodes the playlist at uri.
// Failures are returned as *ErrorData classified the same way a Client would.
func Probe(ctx context.Context, client *http.Client, uri string) (*Manifest, error) {
	playlist, listType, base, err := fetch(ctx, client, uri, "manifest")
	if err != nil {
		return nil, err
	}

	switch listType {
	case m3u8.MASTER:
		master := playlist.(*m3u8.MasterPlaylist)
		levels := parseLevels(master, base)
		if len(levels) == 0 {
			return nil, &ErrorData{
				Fatal:   true,
				Type:    OtherError,
				Details: "manifestParsingError",
				Err:     errors.New("master playlist has no variants"),
			}
		}

		return &Manifest{URI: uri, Master: true, Levels: levels}, nil
	case m3u8.MEDIA:
		media := playlist.(*m3u8.MediaPlaylist)
		if err := validateMedia(media); err != nil {
			return nil, err
		}

		return &Manifest{
			URI:            uri,
			Levels:         []Level{{Index: 0, URI: base.String()}},
			Live:           !media.Closed,
			Segments:       int(media.Count()),
			TargetDuration: media.TargetDuration,
		}, nil
	default:
		return nil, &ErrorData{
			Fatal:   true,
			Type:    OtherError,
			Details: "manifestParsingError",
			Err:     fmt.Errorf("unknown playlist type %v", listType),
		}
	}
}

// probeLevel validates the media playlist of a single rendition.
func probeLevel(ctx context.Context, client *http.Client, level Level) error {
	playlist, listType, _, err := fetch(ctx, client, level.URI, "level")
	if err != nil {
		return err
	}

	if listType != m3u8.MEDIA {
		return &ErrorData{
			Fatal:   true,
			Type:    MediaError,
			Details: "levelParsingError",
			Err:     fmt.Errorf("level %d is not a media playlist", level.Index),
		}
	}

	return validateMedia(playlist.(*m3u8.MediaPlaylist))
}

func fetch(ctx context.Context, client *http.Client, uri, what string) (m3u8.Playlist, m3u8.ListType, *url.URL, error) {
	loadError := func(err error) *ErrorData {
		return &ErrorData{Fatal: true, Type: NetworkError, Details: what + "LoadError", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, 0, nil, loadError(err)
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, nil, loadError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, nil, loadError(fmt.Errorf("unexpected status: %s", resp.Status))
	}

	playlist, listType, err := m3u8.DecodeFrom(bufio.NewReader(resp.Body), false)
	if err != nil {
		return nil, 0, nil, &ErrorData{Fatal: true, Type: OtherError, Details: what + "ParsingError", Err: err}
	}

	return playlist, listType, resp.Request.URL, nil
}

func validateMedia(media *m3u8.MediaPlaylist) error {
	if media == nil || media.Count() == 0 {
		return &ErrorData{
			Fatal:   true,
			Type:    MediaError,
			Details: "levelEmptyError",
			Err:     errors.New("media playlist has no segments"),
		}
	}
	return nil
}

func parseLevels(master *m3u8.MasterPlaylist, base *url.URL) []Level {
	variants := lo.Filter(master.Variants, func(v *m3u8.Variant, _ int) bool {
		return v != nil && v.URI != "" && !v.Iframe
	})

	return lo.Map(variants, func(v *m3u8.Variant, i int) Level {
		level := Level{
			Index:     i,
			Bandwidth: int(v.Bandwidth),
			Codecs:    v.Codecs,
			URI:       resolve(base, v.URI),
		}
		_, _ = fmt.Sscanf(v.Resolution, "%dx%d", &level.Width, &level.Height)
		return level
	})
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil || base == nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// capBitrate returns the bandwidth of the best level that fits height,
// the lowest level when none fits, or zero when sizes are unknown.
func capBitrate(levels []Level, height int) int {
	sized := lo.Filter(levels, func(l Level, _ int) bool { return l.Height > 0 })
	if height <= 0 || len(sized) == 0 {
		return 0
	}

	sort.SliceStable(sized, func(i, j int) bool {
		if sized[i].Height != sized[j].Height {
			return sized[i].Height > sized[j].Height
		}
		return sized[i].Bandwidth > sized[j].Bandwidth
	})

	if fit, ok := lo.Find(sized, func(l Level) bool { return l.Height <= height }); ok {
		return fit.Bandwidth
	}
	return sized[len(sized)-1].Bandwidth
}
