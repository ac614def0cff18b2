package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jamesnetherton/m3u"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/util"
)

// ErrNotPlaylist is returned when an import source is not an extended m3u playlist.
var ErrNotPlaylist = errors.New("not an extended m3u playlist")

// parsePlaylist spools r to a temporary file, since m3u parses by path.
func parsePlaylist(r io.Reader) (m3u.Playlist, error) {
	file, err := os.CreateTemp("", "livetv-*.m3u")
	if err != nil {
		return m3u.Playlist{}, err
	}
	defer util.Ignore(func() error { return os.Remove(file.Name()) })

	_, err = io.Copy(file, r)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return m3u.Playlist{}, err
	}

	playlist, err := m3u.Parse(file.Name())
	if err != nil {
		return m3u.Playlist{}, fmt.Errorf("%w: %s", ErrNotPlaylist, err)
	}
	return playlist, nil
}

func tags(track m3u.Track) map[string]string {
	attributes := make(map[string]string, len(track.Tags))
	for _, tag := range track.Tags {
		attributes[strings.ToLower(tag.Name)] = tag.Value
	}
	return attributes
}

// Import adds every track of an extended M3U playlist. A track's group-title
// selects the category when one with that slug exists, otherwise fallback is used.
// Tracks without a title are named after tvg-name or their link.
func (c *Catalog) Import(r io.Reader, fallback string) ([]*Channel, error) {
	playlist, err := parsePlaylist(r)
	if err != nil {
		return nil, err
	}

	var imported []*Channel
	for _, track := range playlist.Tracks {
		if track.URI == "" {
			continue
		}

		attributes := tags(track)
		name := strings.TrimSpace(track.Name)
		if name == "" {
			name = attributes["tvg-name"]
		}
		if name == "" {
			name = track.URI
		}

		category := fallback
		if group, ok := attributes["group-title"]; ok && c.Category(Slug(group)).IsPresent() {
			category = Slug(group)
		}

		channel, err := c.Add(name, track.URI, category, attributes["tvg-logo"])
		if err != nil {
			log.Warnf("skipping playlist entry %q: %s", name, err)
			continue
		}
		imported = append(imported, channel)
	}

	return imported, nil
}
