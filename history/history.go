// Package history tracks recently played channels.
package history

import (
	"time"

	"github.com/livetv-cli/livetv/catalog"
	"github.com/livetv-cli/livetv/filesystem"
	"github.com/livetv-cli/livetv/where"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Record is a played channel. Name and Link are kept so the entry stays
// playable after the channel leaves the catalog.
type Record struct {
	ChannelID string    `json:"channelId"`
	Name      string    `json:"name"`
	Link      string    `json:"link"`
	PlayedAt  time.Time `json:"playedAt"`
	Plays     int       `json:"plays"`
}

// cacher provides a disk-backed registry of played channels keyed by channel id.
var cacher = gache.New[map[string]*Record](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns the complete collection of history records keyed by channel id.
func Get() (map[string]*Record, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Record), nil
	}
	return cached, nil
}

// Recent returns the records ordered from the most recently played.
func Recent() ([]*Record, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	records := lo.Values(saved)
	slices.SortFunc(records, func(a, b *Record) int {
		return b.PlayedAt.Compare(a.PlayedAt)
	})
	return records, nil
}

// Save marks the channel as played now.
func Save(channel *catalog.Channel) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	record, exists := saved[channel.ID]
	if !exists {
		record = &Record{ChannelID: channel.ID}
		saved[channel.ID] = record
	}

	record.Name = channel.Name
	record.Link = channel.Link
	record.PlayedAt = time.Now()
	record.Plays++

	return cacher.Set(saved)
}

// Remove permanently deletes a record.
func Remove(channelID string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, channelID)
	return cacher.Set(saved)
}

// Clear forgets every played channel.
func Clear() error {
	return cacher.Set(make(map[string]*Record))
}
