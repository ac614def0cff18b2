// Package catalog keeps the local channel directory: channels, categories and favorites.
package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/filesystem"
	"github.com/livetv-cli/livetv/where"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/exp/slices"
)

var (
	ErrNotFound        = errors.New("channel not found")
	ErrInvalidChannel  = errors.New("channel name and link are required")
	ErrUnknownCategory = errors.New("unknown category")
	ErrDuplicate       = errors.New("category already exists")
	ErrProtected       = errors.New("system categories cannot be removed")
)

// RecentWindow is how long a newly added channel is badged as new.
const RecentWindow = 24 * time.Hour

// Channel is a single entry of the directory.
type Channel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Logo      string    `json:"logo"`
	Link      string    `json:"link"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsRecent reports whether the channel was added within RecentWindow of now.
func (c *Channel) IsRecent(now time.Time) bool {
	return now.Sub(c.CreatedAt) < RecentWindow
}

// OpensExternally reports whether the channel belongs to a category that is
// handed to the browser instead of the player.
func (c *Channel) OpensExternally() bool {
	return c.Category == constant.CategoryMovie
}

// Category groups channels. System categories cannot be removed.
type Category struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	System bool   `json:"isSystem"`
}

type state struct {
	Channels   []*Channel  `json:"channels"`
	Categories []*Category `json:"categories"`
	Favorites  []string    `json:"favorites"`
}

// clone copies the state so unsaved edits never reach the cached value.
func (s *state) clone() *state {
	return &state{
		Channels: lo.Map(s.Channels, func(channel *Channel, _ int) *Channel {
			c := *channel
			return &c
		}),
		Categories: lo.Map(s.Categories, func(category *Category, _ int) *Category {
			c := *category
			return &c
		}),
		Favorites: slices.Clone(s.Favorites),
	}
}

var cacher = gache.New[*state](
	&gache.Options{
		Path:       where.Channels(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Catalog is an in-memory view of the persisted directory. Mutations are
// written back with Save.
type Catalog struct {
	state *state
}

// Load reads the persisted catalog, seeding it with the default entries on first use.
func Load() (*Catalog, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}

	if expired || cached == nil {
		cached = seed(time.Now())
	}

	loaded := cached.clone()
	if len(loaded.Categories) == 0 {
		loaded.Categories = defaultCategories()
	}

	return &Catalog{state: loaded}, nil
}

// Save persists the catalog.
func (c *Catalog) Save() error {
	return cacher.Set(c.state.clone())
}

// Channels returns every channel, newest first.
func (c *Catalog) Channels() []*Channel {
	channels := slices.Clone(c.state.Channels)
	slices.SortStableFunc(channels, func(a, b *Channel) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return channels
}

// Categories returns the categories in their stored order.
func (c *Catalog) Categories() []*Category {
	return slices.Clone(c.state.Categories)
}

// Category returns the category with the given id.
func (c *Catalog) Category(id string) mo.Option[*Category] {
	category, ok := lo.Find(c.state.Categories, func(category *Category) bool {
		return category.ID == id
	})
	if !ok {
		return mo.None[*Category]()
	}
	return mo.Some(category)
}

// Find looks a channel up by id or, failing that, by case-insensitive name.
func (c *Catalog) Find(query string) (*Channel, error) {
	if channel, ok := lo.Find(c.state.Channels, func(channel *Channel) bool {
		return channel.ID == query
	}); ok {
		return channel, nil
	}

	if channel, ok := lo.Find(c.state.Channels, func(channel *Channel) bool {
		return strings.EqualFold(channel.Name, query)
	}); ok {
		return channel, nil
	}

	if suggestion, ok := c.Suggest(query).Get(); ok {
		return nil, fmt.Errorf("%w: %q, did you mean %q?", ErrNotFound, query, suggestion)
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, query)
}

// Suggest returns the channel name closest to query by edit distance.
func (c *Catalog) Suggest(query string) mo.Option[string] {
	if len(c.state.Channels) == 0 {
		return mo.None[string]()
	}

	query = strings.ToLower(query)
	closest := lo.MinBy(c.state.Channels, func(a, b *Channel) bool {
		return levenshtein.Distance(query, strings.ToLower(a.Name)) <
			levenshtein.Distance(query, strings.ToLower(b.Name))
	})

	// too far away to be a typo
	if levenshtein.Distance(query, strings.ToLower(closest.Name)) > len(query)/2+1 {
		return mo.None[string]()
	}
	return mo.Some(closest.Name)
}

// Filter returns the channels of category whose names match query.
// The all category matches every channel, favorites matches starred ones.
func (c *Catalog) Filter(category, query string) []*Channel {
	return lo.Filter(c.Channels(), func(channel *Channel, _ int) bool {
		switch category {
		case "", constant.CategoryAll:
		case constant.CategoryFavorites:
			if !c.IsFavorite(channel.ID) {
				return false
			}
		default:
			if channel.Category != category {
				return false
			}
		}

		return query == "" || fuzzy.MatchFold(query, channel.Name)
	})
}

// Add creates a new channel. An empty logo gets a placeholder image.
func (c *Catalog) Add(name, link, category, logo string) (*Channel, error) {
	name, link = strings.TrimSpace(name), strings.TrimSpace(link)
	if name == "" || link == "" {
		return nil, ErrInvalidChannel
	}

	if category == "" {
		category = constant.CategoryAll
	}
	if c.Category(category).IsAbsent() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	if logo == "" {
		logo = placeholderLogo(name)
	}

	channel := &Channel{
		ID:        uuid.NewString(),
		Name:      name,
		Logo:      logo,
		Link:      link,
		Category:  category,
		CreatedAt: time.Now(),
	}
	c.state.Channels = append(c.state.Channels, channel)
	return channel, nil
}

// Remove deletes a channel and forgets it as a favorite.
func (c *Catalog) Remove(id string) error {
	channel, err := c.Find(id)
	if err != nil {
		return err
	}

	c.state.Channels = lo.Reject(c.state.Channels, func(other *Channel, _ int) bool {
		return other.ID == channel.ID
	})
	c.state.Favorites = lo.Without(c.state.Favorites, channel.ID)
	return nil
}

// IsFavorite reports whether the channel is starred.
func (c *Catalog) IsFavorite(id string) bool {
	return lo.Contains(c.state.Favorites, id)
}

// ToggleFavorite stars or unstars a channel and returns the new state.
func (c *Catalog) ToggleFavorite(id string) (bool, error) {
	if _, ok := lo.Find(c.state.Channels, func(channel *Channel) bool {
		return channel.ID == id
	}); !ok {
		return false, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	if c.IsFavorite(id) {
		c.state.Favorites = lo.Without(c.state.Favorites, id)
		return false, nil
	}

	c.state.Favorites = append(c.state.Favorites, id)
	return true, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]`)

// Slug derives a category id from its label.
func Slug(label string) string {
	return nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "-")
}

// AddCategory creates a category identified by the slug of its label.
func (c *Catalog) AddCategory(label string) (*Category, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("%w: empty label", ErrUnknownCategory)
	}

	id := Slug(label)
	if id == constant.CategoryFavorites || c.Category(id).IsPresent() {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, id)
	}

	category := &Category{ID: id, Label: label}
	c.state.Categories = append(c.state.Categories, category)
	return category, nil
}

// RemoveCategory deletes a non-system category. Its channels keep the
// dangling id and stay reachable through the all category.
func (c *Catalog) RemoveCategory(id string) error {
	category, ok := c.Category(id).Get()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, id)
	}
	if category.System {
		return ErrProtected
	}

	c.state.Categories = lo.Reject(c.state.Categories, func(other *Category, _ int) bool {
		return other.ID == id
	})
	return nil
}

func placeholderLogo(name string) string {
	return "https://via.placeholder.com/320x180?text=" + url.QueryEscape(name)
}
