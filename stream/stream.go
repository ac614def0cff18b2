// Package stream decides how a channel link should be played.
//
// Classification is pure: it inspects the URL shape only and never performs I/O.
package stream

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/util"
	"github.com/samber/lo"
)

// Kind is the playback strategy selected for a URL.
type Kind int

const (
	// AdaptiveOrNative covers HLS manifests and anything the media element can open directly.
	AdaptiveOrNative Kind = iota
	// EmbeddedProvider links belong to a third-party player page.
	EmbeddedProvider
)

func (k Kind) String() string {
	switch k {
	case EmbeddedProvider:
		return "embedded"
	default:
		return "adaptive-or-native"
	}
}

// Strategy is the result of Classify.
type Strategy struct {
	Kind Kind
	// EmbedURL is set only for EmbeddedProvider.
	EmbedURL string
}

// Provider is a video site whose links are handed off instead of played.
type Provider struct {
	Name string
	// Pattern is matched against the link's host name.
	Pattern *regexp.Regexp
	// Embed rewrites a matched URL into the provider's embeddable form.
	Embed func(string) string
}

var (
	youtubeHost  = regexp.MustCompile(`(?i)(^|\.)(youtube\.com|youtu\.be|youtube-nocookie\.com)$`)
	youtubeWatch = regexp.MustCompile(`watch\?v=(?P<id>[^&#]+)(?P<rest>.*)$`)
	youtubeShort = regexp.MustCompile(`youtu\.be/(?P<id>[^?&#/]+)(?P<rest>.*)$`)
)

// Providers is the table consulted by Classify, in order.
var Providers = []Provider{
	{
		Name:    "youtube",
		Pattern: youtubeHost,
		Embed:   youtubeEmbed,
	},
}

func youtubeEmbed(link string) string {
	if strings.Contains(link, "embed/") {
		return link
	}

	if groups := util.ReGroups(youtubeWatch, link); groups["id"] != "" {
		prefix := link[:strings.Index(link, "watch?v=")]
		return prefix + "embed/" + groups["id"] + groups["rest"]
	}

	if groups := util.ReGroups(youtubeShort, link); groups["id"] != "" {
		return "https://www.youtube.com/embed/" + groups["id"] + groups["rest"]
	}

	return link
}

// host returns the host name of link. Links without a scheme are read as host/path.
func host(link string) string {
	u, err := url.Parse(link)
	if err == nil && u.Host == "" && !strings.Contains(link, "://") {
		u, err = url.Parse("//" + link)
	}
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func findProvider(link string) (Provider, bool) {
	h := host(link)
	if h == "" {
		return Provider{}, false
	}

	return lo.Find(Providers, func(p Provider) bool {
		return p.Pattern.MatchString(h)
	})
}

// Classify picks the playback strategy for link.
func Classify(link string) Strategy {
	provider, ok := findProvider(link)
	if !ok {
		return Strategy{Kind: AdaptiveOrNative}
	}

	return Strategy{
		Kind:     EmbeddedProvider,
		EmbedURL: provider.Embed(link),
	}
}

// EmbedURL rewrites link into an embeddable provider URL.
// Links that match no provider are returned unchanged.
func EmbedURL(link string) string {
	provider, ok := findProvider(link)
	if !ok {
		return link
	}
	return provider.Embed(link)
}

// IsManifest reports whether link points at an HLS playlist.
func IsManifest(link string) bool {
	p := link
	if u, err := url.Parse(link); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(link, "?#"); i >= 0 {
		p = link[:i]
	}

	return strings.EqualFold(path.Ext(p), constant.ManifestExtension)
}
