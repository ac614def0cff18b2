package constant

// PlaybackErrorMessage is the only playback failure text surfaced to the viewer.
const PlaybackErrorMessage = "Playback error. Stream might be offline."

// ManifestExtension identifies adaptive (HLS) manifests by URL path.
const ManifestExtension = ".m3u8"

// Catalog identifiers shared by the CLI and the TUI.
const (
	CategoryAll       = "all"
	CategoryFavorites = "favorites"
	CategoryMovie     = "movie"
)
