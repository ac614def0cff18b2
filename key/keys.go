// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Playback - these keys tune the adaptive session and the control surface.
const (
	PlayerAutoplay             = "player.autoplay"
	PlayerAdaptive             = "player.adaptive"
	PlayerCapLevelToPlayerSize = "player.cap_level_to_player_size"
	PlayerIdleTimeout          = "player.idle_timeout"
	PlayerLoadTimeout          = "player.load_timeout"
	PlayerMaxRecoveries        = "player.max_recoveries"
	PlayerVolumeStep           = "player.volume_step"
	PlayerMPVPath              = "player.mpv_path"
)

// Network - these keys configure manifest and playlist fetching.
const (
	NetworkImpersonate = "network.impersonate"
	NetworkTimeout     = "network.timeout"
)

// Catalog - these keys govern channel browsing.
const (
	CatalogDefaultCategory = "catalog.default_category"
)

// History Tracking - these keys configure the persistence of recently played channels.
const (
	HistorySaveOnPlay = "history.save_on_play"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Terminal User Interface (TUI) - these keys define the primary interactive environment's styling and logic.
const (
	TUIItemSpacing        = "tui.item_spacing"
	TUISearchPromptString = "tui.search_prompt"
	TUIShowURLs           = "tui.show_urls"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
