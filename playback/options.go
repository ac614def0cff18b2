package playback

import (
	"net/http"
	"time"

	"github.com/livetv-cli/livetv/controls"
	"github.com/livetv-cli/livetv/hls"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/open"
	"github.com/livetv-cli/livetv/session"
	"github.com/spf13/viper"
)

// Options configure a Player.
type Options struct {
	IdleTimeout time.Duration
	// LoadTimeout bounds the loading state. Zero disables the watchdog.
	LoadTimeout time.Duration
	VolumeStep  float64
	Session     session.Options
	// Opener hands embedded provider links to another application.
	Opener func(url string) error
}

// OptionsFromConfig reads the player settings. client is used for manifest requests.
func OptionsFromConfig(client *http.Client) Options {
	options := Options{
		IdleTimeout: time.Duration(viper.GetInt(key.PlayerIdleTimeout)) * time.Second,
		LoadTimeout: time.Duration(viper.GetInt(key.PlayerLoadTimeout)) * time.Second,
		VolumeStep:  viper.GetFloat64(key.PlayerVolumeStep),
		Session: session.Options{
			Client:               client,
			CapLevelToPlayerSize: viper.GetBool(key.PlayerCapLevelToPlayerSize),
			MaxRecoveries:        viper.GetInt(key.PlayerMaxRecoveries),
		},
		Opener: open.Start,
	}

	if options.IdleTimeout <= 0 {
		options.IdleTimeout = controls.DefaultIdleTimeout
	}

	if viper.GetBool(key.PlayerAdaptive) {
		options.Session.Factory = hls.NewFactory()
	}

	return options
}
