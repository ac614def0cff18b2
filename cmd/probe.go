package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/livetv-cli/livetv/catalog"
	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/hls"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/network"
	"github.com/livetv-cli/livetv/session"
	"github.com/livetv-cli/livetv/stream"
	"github.com/livetv-cli/livetv/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// probeReport describes how a link would be played.
type probeReport struct {
	URL      string `json:"url" jsonschema:"description=Link that was probed."`
	Strategy string `json:"strategy" jsonschema:"enum=adaptive-or-native,enum=embedded,description=Playback strategy selected for the link."`
	EmbedURL string `json:"embedUrl,omitempty" jsonschema:"description=Embeddable page for provider links."`
	Manifest bool   `json:"manifest" jsonschema:"description=Whether the link names an HLS manifest."`

	Playlist *hls.Manifest          `json:"playlist,omitempty" jsonschema:"description=Decoded manifest. Absent when the link is not a manifest."`
	Ladder   []session.QualityLevel `json:"ladder,omitempty" jsonschema:"description=Quality menu entries, tallest first."`
	Error    string                 `json:"error,omitempty" jsonschema:"description=Why the manifest could not be loaded."`
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	probeCmd.Flags().Bool("schema", false, "Print the JSON Schema of the report and exit")
	probeCmd.SetOut(os.Stdout)
}

var probeCmd = &cobra.Command{
	Use:               "probe <channel | url>",
	Short:             "Show how a link would be played and list its qualities",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionChannels,
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			reflector := new(jsonschema.Reflector)
			reflector.Anonymous = true
			reflector.Namer = func(t reflect.Type) string {
				return t.Name()
			}
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(reflector.Reflect(&probeReport{})))
			return
		}

		if len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		c, err := catalog.Load()
		handleErr(err)

		channel, err := resolveChannel(c, args[0])
		handleErr(err)

		timeout := time.Duration(viper.GetInt(key.NetworkTimeout)) * time.Second
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		report := probe(ctx, channel.Link)

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(report))
			return
		}

		printReport(cmd, report)
	},
}

func probe(ctx context.Context, link string) *probeReport {
	strategy := stream.Classify(link)
	report := &probeReport{
		URL:      link,
		Strategy: strategy.Kind.String(),
		EmbedURL: strategy.EmbedURL,
		Manifest: stream.IsManifest(link),
	}

	if strategy.Kind != stream.AdaptiveOrNative || !report.Manifest {
		return report
	}

	manifest, err := hls.Probe(ctx, network.FromConfig(), link)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	report.Playlist = manifest
	if manifest.Master {
		report.Ladder = session.Ladder(manifest.Levels)
	}
	return report
}

func printReport(cmd *cobra.Command, report *probeReport) {
	label := style.New().Bold(true).Foreground(color.HiPurple).Render

	cmd.Printf("%s %s\n", label("Strategy"), style.Fg(color.Yellow)(report.Strategy))
	if report.EmbedURL != "" {
		cmd.Printf("%s %s\n", label("Embed"), report.EmbedURL)
	}

	if report.Error != "" {
		cmd.Printf("%s %s\n", icon.Get(icon.Fail), style.Fg(color.Red)(report.Error))
		return
	}

	if report.Playlist == nil {
		return
	}

	if !report.Playlist.Master {
		cmd.Printf("%s media playlist, %d segments, live: %t\n", label("Manifest"), report.Playlist.Segments, report.Playlist.Live)
		return
	}

	cmd.Printf("%s master playlist, %d variants\n", label("Manifest"), len(report.Playlist.Levels))
	for _, level := range report.Ladder {
		cmd.Printf("  %s %s\n", icon.Get(icon.Quality), fmt.Sprintf("%-6s level %d", level.Label, level.Index))
	}
}
