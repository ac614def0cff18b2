package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/livetv-cli/livetv/catalog"
	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/history"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/network"
	"github.com/livetv-cli/livetv/open"
	"github.com/livetv-cli/livetv/playback"
	"github.com/livetv-cli/livetv/player"
	"github.com/livetv-cli/livetv/stream"
	"github.com/livetv-cli/livetv/style"
	"github.com/livetv-cli/livetv/tui"
	"github.com/livetv-cli/livetv/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Bool("headless", false, "Play without the TUI, printing state changes to stdout")
	playCmd.SetOut(os.Stdout)
}

var playCmd = &cobra.Command{
	Use:               "play <channel | url>",
	Short:             "Play a channel by id or name, or any stream URL",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionChannels,
	Run: func(cmd *cobra.Command, args []string) {
		c, err := catalog.Load()
		handleErr(err)

		channel, err := resolveChannel(c, args[0])
		handleErr(err)

		if channel.OpensExternally() {
			cmd.Printf("%s opening %s in the browser\n", icon.Get(icon.Browser), style.Fg(color.Yellow)(channel.Name))
			handleErr(open.Start(channel.Link))
			return
		}

		CheckDependencies()

		if !lo.Must(cmd.Flags().GetBool("headless")) {
			// ad-hoc URLs are not in the catalog, so only known channels go through the TUI
			if channel.ID != "" {
				handleErr(tui.Run(&tui.Options{Play: channel.ID}))
				return
			}
		}

		handleErr(playHeadless(cmd, channel))
	},
}

// resolveChannel looks query up in the catalog, treating absolute http(s) URLs as ad-hoc channels.
func resolveChannel(c *catalog.Catalog, query string) (*catalog.Channel, error) {
	channel, err := c.Find(query)
	if err == nil {
		return channel, nil
	}

	if u, parseErr := url.Parse(query); parseErr == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return &catalog.Channel{Name: u.Host, Link: query}, nil
	}

	return nil, err
}

// playHeadless drives a playback.Player from this goroutine until mpv exits or
// the process is interrupted.
func playHeadless(cmd *cobra.Command, channel *catalog.Channel) error {
	mpv := player.NewMPV(viper.GetString(key.PlayerMPVPath))
	if err := mpv.Start(); err != nil {
		return err
	}
	defer func() {
		if err := mpv.Close(); err != nil {
			log.Warn(err)
		}
	}()

	if channel.ID != "" && viper.GetBool(key.HistorySaveOnPlay) {
		if err := history.Save(channel); err != nil {
			log.Warn(err)
		}
	}

	p := playback.New(mpv, mpv, playback.OptionsFromConfig(network.FromConfig()))
	defer p.Unmount()

	if err := mpv.SetTitle(channel.Name); err != nil {
		log.Warn(err)
	}

	if stream.Classify(channel.Link).Kind == stream.EmbeddedProvider {
		cmd.Printf("%s %s is an embedded stream, opening it in the browser\n", icon.Get(icon.Browser), channel.Name)
	}

	p.SetSource(playback.Source{
		URL:      channel.Link,
		Title:    channel.Name,
		AutoPlay: viper.GetBool(key.PlayerAutoplay),
	})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	return drive(cmd, p, mpv.Wait(), interrupt)
}

// drive dispatches p until exited is closed or an interrupt arrives.
// Embedded sources are handed off by SetSource, so it returns at once for them.
func drive(cmd *cobra.Command, p *playback.Player, exited <-chan struct{}, interrupt <-chan os.Signal) error {
	var last string
	report := func() {
		if status := describe(p.View()); status != last {
			last = status
			cmd.Println(status)
		}
	}
	report()

	if p.View().Strategy.Kind == stream.EmbeddedProvider {
		if msg, failed := p.View().State.Error.Get(); failed {
			return errors.New(msg)
		}
		return nil
	}

	fired := make(chan playback.Timer)
	arm := func() {
		for _, timer := range p.Timers() {
			timer := timer
			time.AfterFunc(timer.After, func() {
				select {
				case fired <- timer:
				case <-exited:
				}
			})
		}
	}
	arm()

	for {
		select {
		case <-p.Notify():
			p.Dispatch()
		case timer := <-fired:
			p.Fire(timer)
		case <-interrupt:
			return nil
		case <-exited:
			return nil
		}

		arm()
		report()

		if msg, failed := p.View().State.Error.Get(); failed {
			return errors.New(msg)
		}
	}
}

// describe renders a one-line status of view.
func describe(view playback.View) string {
	state := view.State
	switch {
	case view.Strategy.Kind == stream.EmbeddedProvider:
		return fmt.Sprintf("%s %s", icon.Get(icon.Browser), view.Source.Title)
	case state.Error.IsPresent():
		return fmt.Sprintf("%s %s", icon.Get(icon.Fail), state.Error.MustGet())
	case state.Loading:
		return fmt.Sprintf("%s loading %s", icon.Get(icon.Progress), view.Source.Title)
	}

	status := fmt.Sprintf("%s %s", icon.Get(icon.Pause), view.Source.Title)
	if state.Playing {
		status = fmt.Sprintf("%s %s", icon.Get(icon.Play), view.Source.Title)
	}

	if view.Adaptive {
		status += fmt.Sprintf(" [%s]", util.Quantify(len(view.Levels), "quality", "qualities"))
	}
	return status
}
