package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/livetv-cli/livetv/auth"
	"github.com/livetv-cli/livetv/catalog"
	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/filesystem"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/network"
	"github.com/livetv-cli/livetv/style"
	"github.com/livetv-cli/livetv/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func completionChannels(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	c, err := catalog.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	return lo.Map(c.Channels(), func(channel *catalog.Channel, _ int) string {
		return channel.Name
	}), cobra.ShellCompDirectiveNoFileComp
}

func completionCategories(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	c, err := catalog.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	ids := lo.Map(c.Categories(), func(category *catalog.Category, _ int) string {
		return category.ID
	})
	return append(ids, constant.CategoryFavorites), cobra.ShellCompDirectiveNoFileComp
}

// requireAdmin asks for the admin password unless --password was given.
func requireAdmin(cmd *cobra.Command) {
	password := lo.Must(cmd.Flags().GetString("password"))
	if password == "" {
		prompt := survey.Password{Message: "Admin password:"}
		handleErr(survey.AskOne(&prompt, &password))
	}

	handleErr(auth.Verify(password))
}

func addPasswordFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("password", "p", "", "Admin password. Prompted for when omitted")
}

func init() {
	rootCmd.AddCommand(channelsCmd)
}

var channelsCmd = &cobra.Command{
	Use:     "channels",
	Aliases: []string{"ch"},
	Short:   "Manage the channel directory",
}

func init() {
	channelsCmd.AddCommand(channelsListCmd)

	channelsListCmd.Flags().StringP("category", "c", "", "Only list channels of this category")
	channelsListCmd.Flags().StringP("query", "q", "", "Only list channels whose name fuzzy-matches the query")
	channelsListCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	lo.Must0(channelsListCmd.RegisterFlagCompletionFunc("category", completionCategories))
	channelsListCmd.SetOut(os.Stdout)
}

var channelsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List channels, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := catalog.Load()
		handleErr(err)

		category := lo.Must(cmd.Flags().GetString("category"))
		if category == "" {
			category = viper.GetString(key.CatalogDefaultCategory)
		}
		query := lo.Must(cmd.Flags().GetString("query"))

		channels := c.Filter(category, query)

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(encodeJSON(cmd.OutOrStdout(), channels))
			return
		}

		if len(channels) == 0 {
			if suggestion, ok := c.Suggest(query).Get(); ok && query != "" {
				cmd.Printf("No channels found. Did you mean %s?\n", style.Fg(color.Yellow)(suggestion))
			} else {
				cmd.Println("No channels found")
			}
			return
		}

		now := time.Now()
		for _, channel := range channels {
			name := style.New().Bold(true).Render(channel.Name)
			if c.IsFavorite(channel.ID) {
				name += " " + icon.Get(icon.Favorite)
			}
			if channel.IsRecent(now) {
				name += " " + style.Tag(style.Base, style.Green)("NEW")
			}

			cmd.Printf("%s %s\n", name, style.Faint(channel.ID))
			cmd.Printf("  %s %s\n", style.Fg(color.HiPurple)(channel.Category), channel.Link)
		}
	},
}

func init() {
	channelsCmd.AddCommand(channelsAddCmd)
	addPasswordFlag(channelsAddCmd)

	channelsAddCmd.Flags().StringP("category", "c", "", "Category of the new channel")
	channelsAddCmd.Flags().StringP("logo", "l", "", "Logo image URL")
	lo.Must0(channelsAddCmd.RegisterFlagCompletionFunc("category", completionCategories))
}

var channelsAddCmd = &cobra.Command{
	Use:   "add <name> <link>",
	Short: "Add a channel to the directory",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		requireAdmin(cmd)

		c, err := catalog.Load()
		handleErr(err)

		channel, err := c.Add(
			args[0],
			args[1],
			lo.Must(cmd.Flags().GetString("category")),
			lo.Must(cmd.Flags().GetString("logo")),
		)
		handleErr(err)
		handleErr(c.Save())

		log.Infof("added channel %s (%s)", channel.Name, channel.ID)
		fmt.Printf("%s added %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Yellow)(channel.Name))
	},
}

func init() {
	channelsCmd.AddCommand(channelsRemoveCmd)
	addPasswordFlag(channelsRemoveCmd)

	channelsRemoveCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

var channelsRemoveCmd = &cobra.Command{
	Use:               "remove <channel>",
	Aliases:           []string{"rm"},
	Short:             "Remove a channel by id or name",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionChannels,
	Run: func(cmd *cobra.Command, args []string) {
		c, err := catalog.Load()
		handleErr(err)

		channel, err := c.Find(args[0])
		handleErr(err)

		if !lo.Must(cmd.Flags().GetBool("yes")) {
			confirm := survey.Confirm{
				Message: fmt.Sprintf("Remove %s?", channel.Name),
				Default: false,
			}
			var response bool
			handleErr(survey.AskOne(&confirm, &response))
			if !response {
				return
			}
		}

		requireAdmin(cmd)

		handleErr(c.Remove(channel.ID))
		handleErr(c.Save())

		log.Infof("removed channel %s (%s)", channel.Name, channel.ID)
		fmt.Printf("%s removed %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Yellow)(channel.Name))
	},
}

func init() {
	channelsCmd.AddCommand(channelsImportCmd)
	addPasswordFlag(channelsImportCmd)

	channelsImportCmd.Flags().StringP("category", "c", constant.CategoryAll, "Category for entries whose group does not match a known category")
	lo.Must0(channelsImportCmd.RegisterFlagCompletionFunc("category", completionCategories))
}

var channelsImportCmd = &cobra.Command{
	Use:   "import <file | url>",
	Short: "Import channels from an extended M3U playlist",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireAdmin(cmd)

		c, err := catalog.Load()
		handleErr(err)

		playlist, err := openPlaylist(args[0])
		handleErr(err)
		defer util.Ignore(playlist.Close)

		imported, err := c.Import(playlist, lo.Must(cmd.Flags().GetString("category")))
		handleErr(err)
		handleErr(c.Save())

		fmt.Printf(
			"%s imported %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Yellow)(util.Quantify(len(imported), "channel", "channels")),
		)
	},
}

// openPlaylist opens a local file or downloads a remote playlist.
func openPlaylist(location string) (io.ReadCloser, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return filesystem.API().Open(location)
	}

	req, err := http.NewRequest(http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := network.FromConfig().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch playlist: %s", resp.Status)
	}
	return resp.Body, nil
}

func init() {
	channelsCmd.AddCommand(channelsFavoriteCmd)
}

var channelsFavoriteCmd = &cobra.Command{
	Use:               "favorite <channel>",
	Aliases:           []string{"fav"},
	Short:             "Star or unstar a channel",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionChannels,
	Run: func(cmd *cobra.Command, args []string) {
		c, err := catalog.Load()
		handleErr(err)

		channel, err := c.Find(args[0])
		handleErr(err)

		starred, err := c.ToggleFavorite(channel.ID)
		handleErr(err)
		handleErr(c.Save())

		if starred {
			fmt.Printf("%s %s added to favorites\n", icon.Get(icon.Favorite), style.Fg(color.Yellow)(channel.Name))
		} else {
			fmt.Printf("%s removed from favorites\n", style.Fg(color.Yellow)(channel.Name))
		}
	},
}

func init() {
	channelsCmd.AddCommand(categoriesCmd)
	categoriesCmd.SetOut(os.Stdout)
}

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"cat"},
	Short:   "List and manage categories",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := catalog.Load()
		handleErr(err)

		for _, category := range c.Categories() {
			line := fmt.Sprintf("%s %s", style.New().Bold(true).Render(category.Label), style.Faint(category.ID))
			if category.System {
				line += " " + style.Fg(color.Gray)("(system)")
			}
			cmd.Println(line)
		}
	},
}

func init() {
	categoriesCmd.AddCommand(categoriesAddCmd)
	addPasswordFlag(categoriesAddCmd)
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireAdmin(cmd)

		c, err := catalog.Load()
		handleErr(err)

		category, err := c.AddCategory(args[0])
		handleErr(err)
		handleErr(c.Save())

		fmt.Printf("%s added category %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Yellow)(category.ID))
	},
}

func init() {
	categoriesCmd.AddCommand(categoriesRemoveCmd)
	addPasswordFlag(categoriesRemoveCmd)
}

var categoriesRemoveCmd = &cobra.Command{
	Use:               "remove <id>",
	Aliases:           []string{"rm"},
	Short:             "Remove a category. Its channels stay listed under all",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionCategories,
	Run: func(cmd *cobra.Command, args []string) {
		requireAdmin(cmd)

		c, err := catalog.Load()
		handleErr(err)

		handleErr(c.RemoveCategory(args[0]))
		handleErr(c.Save())

		fmt.Printf("%s removed category %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Yellow)(args[0]))
	},
}

func encodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
