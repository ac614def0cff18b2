// Package cmd implements the command-line interface for livetv.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/style"
	"github.com/livetv-cli/livetv/tui"
	"github.com/livetv-cli/livetv/version"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("write-history", "H", true, "Remember played channels")
	lo.Must0(viper.BindPFlag(key.HistorySaveOnPlay, rootCmd.PersistentFlags().Lookup("write-history")))

	rootCmd.PersistentFlags().Bool("impersonate", false, "Fetch manifests with a browser TLS fingerprint")
	lo.Must0(viper.BindPFlag(key.NetworkImpersonate, rootCmd.PersistentFlags().Lookup("impersonate")))

	rootCmd.Flags().StringP("category", "c", "", "Open the channel list on this category")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("category", completionCategories))

	rootCmd.Flags().BoolP("recent", "r", false, "Open the recently played list")

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify(cmd.OutOrStdout())
	})
}

// rootCmd defines the entry point for the livetv application.
var rootCmd = &cobra.Command{
	Use:   constant.LiveTV,
	Short: "A terminal IPTV directory and player",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - A terminal IPTV directory and player"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		CheckDependencies()

		options := tui.Options{
			Category: lo.Must(cmd.Flags().GetString("category")),
			History:  lo.Must(cmd.Flags().GetBool("recent")),
		}
		handleErr(tui.Run(&options))
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
