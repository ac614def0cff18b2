package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/history"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/style"
	"github.com/livetv-cli/livetv/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	historyCmd.Flags().IntP("limit", "n", 0, "Show at most this many entries")
	historyCmd.SetOut(os.Stdout)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently played channels",
	Run: func(cmd *cobra.Command, args []string) {
		records, err := history.Recent()
		handleErr(err)

		if limit := lo.Must(cmd.Flags().GetInt("limit")); limit > 0 && limit < len(records) {
			records = records[:limit]
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(encodeJSON(cmd.OutOrStdout(), records))
			return
		}

		if len(records) == 0 {
			cmd.Println("Nothing played yet")
			return
		}

		for _, record := range records {
			cmd.Printf(
				"%s %s\n  %s\n",
				style.New().Bold(true).Render(record.Name),
				style.Faint(fmt.Sprintf("%s, %s", record.PlayedAt.Format(time.DateTime), util.Quantify(record.Plays, "play", "plays"))),
				style.Fg(color.HiPurple)(record.Link),
			)
		}
	},
}

func init() {
	historyCmd.AddCommand(historyClearCmd)
	historyClearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every played channel",
	Run: func(cmd *cobra.Command, args []string) {
		if !lo.Must(cmd.Flags().GetBool("yes")) {
			confirm := survey.Confirm{Message: "Clear the play history?"}
			var response bool
			handleErr(survey.AskOne(&confirm, &response))
			if !response {
				return
			}
		}

		handleErr(history.Clear())
		fmt.Printf("%s history cleared\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}
