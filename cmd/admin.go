package cmd

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/livetv-cli/livetv/auth"
	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/style"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(adminCmd)
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage the admin password that guards catalog edits",
}

func init() {
	adminCmd.AddCommand(adminPasswdCmd)
}

var adminPasswdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the admin password",
	Run: func(cmd *cobra.Command, args []string) {
		isDefault, err := auth.IsDefault()
		handleErr(err)
		if isDefault {
			fmt.Printf("%s the default password is still in use\n", style.Fg(color.Orange)("!"))
		}

		var answers struct {
			Current string
			Next    string
			Confirm string
		}

		handleErr(survey.Ask([]*survey.Question{
			{Name: "current", Prompt: &survey.Password{Message: "Current password:"}},
			{Name: "next", Prompt: &survey.Password{Message: "New password:"}, Validate: survey.Required},
			{Name: "confirm", Prompt: &survey.Password{Message: "Repeat new password:"}, Validate: survey.Required},
		}, &answers))

		if answers.Next != answers.Confirm {
			handleErr(errors.New("passwords do not match"))
		}

		handleErr(auth.SetPassword(answers.Current, answers.Next))
		log.Info("admin password changed")
		fmt.Printf("%s password changed\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}

func init() {
	adminCmd.AddCommand(adminResetCmd)
	addPasswordFlag(adminResetCmd)
}

var adminResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default admin password",
	Run: func(cmd *cobra.Command, args []string) {
		requireAdmin(cmd)
		handleErr(auth.Reset())
		fmt.Printf("%s password reset to the default\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}
