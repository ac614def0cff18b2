package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/style"
	"github.com/spf13/viper"
)

// CheckDependencies exits when the configured mpv executable cannot be found.
func CheckDependencies() {
	path := viper.GetString(key.PlayerMPVPath)
	if _, err := exec.LookPath(path); err != nil {
		printMissingDependencyError(path)
		os.Exit(1)
	}
}

func installHint(goos string) string {
	switch goos {
	case constant.Darwin:
		return "brew install mpv"
	case constant.Linux:
		return "sudo apt install mpv"
	case constant.Windows:
		return "scoop install mpv"
	case constant.Android:
		return "pkg install mpv"
	default:
		return ""
	}
}

func printMissingDependencyError(dep string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(color.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The player '%s' was not found in your PATH.", dep))

	suggestion := fmt.Sprintf("\n\nSet another executable with:\n  %s",
		style.New().Foreground(style.AccentColor).Bold(true).Render(constant.LiveTV+" config set "+key.PlayerMPVPath+" /path/to/mpv"))
	if hint := installHint(runtime.GOOS); hint != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s%s", style.New().Foreground(style.AccentColor).Bold(true).Render(hint), suggestion)
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
