package version

import (
	"fmt"
	"io"

	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/style"
	"github.com/livetv-cli/livetv/util"
	"github.com/spf13/viper"
)

// Notify prints a banner to w when a newer release than the running one exists.
func Notify(w io.Writer) {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	latest, err := Latest()
	erase()
	if err != nil {
		log.Debugf("version check: %s", err)
		return
	}

	if !IsNewer(latest) {
		return
	}

	_, _ = fmt.Fprintf(w, `
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/livetv-cli/livetv/releases/tag/v"+latest),
	)
}

// IsNewer reports whether latest is ahead of the running version.
func IsNewer(latest string) bool {
	comp, err := Compare(latest, constant.Version)
	return err == nil && comp > 0
}
