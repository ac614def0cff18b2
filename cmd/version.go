// Package cmd implements the command-line interface for livetv.
package cmd

import (
	"os"
	"runtime"
	"strings"
	"text/template"

	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/style"
	"github.com/livetv-cli/livetv/version"
	"github.com/samber/lo"

	"github.com/livetv-cli/livetv/constant"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Display only the version string without metadata")
	versionCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	versionCmd.MarkFlagsMutuallyExclusive("short", "json")
}

// versionCmd displays application version and build metadata.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display exhaustive version and build metadata",
	Long:  "Display the current application version, build revision, platform architecture, and related metadata.",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		versionInfo := struct {
			Version  string `json:"version"`
			OS       string `json:"os"`
			Arch     string `json:"arch"`
			BuiltAt  string `json:"builtAt"`
			BuiltBy  string `json:"builtBy"`
			Revision string `json:"revision"`
			App      string `json:"app"`
		}{
			Version:  constant.Version,
			App:      constant.LiveTV,
			OS:       runtime.GOOS,
			Arch:     runtime.GOARCH,
			BuiltAt:  strings.TrimSpace(constant.BuiltAt),
			BuiltBy:  constant.BuiltBy,
			Revision: constant.Revision,
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(encodeJSON(cmd.OutOrStdout(), versionInfo))
			return
		}

		defer version.Notify(cmd.OutOrStdout())

		t, err := template.New("version").Funcs(map[string]any{
			"faint":   style.Faint,
			"bold":    style.Bold,
			"magenta": style.Fg(color.Purple),
			"green":   style.Fg(color.Green),
			"repeat":  strings.Repeat,
			"concat": func(a, b string) string {
				return a + b
			},
		}).Parse(`{{ magenta "▇▇▇" }} {{ magenta .App }} 

  {{ faint "Version" }}         {{ bold .Version }}
  {{ faint "Git Commit" }}      {{ bold .Revision }} 
  {{ faint "Build Date" }}  	  {{ bold .BuiltAt }}
  {{ faint "Built By" }}        {{ bold .BuiltBy }}
  {{ faint "Platform" }}        {{ bold .OS }}/{{ bold .Arch }}
`)
		handleErr(err)
		handleErr(t.Execute(cmd.OutOrStdout(), versionInfo))
	},
}
