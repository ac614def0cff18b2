// Package main is the entry point for the livetv application.
package main

import (
	"github.com/livetv-cli/livetv/cmd"
	"github.com/livetv-cli/livetv/config"
	"github.com/livetv-cli/livetv/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
