// Command fleetdesk manages fleet driver records.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/fleetdesk/internal/cli"
	"github.com/roach88/fleetdesk/internal/config"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCommandError)
	}

	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
