// Command listenleak runs event-listener leak detection scenarios.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/listenleak/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
