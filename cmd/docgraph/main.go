// Command docgraph stores, forks and reconstructs content-addressed documents.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/docgraph/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
