// Command monoteny is the CLI entry point: run/check/transpile a source
// file or directory, delegating all real work to pkg/cli (spec.md §6).
package main

import (
	"os"

	"github.com/monoteny-lang/monoteny/pkg/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
