// Command patchwork applies, removes and traces extension patches over a
// world of base units.
package main

import (
	"os"

	"github.com/roach88/patchwork/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
