// Command ultistats records ultimate points from two statkeepers.
package main

import (
	"os"

	"github.com/roach88/ultistats/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
