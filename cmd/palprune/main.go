// palprune removes unused colors and empty palettes from animation scenes.
package main

import (
	"os"

	"github.com/jmylchreest/palprune/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
