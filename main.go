package main

import (
	"os"

	"github.com/luisdotcom/db-hub/internal/cli"
)

var Version string = "1.0.0"

func main() {
	cli.Version = Version
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
