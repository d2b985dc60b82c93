package main

import (
	"os"

	"github.com/Project-Sylos/Arbor/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
