package main

import (
	"os"

	"github.com/alignstack-labs/tokalign/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
