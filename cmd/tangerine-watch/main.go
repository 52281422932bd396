// Package main provides the entry point for the tangerine-watch CLI.
package main

import (
	"os"

	"github.com/opentangerine/watch/cmd/tangerine-watch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
