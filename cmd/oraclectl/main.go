// Package main is the entry point for the oraclectl CLI.
package main

import (
	"os"

	"distance-oracle/cmd/oraclectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
