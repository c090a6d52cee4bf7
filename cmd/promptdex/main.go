// Package main provides the entry point for the promptdex CLI.
package main

import (
	"os"

	"github.com/promptdex/promptdex/cmd/promptdex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
