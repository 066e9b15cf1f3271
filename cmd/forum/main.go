// Package main is the entry point for the forum server and its admin tooling.
package main

import (
	"fmt"
	"os"

	"github.com/aussiebroadwan/forum/internal/forum/app"
)

// Version information set at build time.
var (
	commit = "unknown"
	date   = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", app.BuildVersion, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
