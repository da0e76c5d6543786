package main

import (
	"os"

	"github.com/apilevel/apilevel/internal/cli/commands"
)

var (
	// Version information - will be set at build time
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	commands.Version = version
	commands.GitCommit = gitCommit
	commands.BuildDate = buildDate

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
