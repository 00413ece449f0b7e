// cmd/edgebench/main.go
package main

import (
	cmd "github.com/mwiater/edgebench/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// main starts the edgebench CLI by delegating to the cobra root command.
// Build metadata is injected with -ldflags "-X main.version=...".
func main() {
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
