// Package main implements ndb-probe, a diagnostic CLI for the NDB MCP server.
// The tool spawns the server as a child process, exchanges JSON-RPC messages
// over its standard streams, and checks protocol compliance and tool behavior
// against a fixed set of scenarios.
package main

import (
	"fmt"
	"os"

	"ndb-probe/cmd"
)

func main() {
	cmd.SetVersionInfo(Version, Commit, Date)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
