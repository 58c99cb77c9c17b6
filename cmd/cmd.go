package cmd

import (
	"fmt"

	"github.com/alecthomas/kong"

	"ndb-probe/session"
)

var (
	// Version information - set by main via SetVersionInfo
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// CLI represents the command line interface structure using Kong
type CLI struct {
	Menu    MenuCmd    `cmd:"" default:"1" help:"Interactive menu (default): pick a run mode"`
	Test    TestCmd    `cmd:"" help:"Run the full MCP scenario suite against the server"`
	Connect ConnectCmd `cmd:"" help:"Run the connectivity check only"`
	All     AllCmd     `cmd:"" help:"Run the connectivity check, then the scenario suite"`
	History HistoryCmd `cmd:"" help:"Show recorded diagnostic runs"`
	Mock    MockCmd    `cmd:"" help:"Serve a built-in mock NDB MCP server over stdio"`
	Version VersionCmd `cmd:"" help:"Show version information"`

	Config string `help:"Path to harness config file" type:"path"`
	Debug  bool   `help:"Enable debug logging on stderr"`
}

// MenuCmd represents the interactive menu command structure
type MenuCmd struct{}

// TestCmd represents the scenario suite command structure
type TestCmd struct{}

// ConnectCmd represents the connectivity check command structure
type ConnectCmd struct{}

// AllCmd represents the combined command structure
type AllCmd struct{}

// HistoryCmd represents the history command structure
type HistoryCmd struct {
	RunID  int64  `name:"run" help:"Show scenario results for one run id"`
	Limit  int    `help:"Number of runs to list" default:"20"`
	Format string `help:"Output format: table, json, yaml" default:"table"`
}

// MockCmd represents the mock server command structure
type MockCmd struct{}

// VersionCmd represents the version command structure
type VersionCmd struct{}

// Execute is the main entry point for all commands
func Execute() error {
	cli := &CLI{}

	ctx := kong.Parse(cli,
		kong.Name("ndb-probe"),
		kong.Description("NDB MCP Server Diagnostic Harness"),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s, built %s)", appVersion, appCommit, appDate),
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	if cli.Debug {
		session.EnableDebug()
	}

	return ctx.Run(cli)
}
