package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ndb-probe/config"
	"ndb-probe/mcp"
	"ndb-probe/mockserver"
	"ndb-probe/rpc"
	"ndb-probe/runner"
	"ndb-probe/session"
	"ndb-probe/store"
	"ndb-probe/transport"
)

// connectTimeout bounds the external connectivity script. The scenario suite
// itself has no timeouts; only this out-of-band check is bounded.
const connectTimeout = 60 * time.Second

// RunMode is the closed set of run modes the front end dispatches on.
// Adding a mode means extending every switch below; the compiler and the
// exhaustive default arms keep the dispatch honest.
type RunMode int

const (
	ModeScenarios RunMode = iota
	ModeConnect
	ModeBoth
)

// String renders the mode for reports and history rows.
func (m RunMode) String() string {
	switch m {
	case ModeScenarios:
		return "scenarios"
	case ModeConnect:
		return "connect"
	case ModeBoth:
		return "both"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// parseMenuChoice maps an operator's menu selection onto a run mode.
func parseMenuChoice(choice string) (RunMode, error) {
	switch strings.TrimSpace(choice) {
	case "1":
		return ModeScenarios, nil
	case "2":
		return ModeConnect, nil
	case "3":
		return ModeBoth, nil
	default:
		return 0, fmt.Errorf("invalid choice: %q (expected 1, 2, or 3)", choice)
	}
}

func dispatch(cfg *config.Config, mode RunMode) error {
	switch mode {
	case ModeScenarios:
		return runScenarios(cfg, mode)
	case ModeConnect:
		return runConnect(cfg)
	case ModeBoth:
		if err := runConnect(cfg); err != nil {
			return err
		}
		fmt.Println(strings.Repeat("=", 50))
		return runScenarios(cfg, mode)
	default:
		return fmt.Errorf("unhandled run mode: %s", mode)
	}
}

// Run implements the interactive menu command execution
func (m *MenuCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	fmt.Println("ndb-probe - NDB MCP Server Diagnostic Harness")
	fmt.Println()
	fmt.Println("Select test type:")
	fmt.Println("1. Full MCP scenario suite")
	fmt.Println("2. NDB connectivity check only")
	fmt.Println("3. Both")
	fmt.Print("\nEnter choice (1-3): ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return fmt.Errorf("no selection read")
	}
	mode, err := parseMenuChoice(scanner.Text())
	if err != nil {
		return err
	}
	fmt.Println()

	return dispatch(cfg, mode)
}

// Run implements the scenario suite command execution
func (t *TestCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	return dispatch(cfg, ModeScenarios)
}

// Run implements the connectivity check command execution
func (c *ConnectCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	return dispatch(cfg, ModeConnect)
}

// Run implements the combined command execution
func (a *AllCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	return dispatch(cfg, ModeBoth)
}

// runScenarios spawns the server under test and drives the fixed suite.
// Scenario outcomes never turn into a non-zero exit; only missing
// prerequisites and startup failures do.
func runScenarios(cfg *config.Config, mode RunMode) error {
	if cfg.ServerArtifact != "" {
		if _, err := os.Stat(cfg.ServerArtifact); err != nil {
			return fmt.Errorf("server not built: %s is missing (run 'npm run build' first)", cfg.ServerArtifact)
		}
	}

	printConfig(cfg)

	// An operator interrupt stops the server process out of band, which
	// unblocks any pending read; the runner then winds down and the
	// deferred stop is a no-op.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr := transport.New(cfg.ServerCommand, cfg.ServerEnv())
	go func() {
		<-ctx.Done()
		tr.Stop()
	}()

	key := "run-" + time.Now().UTC().Format("20060102-150405")
	recorder := session.NewProgressRecorder(session.NewRunSession(key, mode.String()))

	r := runner.New(
		rpc.NewClient(tr),
		tr,
		runner.DefaultScenarios(cfg.ListTool, cfg.CallTool),
		strings.Join(cfg.ServerCommand, " "),
		runner.WithRecorder(recorder),
		runner.WithClientInfo(mcp.Implementation{Name: "ndb-probe", Version: appVersion}),
	)

	report, err := r.Run(ctx)
	if err != nil {
		return err
	}
	report.Mode = mode.String()

	saveReport(cfg, report)

	if report.Interrupted {
		fmt.Println("Run interrupted by user")
	}
	return nil
}

// runConnect runs the external connectivity-only check. The script's own
// pass or fail is reported, not escalated; only a missing script is a
// prerequisite error.
func runConnect(cfg *config.Config) error {
	if len(cfg.ConnectCommand) == 0 {
		return fmt.Errorf("connect_command is not configured")
	}

	printConfig(cfg)
	fmt.Printf("Running connection check: %s\n", strings.Join(cfg.ConnectCommand, " "))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cfg.ConnectCommand[0], cfg.ConnectCommand[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	for k, v := range cfg.ServerEnv() {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	err := cmd.Run()
	switch {
	case err == nil:
		fmt.Println("Connection check passed")
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		fmt.Printf("Connection check timed out after %s\n", connectTimeout)
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("connection check script not found: %s (run 'npm run build' first)", cfg.ConnectCommand[0])
	default:
		fmt.Printf("Connection check failed: %v\n", err)
	}
	return nil
}

func printConfig(cfg *config.Config) {
	fmt.Println("Configuration:")
	fmt.Printf("  %s: %s\n", config.EnvBaseURL, cfg.BaseURL)
	fmt.Printf("  %s: %s\n", config.EnvUsername, cfg.Username)
	fmt.Printf("  %s: %s\n", config.EnvPassword, cfg.MaskedPassword())
	fmt.Printf("  %s: %s\n", config.EnvVerifySSL, cfg.VerifySSL)
	fmt.Println()
}

// saveReport records the run in the history database. History is best
// effort: a storage problem must not fail an otherwise completed run.
func saveReport(cfg *config.Config, report *runner.Report) {
	if cfg.DatabasePath != "" {
		store.SetDBPath(cfg.DatabasePath)
	}
	db, err := store.InitDatabase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: history database unavailable: %v\n", err)
		return
	}
	defer db.Close()

	runID, err := store.SaveRun(db, report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record run: %v\n", err)
		return
	}
	fmt.Printf("Run recorded in history (id %d)\n", runID)
}

// Run implements the history command execution
func (h *HistoryCmd) Run(cli *CLI) error {
	format, err := store.ParseOutputFormat(h.Format)
	if err != nil {
		return err
	}

	// History must work without server credentials, so only the yaml
	// config is consulted for the database location.
	if cfg, err := config.Load(cli.Config); err == nil && cfg.DatabasePath != "" {
		store.SetDBPath(cfg.DatabasePath)
	}

	db, err := store.InitDatabase()
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	opts := store.ViewOptions{Format: format}
	if h.RunID != 0 {
		return store.ViewResults(db, h.RunID, opts)
	}
	return store.ViewRuns(db, h.Limit, opts)
}

// Run implements the mock server command execution
func (m *MockCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return mockserver.Serve(ctx, appVersion)
}

// Run implements the version command execution
func (v *VersionCmd) Run(cli *CLI) error {
	fmt.Printf("ndb-probe version %s\n", appVersion)
	fmt.Printf("commit: %s\n", appCommit)
	fmt.Printf("built at: %s\n", appDate)
	return nil
}
