// Package runner executes the fixed diagnostic scenario suite against one
// live server process. Scenarios run strictly in order, one full request and
// response exchange each; an individual failure never stops the rest of the
// suite.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ndb-probe/mcp"
	"ndb-probe/session"
)

// State tracks the runner lifecycle. Stopped is terminal and reachable from
// any state: normal completion, fatal error, or operator interrupt.
type State int

const (
	StateNotStarted State = iota
	StateStarted
	StateStopped
)

// String renders the state for logs and errors.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Sender is the request surface the runner needs. *rpc.Client satisfies it.
type Sender interface {
	Send(method string, params any, id int64) (*mcp.Response, error)
	Notify(method string, params any) error
}

// Process is the lifecycle surface of the server under test.
// *transport.Transport satisfies it.
type Process interface {
	Start() error
	Stop() error
}

// Result is the recorded outcome of one scenario.
type Result struct {
	Seq      int
	Name     string
	Outcome  Outcome
	Detail   string
	Duration time.Duration
}

// Report collects everything one run produced.
type Report struct {
	Mode          string
	ServerCommand string
	StartedAt     time.Time
	FinishedAt    time.Time
	Interrupted   bool
	Results       []Result
}

// Passed returns the number of passing scenarios.
func (r *Report) Passed() int { return r.count(OutcomePass) }

// Failed returns the number of failing scenarios.
func (r *Report) Failed() int { return r.count(OutcomeFail) }

// Warned returns the number of scenarios that ended in a warning.
func (r *Report) Warned() int { return r.count(OutcomeWarn) }

func (r *Report) count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Option customizes a Runner.
type Option func(*Runner)

// WithOutput redirects progress output (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithRecorder persists run progress through the given session recorder.
func WithRecorder(rec *session.ProgressRecorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithClientInfo overrides the identity announced during the MCP handshake.
func WithClientInfo(info mcp.Implementation) Option {
	return func(r *Runner) { r.clientInfo = info }
}

// Runner drives one run: start the process, handshake, scenario loop, stop.
type Runner struct {
	client     Sender
	proc       Process
	scenarios  []Scenario
	serverCmd  string
	out        io.Writer
	recorder   *session.ProgressRecorder
	clientInfo mcp.Implementation

	state  State
	nextID int64
}

// New builds a runner for the given client, process, and scenario suite.
// serverCmd is the display form of the child command line.
func New(client Sender, proc Process, scenarios []Scenario, serverCmd string, opts ...Option) *Runner {
	r := &Runner{
		client:     client,
		proc:       proc,
		scenarios:  scenarios,
		serverCmd:  serverCmd,
		out:        os.Stdout,
		clientInfo: mcp.Implementation{Name: "ndb-probe", Version: "dev"},
		state:      StateNotStarted,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State reports the current lifecycle state.
func (r *Runner) State() State { return r.state }

// Run executes the suite once. The process is stopped on every exit path,
// including a failed start and an interrupt; stop is idempotent so an
// out-of-band Stop (signal handler) does not conflict. A startup failure is
// fatal and returned; scenario-level failures only show up in the report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.state != StateNotStarted {
		return nil, fmt.Errorf("runner is %s; a runner drives exactly one run", r.state)
	}

	report := &Report{ServerCommand: r.serverCmd, StartedAt: time.Now()}

	if err := r.proc.Start(); err != nil {
		r.state = StateStopped
		return nil, err
	}
	r.state = StateStarted
	defer func() {
		r.proc.Stop()
		r.state = StateStopped
		report.FinishedAt = time.Now()
	}()

	fmt.Fprintf(r.out, "Started MCP server: %s\n", r.serverCmd)

	r.handshake()

	if r.recorder != nil {
		if err := r.recorder.Start(r.serverCmd, nil); err != nil {
			session.Debugf("recorder start: %v", err)
		}
	}

	total := len(r.scenarios)
	for i, sc := range r.scenarios {
		if ctx.Err() != nil {
			report.Interrupted = true
			fmt.Fprintln(r.out, "Run interrupted; stopping server")
			break
		}

		started := time.Now()
		resp, err := r.client.Send(sc.Method, sc.Params, r.id())
		outcome, detail := sc.Classify(resp, err)

		result := Result{
			Seq:      i + 1,
			Name:     sc.Name,
			Outcome:  outcome,
			Detail:   detail,
			Duration: time.Since(started),
		}
		report.Results = append(report.Results, result)
		r.printResult(result, total)

		if r.recorder != nil {
			if err := r.recorder.Scenario(sc.Name, report.Passed(), report.Failed(), report.Warned()); err != nil {
				session.Debugf("recorder scenario: %v", err)
			}
		}
	}

	fmt.Fprintf(r.out, "Summary: %d pass, %d fail, %d warn\n",
		report.Passed(), report.Failed(), report.Warned())
	return report, nil
}

// handshake performs the MCP initialize exchange. The suite intentionally
// survives a failed handshake: the server's reaction to the scenarios is the
// diagnostic signal, so a handshake problem only warns.
func (r *Runner) handshake() {
	params := mcp.InitializeParams{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      r.clientInfo,
	}
	resp, err := r.client.Send("initialize", params, r.id())
	switch {
	case err != nil:
		fmt.Fprintf(r.out, "Handshake: warn (%v)\n", err)
		return
	case resp.Error != nil:
		fmt.Fprintf(r.out, "Handshake: warn (server error %d: %s)\n", resp.Error.Code, resp.Error.Message)
		return
	}

	var result mcp.InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err == nil && result.ServerInfo.Name != "" {
		fmt.Fprintf(r.out, "Handshake: ok (server: %s %s)\n", result.ServerInfo.Name, result.ServerInfo.Version)
	} else {
		fmt.Fprintln(r.out, "Handshake: ok")
	}

	if err := r.client.Notify("notifications/initialized", nil); err != nil {
		fmt.Fprintf(r.out, "Handshake: warn (initialized notification: %v)\n", err)
	}
}

func (r *Runner) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *Runner) printResult(res Result, total int) {
	fmt.Fprintf(r.out, "Scenario %d/%d: %s ... %s\n", res.Seq, total, res.Name, res.Outcome)
	for _, line := range strings.Split(res.Detail, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprintf(r.out, "    %s\n", line)
	}
}
