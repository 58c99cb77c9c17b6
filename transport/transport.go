// Package transport spawns the server under test as a child process and
// exposes line-oriented primitives over its standard streams. One Transport
// owns exactly one process for its whole lifetime; it is never restarted.
package transport

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"syscall"
)

// Sentinel errors for classification by callers.
var (
	// ErrStartup indicates the child process could not be launched.
	ErrStartup = errors.New("server process failed to start")
	// ErrNotStarted indicates an operation before Start.
	ErrNotStarted = errors.New("server process not started")
	// ErrAlreadyStarted indicates a second Start on the same Transport.
	ErrAlreadyStarted = errors.New("server process already started")
	// ErrStopped indicates an operation after Stop.
	ErrStopped = errors.New("server process stopped")
)

// Transport manages one child process and its stdio pipes. Reads and writes
// are strictly synchronous; the only concurrent caller allowed is Stop, which
// may run from a signal handler to unblock a pending read.
type Transport struct {
	command []string
	env     map[string]string

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	stderr  bytes.Buffer
	started bool
	stopped bool
	waitErr error
}

// New prepares a transport for the given command line. Environment overrides
// are merged over the ambient environment when the process starts.
func New(command []string, env map[string]string) *Transport {
	return &Transport{command: command, env: env}
}

// Start spawns the child process and wires its standard streams.
func (t *Transport) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return ErrAlreadyStarted
	}
	if len(t.command) == 0 {
		return fmt.Errorf("%w: empty command line", ErrStartup)
	}

	cmd := exec.Command(t.command[0], t.command[1:]...)
	cmd.Env = mergedEnv(t.env)
	cmd.Stderr = &t.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStartup, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStartup, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStartup, t.command[0], err)
	}

	t.cmd = cmd
	t.stdin = stdin
	t.stdout = bufio.NewReader(stdout)
	t.started = true
	return nil
}

// WriteLine appends a newline and writes the text to the child's stdin.
// The pipe is unbuffered on our side, so the write is flushed when it returns.
func (t *Transport) WriteLine(text string) error {
	t.mu.Lock()
	stdin, err := t.stdinLocked()
	t.mu.Unlock()
	if err != nil {
		return err
	}

	if _, err := io.WriteString(stdin, text+"\n"); err != nil {
		return fmt.Errorf("failed to write to server stdin: %w", err)
	}
	return nil
}

// ReadLine blocks until a full line arrives on the child's stdout or the
// stream closes. It returns the line without its trailing newline, or io.EOF
// when the stream closed with nothing pending. There is deliberately no read
// timeout: a hung server hangs the harness until the operator interrupts.
func (t *Transport) ReadLine() (string, error) {
	t.mu.Lock()
	stdout := t.stdout
	started, stopped := t.started, t.stopped
	t.mu.Unlock()

	if !started {
		return "", ErrNotStarted
	}
	if stopped {
		return "", ErrStopped
	}

	line, err := stdout.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return "", io.EOF
		}
		if line == "" {
			return "", fmt.Errorf("failed to read from server stdout: %w", err)
		}
		// A final unterminated line still counts as data.
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Stop terminates the child process, waits for it to exit, and releases the
// pipes. It is idempotent; repeat calls return nil without side effects.
func (t *Transport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started || t.stopped {
		return nil
	}
	t.stopped = true

	if t.stdin != nil {
		t.stdin.Close()
	}
	if t.cmd.Process != nil {
		if err := t.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			t.cmd.Process.Kill()
		}
	}
	// Wait reaps the child and closes the stdout pipe, unblocking any
	// pending ReadLine.
	t.waitErr = t.cmd.Wait()
	return nil
}

// Stderr returns everything the child wrote to its standard error so far.
func (t *Transport) Stderr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stderr.String()
}

func (t *Transport) stdinLocked() (io.WriteCloser, error) {
	if !t.started {
		return nil, ErrNotStarted
	}
	if t.stopped {
		return nil, ErrStopped
	}
	return t.stdin, nil
}

// mergedEnv layers overrides on top of the ambient environment. Override keys
// are emitted in sorted order so the child sees a deterministic environment.
func mergedEnv(overrides map[string]string) []string {
	env := os.Environ()
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}
