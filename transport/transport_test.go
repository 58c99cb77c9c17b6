package transport

import (
	"errors"
	"io"
	"runtime"
	"testing"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests drive POSIX shell children")
	}
}

func TestWriteThenReadEcho(t *testing.T) {
	skipWithoutShell(t)

	tr := New([]string{"cat"}, nil)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer tr.Stop()

	if err := tr.WriteLine(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`); err != nil {
		t.Fatalf("WriteLine() error = %v", err)
	}
	line, err := tr.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine() error = %v", err)
	}
	if line != `{"jsonrpc":"2.0","id":1,"method":"tools/list"}` {
		t.Errorf("ReadLine() = %q", line)
	}
}

func TestEnvironmentOverridesReachChild(t *testing.T) {
	skipWithoutShell(t)

	tr := New([]string{"sh", "-c", `echo "$PROBE_TEST_VALUE"`}, map[string]string{"PROBE_TEST_VALUE": "from-override"})
	if err := tr.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer tr.Stop()

	line, err := tr.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine() error = %v", err)
	}
	if line != "from-override" {
		t.Errorf("child saw %q, want %q", line, "from-override")
	}
}

func TestStartFailure(t *testing.T) {
	tr := New([]string{"/nonexistent/ndb-server-binary"}, nil)
	err := tr.Start()
	if !errors.Is(err, ErrStartup) {
		t.Fatalf("Start() error = %v, want ErrStartup", err)
	}
}

func TestReadLineAfterChildExitsSilently(t *testing.T) {
	skipWithoutShell(t)

	tr := New([]string{"true"}, nil)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer tr.Stop()

	if _, err := tr.ReadLine(); !errors.Is(err, io.EOF) {
		t.Fatalf("ReadLine() error = %v, want io.EOF", err)
	}
}

func TestOperationsBeforeStart(t *testing.T) {
	tr := New([]string{"cat"}, nil)

	if err := tr.WriteLine("x"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("WriteLine() error = %v, want ErrNotStarted", err)
	}
	if _, err := tr.ReadLine(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("ReadLine() error = %v, want ErrNotStarted", err)
	}
	// Stop before Start is a no-op, not an error.
	if err := tr.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	skipWithoutShell(t)

	tr := New([]string{"cat"}, nil)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := tr.Stop(); err != nil {
		t.Fatalf("first Stop() error = %v", err)
	}
	if err := tr.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}

	if err := tr.WriteLine("x"); !errors.Is(err, ErrStopped) {
		t.Errorf("WriteLine() after Stop error = %v, want ErrStopped", err)
	}
}

func TestStartTwice(t *testing.T) {
	skipWithoutShell(t)

	tr := New([]string{"cat"}, nil)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer tr.Stop()

	if err := tr.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestStderrCaptured(t *testing.T) {
	skipWithoutShell(t)

	tr := New([]string{"sh", "-c", "echo oops >&2"}, nil)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	tr.Stop()

	if got := tr.Stderr(); got != "oops\n" {
		t.Errorf("Stderr() = %q, want %q", got, "oops\n")
	}
}
