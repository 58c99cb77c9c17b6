package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"ndb-probe/mcp"
	"ndb-probe/transport"
)

// scriptedTransport returns canned lines in order and records every write.
type scriptedTransport struct {
	lines    []string
	writes   []string
	writeErr error
	readErr  error
}

func (s *scriptedTransport) WriteLine(text string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes = append(s.writes, text)
	return nil
}

func (s *scriptedTransport) ReadLine() (string, error) {
	if s.readErr != nil {
		return "", s.readErr
	}
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestSendDecodesResult(t *testing.T) {
	t.Parallel()

	st := &scriptedTransport{lines: []string{`{"jsonrpc":"2.0","id":3,"result":{"tools":[]}}`}}
	resp, err := NewClient(st).Send("tools/list", nil, 3)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error object: %+v", resp.Error)
	}

	if len(st.writes) != 1 {
		t.Fatalf("writes = %d, want exactly 1", len(st.writes))
	}
	var req mcp.Request
	if err := json.Unmarshal([]byte(st.writes[0]), &req); err != nil {
		t.Fatalf("written line is not a request: %v", err)
	}
	if req.ID != 3 || req.Method != "tools/list" {
		t.Errorf("wrote id=%d method=%q", req.ID, req.Method)
	}
}

func TestSendPassesThroughErrorObject(t *testing.T) {
	t.Parallel()

	st := &scriptedTransport{lines: []string{`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found"}}`}}
	resp, err := NewClient(st).Send("tools/call", mcp.CallToolParams{Name: "nope", Arguments: map[string]any{}}, 1)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.Error == nil || resp.Error.Code != mcp.CodeMethodNotFound {
		t.Fatalf("expected method-not-found error object, got %+v", resp.Error)
	}
}

func TestSendNoResponse(t *testing.T) {
	t.Parallel()

	st := &scriptedTransport{}
	_, err := NewClient(st).Send("tools/list", nil, 1)
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("Send() error = %v, want ErrNoResponse", err)
	}
	if errors.Is(err, ErrTransport) {
		t.Fatal("no-data must not classify as a transport failure")
	}
}

func TestSendDecodeFailure(t *testing.T) {
	t.Parallel()

	st := &scriptedTransport{lines: []string{"NDB MCP server listening"}}
	_, err := NewClient(st).Send("tools/list", nil, 1)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Send() error = %v, want ErrDecode", err)
	}
}

func TestSendTransportFailure(t *testing.T) {
	t.Parallel()

	t.Run("on write", func(t *testing.T) {
		t.Parallel()
		st := &scriptedTransport{writeErr: errors.New("broken pipe")}
		_, err := NewClient(st).Send("tools/list", nil, 1)
		if !errors.Is(err, ErrTransport) {
			t.Fatalf("Send() error = %v, want ErrTransport", err)
		}
	})

	t.Run("on read", func(t *testing.T) {
		t.Parallel()
		st := &scriptedTransport{readErr: errors.New("file already closed")}
		_, err := NewClient(st).Send("tools/list", nil, 1)
		if !errors.Is(err, ErrTransport) {
			t.Fatalf("Send() error = %v, want ErrTransport", err)
		}
	})
}

func TestSendBeforeTransportStart(t *testing.T) {
	t.Parallel()

	tr := transport.New([]string{"cat"}, nil)
	_, err := NewClient(tr).Send("tools/list", nil, 1)
	if !errors.Is(err, transport.ErrNotStarted) {
		t.Fatalf("Send() error = %v, want transport.ErrNotStarted", err)
	}
	if errors.Is(err, ErrTransport) {
		t.Fatal("not-started must stay distinct from a transport failure")
	}
}

func TestNotifyWritesWithoutReading(t *testing.T) {
	t.Parallel()

	st := &scriptedTransport{lines: []string{"must not be consumed"}}
	if err := NewClient(st).Notify("notifications/initialized", nil); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(st.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(st.writes))
	}
	if len(st.lines) != 1 {
		t.Fatal("Notify consumed a read")
	}
}
