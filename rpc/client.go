// Package rpc implements the synchronous JSON-RPC client used against the
// server under test. Every call is one write followed by exactly one blocking
// read; there is no pipelining and at most one outstanding request, which is
// what makes id correlation trivial against a server that answers in receipt
// order.
package rpc

import (
	"errors"
	"fmt"
	"io"

	"ndb-probe/mcp"
	"ndb-probe/transport"
)

// Sentinel errors for classification by callers. A response that carries an
// error object is not represented here: that is a successful exchange at the
// transport level and surfaces as Response.Error.
var (
	// ErrTransport indicates a pipe break or unexpected process exit mid-call.
	ErrTransport = errors.New("transport failure")
	// ErrDecode indicates server output that is not a protocol message.
	ErrDecode = errors.New("malformed response")
	// ErrNoResponse indicates the stream closed with nothing pending.
	ErrNoResponse = errors.New("no response from server")
)

// LineTransport is the wire primitive the client needs. *transport.Transport
// satisfies it; tests substitute scripted implementations.
type LineTransport interface {
	WriteLine(text string) error
	ReadLine() (string, error)
}

// Client issues requests over a started line transport.
type Client struct {
	t LineTransport
}

// NewClient returns a client bound to the given transport.
func NewClient(t LineTransport) *Client {
	return &Client{t: t}
}

// Send writes one request and reads exactly one response line.
//
// Error classification:
//   - transport.ErrNotStarted passes through untouched (no side effects),
//   - ErrNoResponse when the stream closed before any data,
//   - ErrTransport wrapping the cause for pipe breaks and process exits,
//   - ErrDecode wrapping the cause for undecodable text.
//
// A decode failure aborts the call without retrying the read; the scenario
// owns the recovery decision.
func (c *Client) Send(method string, params any, id int64) (*mcp.Response, error) {
	line, err := mcp.NewRequest(id, method, params).Encode()
	if err != nil {
		return nil, err
	}

	if err := c.t.WriteLine(line); err != nil {
		return nil, classifyTransportErr(err)
	}

	raw, err := c.t.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoResponse
		}
		return nil, classifyTransportErr(err)
	}

	resp, err := mcp.DecodeResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w (line: %s)", ErrDecode, err, truncate(raw, 120))
	}
	return resp, nil
}

// Notify writes one notification and does not read. Used for the
// notifications/initialized message of the MCP handshake.
func (c *Client) Notify(method string, params any) error {
	line, err := mcp.Notification(method, params).Encode()
	if err != nil {
		return err
	}
	if err := c.t.WriteLine(line); err != nil {
		return classifyTransportErr(err)
	}
	return nil
}

func classifyTransportErr(err error) error {
	if errors.Is(err, transport.ErrNotStarted) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
