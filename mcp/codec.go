package mcp

import (
	"encoding/json"
	"fmt"
)

// Standard JSON-RPC/MCP error codes used in this project.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602

	CodeServerError = -32000
)

// NewRequest builds a request envelope for the given id, method, and params.
func NewRequest(id int64, method string, params any) Request {
	return Request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
}

// Notification builds a request envelope without an id. The server must not
// answer it.
func Notification(method string, params any) Request {
	return Request{JSONRPC: "2.0", Method: method, Params: params}
}

// Encode serializes the request to a single line without a trailing newline.
func (r Request) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}
	return string(data), nil
}

// DecodeResponse parses one line of server output as a response envelope.
// Text that is not a JSON-RPC 2.0 message is rejected.
func DecodeResponse(line string) (*Response, error) {
	var resp Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.JSONRPC != "2.0" {
		return nil, fmt.Errorf("not a JSON-RPC 2.0 message (jsonrpc=%q)", resp.JSONRPC)
	}
	return &resp, nil
}
