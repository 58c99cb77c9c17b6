package mcp

import "encoding/json"

// ProtocolVersion is the MCP protocol revision announced during initialize.
const ProtocolVersion = "2024-11-05"

// Request represents a JSON-RPC 2.0/MCP request payload.
// A zero ID marks a notification and is omitted from the wire form.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response represents a JSON-RPC 2.0/MCP response payload.
// Either Result or Error will be set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// InitializeParams is the client half of the MCP initialize handshake.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      Implementation `json:"clientInfo"`
}

// Implementation identifies an MCP client or server implementation.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the server half of the MCP initialize handshake.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ServerInfo      Implementation `json:"serverInfo"`
}

// CallToolParams is the parameter mapping for a tools/call request.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Tool is one descriptor from a tools/list result.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListToolsResult is the result shape of tools/list.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// Content is one element of a tools/call result content sequence.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallToolResult is the result shape of tools/call.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}
