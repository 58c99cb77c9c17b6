package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ndb-probe/mcp"
	"ndb-probe/rpc"
)

// Outcome classifies one scenario exchange.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	OutcomeWarn Outcome = "warn"
)

// Scenario is one scripted exchange with a classification rule. Scenarios are
// built once per run and never mutated.
type Scenario struct {
	Name     string
	Method   string
	Params   any
	Classify func(resp *mcp.Response, err error) (Outcome, string)
}

const (
	maxToolsShown    = 5
	maxTextLines     = 3
	descPrefixLength = 60
)

// DefaultScenarios returns the fixed suite in its fixed order: list tools,
// call the list tool, call a second tool, then provoke the error contract
// with an unknown tool name.
func DefaultScenarios(listTool, callTool string) []Scenario {
	return []Scenario{
		{
			Name:     "list tools",
			Method:   "tools/list",
			Classify: classifyListTools,
		},
		{
			Name:     "call " + listTool,
			Method:   "tools/call",
			Params:   mcp.CallToolParams{Name: listTool, Arguments: map[string]any{}},
			Classify: classifyTextToolCall,
		},
		{
			Name:     "call " + callTool,
			Method:   "tools/call",
			Params:   mcp.CallToolParams{Name: callTool, Arguments: map[string]any{}},
			Classify: classifyAnyResult,
		},
		{
			Name:     "error handling for unknown tool",
			Method:   "tools/call",
			Params:   mcp.CallToolParams{Name: "invalid_tool_name", Arguments: map[string]any{}},
			Classify: classifyExpectedError,
		},
	}
}

// classifyExchangeFailure maps client-level errors to a failed outcome.
// The ok flag reports whether a usable response exists.
func classifyExchangeFailure(resp *mcp.Response, err error) (Outcome, string, bool) {
	switch {
	case errors.Is(err, rpc.ErrNoResponse):
		return OutcomeFail, "no response from server", false
	case errors.Is(err, rpc.ErrDecode):
		return OutcomeFail, err.Error(), false
	case err != nil:
		return OutcomeFail, err.Error(), false
	case resp == nil:
		return OutcomeFail, "no response from server", false
	}
	return OutcomePass, "", true
}

func classifyListTools(resp *mcp.Response, err error) (Outcome, string) {
	if outcome, detail, ok := classifyExchangeFailure(resp, err); !ok {
		return outcome, detail
	}
	if resp.Error != nil {
		return OutcomeFail, fmt.Sprintf("server error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	var result mcp.ListToolsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return OutcomeFail, fmt.Sprintf("result is not a tool listing: %v", err)
	}
	if len(result.Tools) == 0 {
		return OutcomeWarn, "server exposes no tools"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "found %d tools", len(result.Tools))
	for i, tool := range result.Tools {
		if i == maxToolsShown {
			fmt.Fprintf(&b, "\n... and %d more tools", len(result.Tools)-maxToolsShown)
			break
		}
		fmt.Fprintf(&b, "\n- %s: %s", tool.Name, prefix(tool.Description, descPrefixLength))
	}
	return OutcomePass, b.String()
}

func classifyTextToolCall(resp *mcp.Response, err error) (Outcome, string) {
	if outcome, detail, ok := classifyExchangeFailure(resp, err); !ok {
		return outcome, detail
	}
	if resp.Error != nil {
		return OutcomeFail, fmt.Sprintf("server error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	var result mcp.CallToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return OutcomeFail, fmt.Sprintf("result is not a tool call result: %v", err)
	}
	if len(result.Content) == 0 {
		return OutcomeWarn, "empty content in tool result"
	}

	first := result.Content[0]
	detail := fmt.Sprintf("content type: %s", first.Type)
	if first.Type == "text" {
		for _, line := range firstLines(first.Text, maxTextLines) {
			detail += "\n" + line
		}
	}
	return OutcomePass, detail
}

func classifyAnyResult(resp *mcp.Response, err error) (Outcome, string) {
	if outcome, detail, ok := classifyExchangeFailure(resp, err); !ok {
		return outcome, detail
	}
	if resp.Error != nil {
		return OutcomeFail, fmt.Sprintf("server error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Result) == 0 {
		return OutcomeFail, "response carries neither result nor error"
	}
	return OutcomePass, "result present"
}

// classifyExpectedError inverts the contract: the server answering an unknown
// tool with an error object is the passing case.
func classifyExpectedError(resp *mcp.Response, err error) (Outcome, string) {
	if outcome, detail, ok := classifyExchangeFailure(resp, err); !ok {
		return outcome, detail
	}
	if resp.Error != nil {
		return OutcomePass, fmt.Sprintf("error contract honored (%d: %s)", resp.Error.Code, resp.Error.Message)
	}
	return OutcomeWarn, "unexpected success for an unknown tool"
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func firstLines(s string, n int) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return lines
}
