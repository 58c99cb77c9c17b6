package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Patterns and length constraints are exported for reuse (e.g., JSON Schema).
const (
	ToolNamePattern = "^[A-Za-z0-9][A-Za-z0-9_.-]*$"
	EnvKeyPattern   = "^[A-Z_][A-Z0-9_]*$"

	ToolNameMin = 1
	ToolNameMax = 128

	EnvKeyMin = 1
	EnvKeyMax = 256
)

var (
	reTool = regexp.MustCompile(ToolNamePattern)
	reEnv  = regexp.MustCompile(EnvKeyPattern)
)

// Sentinel errors for classification by callers.
var (
	ErrInvalidToolName = errors.New("invalid tool name")
	ErrInvalidEnvKey   = errors.New("invalid environment key")
)

// ValidateToolName checks the MCP tool name rule: 1-128 chars, alnum,
// underscore, dot, or hyphen, starting with an alphanumeric character.
func ValidateToolName(s string) error {
	s = strings.TrimSpace(s)
	if len(s) < ToolNameMin || len(s) > ToolNameMax || !reTool.MatchString(s) {
		return fmt.Errorf("%w: %d-%d chars alnum, underscore, dot, or hyphen, alnum first", ErrInvalidToolName, ToolNameMin, ToolNameMax)
	}
	return nil
}

// ValidateEnvKey checks environment variable key rule: uppercase alnum and
// underscore, not starting with a digit.
func ValidateEnvKey(s string) error {
	s = strings.TrimSpace(s)
	if len(s) < EnvKeyMin || len(s) > EnvKeyMax || !reEnv.MatchString(s) {
		return fmt.Errorf("%w: uppercase alnum and underscore only, no leading digit", ErrInvalidEnvKey)
	}
	return nil
}
