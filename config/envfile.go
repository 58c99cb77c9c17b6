package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ParseEnvFile reads KEY=VALUE lines from path. An absent file is not an
// error and yields an empty map. Blank lines, comment lines, and lines
// without '=' are skipped silently. Keys and values are trimmed and one layer
// of matching surrounding quotes is stripped from the value.
func ParseEnvFile(path string) (map[string]string, error) {
	vars := make(map[string]string)
	if path == "" {
		return vars, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return vars, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open env file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		vars[key] = unquote(strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	return vars, nil
}

// unquote strips exactly one layer of matching single or double quotes.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first == last && (first == '"' || first == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
