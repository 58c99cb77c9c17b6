package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNotFound indicates that the requested session entry was not found.
var ErrNotFound = errors.New("session entry not found")

// runFileState represents the serialized session.json contents.
type runFileState struct {
	Runs map[string]*RunSession `json:"runs"`
}

// RunSession describes the persisted state for an in-flight diagnostic run.
type RunSession struct {
	Key           string            `json:"key"`
	Mode          string            `json:"mode"`
	ServerCommand string            `json:"server_command"`
	LastScenario  string            `json:"last_scenario,omitempty"`
	Completed     int               `json:"completed"`
	Passed        int               `json:"passed"`
	Failed        int               `json:"failed"`
	Warned        int               `json:"warned"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	UpdatedAt     string            `json:"updated_at"`
}

var (
	stateMutex sync.Mutex

	pathMutex  sync.RWMutex
	customPath string
)

// Path returns the location of the session file. It uses a custom override
// when set, falling back to the default configuration directory.
func Path() string {
	pathMutex.RLock()
	override := customPath
	pathMutex.RUnlock()
	if override != "" {
		return override
	}
	return defaultSessionPath()
}

// NewRunSession constructs a new run session with the provided key and mode.
func NewRunSession(key, mode string) *RunSession {
	return &RunSession{
		Key:      key,
		Mode:     mode,
		Metadata: map[string]string{},
	}
}

// Clone returns a deep copy of the session for safe persistence.
func (rs *RunSession) Clone() *RunSession {
	cloned := *rs
	if rs.Metadata != nil {
		cloned.Metadata = make(map[string]string, len(rs.Metadata))
		for k, v := range rs.Metadata {
			cloned.Metadata[k] = v
		}
	}
	return &cloned
}

// SaveRun stores or updates the run session for the given key.
func SaveRun(rs *RunSession) error {
	stateMutex.Lock()
	defer stateMutex.Unlock()

	state, err := loadState()
	if err != nil {
		return err
	}

	if state.Runs == nil {
		state.Runs = make(map[string]*RunSession)
	}
	rs.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	state.Runs[rs.Key] = rs.Clone()

	return saveState(state)
}

// LoadRun retrieves the stored run session for the provided key.
func LoadRun(key string) (*RunSession, error) {
	stateMutex.Lock()
	defer stateMutex.Unlock()

	state, err := loadState()
	if err != nil {
		return nil, err
	}

	rs, ok := state.Runs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return rs.Clone(), nil
}

// RemoveRun deletes the stored session associated with the key.
func RemoveRun(key string) error {
	stateMutex.Lock()
	defer stateMutex.Unlock()

	state, err := loadState()
	if err != nil {
		return err
	}

	if state.Runs != nil {
		delete(state.Runs, key)
	}

	return saveState(state)
}

func loadState() (*runFileState, error) {
	path := Path()
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &runFileState{Runs: make(map[string]*RunSession)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if len(content) == 0 {
		return &runFileState{Runs: make(map[string]*RunSession)}, nil
	}

	var state runFileState
	if err := json.Unmarshal(content, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session file: %w", err)
	}

	if state.Runs == nil {
		state.Runs = make(map[string]*RunSession)
	}

	return &state, nil
}

func saveState(state *runFileState) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary session file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// SetPath overrides the session file path. Empty string resets to the default
// location.
func SetPath(path string) {
	pathMutex.Lock()
	defer pathMutex.Unlock()
	if path == "" {
		customPath = ""
		return
	}
	cleaned := filepath.Clean(path)
	if !filepath.IsAbs(cleaned) {
		if abs, err := filepath.Abs(cleaned); err == nil {
			customPath = abs
			return
		}
	}
	customPath = cleaned
}

func defaultSessionPath() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", "ndb-probe", "session.json")
	}
	return "session.json"
}
