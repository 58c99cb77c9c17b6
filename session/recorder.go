package session

import (
	"fmt"
	"sync"
)

// ProgressRecorder updates the persisted session as scenarios complete.
type ProgressRecorder struct {
	session *RunSession
	mu      sync.Mutex
}

// NewProgressRecorder returns a recorder bound to a run session.
func NewProgressRecorder(rs *RunSession) *ProgressRecorder {
	return &ProgressRecorder{session: rs}
}

// Start records the server command before the first scenario runs.
func (r *ProgressRecorder) Start(serverCommand string, metadata map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session.ServerCommand = serverCommand
	r.session.Metadata = cloneMetadata(metadata)
	return r.persist()
}

// Scenario records one completed scenario and the running outcome counts.
func (r *ProgressRecorder) Scenario(name string, passed, failed, warned int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session.LastScenario = name
	r.session.Completed++
	r.session.Passed = passed
	r.session.Failed = failed
	r.session.Warned = warned
	return r.persist()
}

func (r *ProgressRecorder) persist() error {
	if err := SaveRun(r.session); err != nil {
		return fmt.Errorf("failed to persist run session: %w", err)
	}
	return nil
}

func cloneMetadata(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
