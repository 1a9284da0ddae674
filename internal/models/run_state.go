package models

import "time"

// RunState is the relay's view of the current run: when the controller last
// went from not running to running, and what it reported last.
type RunState struct {
	RunStartedAt time.Time `json:"run_started_at,omitzero"`
	LastRunning  bool      `json:"last_running"`
	Observed     bool      `json:"observed"` // at least one status has been seen
	UpdatedAt    time.Time `json:"updated_at,omitzero"`
}

// HasRun reports whether a run start has been recorded.
func (s RunState) HasRun() bool { return !s.RunStartedAt.IsZero() }
