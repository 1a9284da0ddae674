package models

import "time"

// Event types recorded by the relay.
const (
	EventStart      = "START"
	EventStop       = "STOP"
	EventConfigSet  = "CONFIG_SET"
	EventRunStarted = "RUN_STARTED"
)

// DeviceEvent is a single log entry about a control action or a run transition.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // START | STOP | CONFIG_SET | RUN_STARTED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
