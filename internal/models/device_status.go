package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// NoProfileStep is the step index reported when no profile step is active.
const NoProfileStep = -1

// ProfileRunState mirrors the controller's profile execution flag.
type ProfileRunState int

const (
	ProfileIdle ProfileRunState = iota
	ProfileRunning
	ProfileFinished
)

// Running reports whether a profile is currently executing.
func (s ProfileRunState) Running() bool { return s == ProfileRunning }

func (s ProfileRunState) String() string {
	switch s {
	case ProfileRunning:
		return "running"
	case ProfileFinished:
		return "finished"
	default:
		return "idle"
	}
}

// DeviceStatus is one telemetry sample. Values are never mutated after
// parsing; a newer sample replaces an older one wholesale.
type DeviceStatus struct {
	Timestamp           time.Time `json:"timestamp,omitzero"` // set on history records only
	IsConnected         bool      `json:"isConnected"`
	IsRunning           bool      `json:"isRunning"`
	UUID                string    `json:"uuid"`
	Uptime              int64     `json:"uptime"`
	ControllerStartMSec int64     `json:"controllerStartMSec"`
	TemperatureSmoker   float64   `json:"temperatureSmoker"` // °F
	TemperatureFood     float64   `json:"temperatureFood"`   // °F
	TemperatureTarget   float64   `json:"temperatureTarget"` // °F
	FanPWM              int       `json:"fanPWM"`            // raw duty 0..255
	DoorPosition        int       `json:"doorPosition"`      // raw servo position
	RSSI                int       `json:"RSSI"`
	Bars                int       `json:"bars"`
	IPAddress           string    `json:"ipAddress"`
	IsWiFiConnected     bool      `json:"isWiFiConnected"`
	NetworkName         string    `json:"networkName"`
	TemperatureError    float64   `json:"temperatureError"`

	ProfileState                    ProfileRunState `json:"isProfileRunning"`
	TemperatureProfileStepIndex     int             `json:"temperatureProfileStepIndex"`
	TemperatureProfileStartTimeMSec int64           `json:"temperatureProfileStartTimeMSec"`
	TemperatureProfileStepsCount    int             `json:"temperatureProfileStepsCount"`
	TemperatureProfileStepType      StepType        `json:"temperatureProfileStepType"`
}

// ActiveStep reports the active profile step index, if any.
func (s DeviceStatus) ActiveStep() (int, bool) {
	if s.TemperatureProfileStepIndex == NoProfileStep {
		return 0, false
	}
	return s.TemperatureProfileStepIndex, true
}

// ParseStatus validates a status body. Absent fields keep their zero value
// (the step index defaults to NoProfileStep); present fields must carry the
// right JSON type.
func ParseStatus(raw []byte) (DeviceStatus, error) {
	r, err := newFieldReader(ResourceStatus, raw)
	if err != nil {
		return DeviceStatus{}, err
	}
	return readStatus(r)
}

func readStatus(r *fieldReader) (DeviceStatus, error) {
	s := DeviceStatus{TemperatureProfileStepIndex: NoProfileStep}

	r.time("timestamp", &s.Timestamp)
	r.bool("isConnected", &s.IsConnected)
	r.bool("isRunning", &s.IsRunning)
	r.string("uuid", &s.UUID)
	r.int64("uptime", &s.Uptime)
	r.int64("controllerStartMSec", &s.ControllerStartMSec)
	r.float("temperatureSmoker", &s.TemperatureSmoker)
	r.float("temperatureFood", &s.TemperatureFood)
	r.float("temperatureTarget", &s.TemperatureTarget)
	r.int("fanPWM", &s.FanPWM)
	r.int("doorPosition", &s.DoorPosition)
	r.int("RSSI", &s.RSSI)
	r.int("bars", &s.Bars)
	r.string("ipAddress", &s.IPAddress)
	r.bool("isWiFiConnected", &s.IsWiFiConnected)
	r.string("networkName", &s.NetworkName)
	r.float("temperatureError", &s.TemperatureError)
	r.int("temperatureProfileStepIndex", &s.TemperatureProfileStepIndex)
	r.int64("temperatureProfileStartTimeMSec", &s.TemperatureProfileStartTimeMSec)
	r.int("temperatureProfileStepsCount", &s.TemperatureProfileStepsCount)
	readProfileState(r, &s.ProfileState)
	readStepType(r, "temperatureProfileStepType", &s.TemperatureProfileStepType)
	if err := r.result(); err != nil {
		return DeviceStatus{}, err
	}

	idx, count := s.TemperatureProfileStepIndex, s.TemperatureProfileStepsCount
	if idx != NoProfileStep && (idx < 0 || idx >= count) {
		return DeviceStatus{}, &ParseError{
			Resource: r.resource,
			Field:    r.prefix + "temperatureProfileStepIndex",
			Reason:   fmt.Sprintf("index %d outside [0,%d) and not %d", idx, count, NoProfileStep),
		}
	}
	return s, nil
}

// readProfileState accepts the firmware's 0/1/2 integer or a plain boolean.
func readProfileState(r *fieldReader, dst *ProfileRunState) {
	const field = "isProfileRunning"
	v := r.lookup(field)
	if v == nil {
		return
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		if b {
			*dst = ProfileRunning
		} else {
			*dst = ProfileIdle
		}
		return
	}
	var n int
	r.int(field, &n)
	if r.err != nil {
		return
	}
	if n < int(ProfileIdle) || n > int(ProfileFinished) {
		r.fail(field, "unknown profile state "+strconv.Itoa(n), nil)
		return
	}
	*dst = ProfileRunState(n)
}

// History is the ordered list of samples of the current run, oldest first.
// A history poll replaces it wholesale.
type History []DeviceStatus

// ParseHistory validates a history body: a JSON array of status records.
func ParseHistory(raw []byte) (History, error) {
	raw = bytes.TrimSpace(raw)
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(raw) == 0 || raw[0] != '[' {
		return nil, &ParseError{Resource: ResourceHistory, Reason: "expected a JSON array", Err: err}
	}
	out := make(History, 0, len(items))
	for i, item := range items {
		r, err := newFieldReader(ResourceHistory, item)
		if err != nil {
			return nil, &ParseError{Resource: ResourceHistory, Field: "[" + strconv.Itoa(i) + "]", Reason: "malformed record", Err: errNotObject}
		}
		r.prefix = "[" + strconv.Itoa(i) + "]."
		s, err := readStatus(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Latest returns the newest sample.
func (h History) Latest() (DeviceStatus, bool) {
	if len(h) == 0 {
		return DeviceStatus{}, false
	}
	return h[len(h)-1], true
}

// Clone returns an independent copy.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	return append(History(nil), h...)
}

// Len is the number of samples.
func (h History) Len() int { return len(h) }

// Window returns a copy of the newest n samples, or all of them when n is not
// positive or exceeds the length.
func (h History) Window(n int) History {
	if n <= 0 || n >= len(h) {
		return h.Clone()
	}
	return append(History(nil), h[len(h)-n:]...)
}

// Decimate thins the history to at most max samples by repeatedly dropping
// every second sample, keeping the first. Order is preserved.
func (h History) Decimate(max int) History {
	out := h.Clone()
	if max <= 0 {
		return out
	}
	for len(out) > max {
		kept := out[:0]
		for i := 0; i < len(out); i += 2 {
			kept = append(kept, out[i])
		}
		out = kept
	}
	return out
}
