package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MaxProfileSteps is the controller's fixed profile capacity.
const MaxProfileSteps = 10

// StepType is the kind of a temperature profile step. On the wire it is the
// controller's enum value (0 dwell, 1 ramp).
type StepType int

const (
	StepDwell StepType = iota
	StepRamp
)

func (t StepType) String() string {
	switch t {
	case StepDwell:
		return "DWELL"
	case StepRamp:
		return "RAMP"
	default:
		return "StepType(" + strconv.Itoa(int(t)) + ")"
	}
}

// ParseStepType accepts "DWELL"/"RAMP" (any case) or "0"/"1".
func ParseStepType(s string) (StepType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DWELL", "0":
		return StepDwell, nil
	case "RAMP", "1":
		return StepRamp, nil
	}
	return 0, fmt.Errorf("unknown step type %q", s)
}

// readStepType accepts the numeric enum or its name.
func readStepType(r *fieldReader, field string, dst *StepType) {
	v := r.lookup(field)
	if v == nil {
		return
	}
	var name string
	if err := json.Unmarshal(v, &name); err == nil {
		t, err := ParseStepType(name)
		if err != nil {
			r.fail(field, "unknown step type", err)
			return
		}
		*dst = t
		return
	}
	var n int
	r.int(field, &n)
	if r.err != nil {
		return
	}
	if n != int(StepDwell) && n != int(StepRamp) {
		r.fail(field, "unknown step type "+strconv.Itoa(n), nil)
		return
	}
	*dst = StepType(n)
}

// ProfileStep is one segment of a temperature profile. It is either a dwell
// (holds one temperature) or a ramp (moves from start to end); construct it
// with Dwell or Ramp. A dwell's end temperature always reads as its start.
type ProfileStep struct {
	kind         StepType
	start        int // °F
	end          int // °F, ramp only
	durationMSec int64
}

// Dwell holds start for durationMSec.
func Dwell(start int, durationMSec int64) ProfileStep {
	return ProfileStep{kind: StepDwell, start: start, durationMSec: durationMSec}
}

// Ramp moves linearly from start to end over durationMSec.
func Ramp(start, end int, durationMSec int64) ProfileStep {
	return ProfileStep{kind: StepRamp, start: start, end: end, durationMSec: durationMSec}
}

func (s ProfileStep) Type() StepType        { return s.kind }
func (s ProfileStep) TemperatureStart() int { return s.start }
func (s ProfileStep) DurationMSec() int64   { return s.durationMSec }
func (s ProfileStep) IsDwell() bool         { return s.kind == StepDwell }

// TemperatureEnd is the start temperature for a dwell.
func (s ProfileStep) TemperatureEnd() int {
	if s.kind == StepDwell {
		return s.start
	}
	return s.end
}

// WithType converts the step. A dwell becoming a ramp starts flat.
func (s ProfileStep) WithType(t StepType) ProfileStep {
	if t == StepRamp {
		return Ramp(s.start, s.TemperatureEnd(), s.durationMSec)
	}
	return Dwell(s.start, s.durationMSec)
}

func (s ProfileStep) WithStart(v int) ProfileStep {
	s.start = v
	return s
}

// WithEnd has no effect on a dwell.
func (s ProfileStep) WithEnd(v int) ProfileStep {
	if s.kind == StepRamp {
		s.end = v
	}
	return s
}

func (s ProfileStep) WithDuration(ms int64) ProfileStep {
	s.durationMSec = ms
	return s
}

func (s ProfileStep) String() string {
	if s.kind == StepDwell {
		return fmt.Sprintf("DWELL %d°F for %dms", s.start, s.durationMSec)
	}
	return fmt.Sprintf("RAMP %d→%d°F over %dms", s.start, s.end, s.durationMSec)
}
