package session

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/spf13/cast"

	"smokemate/internal/models"
	"smokemate/internal/units"
)

// ErrUnknownField is wrapped by FieldError when the name is not editable.
var ErrUnknownField = errors.New("unknown field")

// FieldError reports a rejected edit. The draft is left unchanged.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// setter applies one coerced value to a draft. touches lists the wire fields
// it may change; they are recorded as dirty.
type setter struct {
	touches []string
	apply   func(c *models.DeviceConfig, v any) error
}

// errNotWhole rejects fractional values for integer fields instead of
// truncating them.
var errNotWhole = errors.New("not a whole number")

func wholeInt64(v any) (int64, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errNotWhole
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, errors.New("out of range")
	}
	return int64(f), nil
}

func wholeInt(v any) (int, error) {
	n, err := wholeInt64(v)
	return int(n), err
}

func intSetter(field string, dst func(*models.DeviceConfig) *int) setter {
	return setter{touches: []string{field}, apply: func(c *models.DeviceConfig, v any) error {
		n, err := wholeInt(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}}
}

func floatSetter(field string, dst func(*models.DeviceConfig) *float64) setter {
	return setter{touches: []string{field}, apply: func(c *models.DeviceConfig, v any) error {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return err
		}
		*dst(c) = f
		return nil
	}}
}

func boolSetter(field string, dst func(*models.DeviceConfig) *bool) setter {
	return setter{touches: []string{field}, apply: func(c *models.DeviceConfig, v any) error {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}}
}

func stringSetter(field string, dst func(*models.DeviceConfig) *string) setter {
	return setter{touches: []string{field}, apply: func(c *models.DeviceConfig, v any) error {
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		*dst(c) = s
		return nil
	}}
}

// setters maps wire names and user-unit aliases to draft mutations.
var setters = map[string]setter{
	"temperatureTarget":             intSetter("temperatureTarget", func(c *models.DeviceConfig) *int { return &c.TemperatureTarget }),
	"temperatureIntervalMSec":       intSetter("temperatureIntervalMSec", func(c *models.DeviceConfig) *int { return &c.TemperatureIntervalMSec }),
	"isTemperatureProfilingEnabled": boolSetter("isTemperatureProfilingEnabled", func(c *models.DeviceConfig) *bool { return &c.IsTemperatureProfilingEnabled }),
	"isPIDEnabled":                  boolSetter("isPIDEnabled", func(c *models.DeviceConfig) *bool { return &c.IsPIDEnabled }),
	"kP":                            floatSetter("kP", func(c *models.DeviceConfig) *float64 { return &c.KP }),
	"kI":                            floatSetter("kI", func(c *models.DeviceConfig) *float64 { return &c.KI }),
	"kD":                            floatSetter("kD", func(c *models.DeviceConfig) *float64 { return &c.KD }),
	"bangBangLowThreshold":          intSetter("bangBangLowThreshold", func(c *models.DeviceConfig) *int { return &c.BangBangLowThreshold }),
	"bangBangHighThreshold":         intSetter("bangBangHighThreshold", func(c *models.DeviceConfig) *int { return &c.BangBangHighThreshold }),
	"bangBangHysteresis":            intSetter("bangBangHysteresis", func(c *models.DeviceConfig) *int { return &c.BangBangHysteresis }),
	"bangBangFanSpeed":              intSetter("bangBangFanSpeed", func(c *models.DeviceConfig) *int { return &c.BangBangFanSpeed }),
	"doorOpenPosition":              intSetter("doorOpenPosition", func(c *models.DeviceConfig) *int { return &c.DoorOpenPosition }),
	"doorClosePosition":             intSetter("doorClosePosition", func(c *models.DeviceConfig) *int { return &c.DoorClosePosition }),
	"themometerSmokerGain":          floatSetter("themometerSmokerGain", func(c *models.DeviceConfig) *float64 { return &c.ThermometerSmokerGain }),
	"themometerSmokerOffset":        floatSetter("themometerSmokerOffset", func(c *models.DeviceConfig) *float64 { return &c.ThermometerSmokerOffset }),
	"themometerFoodGain":            floatSetter("themometerFoodGain", func(c *models.DeviceConfig) *float64 { return &c.ThermometerFoodGain }),
	"themometerFoodOffset":          floatSetter("themometerFoodOffset", func(c *models.DeviceConfig) *float64 { return &c.ThermometerFoodOffset }),
	"isThemometerSimulated":         boolSetter("isThemometerSimulated", func(c *models.DeviceConfig) *bool { return &c.IsThermometerSimulated }),
	"isForcedFanPWM":                boolSetter("isForcedFanPWM", func(c *models.DeviceConfig) *bool { return &c.IsForcedFanPWM }),
	"forcedFanPWM":                  intSetter("forcedFanPWM", func(c *models.DeviceConfig) *int { return &c.ForcedFanPWM }),
	"isForcedDoorPosition":          boolSetter("isForcedDoorPosition", func(c *models.DeviceConfig) *bool { return &c.IsForcedDoorPosition }),
	"forcedDoorPosition":            intSetter("forcedDoorPosition", func(c *models.DeviceConfig) *int { return &c.ForcedDoorPosition }),
	"isWiFiEnabled":                 boolSetter("isWiFiEnabled", func(c *models.DeviceConfig) *bool { return &c.IsWiFiEnabled }),
	"wifiSSID":                      stringSetter("wifiSSID", func(c *models.DeviceConfig) *string { return &c.WiFiSSID }),
	"wifiPassword":                  stringSetter("wifiPassword", func(c *models.DeviceConfig) *string { return &c.WiFiPassword }),

	"temperatureIntervalSeconds": {touches: []string{"temperatureIntervalMSec"}, apply: func(c *models.DeviceConfig, v any) error {
		s, err := cast.ToFloat64E(v)
		if err != nil {
			return err
		}
		c.TemperatureIntervalMSec = int(math.Round(s * 1000))
		return nil
	}},
	"forcedFanPercent": {touches: []string{"forcedFanPWM"}, apply: func(c *models.DeviceConfig, v any) error {
		p, err := wholeInt(v)
		if err != nil {
			return err
		}
		c.ForcedFanPWM = units.FanDuty(p)
		return nil
	}},
	"forcedDoorPercent": {touches: []string{"forcedDoorPosition"}, apply: func(c *models.DeviceConfig, v any) error {
		p, err := wholeInt(v)
		if err != nil {
			return err
		}
		c.ForcedDoorPosition = units.DoorPosition(p, c.DoorClosePosition, c.DoorOpenPosition)
		return nil
	}},
	// The band is placed around the current target: low = target - w/2 and
	// high = low + w, so odd widths lean upward.
	"bangBangBandWidth": {touches: []string{"bangBangLowThreshold", "bangBangHighThreshold"}, apply: func(c *models.DeviceConfig, v any) error {
		w, err := wholeInt(v)
		if err != nil {
			return err
		}
		if w < 0 {
			return errors.New("band width must not be negative")
		}
		c.BangBangLowThreshold = c.TemperatureTarget - w/2
		c.BangBangHighThreshold = c.BangBangLowThreshold + w
		return nil
	}},
}

// EditableFields lists every name SetField accepts, sorted.
func EditableFields() []string {
	out := make([]string, 0, len(setters))
	for name := range setters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Step field names accepted by SetStepField.
const (
	StepFieldType             = "type"
	StepFieldDurationMinutes  = "durationMinutes"
	StepFieldDurationMSec     = "timeMSec"
	StepFieldTemperatureStart = "temperatureStart"
	StepFieldTemperatureEnd   = "temperatureEnd"
)

func applyStepField(step models.ProfileStep, field string, v any) (models.ProfileStep, error) {
	switch field {
	case StepFieldType:
		s, err := cast.ToStringE(v)
		if err != nil {
			return step, err
		}
		t, err := models.ParseStepType(s)
		if err != nil {
			return step, err
		}
		return step.WithType(t), nil
	case StepFieldDurationMinutes:
		m, err := wholeInt64(v)
		if err != nil {
			return step, err
		}
		return step.WithDuration(units.MinutesToMs(m)), nil
	case StepFieldDurationMSec:
		ms, err := wholeInt64(v)
		if err != nil {
			return step, err
		}
		return step.WithDuration(ms), nil
	case StepFieldTemperatureStart:
		n, err := wholeInt(v)
		if err != nil {
			return step, err
		}
		return step.WithStart(n), nil
	case StepFieldTemperatureEnd:
		n, err := wholeInt(v)
		if err != nil {
			return step, err
		}
		// No effect on a dwell; its end always reads as its start.
		return step.WithEnd(n), nil
	}
	return step, ErrUnknownField
}

// defaultStepDuration is the duration of rows added by SetStepCount.
const defaultStepDuration = 60

// newStep builds the row appended when the profile grows: a dwell holding the
// previous step's end temperature, or the target for the first row.
func newStep(c models.DeviceConfig) models.ProfileStep {
	start := c.TemperatureTarget
	if n := len(c.TemperatureProfile); n > 0 {
		start = c.TemperatureProfile[n-1].TemperatureEnd()
	}
	return models.Dwell(start, units.MinutesToMs(defaultStepDuration))
}
