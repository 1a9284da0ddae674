package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DeviceConfig is the controller's mutable configuration. The controller owns
// the authoritative copy; anything held here is a cache of the last poll or
// a draft being edited. Temperatures are °F, times are milliseconds, fan and
// door values are raw device units.
type DeviceConfig struct {
	TemperatureTarget       int
	TemperatureIntervalMSec int

	IsTemperatureProfilingEnabled bool
	TemperatureProfile            []ProfileStep

	IsPIDEnabled bool
	KP           float64
	KI           float64
	KD           float64

	BangBangLowThreshold  int
	BangBangHighThreshold int
	BangBangHysteresis    int
	BangBangFanSpeed      int

	DoorOpenPosition  int
	DoorClosePosition int

	ThermometerSmokerGain   float64
	ThermometerSmokerOffset float64
	ThermometerFoodGain     float64
	ThermometerFoodOffset   float64
	IsThermometerSimulated  bool

	IsForcedFanPWM bool
	ForcedFanPWM   int

	IsForcedDoorPosition bool
	ForcedDoorPosition   int

	IsWiFiEnabled bool
	WiFiSSID      string
	// WiFiPassword is write-only: it is sent on submit when set and is
	// never read back from the controller.
	WiFiPassword string
}

// StepsCount is the number of profile steps.
func (c DeviceConfig) StepsCount() int { return len(c.TemperatureProfile) }

// Clone returns a deep copy.
func (c DeviceConfig) Clone() DeviceConfig {
	out := c
	if c.TemperatureProfile != nil {
		out.TemperatureProfile = append([]ProfileStep(nil), c.TemperatureProfile...)
	}
	return out
}

// WireProfileStep is the wire form of one profile step.
type WireProfileStep struct {
	TemperatureStartF int      `json:"temperatureStartF"`
	TemperatureEndF   int      `json:"temperatureEndF"`
	TimeMSec          int64    `json:"timeMSec"`
	Type              StepType `json:"type"`
}

// WireConfig is the body of GET /config and the full-replacement body of
// POST /config. Field names are the controller's contract; the "themometer"
// spelling included.
type WireConfig struct {
	TemperatureTarget       int `json:"temperatureTarget"`
	TemperatureIntervalMSec int `json:"temperatureIntervalMSec"`

	IsTemperatureProfilingEnabled bool              `json:"isTemperatureProfilingEnabled"`
	TemperatureProfileStepsCount  int               `json:"temperatureProfileStepsCount"`
	TemperatureProfile            []WireProfileStep `json:"temperatureProfile"`

	IsPIDEnabled bool    `json:"isPIDEnabled"`
	KP           float64 `json:"kP"`
	KI           float64 `json:"kI"`
	KD           float64 `json:"kD"`

	BangBangLowThreshold  int `json:"bangBangLowThreshold"`
	BangBangHighThreshold int `json:"bangBangHighThreshold"`
	BangBangHysteresis    int `json:"bangBangHysteresis"`
	BangBangFanSpeed      int `json:"bangBangFanSpeed"`

	DoorOpenPosition  int `json:"doorOpenPosition"`
	DoorClosePosition int `json:"doorClosePosition"`

	ThemometerSmokerGain   float64 `json:"themometerSmokerGain"`
	ThemometerSmokerOffset float64 `json:"themometerSmokerOffset"`
	ThemometerFoodGain     float64 `json:"themometerFoodGain"`
	ThemometerFoodOffset   float64 `json:"themometerFoodOffset"`
	IsThemometerSimulated  bool    `json:"isThemometerSimulated"`

	IsForcedFanPWM bool `json:"isForcedFanPWM"`
	ForcedFanPWM   int  `json:"forcedFanPWM"`

	IsForcedDoorPosition bool `json:"isForcedDoorPosition"`
	ForcedDoorPosition   int  `json:"forcedDoorPosition"`

	IsWiFiEnabled bool   `json:"isWiFiEnabled"`
	WiFiSSID      string `json:"wifiSSID"`
	WiFiPassword  string `json:"wifiPassword,omitempty"`
}

// ToWirePayload translates a configuration into its wire form. The step count
// is derived from the step list, dwell steps carry end = start, and the
// password is only included when one was entered.
func ToWirePayload(c DeviceConfig) WireConfig {
	steps := make([]WireProfileStep, 0, len(c.TemperatureProfile))
	for _, s := range c.TemperatureProfile {
		steps = append(steps, WireProfileStep{
			TemperatureStartF: s.TemperatureStart(),
			TemperatureEndF:   s.TemperatureEnd(),
			TimeMSec:          s.DurationMSec(),
			Type:              s.Type(),
		})
	}
	return WireConfig{
		TemperatureTarget:             c.TemperatureTarget,
		TemperatureIntervalMSec:       c.TemperatureIntervalMSec,
		IsTemperatureProfilingEnabled: c.IsTemperatureProfilingEnabled,
		TemperatureProfileStepsCount:  len(steps),
		TemperatureProfile:            steps,
		IsPIDEnabled:                  c.IsPIDEnabled,
		KP:                            c.KP,
		KI:                            c.KI,
		KD:                            c.KD,
		BangBangLowThreshold:          c.BangBangLowThreshold,
		BangBangHighThreshold:         c.BangBangHighThreshold,
		BangBangHysteresis:            c.BangBangHysteresis,
		BangBangFanSpeed:              c.BangBangFanSpeed,
		DoorOpenPosition:              c.DoorOpenPosition,
		DoorClosePosition:             c.DoorClosePosition,
		ThemometerSmokerGain:          c.ThermometerSmokerGain,
		ThemometerSmokerOffset:        c.ThermometerSmokerOffset,
		ThemometerFoodGain:            c.ThermometerFoodGain,
		ThemometerFoodOffset:          c.ThermometerFoodOffset,
		IsThemometerSimulated:         c.IsThermometerSimulated,
		IsForcedFanPWM:                c.IsForcedFanPWM,
		ForcedFanPWM:                  c.ForcedFanPWM,
		IsForcedDoorPosition:          c.IsForcedDoorPosition,
		ForcedDoorPosition:            c.ForcedDoorPosition,
		IsWiFiEnabled:                 c.IsWiFiEnabled,
		WiFiSSID:                      c.WiFiSSID,
		WiFiPassword:                  c.WiFiPassword,
	}
}

// ParseConfig validates a configuration body. Besides field types it
// enforces that the step list length matches temperatureProfileStepsCount and
// that the target sits inside the bang-bang band. wifiPassword is ignored.
func ParseConfig(raw []byte) (DeviceConfig, error) {
	return parseConfig(raw, false)
}

// ParseSubmittedConfig is ParseConfig for a full-replacement body coming from
// a client: wifiPassword is kept.
func ParseSubmittedConfig(raw []byte) (DeviceConfig, error) {
	return parseConfig(raw, true)
}

func parseConfig(raw []byte, withPassword bool) (DeviceConfig, error) {
	r, err := newFieldReader(ResourceConfig, raw)
	if err != nil {
		return DeviceConfig{}, err
	}

	var c DeviceConfig
	if withPassword {
		r.string("wifiPassword", &c.WiFiPassword)
	}
	r.int("temperatureTarget", &c.TemperatureTarget)
	r.int("temperatureIntervalMSec", &c.TemperatureIntervalMSec)
	r.bool("isTemperatureProfilingEnabled", &c.IsTemperatureProfilingEnabled)
	r.bool("isPIDEnabled", &c.IsPIDEnabled)
	r.float("kP", &c.KP)
	r.float("kI", &c.KI)
	r.float("kD", &c.KD)
	r.int("bangBangLowThreshold", &c.BangBangLowThreshold)
	r.int("bangBangHighThreshold", &c.BangBangHighThreshold)
	r.int("bangBangHysteresis", &c.BangBangHysteresis)
	r.int("bangBangFanSpeed", &c.BangBangFanSpeed)
	r.int("doorOpenPosition", &c.DoorOpenPosition)
	r.int("doorClosePosition", &c.DoorClosePosition)
	r.float("themometerSmokerGain", &c.ThermometerSmokerGain)
	r.float("themometerSmokerOffset", &c.ThermometerSmokerOffset)
	r.float("themometerFoodGain", &c.ThermometerFoodGain)
	r.float("themometerFoodOffset", &c.ThermometerFoodOffset)
	r.bool("isThemometerSimulated", &c.IsThermometerSimulated)
	r.bool("isForcedFanPWM", &c.IsForcedFanPWM)
	r.int("forcedFanPWM", &c.ForcedFanPWM)
	r.bool("isForcedDoorPosition", &c.IsForcedDoorPosition)
	r.int("forcedDoorPosition", &c.ForcedDoorPosition)
	r.bool("isWiFiEnabled", &c.IsWiFiEnabled)
	r.string("wifiSSID", &c.WiFiSSID)

	count := 0
	r.int("temperatureProfileStepsCount", &count)
	items := r.objects("temperatureProfile")
	if err := r.result(); err != nil {
		return DeviceConfig{}, err
	}
	if count != len(items) {
		return DeviceConfig{}, &ParseError{
			Resource: ResourceConfig,
			Field:    "temperatureProfile",
			Reason:   fmt.Sprintf("temperatureProfileStepsCount is %d but %d steps were sent", count, len(items)),
		}
	}
	if count > MaxProfileSteps {
		return DeviceConfig{}, &ParseError{
			Resource: ResourceConfig,
			Field:    "temperatureProfileStepsCount",
			Reason:   fmt.Sprintf("%d steps exceeds the maximum of %d", count, MaxProfileSteps),
		}
	}
	if count > 0 {
		c.TemperatureProfile = make([]ProfileStep, 0, count)
	}
	for i, item := range items {
		step, err := parseStep(i, item)
		if err != nil {
			return DeviceConfig{}, err
		}
		c.TemperatureProfile = append(c.TemperatureProfile, step)
	}

	if c.BangBangLowThreshold > c.TemperatureTarget || c.TemperatureTarget > c.BangBangHighThreshold {
		return DeviceConfig{}, &ParseError{
			Resource: ResourceConfig,
			Field:    "bangBangLowThreshold",
			Reason: fmt.Sprintf("thresholds out of order: low %d, target %d, high %d",
				c.BangBangLowThreshold, c.TemperatureTarget, c.BangBangHighThreshold),
		}
	}
	return c, nil
}

func parseStep(i int, item json.RawMessage) (ProfileStep, error) {
	r, err := newFieldReader(ResourceConfig, item)
	if err != nil {
		return ProfileStep{}, &ParseError{
			Resource: ResourceConfig,
			Field:    "temperatureProfile[" + strconv.Itoa(i) + "]",
			Reason:   "malformed step",
			Err:      errNotObject,
		}
	}
	r.prefix = "temperatureProfile[" + strconv.Itoa(i) + "]."

	var (
		start, end int
		duration   int64
		kind       StepType
	)
	r.int("temperatureStartF", &start)
	r.int("temperatureEndF", &end)
	r.int64("timeMSec", &duration)
	readStepType(r, "type", &kind)
	if err := r.result(); err != nil {
		return ProfileStep{}, err
	}
	if duration < 0 {
		return ProfileStep{}, &ParseError{Resource: ResourceConfig, Field: r.prefix + "timeMSec", Reason: "negative duration"}
	}
	if kind == StepDwell {
		return Dwell(start, duration), nil
	}
	return Ramp(start, end, duration), nil
}
