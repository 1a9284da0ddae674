package models

import (
	"fmt"
	"strings"
)

const maxRawDuty = 255

// ValidateDraft checks a draft before submission. The result is advisory;
// an empty slice means the draft can be sent.
func ValidateDraft(c DeviceConfig) []FieldViolation {
	var out []FieldViolation
	add := func(field, format string, args ...any) {
		out = append(out, FieldViolation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.BangBangLowThreshold > c.BangBangHighThreshold {
		add("bangBangLowThreshold", "low threshold %d is above high threshold %d",
			c.BangBangLowThreshold, c.BangBangHighThreshold)
	}
	if c.TemperatureTarget < c.BangBangLowThreshold || c.TemperatureTarget > c.BangBangHighThreshold {
		add("temperatureTarget", "target %d is outside the bang-bang band [%d, %d]",
			c.TemperatureTarget, c.BangBangLowThreshold, c.BangBangHighThreshold)
	}
	if c.BangBangHysteresis < 0 {
		add("bangBangHysteresis", "must not be negative")
	}
	if c.BangBangFanSpeed < 0 || c.BangBangFanSpeed > maxRawDuty {
		add("bangBangFanSpeed", "must be within 0..%d", maxRawDuty)
	}
	if c.TemperatureIntervalMSec <= 0 {
		add("temperatureIntervalMSec", "must be positive")
	}
	if c.DoorOpenPosition == c.DoorClosePosition {
		add("doorOpenPosition", "open and close positions must differ")
	}
	if c.ForcedFanPWM < 0 || c.ForcedFanPWM > maxRawDuty {
		add("forcedFanPWM", "must be within 0..%d", maxRawDuty)
	}

	if n := len(c.TemperatureProfile); n > MaxProfileSteps {
		add("temperatureProfileStepsCount", "%d steps exceeds the maximum of %d", n, MaxProfileSteps)
	}
	if c.IsTemperatureProfilingEnabled && len(c.TemperatureProfile) == 0 {
		add("isTemperatureProfilingEnabled", "profiling needs at least one step")
	}
	for i, s := range c.TemperatureProfile {
		if s.DurationMSec() < 0 {
			add(fmt.Sprintf("temperatureProfile[%d].timeMSec", i), "must not be negative")
		}
	}

	if c.IsWiFiEnabled && strings.TrimSpace(c.WiFiSSID) == "" {
		add("wifiSSID", "required when Wi-Fi is enabled")
	}
	return out
}
