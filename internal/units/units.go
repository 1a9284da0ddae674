// Package units holds the pure conversions between device-native values
// (raw duty, raw door position, milliseconds, Fahrenheit) and the units the
// dashboard presents to people.
package units

import "math"

// Fan duty is an 8-bit PWM value on the controller.
const (
	MaxFanDuty  = 255
	msPerMinute = 60_000
)

// DoorPercent maps a raw door position onto percent-of-travel between the
// closed and open references. The references may be ordered either way.
// A degenerate calibration (equal references) yields 0.
func DoorPercent(position, closedRef, openRef int) int {
	span := openRef - closedRef
	if span == 0 {
		return 0
	}
	return roundInt(100 * float64(position-closedRef) / float64(span))
}

// DoorPosition is the inverse of DoorPercent.
func DoorPosition(percent, closedRef, openRef int) int {
	return closedRef + roundInt(float64(percent)*float64(openRef-closedRef)/100)
}

// FanPercent converts an 8-bit duty value to percent.
func FanPercent(duty int) int {
	return roundInt(100 * float64(duty) / MaxFanDuty)
}

// FanDuty converts percent to an 8-bit duty value, clamped to 0..255.
func FanDuty(percent int) int {
	d := roundInt(float64(percent) * MaxFanDuty / 100)
	switch {
	case d < 0:
		return 0
	case d > MaxFanDuty:
		return MaxFanDuty
	default:
		return d
	}
}

// MinutesToMs converts minutes to milliseconds.
func MinutesToMs(m int64) int64 { return m * msPerMinute }

// MsToMinutes converts milliseconds to whole minutes, rounding to nearest.
func MsToMinutes(ms int64) int64 {
	return int64(math.Round(float64(ms) / msPerMinute))
}

// CelsiusToFahrenheit converts °C to °F.
func CelsiusToFahrenheit(c float64) float64 { return c*9/5 + 32 }

// FahrenheitToCelsius converts °F to °C.
func FahrenheitToCelsius(f float64) float64 { return (f - 32) * 5 / 9 }

func roundInt(v float64) int { return int(math.Round(v)) }
