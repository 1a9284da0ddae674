package units

// WiFiLevel is the discretized signal strength shown in the status bar.
type WiFiLevel int

const (
	WiFiNoSignal WiFiLevel = iota
	WiFiWeak
	WiFiFair
	WiFiGood
	WiFiExcellent
)

var wifiIconClasses = map[WiFiLevel]string{
	WiFiNoSignal:  "bi-wifi-off",
	WiFiWeak:      "bi-wifi-off",
	WiFiFair:      "bi-wifi-1",
	WiFiGood:      "bi-wifi-2",
	WiFiExcellent: "bi-wifi",
}

// WiFiLevelFromBars maps 0..4 signal bars to a level. Anything outside the
// range is reported as no signal.
func WiFiLevelFromBars(bars int) WiFiLevel {
	if bars < int(WiFiNoSignal) || bars > int(WiFiExcellent) {
		return WiFiNoSignal
	}
	return WiFiLevel(bars)
}

// IconClass returns the icon class name used by the UI.
func (l WiFiLevel) IconClass() string {
	if c, ok := wifiIconClasses[l]; ok {
		return c
	}
	return wifiIconClasses[WiFiNoSignal]
}

func (l WiFiLevel) String() string {
	switch l {
	case WiFiWeak:
		return "weak"
	case WiFiFair:
		return "fair"
	case WiFiGood:
		return "good"
	case WiFiExcellent:
		return "excellent"
	default:
		return "none"
	}
}
