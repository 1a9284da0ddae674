package service

import (
	"time"

	"smokemate/internal/models"
	"smokemate/internal/poller"
	"smokemate/internal/units"
)

// Derived holds presentation values computed from a status and the cached
// configuration's calibration.
type Derived struct {
	DoorPercent        int     `json:"door_percent"`
	FanPercent         int     `json:"fan_percent"`
	WiFiLevel          string  `json:"wifi_level"`
	WiFiIcon           string  `json:"wifi_icon"`
	TemperatureSmokerC float64 `json:"temperature_smoker_c"`
	TemperatureFoodC   float64 `json:"temperature_food_c"`
	TemperatureTargetC float64 `json:"temperature_target_c"`
	ProfileState       string  `json:"profile_state"`
	ActiveStep         *int    `json:"active_step,omitempty"`
	ActiveStepType     string  `json:"active_step_type,omitempty"`
}

// StatusView is a status snapshot with its derived values.
type StatusView struct {
	Status      models.DeviceStatus `json:"status"`
	Derived     Derived             `json:"derived"`
	Connected   bool                `json:"connected"`
	LastUpdated time.Time           `json:"last_updated,omitzero"`
}

// Present computes the derived values. Door percent needs the door
// references and is 0 until a configuration is known.
func Present(st models.DeviceStatus, cfg models.DeviceConfig) Derived {
	level := units.WiFiLevelFromBars(st.Bars)
	d := Derived{
		DoorPercent:        units.DoorPercent(st.DoorPosition, cfg.DoorClosePosition, cfg.DoorOpenPosition),
		FanPercent:         units.FanPercent(st.FanPWM),
		WiFiLevel:          level.String(),
		WiFiIcon:           level.IconClass(),
		TemperatureSmokerC: units.FahrenheitToCelsius(st.TemperatureSmoker),
		TemperatureFoodC:   units.FahrenheitToCelsius(st.TemperatureFood),
		TemperatureTargetC: units.FahrenheitToCelsius(st.TemperatureTarget),
		ProfileState:       st.ProfileState.String(),
	}
	if idx, ok := st.ActiveStep(); ok {
		d.ActiveStep = &idx
		d.ActiveStepType = st.TemperatureProfileStepType.String()
	}
	return d
}

type MonitoringService struct {
	store *poller.Store
}

func NewMonitoringService(store *poller.Store) *MonitoringService {
	return &MonitoringService{store: store}
}

// Status returns the last applied status with derived values.
func (s *MonitoringService) Status() (StatusView, bool) {
	st, ok := s.store.Status()
	if !ok {
		return StatusView{}, false
	}
	cfg, _ := s.store.Config()
	return StatusView{
		Status:      st,
		Derived:     Present(st, cfg),
		Connected:   s.store.Connected(),
		LastUpdated: s.store.LastUpdated(poller.ResourceStatus),
	}, true
}

// WireStatus is the status as served on the relay's /status: the last known
// sample with isConnected reflecting the latest poll. Before the first sample
// it is the zero status.
func (s *MonitoringService) WireStatus() models.DeviceStatus {
	st, ok := s.store.Status()
	if !ok {
		st = models.DeviceStatus{TemperatureProfileStepIndex: models.NoProfileStep}
	}
	st.IsConnected = s.store.Connected()
	st.Timestamp = time.Time{}
	return st
}

func (s *MonitoringService) Config() (models.DeviceConfig, bool) { return s.store.Config() }

func (s *MonitoringService) History() (models.History, bool) { return s.store.History() }

func (s *MonitoringService) PollStats() []poller.ResourceStats { return s.store.Stats() }
