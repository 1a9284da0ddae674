package service

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"smokemate/internal/logger"
	"smokemate/internal/models"
)

// ----------- Simulation constants -----------
const (
	AmbientF          = 70.0  // ambient temperature °F
	HeatFPerSec       = 1.5   // °F per second at full fan with the door open
	LossPerSec        = 0.004 // fraction of (smoker - ambient) lost per second
	ClosedDoorLossMul = 0.5   // a closed door halves the loss
	FoodLagPerSec     = 0.01  // fraction of (smoker - food) absorbed per second
	pidIntegralMax    = 10000.0
)

type bangBangState int

const (
	bangBangIdle bangBangState = iota
	bangBangHeat
	bangBangCool
)

// DefaultSimulatorConfig is what the simulated controller boots with.
func DefaultSimulatorConfig() models.DeviceConfig {
	return models.DeviceConfig{
		TemperatureTarget:       225,
		TemperatureIntervalMSec: 1000,
		KP:                      8,
		KI:                      0.02,
		KD:                      1,
		BangBangLowThreshold:    220,
		BangBangHighThreshold:   230,
		BangBangHysteresis:      2,
		BangBangFanSpeed:        255,
		DoorOpenPosition:        180,
		DoorClosePosition:       0,
		ThermometerSmokerGain:   1,
		ThermometerFoodGain:     1,
		IsWiFiEnabled:           true,
		WiFiSSID:                "simulated",
	}
}

// SimulatorService is an in-process controller. It serves the same reads
// and commands as the device client so the binaries can run without
// hardware.
type SimulatorService struct {
	log *logger.Logger
	now func() time.Time

	mu        sync.Mutex
	cfg       models.DeviceConfig
	bootedAt  time.Time
	updatedAt time.Time
	uuid      string

	running      bool
	startedAt    time.Time
	smokerF      float64
	foodF        float64
	fanPWM       int
	door         int
	bangBang     bangBangState
	integral     float64
	prevError    float64
	profile      models.ProfileRunState
	profileStart time.Time
	stepIndex    int
	history      models.History
}

// NewSimulatorService returns a cold controller at ambient temperature.
func NewSimulatorService(log *logger.Logger) *SimulatorService {
	if log == nil {
		log = logger.Nop()
	}
	now := time.Now()
	cfg := DefaultSimulatorConfig()
	return &SimulatorService{
		log:       log,
		now:       time.Now,
		cfg:       cfg,
		bootedAt:  now,
		updatedAt: now,
		uuid:      uuid.NewString(),
		smokerF:   AmbientF,
		foodF:     AmbientF,
		door:      cfg.DoorClosePosition,
		stepIndex: models.NoProfileStep,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.advance(now)
		}
	}
}

// advance moves the simulation to now.
func (s *SimulatorService) advance(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := now.Sub(s.updatedAt).Seconds()
	if elapsed <= 0 {
		return
	}
	s.updatedAt = now

	if !s.running {
		s.fanPWM = 0
		s.door = s.cfg.DoorClosePosition
		s.driftToAmbient(elapsed)
		return
	}

	target := s.handleProfile(now)
	s.control(target, elapsed)
	s.heat(elapsed)
	sample := s.statusLocked(now)
	sample.Timestamp = now.UTC()
	s.history = append(s.history, sample).Decimate(MaxHistorySamples)
}

// handleProfile picks the current target: the profile's setpoint while a
// profile runs, the configured target otherwise.
func (s *SimulatorService) handleProfile(now time.Time) float64 {
	target := float64(s.cfg.TemperatureTarget)
	if s.profile != models.ProfileRunning {
		return target
	}
	at := now.Sub(s.profileStart).Milliseconds()
	for i, step := range s.cfg.TemperatureProfile {
		d := step.DurationMSec()
		if at < d {
			if i != s.stepIndex {
				s.stepIndex = i
				s.log.Infow("simulated_profile_step", "index", i, "step", step.String())
			}
			return stepSetpoint(step, at)
		}
		at -= d
	}
	s.profile = models.ProfileFinished
	s.stepIndex = models.NoProfileStep
	s.log.Infow("simulated_profile_finished")
	return target
}

func stepSetpoint(step models.ProfileStep, atMSec int64) float64 {
	start := float64(step.TemperatureStart())
	if step.IsDwell() || step.DurationMSec() == 0 {
		return start
	}
	frac := float64(atMSec) / float64(step.DurationMSec())
	return start + (float64(step.TemperatureEnd())-start)*frac
}

// control sets fan and door for this tick. Forced outputs override the
// controller.
func (s *SimulatorService) control(target, elapsed float64) {
	var heating bool
	if s.cfg.IsPIDEnabled {
		heating = s.handlePID(target, elapsed)
	} else {
		heating = s.handleBangBang()
	}

	if heating {
		s.door = s.cfg.DoorOpenPosition
	} else {
		s.door = s.cfg.DoorClosePosition
		s.fanPWM = 0
	}
	if s.cfg.IsForcedFanPWM {
		s.fanPWM = s.cfg.ForcedFanPWM
	}
	if s.cfg.IsForcedDoorPosition {
		s.door = s.cfg.ForcedDoorPosition
	}
}

// handleBangBang runs the three-state controller with the configured
// thresholds and hysteresis. Idle leaves the door open with the fan off.
func (s *SimulatorService) handleBangBang() bool {
	temp := int(math.Round(s.smokerF))
	low, high, hyst := s.cfg.BangBangLowThreshold, s.cfg.BangBangHighThreshold, s.cfg.BangBangHysteresis
	switch s.bangBang {
	case bangBangIdle:
		if temp > high {
			s.bangBang = bangBangCool
		} else if temp < low {
			s.bangBang = bangBangHeat
		}
	case bangBangHeat:
		if temp >= low+hyst {
			s.bangBang = bangBangIdle
		}
	case bangBangCool:
		if temp <= high-hyst {
			s.bangBang = bangBangIdle
		}
	}

	switch s.bangBang {
	case bangBangHeat:
		s.fanPWM = s.cfg.BangBangFanSpeed
		return true
	case bangBangIdle:
		s.fanPWM = 0
		return true
	default:
		return false
	}
}

// handlePID returns true while the output is positive; the fan runs at the
// clamped output.
func (s *SimulatorService) handlePID(target, elapsed float64) bool {
	e := target - s.smokerF
	s.integral = clamp(s.integral+e*elapsed, -pidIntegralMax, pidIntegralMax)
	deriv := (e - s.prevError) / elapsed
	s.prevError = e

	out := s.cfg.KP*e + s.cfg.KI*s.integral + s.cfg.KD*deriv
	if out <= 0 {
		return false
	}
	s.fanPWM = int(clamp(out, 0, 255))
	return true
}

// heat applies fan heating and losses to ambient; food follows the smoker.
func (s *SimulatorService) heat(elapsed float64) {
	gain := 0.0
	if s.door != s.cfg.DoorClosePosition {
		gain = HeatFPerSec * float64(s.fanPWM) / 255 * elapsed
	}
	loss := LossPerSec * (s.smokerF - AmbientF) * elapsed
	if s.door == s.cfg.DoorClosePosition {
		loss *= ClosedDoorLossMul
	}
	s.smokerF += gain - loss
	s.foodF += (s.smokerF - s.foodF) * math.Min(FoodLagPerSec*elapsed, 1)
}

// driftToAmbient cools toward ambient when not running.
func (s *SimulatorService) driftToAmbient(elapsed float64) {
	f := math.Min(LossPerSec*elapsed, 1)
	s.smokerF -= (s.smokerF - AmbientF) * f
	s.foodF -= (s.foodF - AmbientF) * f
}

// statusLocked builds a status sample. Thermometer calibration is applied to
// the reported temperatures only.
func (s *SimulatorService) statusLocked(now time.Time) models.DeviceStatus {
	target := float64(s.cfg.TemperatureTarget)
	smoker := s.smokerF*gainOrOne(s.cfg.ThermometerSmokerGain) + s.cfg.ThermometerSmokerOffset
	food := s.foodF*gainOrOne(s.cfg.ThermometerFoodGain) + s.cfg.ThermometerFoodOffset

	st := models.DeviceStatus{
		IsRunning:                    s.running,
		UUID:                         s.uuid,
		Uptime:                       now.Sub(s.bootedAt).Milliseconds(),
		TemperatureSmoker:            round1(smoker),
		TemperatureFood:              round1(food),
		TemperatureTarget:            target,
		FanPWM:                       s.fanPWM,
		DoorPosition:                 s.door,
		IsWiFiConnected:              s.cfg.IsWiFiEnabled,
		ProfileState:                 s.profile,
		TemperatureProfileStepIndex:  s.stepIndex,
		TemperatureProfileStepsCount: s.cfg.StepsCount(),
		TemperatureError:             round1(target - smoker),
	}
	if s.running {
		st.ControllerStartMSec = s.startedAt.Sub(s.bootedAt).Milliseconds()
	}
	if s.cfg.IsWiFiEnabled {
		st.RSSI, st.Bars = -55, 3
		st.IPAddress = "127.0.0.1"
		st.NetworkName = s.cfg.WiFiSSID
	}
	if s.profile == models.ProfileRunning {
		st.TemperatureProfileStartTimeMSec = s.profileStart.Sub(s.bootedAt).Milliseconds()
		if idx, ok := st.ActiveStep(); ok && idx < len(s.cfg.TemperatureProfile) {
			st.TemperatureProfileStepType = s.cfg.TemperatureProfile[idx].Type()
		}
	}
	return st
}

func (s *SimulatorService) FetchStatus(ctx context.Context) (models.DeviceStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.DeviceStatus{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked(s.now()), nil
}

func (s *SimulatorService) FetchConfig(ctx context.Context) (models.DeviceConfig, error) {
	if err := ctx.Err(); err != nil {
		return models.DeviceConfig{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg.Clone()
	cfg.WiFiPassword = ""
	return cfg, nil
}

// FetchHistory returns the samples of the current run.
func (s *SimulatorService) FetchHistory(ctx context.Context) (models.History, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Clone(), nil
}

// Start begins a run. Starting a running controller does nothing.
func (s *SimulatorService) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	now := s.now()
	s.running = true
	s.startedAt = now
	s.updatedAt = now
	s.history = nil
	s.bangBang = bangBangIdle
	s.integral, s.prevError = 0, 0
	if s.cfg.IsTemperatureProfilingEnabled && s.cfg.StepsCount() > 0 {
		s.profile = models.ProfileRunning
		s.profileStart = now
	}
	s.log.Infow("simulated_run_started")
	return nil
}

// Stop ends the run. Stopping an idle controller does nothing.
func (s *SimulatorService) Stop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	s.fanPWM = 0
	s.door = s.cfg.DoorClosePosition
	s.profile = models.ProfileIdle
	s.stepIndex = models.NoProfileStep
	s.log.Infow("simulated_run_stopped")
	return nil
}

// SetConfig replaces the configuration, rejecting bodies the real
// controller would reject.
func (s *SimulatorService) SetConfig(ctx context.Context, payload models.WireConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	cfg, err := models.ParseConfig(raw)
	if err != nil {
		return err
	}
	cfg.WiFiPassword = payload.WiFiPassword

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	if s.profile == models.ProfileRunning {
		if cfg.IsTemperatureProfilingEnabled {
			// Re-seat the step against the new list; a shorter profile may
			// already be over.
			s.handleProfile(s.now())
		} else {
			s.profile = models.ProfileIdle
			s.stepIndex = models.NoProfileStep
		}
	}
	if s.stepIndex >= cfg.StepsCount() {
		s.stepIndex = models.NoProfileStep
	}
	return nil
}

// helpers
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func gainOrOne(g float64) float64 {
	if g == 0 {
		return 1
	}
	return g
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
