package service

import (
	"context"
	"fmt"
	"time"

	"smokemate/internal/logger"
	"smokemate/internal/models"
	"smokemate/internal/poller"
)

// Device is the controller's command surface. device.Client and
// SimulatorService implement it.
type Device interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	SetConfig(ctx context.Context, cfg models.WireConfig) error
}

// Refresher re-polls one resource out of cadence. poller.Poller implements it.
type Refresher interface {
	Refresh(ctx context.Context, r poller.Resource)
}

// ConfigAdopter takes a configuration the controller just accepted.
type ConfigAdopter interface {
	AdoptConfig(cfg models.DeviceConfig)
}

// ControlService forwards commands and, when an event log is attached,
// records them.
type ControlService struct {
	device  Device
	refresh Refresher
	cache   ConfigAdopter
	events  EventLog
	log     *logger.Logger
}

func NewControlService(device Device, refresh Refresher, cache ConfigAdopter, events EventLog, log *logger.Logger) *ControlService {
	if log == nil {
		log = logger.Nop()
	}
	return &ControlService{device: device, refresh: refresh, cache: cache, events: events, log: log}
}

// Start asks the controller to start. Starting a running controller is a no-op
// on the controller side.
func (s *ControlService) Start(ctx context.Context) error {
	if err := s.device.Start(ctx); err != nil {
		s.log.Warnw("controller_start_failed", "err", err)
		return fmt.Errorf("start controller: %w", err)
	}
	s.log.Infow("controller_started")
	s.record(ctx, models.EventStart, "Controller started", nil)
	s.refreshStatus(ctx)
	return nil
}

// Stop asks the controller to stop.
func (s *ControlService) Stop(ctx context.Context) error {
	if err := s.device.Stop(ctx); err != nil {
		s.log.Warnw("controller_stop_failed", "err", err)
		return fmt.Errorf("stop controller: %w", err)
	}
	s.log.Infow("controller_stopped")
	s.record(ctx, models.EventStop, "Controller stopped", nil)
	s.refreshStatus(ctx)
	return nil
}

// SetConfig validates a full-replacement body and forwards it in normalized
// wire form, password included. On success the configuration is adopted into
// the cache.
func (s *ControlService) SetConfig(ctx context.Context, raw []byte) error {
	parsed, err := models.ParseSubmittedConfig(raw)
	if err != nil {
		return err
	}
	wire := models.ToWirePayload(parsed)

	if err := s.device.SetConfig(ctx, wire); err != nil {
		s.log.Warnw("controller_config_failed", "err", err)
		return fmt.Errorf("send configuration: %w", err)
	}
	if s.cache != nil {
		adopted := parsed.Clone()
		adopted.WiFiPassword = ""
		s.cache.AdoptConfig(adopted)
	}
	s.log.Infow("controller_config_set", "target", parsed.TemperatureTarget, "steps", parsed.StepsCount())
	s.record(ctx, models.EventConfigSet, "Configuration replaced", map[string]any{
		"temperature_target": parsed.TemperatureTarget,
		"steps":              parsed.StepsCount(),
		"pid":                parsed.IsPIDEnabled,
		"wifi_changed":       wire.WiFiPassword != "",
	})
	return nil
}

func (s *ControlService) record(ctx context.Context, typ, desc string, meta map[string]any) {
	if s.events == nil {
		return
	}
	e := models.DeviceEvent{OccurredAt: time.Now().UTC(), Type: typ, Description: desc}
	if meta != nil {
		e.Metadata = meta
	}
	s.events.Record(ctx, e)
}

// refreshStatus shows the effect of a command without waiting for the next tick.
func (s *ControlService) refreshStatus(ctx context.Context) {
	if s.refresh != nil {
		s.refresh.Refresh(ctx, poller.ResourceStatus)
	}
}
