package service

import (
	"context"
	"errors"
	"testing"

	"smokemate/internal/models"
	"smokemate/internal/poller"
)

// monitoringFetcher serves fixed values; err fails status polls.
type monitoringFetcher struct {
	status models.DeviceStatus
	config models.DeviceConfig
	err    error
}

func (f *monitoringFetcher) FetchStatus(context.Context) (models.DeviceStatus, error) {
	return f.status, f.err
}

func (f *monitoringFetcher) FetchConfig(context.Context) (models.DeviceConfig, error) {
	return f.config, nil
}

func (f *monitoringFetcher) FetchHistory(context.Context) (models.History, error) {
	return models.History{f.status}, nil
}

func newMonitoring(f *monitoringFetcher) (*MonitoringService, *poller.Poller) {
	store := poller.NewStore()
	p := poller.New(f, store, poller.DefaultIntervals(), nil)
	return NewMonitoringService(store), p
}

func TestMonitoringService_BeforeFirstPoll(t *testing.T) {
	svc, _ := newMonitoring(&monitoringFetcher{})

	if _, ok := svc.Status(); ok {
		t.Fatal("expected no status before the first poll")
	}
	wire := svc.WireStatus()
	if wire.IsConnected {
		t.Error("expected isConnected=false before the first poll")
	}
	if wire.TemperatureProfileStepIndex != models.NoProfileStep {
		t.Errorf("step index = %d, want %d", wire.TemperatureProfileStepIndex, models.NoProfileStep)
	}
}

func TestMonitoringService_StatusWithDerivedValues(t *testing.T) {
	f := &monitoringFetcher{
		status: models.DeviceStatus{
			IsRunning:                   true,
			TemperatureSmoker:           212,
			TemperatureFood:             32,
			FanPWM:                      255,
			DoorPosition:                90,
			Bars:                        4,
			TemperatureProfileStepIndex: 1,
			TemperatureProfileStepType:  models.StepRamp,
		},
		config: models.DeviceConfig{DoorClosePosition: 0, DoorOpenPosition: 180},
	}
	svc, p := newMonitoring(f)
	ctx := context.Background()
	p.Refresh(ctx, poller.ResourceConfig)
	p.Refresh(ctx, poller.ResourceStatus)

	view, ok := svc.Status()
	if !ok {
		t.Fatal("expected a status")
	}
	if !view.Connected || view.LastUpdated.IsZero() {
		t.Errorf("connected=%v lastUpdated=%v", view.Connected, view.LastUpdated)
	}
	d := view.Derived
	if d.DoorPercent != 50 || d.FanPercent != 100 {
		t.Errorf("door=%d fan=%d, want 50 and 100", d.DoorPercent, d.FanPercent)
	}
	if d.TemperatureSmokerC != 100 || d.TemperatureFoodC != 0 {
		t.Errorf("celsius smoker=%v food=%v", d.TemperatureSmokerC, d.TemperatureFoodC)
	}
	if d.WiFiLevel != "excellent" || d.WiFiIcon != "bi-wifi" {
		t.Errorf("wifi level=%q icon=%q", d.WiFiLevel, d.WiFiIcon)
	}
	if d.ActiveStep == nil || *d.ActiveStep != 1 || d.ActiveStepType != "RAMP" {
		t.Errorf("active step=%v type=%q", d.ActiveStep, d.ActiveStepType)
	}
}

func TestMonitoringService_FailedPollKeepsStatusButDisconnects(t *testing.T) {
	f := &monitoringFetcher{status: models.DeviceStatus{TemperatureSmoker: 180, TemperatureProfileStepIndex: -1}}
	svc, p := newMonitoring(f)
	ctx := context.Background()
	p.Refresh(ctx, poller.ResourceStatus)

	if !svc.WireStatus().IsConnected {
		t.Fatal("expected connected after a successful poll")
	}

	f.err = errors.New("timeout")
	p.Refresh(ctx, poller.ResourceStatus)

	wire := svc.WireStatus()
	if wire.IsConnected {
		t.Error("expected isConnected=false after a failed poll")
	}
	if wire.TemperatureSmoker != 180 {
		t.Errorf("last value lost: smoker=%v", wire.TemperatureSmoker)
	}
	stats := svc.PollStats()
	if stats[poller.ResourceStatus].ConsecutiveFailures != 1 {
		t.Errorf("consecutive failures = %d, want 1", stats[poller.ResourceStatus].ConsecutiveFailures)
	}
}
