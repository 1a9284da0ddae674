package service

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"smokemate/internal/models"
	"smokemate/internal/poller"
)

type fakeDevice struct {
	starts, stops int
	sent          []models.WireConfig
	err           error
}

func (d *fakeDevice) Start(context.Context) error {
	d.starts++
	return d.err
}

func (d *fakeDevice) Stop(context.Context) error {
	d.stops++
	return d.err
}

func (d *fakeDevice) SetConfig(_ context.Context, cfg models.WireConfig) error {
	d.sent = append(d.sent, cfg)
	return d.err
}

type fakeRefresher struct{ refreshed []poller.Resource }

func (r *fakeRefresher) Refresh(_ context.Context, res poller.Resource) {
	r.refreshed = append(r.refreshed, res)
}

type fakeAdopter struct{ adopted []models.DeviceConfig }

func (a *fakeAdopter) AdoptConfig(cfg models.DeviceConfig) { a.adopted = append(a.adopted, cfg) }

// fakeEventLog records events in memory.
type fakeEventLog struct{ events []models.DeviceEvent }

func (l *fakeEventLog) Record(_ context.Context, e models.DeviceEvent) {
	l.events = append(l.events, e)
}

func (l *fakeEventLog) List(context.Context, LogFilter) ([]models.DeviceEvent, error) {
	return l.events, nil
}

func configBody(t *testing.T, mutate func(*models.WireConfig)) []byte {
	t.Helper()
	w := models.ToWirePayload(DefaultSimulatorConfig())
	if mutate != nil {
		mutate(&w)
	}
	raw, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	return raw
}

func TestControlService_StartStop(t *testing.T) {
	dev, ref, events := &fakeDevice{}, &fakeRefresher{}, &fakeEventLog{}
	svc := NewControlService(dev, ref, nil, events, nil)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if dev.starts != 1 || dev.stops != 1 {
		t.Fatalf("device calls start=%d stop=%d", dev.starts, dev.stops)
	}
	if len(ref.refreshed) != 2 || ref.refreshed[0] != poller.ResourceStatus {
		t.Fatalf("expected a status refresh after each command, got %v", ref.refreshed)
	}
	if len(events.events) != 2 || events.events[0].Type != models.EventStart || events.events[1].Type != models.EventStop {
		t.Fatalf("unexpected events %+v", events.events)
	}
}

func TestControlService_StartFailure(t *testing.T) {
	boom := errors.New("unreachable")
	dev, ref, events := &fakeDevice{err: boom}, &fakeRefresher{}, &fakeEventLog{}
	svc := NewControlService(dev, ref, nil, events, nil)

	err := svc.Start(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped device error, got %v", err)
	}
	if len(events.events) != 0 || len(ref.refreshed) != 0 {
		t.Fatalf("a failed command must not be recorded or refreshed")
	}
}

func TestControlService_SetConfig_RejectsInvalidBody(t *testing.T) {
	dev, cache := &fakeDevice{}, &fakeAdopter{}
	svc := NewControlService(dev, nil, cache, nil, nil)

	body := configBody(t, func(w *models.WireConfig) { w.TemperatureTarget = 400 })
	err := svc.SetConfig(context.Background(), body)

	var pe *models.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *models.ParseError, got %v", err)
	}
	if len(dev.sent) != 0 || len(cache.adopted) != 0 {
		t.Fatalf("invalid body must not be forwarded")
	}
}

func TestControlService_SetConfig_ForwardsAndAdopts(t *testing.T) {
	dev, cache, events := &fakeDevice{}, &fakeAdopter{}, &fakeEventLog{}
	svc := NewControlService(dev, nil, cache, events, nil)

	body := configBody(t, func(w *models.WireConfig) {
		w.TemperatureTarget = 228
		w.WiFiPassword = "hunter2"
	})
	if err := svc.SetConfig(context.Background(), body); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if len(dev.sent) != 1 || dev.sent[0].WiFiPassword != "hunter2" || dev.sent[0].TemperatureTarget != 228 {
		t.Fatalf("unexpected forwarded body %+v", dev.sent)
	}
	if len(cache.adopted) != 1 || cache.adopted[0].TemperatureTarget != 228 {
		t.Fatalf("config not adopted: %+v", cache.adopted)
	}
	if cache.adopted[0].WiFiPassword != "" {
		t.Fatalf("adopted config must not carry the password")
	}
	if len(events.events) != 1 || events.events[0].Type != models.EventConfigSet {
		t.Fatalf("unexpected events %+v", events.events)
	}
}

func TestControlService_SetConfig_NormalizesBody(t *testing.T) {
	dev, cache := &fakeDevice{}, &fakeAdopter{}
	svc := NewControlService(dev, nil, cache, nil, nil)

	body := []byte(`{
		"temperatureTarget": 225, "bangBangLowThreshold": 220, "bangBangHighThreshold": 230,
		"isPIDEnabled": 1, "isWiFiEnabled": 0, "wifiPassword": "hunter2",
		"temperatureProfileStepsCount": 2,
		"temperatureProfile": [
			{"temperatureStartF": 180, "temperatureEndF": 225, "timeMSec": 3600000, "type": "RAMP"},
			{"temperatureStartF": 225, "temperatureEndF": 999, "timeMSec": 7200000, "type": "dwell"}
		]
	}`)
	if err := svc.SetConfig(context.Background(), body); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if len(dev.sent) != 1 {
		t.Fatalf("forwarded %d bodies", len(dev.sent))
	}
	w := dev.sent[0]
	if !w.IsPIDEnabled || w.IsWiFiEnabled || w.WiFiPassword != "hunter2" {
		t.Fatalf("flags or password not carried: %+v", w)
	}
	want := []models.WireProfileStep{
		{TemperatureStartF: 180, TemperatureEndF: 225, TimeMSec: 3600000, Type: models.StepRamp},
		{TemperatureStartF: 225, TemperatureEndF: 225, TimeMSec: 7200000, Type: models.StepDwell},
	}
	if !reflect.DeepEqual(w.TemperatureProfile, want) {
		t.Fatalf("profile = %+v, want %+v", w.TemperatureProfile, want)
	}
	if len(cache.adopted) != 1 || cache.adopted[0].WiFiPassword != "" {
		t.Fatalf("adopted config must not carry the password: %+v", cache.adopted)
	}
}

func TestControlService_SetConfig_DeviceFailureKeepsCache(t *testing.T) {
	dev, cache := &fakeDevice{err: errors.New("rejected")}, &fakeAdopter{}
	svc := NewControlService(dev, nil, cache, nil, nil)

	if err := svc.SetConfig(context.Background(), configBody(t, nil)); err == nil {
		t.Fatal("expected an error")
	}
	if len(cache.adopted) != 0 {
		t.Fatalf("cache must not change on failure")
	}
}
