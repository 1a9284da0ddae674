package device

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"smokemate/internal/models"
)

// fakeController serves canned responses per path and records requests.
type fakeController struct {
	t        *testing.T
	mu       sync.Mutex
	status   int
	bodies   map[string]string
	lastPath string
	lastBody []byte
	calls    int
}

func newFakeController(t *testing.T) (*fakeController, *Client) {
	t.Helper()
	f := &fakeController{t: t, status: http.StatusOK, bodies: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, NewClient(srv.URL+"/", time.Second)
}

func (f *fakeController) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastPath = r.Method + " " + r.URL.Path
	f.lastBody, _ = io.ReadAll(r.Body)
	w.WriteHeader(f.status)
	_, _ = io.WriteString(w, f.bodies[r.URL.Path])
}

func (f *fakeController) last() (string, []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPath, f.lastBody
}

func TestClient_FetchStatus(t *testing.T) {
	f, c := newFakeController(t)
	f.bodies[PathStatus] = `{"isRunning": true, "temperatureSmoker": 72}`

	st, err := c.FetchStatus(context.Background())
	if err != nil {
		t.Fatalf("FetchStatus() error = %v", err)
	}
	if !st.IsRunning || st.TemperatureSmoker != 72 {
		t.Fatalf("unexpected status %+v", st)
	}
	if path, _ := f.last(); path != "GET /status" {
		t.Fatalf("request = %q (trailing slash in base URL must be trimmed)", path)
	}
}

func TestClient_FetchConfigAndHistory(t *testing.T) {
	f, c := newFakeController(t)
	f.bodies[PathConfig] = `{"temperatureTarget": 225, "bangBangLowThreshold": 220, "bangBangHighThreshold": 230}`
	f.bodies[PathHistory] = `[{"temperatureSmoker": 100}, {"temperatureSmoker": 101}]`

	cfg, err := c.FetchConfig(context.Background())
	if err != nil || cfg.TemperatureTarget != 225 {
		t.Fatalf("FetchConfig() = %+v, %v", cfg, err)
	}
	h, err := c.FetchHistory(context.Background())
	if err != nil || len(h) != 2 {
		t.Fatalf("FetchHistory() = %v, %v", h, err)
	}
}

func TestClient_FetchHistory_FullRun(t *testing.T) {
	f, c := newFakeController(t)
	start := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	samples := make(models.History, 1800)
	for i := range samples {
		samples[i] = models.DeviceStatus{
			Timestamp:                    start.Add(time.Duration(i) * 2 * time.Second),
			IsConnected:                  true,
			IsRunning:                    true,
			UUID:                         "5f0c7a4e-0f5d-4a57-9d43-6c1f1f8a9b21",
			Uptime:                       int64(i) * 2000,
			TemperatureSmoker:            224.5,
			TemperatureFood:              141.25,
			TemperatureTarget:            225,
			FanPWM:                       180,
			DoorPosition:                 90,
			RSSI:                         -61,
			Bars:                         3,
			IPAddress:                    "192.168.100.217",
			IsWiFiConnected:              true,
			NetworkName:                  "backyard-smokehouse-network-2.4G",
			TemperatureError:             -0.5,
			TemperatureProfileStepIndex:  1,
			TemperatureProfileStepsCount: 3,
		}
	}
	raw, err := json.Marshal(samples)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(raw) <= 1<<20 {
		t.Fatalf("fixture should exceed 1 MB, got %d bytes", len(raw))
	}
	f.bodies[PathHistory] = string(raw)

	h, err := c.FetchHistory(context.Background())
	if err != nil {
		t.Fatalf("FetchHistory() error = %v", err)
	}
	if len(h) != 1800 || !h[1799].Timestamp.Equal(samples[1799].Timestamp) {
		t.Fatalf("got %d samples", len(h))
	}
}

func TestClient_BodyTooLarge(t *testing.T) {
	f, c := newFakeController(t)
	f.bodies[PathHistory] = "[" + strings.Repeat(" ", maxBodyBytes) + "]"

	_, err := c.FetchHistory(context.Background())
	var te *TransportError
	if !errors.As(err, &te) || !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected a body-too-large TransportError, got %v", err)
	}
}

func TestClient_ProtocolError(t *testing.T) {
	f, c := newFakeController(t)
	f.status = http.StatusServiceUnavailable
	f.bodies[PathStatus] = `{"error":"busy"}`

	_, err := c.FetchStatus(context.Background())
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProtocolError, got %v", err)
	}
	if pe.StatusCode != http.StatusServiceUnavailable || pe.Body != `{"error":"busy"}` {
		t.Fatalf("unexpected protocol error %+v", pe)
	}
}

func TestClient_ParseError(t *testing.T) {
	f, c := newFakeController(t)
	f.bodies[PathConfig] = `{"temperatureProfileStepsCount": 2, "temperatureProfile": []}`

	_, err := c.FetchConfig(context.Background())
	var pe *models.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *models.ParseError, got %v", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second)
	err := c.Start(context.Background())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if te.Op != "POST /start" {
		t.Fatalf("Op = %q", te.Op)
	}
}

func TestClient_CanceledContextIsTransportError(t *testing.T) {
	_, c := newFakeController(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchStatus(ctx)
	var te *TransportError
	if !errors.As(err, &te) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled *TransportError, got %v", err)
	}
}

func TestClient_StartStopAreBodiless(t *testing.T) {
	f, c := newFakeController(t)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if path, body := f.last(); path != "POST /start" || len(body) != 0 {
		t.Fatalf("start request = %q body %q", path, body)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if path, _ := f.last(); path != "POST /stop" {
		t.Fatalf("stop request = %q", path)
	}
}

func TestClient_SetConfigSendsFullBody(t *testing.T) {
	f, c := newFakeController(t)
	cfg := models.DeviceConfig{
		TemperatureTarget:     200,
		BangBangLowThreshold:  190,
		BangBangHighThreshold: 210,
		TemperatureProfile:    []models.ProfileStep{models.Dwell(200, 60_000)},
	}
	if err := c.SetConfig(context.Background(), models.ToWirePayload(cfg)); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	path, body := f.last()
	if path != "POST /config" {
		t.Fatalf("request = %q", path)
	}
	var sent map[string]any
	if err := json.Unmarshal(body, &sent); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	for _, key := range []string{"temperatureTarget", "kP", "doorOpenPosition", "wifiSSID", "temperatureProfileStepsCount"} {
		if _, ok := sent[key]; !ok {
			t.Errorf("full-replacement body missing %q", key)
		}
	}
	if _, ok := sent["wifiPassword"]; ok {
		t.Errorf("empty password must not be sent")
	}
}
