package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smokemate/internal/models"
	"smokemate/internal/poller"
	"smokemate/internal/service"
	"smokemate/internal/session"
)

// ---- Service Mocks ----

type mockAuth struct {
	disabled      bool
	genTokenToken string
	genTokenErr   error
	parseSubject  string
	parseErr      error

	lastGenUsername string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) Enabled() bool { return !m.disabled }

func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseSubject, m.parseErr
}

type mockControl struct {
	startErr    error
	stopErr     error
	startCalled int
	stopCalled  int
}

func (m *mockControl) Start(ctx context.Context) error {
	m.startCalled++
	return m.startErr
}

func (m *mockControl) Stop(ctx context.Context) error {
	m.stopCalled++
	return m.stopErr
}

type mockForwarder struct {
	err     error
	lastRaw []byte
}

func (m *mockForwarder) SetConfig(ctx context.Context, raw []byte) error {
	m.lastRaw = raw
	return m.err
}

type mockMonitoring struct {
	view      service.StatusView
	hasStatus bool
	wire      models.DeviceStatus
	config    models.DeviceConfig
	hasConfig bool
	history   models.History
	stats     []poller.ResourceStats
}

func (m *mockMonitoring) Status() (service.StatusView, bool)  { return m.view, m.hasStatus }
func (m *mockMonitoring) WireStatus() models.DeviceStatus     { return m.wire }
func (m *mockMonitoring) Config() (models.DeviceConfig, bool) { return m.config, m.hasConfig }
func (m *mockMonitoring) History() (models.History, bool)     { return m.history, m.history != nil }
func (m *mockMonitoring) PollStats() []poller.ResourceStats   { return m.stats }

// mockEditor records calls; err is returned by every mutating call.
type mockEditor struct {
	err      error
	snap     session.Snapshot
	opened   int
	fields   map[string]any
	steps    []string
	count    int
	submits  int
	discards int
}

func (m *mockEditor) Open() error {
	m.opened++
	return m.err
}

func (m *mockEditor) SetField(name string, value any) error {
	if m.fields == nil {
		m.fields = map[string]any{}
	}
	m.fields[name] = value
	return m.err
}

func (m *mockEditor) SetStepField(index int, field string, value any) error {
	m.steps = append(m.steps, field)
	return m.err
}

func (m *mockEditor) SetStepCount(n int) error {
	m.count = n
	return m.err
}

func (m *mockEditor) Submit(ctx context.Context) error {
	m.submits++
	return m.err
}

func (m *mockEditor) Discard() error {
	m.discards++
	return m.err
}

func (m *mockEditor) Snapshot() session.Snapshot { return m.snap }

type mockEventLog struct {
	resp     []models.DeviceEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) Record(ctx context.Context, e models.DeviceEvent) {}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockRecorder struct {
	history models.History
	err     error
}

func (m *mockRecorder) Observe(ctx context.Context, st models.DeviceStatus) {}

func (m *mockRecorder) RunHistory(ctx context.Context) (models.History, error) {
	return m.history, m.err
}

func (m *mockRecorder) RunState() models.RunState { return models.RunState{} }

func (m *mockRecorder) Cleanup(ctx context.Context) (int64, error) { return 0, nil }

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, nil).InitRoutes()
}

func newRelayTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, nil).InitRelayRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
