package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"smokemate/internal/models"
	"smokemate/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseSubject: "operator"}
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.DeviceEvent{
		{EventID: "e1", OccurredAt: now, Type: models.EventStart, Description: "start"},
		{EventID: "e2", OccurredAt: now.Add(time.Second), Type: models.EventRunStarted, Description: "run"},
	}
	logs := &mockEventLog{resp: events}
	r := newRelayTestRouter(&service.Service{Authorization: auth, EventLog: logs})

	if w := do(r, http.MethodGet, "/api/v1/logs?from=notatime", authHeader("valid")); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/logs?from=2025-08-02&to=2025-08-01", authHeader("valid")); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for from > to, got %d", w.Code)
	}

	q := "/api/v1/logs?from=" + now.Format(time.RFC3339) + "&to=2099-01-01&type=run_started"
	w := do(r, http.MethodGet, q, authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                  `json:"count"`
		Events []models.DeviceEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != models.EventRunStarted {
		t.Fatalf("expected type RUN_STARTED, got %q", logs.lastType)
	}
	wantTo := time.Date(2099, 1, 1, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !logs.lastTo.Equal(wantTo) {
		t.Fatalf("date-only 'to' should cover the day: got %v", logs.lastTo)
	}
}

func TestLogsHandler_EmptyIsList(t *testing.T) {
	r := newRelayTestRouter(&service.Service{EventLog: &mockEventLog{}})
	w := do(r, http.MethodGet, "/api/v1/logs", nil)
	var out map[string]json.RawMessage
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if string(out["events"]) != "[]" {
		t.Fatalf("expected an empty list, got %s", out["events"])
	}
}
