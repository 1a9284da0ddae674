package models

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseStatus_FullPayload(t *testing.T) {
	body := []byte(`{
		"isConnected": true, "isRunning": true, "uuid": "abc-1", "uptime": 5000,
		"controllerStartMSec": 1200, "temperatureSmoker": 225.5, "temperatureFood": 140,
		"temperatureTarget": 225, "fanPWM": 128, "doorPosition": 60, "RSSI": -61, "bars": 3,
		"ipAddress": "192.168.2.159", "isWiFiConnected": true, "networkName": "BELL529",
		"temperatureError": -3, "isProfileRunning": 1, "temperatureProfileStepIndex": 1,
		"temperatureProfileStartTimeMSec": 900, "temperatureProfileStepsCount": 3,
		"temperatureProfileStepType": 1
	}`)

	got, err := ParseStatus(body)
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	want := DeviceStatus{
		IsConnected: true, IsRunning: true, UUID: "abc-1", Uptime: 5000,
		ControllerStartMSec: 1200, TemperatureSmoker: 225.5, TemperatureFood: 140,
		TemperatureTarget: 225, FanPWM: 128, DoorPosition: 60, RSSI: -61, Bars: 3,
		IPAddress: "192.168.2.159", IsWiFiConnected: true, NetworkName: "BELL529",
		TemperatureError: -3, ProfileState: ProfileRunning, TemperatureProfileStepIndex: 1,
		TemperatureProfileStartTimeMSec: 900, TemperatureProfileStepsCount: 3,
		TemperatureProfileStepType: StepRamp,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseStatus() mismatch\n got: %+v\nwant: %+v", got, want)
	}
	if idx, ok := got.ActiveStep(); !ok || idx != 1 {
		t.Fatalf("ActiveStep() = %d,%v", idx, ok)
	}
}

func TestParseStatus_AbsentFieldsDefault(t *testing.T) {
	got, err := ParseStatus([]byte(`{"isRunning": false, "temperatureSmoker": 70}`))
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	if got.TemperatureSmoker != 70 || got.IsRunning {
		t.Fatalf("unexpected status: %+v", got)
	}
	if got.TemperatureProfileStepIndex != NoProfileStep {
		t.Fatalf("step index = %d, want %d", got.TemperatureProfileStepIndex, NoProfileStep)
	}
	if _, ok := got.ActiveStep(); ok {
		t.Fatalf("ActiveStep() reported a step for an idle controller")
	}
}

func TestParseStatus_Errors(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"not json", `<html>`, ""},
		{"array body", `[]`, ""},
		{"non numeric temperature", `{"temperatureSmoker": "hot"}`, "temperatureSmoker"},
		{"fractional fan duty", `{"fanPWM": 12.5}`, "fanPWM"},
		{"string bool", `{"isRunning": "yes"}`, "isRunning"},
		{"step index past count", `{"temperatureProfileStepIndex": 2, "temperatureProfileStepsCount": 2}`, "temperatureProfileStepIndex"},
		{"negative step index", `{"temperatureProfileStepIndex": -2, "temperatureProfileStepsCount": 2}`, "temperatureProfileStepIndex"},
		{"index without steps", `{"temperatureProfileStepIndex": 0}`, "temperatureProfileStepIndex"},
		{"unknown step type", `{"temperatureProfileStepType": 7}`, "temperatureProfileStepType"},
		{"unknown profile state", `{"isProfileRunning": 4}`, "isProfileRunning"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseStatus([]byte(tc.body))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if pe.Resource != ResourceStatus {
				t.Errorf("Resource = %q", pe.Resource)
			}
			if pe.Field != tc.field {
				t.Errorf("Field = %q, want %q", pe.Field, tc.field)
			}
		})
	}
}

func TestParseStatus_ProfileStateAcceptsBool(t *testing.T) {
	got, err := ParseStatus([]byte(`{"isProfileRunning": true}`))
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	if !got.ProfileState.Running() {
		t.Fatalf("ProfileState = %v, want running", got.ProfileState)
	}
}

func TestParseHistory(t *testing.T) {
	body := []byte(`[
		{"timestamp": "2025-05-01 12:00:00", "isRunning": 1, "temperatureSmoker": 180, "isWiFiConnected": 0},
		{"timestamp": "2025-05-01T12:00:05Z", "isRunning": true, "temperatureSmoker": 182}
	]`)
	h, err := ParseHistory(body)
	if err != nil {
		t.Fatalf("ParseHistory() error = %v", err)
	}
	if len(h) != 2 {
		t.Fatalf("len = %d, want 2", len(h))
	}
	if !h[0].IsRunning || h[0].IsWiFiConnected {
		t.Errorf("sqlite booleans not decoded: %+v", h[0])
	}
	wantTS := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	if !h[0].Timestamp.Equal(wantTS) {
		t.Errorf("Timestamp = %v, want %v", h[0].Timestamp, wantTS)
	}
	last, ok := h.Latest()
	if !ok || last.TemperatureSmoker != 182 {
		t.Errorf("Latest() = %+v, %v", last, ok)
	}
}

func TestParseHistory_BadElementFailsWholeList(t *testing.T) {
	_, err := ParseHistory([]byte(`[{"temperatureSmoker": 1}, {"temperatureSmoker": "x"}]`))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Field != "[1].temperatureSmoker" {
		t.Fatalf("Field = %q", pe.Field)
	}

	if _, err := ParseHistory([]byte(`{"error": "No running session detected"}`)); err == nil {
		t.Fatalf("object body must not parse as history")
	}
	if _, err := ParseHistory([]byte(`[1]`)); err == nil {
		t.Fatalf("non-object element must not parse")
	}
}

func TestHistory_CloneIsIndependent(t *testing.T) {
	h := History{{TemperatureSmoker: 1}}
	c := h.Clone()
	c[0].TemperatureSmoker = 99
	if h[0].TemperatureSmoker != 1 {
		t.Fatalf("Clone shares backing array")
	}
	if History(nil).Clone() != nil {
		t.Fatalf("Clone of nil should be nil")
	}
}

func TestHistory_Window(t *testing.T) {
	h := History{{TemperatureSmoker: 1}, {TemperatureSmoker: 2}, {TemperatureSmoker: 3}}
	w := h.Window(2)
	if w.Len() != 2 || w[0].TemperatureSmoker != 2 {
		t.Fatalf("Window(2) = %v", w)
	}
	if h.Window(0).Len() != 3 || h.Window(10).Len() != 3 {
		t.Fatalf("out-of-range window should return everything")
	}
	if latest, ok := h.Latest(); !ok || latest.TemperatureSmoker != 3 {
		t.Fatalf("Latest() = %v, %v", latest, ok)
	}
}

func TestHistory_Decimate(t *testing.T) {
	h := make(History, 10)
	for i := range h {
		h[i].TemperatureSmoker = float64(i)
	}
	got := h.Decimate(4)
	want := []float64{0, 4, 8}
	if len(got) != len(want) {
		t.Fatalf("Decimate(4) kept %d samples, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].TemperatureSmoker != w {
			t.Fatalf("sample %d = %v, want %v", i, got[i].TemperatureSmoker, w)
		}
	}
	if h[1].TemperatureSmoker != 1 {
		t.Fatalf("Decimate modified its receiver")
	}
	if h.Decimate(0).Len() != 10 {
		t.Fatalf("Decimate(0) should keep everything")
	}
}
