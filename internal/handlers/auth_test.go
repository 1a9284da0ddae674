package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"smokemate/internal/service"
)

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandlers_SignIn(t *testing.T) {
	auth := &mockAuth{genTokenToken: "tok123"}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := postJSON(r, "/auth/sign-in", `{"username":"operator","password":"p"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-in status=%d, body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["token"] != "tok123" {
		t.Fatalf("expected token tok123, got %v", m["token"])
	}
	if auth.lastGenUsername != "operator" || auth.lastGenPassword != "p" {
		t.Fatalf("credentials not passed through: %q %q", auth.lastGenUsername, auth.lastGenPassword)
	}

	// invalid body → 400
	if w := postJSON(r, "/auth/sign-in", `{"username":1}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", w.Code)
	}

	// wrong credentials → 401
	auth.genTokenErr = service.ErrInvalidPassword
	if w := postJSON(r, "/auth/sign-in", `{"username":"operator","password":"x"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad credentials, got %d", w.Code)
	}
}

func TestAuthHandlers_SignInDisabled(t *testing.T) {
	cases := []struct {
		name string
		s    *service.Service
	}{
		{"no authorization service", &service.Service{}},
		{"signing key not set", &service.Service{Authorization: &mockAuth{disabled: true}}},
		{"service reports disabled", &service.Service{Authorization: &mockAuth{genTokenErr: service.ErrAuthDisabled}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(tc.s)
			w := postJSON(r, "/auth/sign-in", `{"username":"operator","password":"p"}`)
			if w.Code != http.StatusNotFound {
				t.Fatalf("status=%d, want 404", w.Code)
			}
		})
	}
}
