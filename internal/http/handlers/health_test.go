package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth(t *testing.T) {
	h := NewHealthHandler(nil)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["version"] != "0.1.0" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Pinger
		want   int
	}{
		{"no checks", nil, http.StatusOK},
		{"all healthy", map[string]Pinger{
			"redis": PingFunc(func(context.Context) error { return nil }),
		}, http.StatusOK},
		{"one failing", map[string]Pinger{
			"redis":    PingFunc(func(context.Context) error { return nil }),
			"postgres": PingFunc(func(context.Context) error { return errors.New("connection refused") }),
		}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.checks).Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if len(body.Checks) != len(tt.checks) {
				t.Fatalf("checks = %v", body.Checks)
			}
		})
	}
}
