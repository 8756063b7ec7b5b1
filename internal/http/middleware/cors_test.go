package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	called := false
	mw := CORS([]string{"https://painel.example.com/"})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://Painel.example.com")
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://Painel.example.com" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") != corsAllowedMethods {
		t.Fatalf("unexpected allow methods %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestCORSDeniesUnknownOrigin(t *testing.T) {
	mw := CORS([]string{"https://painel.example.com"})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://unknown.example")
	rec := httptest.NewRecorder()

	mw(okHandler(nil)).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin header, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("simple requests should still reach the handler, got %d", rec.Code)
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	mw := CORS([]string{"*"})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://random.example")
	rec := httptest.NewRecorder()

	mw(okHandler(nil)).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://random.example" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		want   int
	}{
		{"allowed", "https://painel.example.com", http.StatusNoContent},
		{"denied", "https://evil.example", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mw := CORS([]string{"https://painel.example.com"})
			req := httptest.NewRequest(http.MethodOptions, "/webhook", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", "POST")
			rec := httptest.NewRecorder()

			mw(okHandler(&called)).ServeHTTP(rec, req)

			if called {
				t.Fatalf("expected handler to not be called on preflight")
			}
			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestCORSNoOriginPassesThrough(t *testing.T) {
	called := false
	mw := CORS(nil)
	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if !called || rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("expected plain pass-through, called=%v", called)
	}
}
