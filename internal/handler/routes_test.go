package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"claude-relay-go/internal/config"
)

func TestRegisterRoutes_Wiring(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	relay := newTestRelayHandler(t, upstream.URL)
	health := NewHealthHandler(&config.Config{}, "test")

	e := echo.New()
	RegisterRoutes(e, relay, health)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"GET /healthz", http.MethodGet, "/healthz", "", http.StatusOK},
		{"GET /relay/status", http.MethodGet, "/relay/status", "", http.StatusOK},
		{"POST /api/claude", http.MethodPost, "/api/claude", `{"apiKey":"k"}`, http.StatusOK},
		{"POST /api/claude malformed", http.MethodPost, "/api/claude", `{`, http.StatusBadRequest},
		{"GET /api/claude not allowed", http.MethodGet, "/api/claude", "", http.StatusMethodNotAllowed},
		{"GET /unknown", http.MethodGet, "/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
