package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	e := echo.New()
	e.Use(RequestLogger(logger))
	e.POST("/api/claude", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/claude", strings.NewReader(`{"apiKey":"sk-ant-secret"}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	out := buf.String()
	for _, want := range []string{"level=INFO", "method=POST", "path=/api/claude", "status=200"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
	if strings.Contains(out, "sk-ant-secret") {
		t.Errorf("log output leaked request body: %s", out)
	}
}

func TestRequestLogger_LevelFromStatus(t *testing.T) {
	tests := []struct {
		name      string
		handler   echo.HandlerFunc
		wantLevel string
		wantCode  string
	}{
		{
			name: "http error logs warn",
			handler: func(echo.Context) error {
				return echo.NewHTTPError(http.StatusBadRequest, "bad")
			},
			wantLevel: "level=WARN",
			wantCode:  "status=400",
		},
		{
			name: "server error logs error",
			handler: func(c echo.Context) error {
				return c.JSON(http.StatusInternalServerError, map[string]string{"message": "boom"})
			},
			wantLevel: "level=ERROR",
			wantCode:  "status=500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			e := echo.New()
			e.Use(RequestLogger(logger))
			e.GET("/test", tt.handler)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

			out := buf.String()
			if !strings.Contains(out, tt.wantLevel) || !strings.Contains(out, tt.wantCode) {
				t.Errorf("log output = %q, want %s and %s", out, tt.wantLevel, tt.wantCode)
			}
		})
	}
}
