package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders())

	var seen http.Header
	e.POST("/api/claude", func(c echo.Context) error {
		seen = c.Request().Header.Clone()
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/claude", http.NoBody)
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Proxy-Authorization", "Basic abc")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	wantResponse := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
		"Cache-Control":          "no-store",
	}
	for k, want := range wantResponse {
		if got := rec.Header().Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}

	for _, k := range []string{"Connection", "Proxy-Authorization"} {
		if got := seen.Get(k); got != "" {
			t.Errorf("request header %s should be stripped, got %q", k, got)
		}
	}
	if got := seen.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want it preserved", got)
	}
}

func TestSecurityHeaders_OnHTTPError(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders())
	e.POST("/api/claude", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad body")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/claude", http.NoBody))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", got, "nosniff")
	}
}
