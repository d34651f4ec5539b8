package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"claude-relay-go/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves the liveness probe and the relay status report.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// statusResponse describes where and how requests are relayed. It never
// carries credentials, only the name of the body field they travel in.
type statusResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	Route           string `json:"route"`
	UpstreamURL     string `json:"upstream_url"`
	APIVersion      string `json:"api_version"`
	CredentialField string `json:"credential_field"`
	TimeoutSeconds  int    `json:"upstream_timeout_seconds"`
}

// Status reports the relay route, its upstream and the credential field name.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Status:          "ok",
		Version:         string(h.version),
		Route:           RelayRoute,
		UpstreamURL:     h.cfg.Upstream.URL,
		APIVersion:      h.cfg.Upstream.Version,
		CredentialField: h.cfg.Relay.CredentialField,
		TimeoutSeconds:  h.cfg.Upstream.TimeoutSeconds,
	})
}
