package handler

import (
	"github.com/labstack/echo/v4"
)

// RelayRoute is the single relaying endpoint.
const RelayRoute = "/api/claude"

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, relay *RelayHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/relay/status", health.Status)

	e.POST(RelayRoute, relay.Handle)
}
