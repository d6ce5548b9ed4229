// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/presenca-app/presenca-api/internal/handler"
	"github.com/presenca-app/presenca-api/internal/metrics"
)

// RegisterRoutes registers routes that require no authentication: the
// health check used by load balancers and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", metrics.Handler())
}
