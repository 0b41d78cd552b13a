// Package router defines how HTTP routes are registered for each service
// binary.  Every service gets the shared health and metrics endpoints;
// the per-service route sets live in their own files.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/portafacil/access-control/internal/handler"
	"github.com/portafacil/access-control/internal/observability"
)

// RegisterRoutes registers the routes every service shares: a health
// check backed by a database ping and the Prometheus metrics endpoint.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
	observability.MetricsRoute(e)
}
