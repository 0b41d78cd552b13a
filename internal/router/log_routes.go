package router

import (
	"github.com/labstack/echo/v4"

	"github.com/portafacil/access-control/internal/handler"
)

// RegisterLog wires the log service routes.  The service sits on the
// internal network, so entries are accepted without end-user identity;
// callers state their service name in the body.
func RegisterLog(e *echo.Echo, l *handler.LogHandler) {
	e.POST("/log", l.Create)
	e.GET("/log", l.List)
}
