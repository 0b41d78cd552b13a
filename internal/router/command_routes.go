package router

import (
	"github.com/labstack/echo/v4"

	"github.com/portafacil/access-control/internal/config"
	"github.com/portafacil/access-control/internal/handler"
	"github.com/portafacil/access-control/internal/middleware"
)

// RegisterCommand wires the door command endpoint.  Any authenticated
// role may attempt a command; whether it goes through is decided per
// room inside the handler.
func RegisterCommand(e *echo.Echo, cmd *handler.CommandHandler, cfg config.Config) {
	strategy := middleware.StrategyFromSource(cfg.AuthSource, cfg.JWTSecret, cfg.Issuer)
	auth := e.Group("/v1", middleware.Authenticate(strategy))
	auth.POST("/commands", cmd.Send)
}
