package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/portafacil/access-control/internal/config"
	"github.com/portafacil/access-control/internal/handler"
	"github.com/portafacil/access-control/internal/middleware"
)

// RegisterAuth wires the auth service routes.  Credential endpoints carry
// the Redis token-bucket limiter; protected endpoints resolve identity
// from the access_token cookie.  Mock login exists only when debug is on.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, cfg config.Config, rdb *redis.Client) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	if cfg.IsDebug() {
		g.POST("/mock-login", a.MockLogin)
	}

	strategy := middleware.StrategyFromSource(cfg.AuthSource, cfg.JWTSecret, cfg.Issuer)
	auth := e.Group("/v1", middleware.Authenticate(strategy))
	auth.GET("/auth/check", a.Check)
	auth.GET("/me", a.Check)
}
