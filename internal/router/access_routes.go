package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/portafacil/access-control/internal/config"
	"github.com/portafacil/access-control/internal/handler"
	"github.com/portafacil/access-control/internal/middleware"
	"github.com/portafacil/access-control/internal/model"
)

// RegisterAccess wires the resource API: departments, rooms and devices.
// Role allow-lists follow the permission tiers: department and device
// management is administrador-only, room management extends to
// coordenador, the all-rooms view extends to seguranca, and the
// my-access view is open to any authenticated user.  The available-rooms
// listing is public and cached in Redis when a client is present.  The
// test-data cleanup endpoint lives here because it scrubs this service's
// tables, and only when debug is on.
func RegisterAccess(e *echo.Echo, d *handler.DepartmentHandler, r *handler.RoomHandler, dev *handler.DeviceHandler, pr *handler.ProfileHandler, cfg config.Config, rdb *redis.Client) {
	available := []echo.MiddlewareFunc{}
	if rdb != nil {
		available = append(available, middleware.CacheJSON(rdb, 30*time.Second))
	}
	e.GET("/v1/rooms/available", r.ListAvailable, available...)

	if cfg.IsDebug() {
		e.DELETE("/internal/cleanup/users/:username", pr.Cleanup)
	}

	strategy := middleware.StrategyFromSource(cfg.AuthSource, cfg.JWTSecret, cfg.Issuer)
	auth := e.Group("/v1", middleware.Authenticate(strategy))

	admin := middleware.RequireRole(model.RoleAdministrador)
	roomManagers := middleware.RequireRole(model.RoleAdministrador, model.RoleCoordenador)
	roomViewers := middleware.RequireRole(model.RoleAdministrador, model.RoleSeguranca)

	auth.POST("/departments", d.Create, admin)
	auth.GET("/departments", d.List, admin)
	auth.GET("/departments/:id", d.Get, admin)
	auth.PUT("/departments/:id", d.Update, admin)
	auth.DELETE("/departments/:id", d.Delete, admin)

	auth.POST("/rooms", r.Create, roomManagers)
	auth.GET("/rooms/all", r.ListAll, roomViewers)
	auth.GET("/rooms/my-access", r.ListMyAccess)
	auth.GET("/rooms/:id", r.Get, roomManagers)
	auth.PUT("/rooms/:id", r.Update, roomManagers)
	auth.DELETE("/rooms/:id", r.Delete, roomManagers)

	auth.POST("/devices", dev.Create, admin)
	auth.GET("/devices", dev.List, admin)
	auth.GET("/devices/:id", dev.Get, admin)
	auth.PUT("/devices/:id", dev.Update, admin)
	auth.DELETE("/devices/:id", dev.Delete, admin)

	auth.GET("/profiles/:user_id", pr.Get, admin)
}
