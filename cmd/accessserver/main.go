package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/portafacil/access-control/internal/config"
	"github.com/portafacil/access-control/internal/database"
	"github.com/portafacil/access-control/internal/handler"
	"github.com/portafacil/access-control/internal/observability"
	"github.com/portafacil/access-control/internal/queue"
	"github.com/portafacil/access-control/internal/repository"
	"github.com/portafacil/access-control/internal/router"
)

// The access server hosts the resource API and the user_events consumer
// in one process: both sides write the same read model, so they share a
// database pool and die together.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := observability.NewLogger("access-service", os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	observability.Register()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db, logger); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
	}

	departments := repository.NewDepartmentRepo(db)
	rooms := repository.NewRoomRepo(db)
	devices := repository.NewDeviceRepo(db)
	profiles := repository.NewProfileRepo(db)

	consumer := &queue.UserEventConsumer{
		URL:      os.Getenv("RABBITMQ_URL"),
		Profiles: profiles,
		Logger:   logger,
		Policy:   queue.ParseAckPolicy(cfg.AckPolicy),
	}
	go func() {
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("consumer stopped", zap.Error(err))
		}
	}()

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.RegisterRoutes(e, db)
	router.RegisterAccess(e,
		handler.NewDepartmentHandler(departments),
		handler.NewRoomHandler(rooms),
		handler.NewDeviceHandler(devices, rooms),
		handler.NewProfileHandler(profiles),
		cfg, rdb)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
