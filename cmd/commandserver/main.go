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
	"github.com/portafacil/access-control/internal/logclient"
	"github.com/portafacil/access-control/internal/observability"
	"github.com/portafacil/access-control/internal/queue"
	"github.com/portafacil/access-control/internal/repository"
	"github.com/portafacil/access-control/internal/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := observability.NewLogger("command-service", os.Getenv("LOG_LEVEL"))
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

	devices := repository.NewDeviceRepo(db)
	rooms := repository.NewRoomRepo(db)
	publisher := queue.NewPublisher(os.Getenv("RABBITMQ_URL"), logger, nil)
	logs := logclient.New(cfg.LogServiceURL, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.RegisterRoutes(e, db)
	router.RegisterCommand(e,
		handler.NewCommandHandler(devices, rooms, publisher, logs, logger), cfg)

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
