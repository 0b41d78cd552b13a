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

	"github.com/portafacil/access-control/internal/auth"
	"github.com/portafacil/access-control/internal/config"
	"github.com/portafacil/access-control/internal/database"
	"github.com/portafacil/access-control/internal/handler"
	"github.com/portafacil/access-control/internal/observability"
	"github.com/portafacil/access-control/internal/queue"
	"github.com/portafacil/access-control/internal/repository"
	"github.com/portafacil/access-control/internal/router"
	"github.com/portafacil/access-control/internal/suap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := observability.NewLogger("auth-service", os.Getenv("LOG_LEVEL"))
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

	users := repository.NewUserRepo(db)
	backups := repository.NewBackupRepo(db)

	verifier := &auth.Verifier{
		Provider:   suap.NewClient(cfg.SuapBaseURL, 0),
		Users:      users,
		Backups:    backups,
		BackupTTL:  cfg.BackupTTL,
		BcryptCost: cfg.BcryptCost,
		Logger:     logger,
	}
	issuer := &auth.Issuer{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.Issuer,
		AccessTTL:  time.Duration(cfg.AccessTTLMin) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
	}
	publisher := queue.NewPublisher(os.Getenv("RABBITMQ_URL"), logger, nil)

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	// Expired credential backups are useless rows; sweep them hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				n, err := backups.DeleteExpired(sweepCtx)
				cancel()
				if err != nil {
					logger.Warn("backup sweep failed", zap.Error(err))
				} else if n > 0 {
					logger.Info("expired backups removed", zap.Int64("count", n))
				}
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	authHandler := handler.NewAuthHandler(cfg, verifier, issuer, users, publisher, logger)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, authHandler, cfg, rdb)

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
