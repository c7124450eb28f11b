package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/modutalk/talkgate/adapters/backend"
	"github.com/modutalk/talkgate/adapters/realtime"
	"github.com/modutalk/talkgate/domain/repositories"
	"github.com/modutalk/talkgate/internal/api"
	"github.com/modutalk/talkgate/internal/auth"
	"github.com/modutalk/talkgate/internal/config"
	"github.com/modutalk/talkgate/internal/websocket"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Per-connection adapter factories: the backend client is scoped to the
	// caller's JWT, the upstream connection is single-use.
	newBackend := func(jwtToken string) repositories.TalkBackend {
		return backend.NewClient(cfg.BackendBaseURL, jwtToken, logger)
	}
	newUpstream := func() repositories.RealtimeConnection {
		return realtime.NewClient(realtime.Config{
			URL:     cfg.UpstreamURL,
			Model:   cfg.UpstreamModel,
			APIKey:  cfg.UpstreamAPIKey,
			Session: realtime.DefaultSessionConfig(),
		}, logger)
	}

	gateway := websocket.NewGateway(newBackend, newUpstream, logger)
	validator := auth.NewValidator([]byte(cfg.JWTSecret))

	// Initialize API routes
	api.InitRoutes(e, gateway, validator, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Talk gateway started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
