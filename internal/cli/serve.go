package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/api"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/config"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/tracing"
)

const shutdownTimeout = 30 * time.Second

// ServerConfig maps the api section of cfg onto the server config.
// A positive port overrides the configured one.
func ServerConfig(cfg *config.Config, port int) api.Config {
	apiCfg := api.DefaultConfig()
	apiCfg.Port = cfg.API.Port
	apiCfg.AllowedOrigins = cfg.API.AllowedOrigins
	apiCfg.RateLimitRPS = cfg.API.RateLimitRPS
	apiCfg.RateLimitBurst = cfg.API.RateLimitBurst
	if port > 0 {
		apiCfg.Port = port
	}
	return apiCfg
}

// RunServe runs the API server until SIGINT or SIGTERM.
func RunServe(cfg *config.Config, port int) error {
	ctx := context.Background()

	app, err := Open(ctx, cfg, "api")
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	logger := app.Logger

	tracer, err := tracing.New(ctx, cfg.Observability.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown error", slog.Any("error", err))
		}
	}()
	if tracer.Enabled() {
		logger.Info("tracing enabled", "service", cfg.Observability.Tracing.ServiceName)
	}

	server := api.NewServer(ServerConfig(cfg, port), app.Services, logger)

	// Handle graceful shutdown
	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
