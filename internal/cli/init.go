// Package cli provides common CLI initialization utilities shared by the
// commands under cmd/.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"datajobs/internal/backend"
	"datajobs/internal/config"
	"datajobs/internal/log"
	"datajobs/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)
	return logger
}

// MustValidate exits the process when cfg is invalid.
func MustValidate(logger *log.Logger, cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
}

// App is a dashboard service with the backend it was built from.
type App struct {
	Service *services.DashboardService
	Backend *backend.BackendResult
	Source  backend.SourceType
}

// NewApp creates the backend selected by cfg and the dashboard service on
// top of it.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}

	svc := services.NewDashboardService(result.Source, services.DashboardConfig{
		TTL:        cfg.DatasetTTL,
		Snapshot:   result.Snapshot,
		Archives:   result.Archives,
		Publishers: result.Publishers,
		Logger:     logger,
	})

	return &App{Service: svc, Backend: result, Source: backendCfg.Type}, nil
}

// Close releases the service and then the backend.
func (a *App) Close() error {
	var errs []error
	if err := a.Service.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.Backend.Cleanup != nil {
		if err := a.Backend.Cleanup(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close app: %v", errs)
	}
	return nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// On SIGINT or SIGTERM it runs cleanup with a context bounded by timeout,
// then closes the returned channel.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return done
}
