package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"datajobs/internal/cache"
	"datajobs/internal/cli"
	"datajobs/internal/config"
	apphttp "datajobs/internal/http"
	"datajobs/internal/log"
	"datajobs/internal/telemetry"
)

var version = "dev"

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg)
	cli.MustValidate(logger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, "datajobs", version, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("Failed to initialize tracing", log.FieldError, err)
		os.Exit(1)
	}

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, log.FieldSource, cfg.DataSource)
		os.Exit(1)
	}
	svc := app.Service

	cacheManager := cache.NewManager()
	cacheManager.Register(svc.TableCache())
	if cleaner, ok := app.Backend.RawCache.(cache.Cleaner); ok {
		cacheManager.Register(cleaner)
	}
	cacheLogger := logger.WithComponent(log.ComponentCache)
	cacheManager.OnClean(func(removed int) {
		cacheLogger.Debug("Cache cleanup completed", "entries_removed", removed)
	})
	cacheManager.StartCleanup(5 * time.Minute)

	// Warm the table so the first visitor does not pay for the download.
	go func() {
		if _, err := svc.Table(ctx); err != nil {
			logger.Warn("Initial dataset load failed, retrying on first request", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, svc,
		apphttp.WithLogger(logger),
		apphttp.WithSourceURL(sourceURL(cfg)),
		apphttp.WithReloadRate(cfg.ReloadRatePerMinute),
		apphttp.WithRequestTimeout(cfg.FetchTimeout+30*time.Second),
	)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.FetchTimeout + time.Minute
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	})

	logger.Info("Starting datajobs server",
		"port", cfg.Port,
		log.FieldSource, app.Source.String(),
		"version", version)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done

	cacheManager.Stop()
	if err := app.Close(); err != nil {
		logger.Error("Cleanup error", log.FieldError, err)
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := shutdownTracer(flushCtx); err != nil {
		logger.Error("Tracer shutdown error", log.FieldError, err)
	}

	logger.Info("Server stopped gracefully")
}

// sourceURL is the dataset origin linked from the page header.
func sourceURL(cfg *config.Config) string {
	switch cfg.DataSource {
	case config.SourceHTTP:
		return cfg.DatasetURL
	case config.SourceSheets:
		return "https://docs.google.com/spreadsheets/d/" + cfg.GoogleSpreadsheetID
	default:
		return ""
	}
}
