// Command datajobs-worker consumes snapshot events and copies each announced
// snapshot into the SQLite and ClickHouse archives, so the web process does
// not wait on them (ARCHIVE_MODE=worker).
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"datajobs/internal/amqp"
	"datajobs/internal/backend"
	"datajobs/internal/cli"
	"datajobs/internal/config"
	"datajobs/internal/log"
	"datajobs/internal/storage"
	"datajobs/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentWorker)
	logger.Info("Starting datajobs-worker")

	cli.MustValidate(logger, cfg)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	sinks, err := backend.NewArchives(ctx, backendCfg, logger)
	if err != nil {
		logger.Error("Failed to initialize archives", log.FieldError, err)
		os.Exit(1)
	}
	defer closeSinks(logger, sinks)
	if len(sinks) == 0 {
		logger.Error("No archive configured, set SNAPSHOT_SQLITE_PATH or CLICKHOUSE_DSN")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	archiver := worker.NewArchiveWorker(sinks, logger)

	// Catch up on a snapshot written while no worker was running.
	logger.Info("Performing startup archive check...")
	if err := archiver.ArchiveFile(ctx, backendCfg.SnapshotPath); err != nil {
		logger.Warn("Startup archive skipped", log.FieldError, err)
	}

	go func() {
		if err := client.ConsumeSnapshots(ctx, archiver.HandleSnapshot); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
			cancel()
		}
	}()

	done := cli.GracefulShutdown(logger, 10*time.Second, func(context.Context) {
		cancel()
	})

	select {
	case <-done:
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}
	logger.Info("Worker shutdown complete")
}

func closeSinks(logger *log.Logger, sinks []storage.Sink) {
	for _, sink := range sinks {
		if c, ok := sink.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("Failed to close archive", "sink", sink.Name(), log.FieldError, err)
			}
		}
	}
}
