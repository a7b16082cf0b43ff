package backend

import (
	"context"
	"fmt"

	"datajobs/internal/amqp"
	"datajobs/internal/cache"
	"datajobs/internal/cache/redis"
	"datajobs/internal/config"
	"datajobs/internal/events"
	"datajobs/internal/log"
	"datajobs/internal/nats"
	"datajobs/internal/sources"
	gsheet "datajobs/internal/sources/google"
	"datajobs/internal/sources/httpcsv"
	"datajobs/internal/sources/memory"
	"datajobs/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend. Archive sinks and event
// publishers are optional: a broker or ClickHouse server that cannot be
// reached is logged and skipped.
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &BackendResult{
		Snapshot: storage.NewCSVSnapshot(cfg.SnapshotPath),
	}
	var closers []func() error

	var err error
	switch cfg.Type {
	case HTTPSource:
		result.RawCache = f.createRawCache(ctx, cfg)
		closers = append(closers, result.RawCache.Close)
		result.Source = httpcsv.New(cfg.DatasetURL,
			httpcsv.WithTimeout(cfg.FetchTimeout),
			httpcsv.WithCache(result.RawCache, cfg.RawCacheTTL),
			httpcsv.WithLogger(f.logger),
		)
	case FileSource:
		result.Source = memory.NewFromFile(cfg.DatasetFile)
	case SheetsSource:
		result.Source, err = f.createSheetsSource(ctx, cfg)
	default:
		err = fmt.Errorf("unsupported source type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if !cfg.ArchiveInWorker {
		result.Archives, err = NewArchives(ctx, cfg, f.logger)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
	}

	result.Publishers = f.createPublishers(cfg)
	result.Cleanup = func() error {
		return closeAll(closers)
	}

	f.logger.Info("Initialized backend",
		log.FieldSource, result.Source.Name(),
		"archives", len(result.Archives),
		"publishers", len(result.Publishers),
	)
	return result, nil
}

// NewArchives opens the archive sinks named by cfg. SQLite failures are
// fatal; an unreachable ClickHouse server is logged and skipped.
func NewArchives(ctx context.Context, cfg Config, logger *log.Logger) ([]storage.Sink, error) {
	if logger == nil {
		logger = log.Discard()
	}
	var archives []storage.Sink

	if cfg.SQLitePath != "" {
		archive, err := storage.NewSQLiteArchive(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite archive: %w", err)
		}
		archives = append(archives, archive)
		logger.Info("Initialized SQLite archive", "db_path", cfg.SQLitePath)
	}

	if cfg.ClickHouseDSN != "" {
		archive, err := storage.NewClickHouseArchive(ctx, storage.ClickHouseOptions{
			DSN:      cfg.ClickHouseDSN,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		})
		if err != nil {
			logger.Warn("Failed to initialize ClickHouse archive, continuing without it", log.FieldError, err)
		} else {
			archives = append(archives, archive)
			logger.Info("Initialized ClickHouse archive", "database", cfg.ClickHouseDatabase)
		}
	}

	return archives, nil
}

func (f *DefaultFactory) createSheetsSource(ctx context.Context, cfg Config) (sources.DatasetSource, error) {
	src, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetRange)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets source: %w", err)
	}
	f.logger.Info("Initialized Google Sheets source", "range", cfg.GoogleSheetRange)
	return src, nil
}

// createRawCache returns the redis store when configured and reachable,
// otherwise an in-process store.
func (f *DefaultFactory) createRawCache(ctx context.Context, cfg Config) cache.Store {
	opts := cache.DefaultOptions()
	if cfg.RawCacheTTL > 0 {
		opts.DefaultTTL = cfg.RawCacheTTL
	}
	opts.RedisAddr = cfg.RedisAddr
	opts.RedisPassword = cfg.RedisPassword
	opts.RedisDB = cfg.RedisDB

	if cfg.CacheBackend == config.CacheRedis {
		store := redis.New(opts)
		if err := store.Ping(ctx); err != nil {
			f.logger.Warn("Redis unavailable, falling back to memory cache", "addr", cfg.RedisAddr, log.FieldError, err)
			_ = store.Close()
		} else {
			f.logger.Info("Initialized redis cache", "addr", cfg.RedisAddr)
			return store
		}
	}
	return cache.NewMemoryStore(opts)
}

func (f *DefaultFactory) createPublishers(cfg Config) []events.Publisher {
	var publishers []events.Publisher

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			publishers = append(publishers, client)
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	if cfg.NATSURL != "" {
		pub, err := nats.NewPublisher(cfg.NATSURL, cfg.NATSSubject, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize NATS publisher, continuing without events", log.FieldError, err)
		} else {
			publishers = append(publishers, pub)
			f.logger.Info("Initialized NATS publisher", "subject", cfg.NATSSubject)
		}
	}

	return publishers
}

func closeAll(closers []func() error) error {
	var errs []error
	for _, c := range closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("cleanup: %v", errs)
	}
	return nil
}
