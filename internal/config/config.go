package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Dataset sources.
const (
	SourceHTTP   = "http"
	SourceFile   = "file"
	SourceSheets = "sheets"
)

// Raw body cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Archive modes.
const (
	ArchiveInline = "inline"
	ArchiveWorker = "worker"
)

// DefaultDatasetURL is the public salaries dataset.
const DefaultDatasetURL = "https://raw.githubusercontent.com/guilhermeonrails/data-jobs/refs/heads/main/salaries.csv"

type Config struct {
	// HTTP Server
	Port string

	// Logging
	LogLevel  string
	LogFormat string

	// Dataset
	DataSource   string
	DatasetURL   string
	DatasetFile  string
	FetchTimeout time.Duration
	DatasetTTL   time.Duration

	// Raw body cache
	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RawCacheTTL   time.Duration

	// Google Sheets source
	GoogleSpreadsheetID string
	GoogleSheetRange    string

	// Archive sinks, disabled when empty
	SnapshotSQLitePath string
	ClickHouseDSN      string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string
	ArchiveMode        string

	// Snapshot events, disabled when empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	NATSURL      string
	NATSSubject  string

	// Tracing, disabled when empty
	OTLPEndpoint string

	ReloadRatePerMinute int
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataSource:   getEnv("DATA_SOURCE", SourceHTTP),
		DatasetURL:   getEnv("DATASET_URL", DefaultDatasetURL),
		DatasetFile:  getEnv("DATASET_FILE", ""),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		DatasetTTL:   getEnvDuration("DATASET_TTL", 10*time.Minute),

		CacheBackend:  getEnv("CACHE_BACKEND", CacheMemory),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RawCacheTTL:   getEnvDuration("RAW_CACHE_TTL", 30*time.Minute),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetRange:    getEnv("GOOGLE_SHEET_RANGE", "A:K"),

		SnapshotSQLitePath: getEnv("SNAPSHOT_SQLITE_PATH", ""),
		ClickHouseDSN:      getEnv("CLICKHOUSE_DSN", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "default"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		ArchiveMode:        getEnv("ARCHIVE_MODE", ArchiveInline),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "datajobs"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "dataset_snapshots"),
		NATSURL:      getEnv("NATS_URL", ""),
		NATSSubject:  getEnv("NATS_SUBJECT", "dataset.snapshot"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		ReloadRatePerMinute: getEnvInt("RELOAD_RATE_PER_MINUTE", 6),
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	switch c.DataSource {
	case SourceHTTP:
		if parsed, err := url.Parse(c.DatasetURL); err != nil || c.DatasetURL == "" {
			errors = append(errors, fmt.Sprintf("invalid dataset URL '%s'", c.DatasetURL))
		} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid dataset URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
		}
	case SourceFile:
		if c.DatasetFile == "" {
			errors = append(errors, "DATASET_FILE is required when using file source")
		} else if _, err := os.Stat(c.DatasetFile); err != nil {
			errors = append(errors, fmt.Sprintf("dataset file not readable: %s", c.DatasetFile))
		}
	case SourceSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets source")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, []string{SourceHTTP, SourceFile, SourceSheets}))
	}

	if c.FetchTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at least 1 second", c.FetchTimeout))
	}
	if c.DatasetTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid dataset TTL %v: must be at least 1 second", c.DatasetTTL))
	}

	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			errors = append(errors, "REDIS_ADDR is required when using redis cache")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid cache backend '%s': must be memory or redis", c.CacheBackend))
	}

	if c.SnapshotSQLitePath != "" {
		dir := filepath.Dir(c.SnapshotSQLitePath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite archive directory '%s': %v", dir, err))
				}
			}
		}
	}

	switch c.ArchiveMode {
	case ArchiveInline:
	case ArchiveWorker:
		if c.AMQPURL == "" {
			errors = append(errors, "AMQP_URL is required when archives are written by the worker")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid archive mode '%s': must be inline or worker", c.ArchiveMode))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.NATSURL != "" && c.NATSSubject == "" {
		errors = append(errors, "NATS subject cannot be empty when NATS URL is provided")
	}

	if c.ReloadRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid reload rate %d: must be at least 1 per minute", c.ReloadRatePerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
