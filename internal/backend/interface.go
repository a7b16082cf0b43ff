package backend

import (
	"context"
	"time"

	"datajobs/internal/cache"
	"datajobs/internal/events"
	"datajobs/internal/sources"
	"datajobs/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains everything the dashboard service needs to load
// and publish the dataset, plus an optional cleanup function.
type BackendResult struct {
	Source     sources.DatasetSource
	Snapshot   storage.Sink
	Archives   []storage.Sink
	Publishers []events.Publisher

	// RawCache holds the raw dataset body for the http source, nil otherwise.
	RawCache cache.Store

	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Source type
	Type SourceType

	// HTTP source
	DatasetURL   string
	FetchTimeout time.Duration

	// File source
	DatasetFile string

	// Google Sheets source
	GoogleSpreadsheetID string
	GoogleSheetRange    string

	// Raw body cache, http source only
	CacheBackend  string
	RawCacheTTL   time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Snapshot and archives
	SnapshotPath       string
	SQLitePath         string
	ClickHouseDSN      string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// ArchiveInWorker leaves archive writes to datajobs-worker.
	ArchiveInWorker bool

	// Event publishers
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	NATSURL      string
	NATSSubject  string
}

// SourceType represents where the dataset is read from
type SourceType string

const (
	HTTPSource   SourceType = "http"
	FileSource   SourceType = "file"
	SheetsSource SourceType = "sheets"
)

// String implements fmt.Stringer
func (st SourceType) String() string {
	return string(st)
}

// IsValid returns true if the source type is valid
func (st SourceType) IsValid() bool {
	switch st {
	case HTTPSource, FileSource, SheetsSource:
		return true
	default:
		return false
	}
}
