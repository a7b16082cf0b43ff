package backend

import (
	"fmt"

	"datajobs/internal/config"
	"datajobs/internal/storage"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sourceType := SourceType(appConfig.DataSource)
	if !sourceType.IsValid() {
		return Config{}, fmt.Errorf("invalid source type in config: %s", appConfig.DataSource)
	}

	return Config{
		Type: sourceType,

		DatasetURL:   appConfig.DatasetURL,
		FetchTimeout: appConfig.FetchTimeout,
		DatasetFile:  appConfig.DatasetFile,

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetRange:    appConfig.GoogleSheetRange,

		CacheBackend:  appConfig.CacheBackend,
		RawCacheTTL:   appConfig.RawCacheTTL,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,

		// The snapshot location is fixed
		SnapshotPath:       storage.SnapshotPath,
		SQLitePath:         appConfig.SnapshotSQLitePath,
		ClickHouseDSN:      appConfig.ClickHouseDSN,
		ClickHouseDatabase: appConfig.ClickHouseDatabase,
		ClickHouseUsername: appConfig.ClickHouseUsername,
		ClickHousePassword: appConfig.ClickHousePassword,
		ArchiveInWorker:    appConfig.ArchiveMode == config.ArchiveWorker,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
		NATSURL:      appConfig.NATSURL,
		NATSSubject:  appConfig.NATSSubject,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid source type: %s", c.Type)
	}

	switch c.Type {
	case HTTPSource:
		if c.DatasetURL == "" {
			return fmt.Errorf("dataset URL is required for http source")
		}
	case FileSource:
		if c.DatasetFile == "" {
			return fmt.Errorf("dataset file is required for file source")
		}
	case SheetsSource:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets source")
		}
	}

	return nil
}

// GetSourceTypes returns all valid source types
func GetSourceTypes() []SourceType {
	return []SourceType{HTTPSource, FileSource, SheetsSource}
}

// GetSourceTypeStrings returns all valid source type strings
func GetSourceTypeStrings() []string {
	types := GetSourceTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
