package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type ClickHouseOptions struct {
	DSN      string // host:port, query parameters are ignored
	Database string
	Username string
	Password string
	Table    string
}

// ClickHouseArchive mirrors the latest snapshot into a ClickHouse table.
type ClickHouseArchive struct {
	conn  clickhouse.Conn
	table string
}

var _ Sink = (*ClickHouseArchive)(nil)

func NewClickHouseArchive(ctx context.Context, opts ClickHouseOptions) (*ClickHouseArchive, error) {
	host := strings.Split(opts.DSN, "?")[0]
	table := opts.Table
	if table == "" {
		table = "salary_records"
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Protocol: clickhouse.Native,
		Addr:     []string{host},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create clickhouse connection: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	a := &ClickHouseArchive{conn: conn, table: table}
	if err := conn.Exec(ctx, a.createTableSQL()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create %s: %w", table, err)
	}
	return a, nil
}

func (a *ClickHouseArchive) createTableSQL() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		snapshot_id       String,
		taken_at          DateTime64(3),
		row_num           UInt32,
		year              Int32,
		seniority         LowCardinality(String),
		contract_type     LowCardinality(String),
		job_title         String,
		salary_amount     Float64,
		salary_currency   LowCardinality(String),
		salary_usd        Float64,
		residence_country LowCardinality(String),
		remote_ratio      LowCardinality(String),
		company_location  LowCardinality(String),
		company_size      LowCardinality(String)
	) ENGINE = MergeTree ORDER BY (year, job_title)`, a.table)
}

func (a *ClickHouseArchive) Name() string { return "clickhouse:" + a.table }

func (a *ClickHouseArchive) Close() error { return a.conn.Close() }

// Write truncates the table and inserts the snapshot in one batch.
func (a *ClickHouseArchive) Write(ctx context.Context, snap Snapshot) error {
	if err := a.conn.Exec(ctx, "TRUNCATE TABLE IF EXISTS "+a.table); err != nil {
		return fmt.Errorf("truncate %s: %w", a.table, err)
	}

	batch, err := a.conn.PrepareBatch(ctx, "INSERT INTO "+a.table)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for i, r := range snap.Table.Records {
		err := batch.Append(
			snap.ID, snap.TakenAt, uint32(i), int32(r.Year), r.Seniority, r.ContractType, r.JobTitle,
			r.SalaryAmount, r.SalaryCurrency, r.SalaryUSD, r.ResidenceCountry, r.RemoteRatio,
			r.CompanyLocation, r.CompanySize,
		)
		if err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append record %d: %w", i, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
