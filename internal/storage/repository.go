package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteArchive keeps a copy of the latest snapshot in a SQLite file.
// Writing a snapshot replaces the previous one.
type SQLiteArchive struct {
	db   *sql.DB
	path string
}

var _ Sink = (*SQLiteArchive)(nil)

func NewSQLiteArchive(dbPath string) (*SQLiteArchive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer; modernc serializes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteArchive{db: db, path: dbPath}, nil
}

func (a *SQLiteArchive) Name() string { return "sqlite:" + a.path }

func (a *SQLiteArchive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *SQLiteArchive) Write(ctx context.Context, snap Snapshot) (err error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM salary_records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM snapshot_meta`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stats := snap.Table.Stats()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, source, taken_at, raw_rows, kept_rows, dropped_rows) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Table.Source, snap.TakenAt.Format(time.RFC3339Nano), stats.RawRows, stats.KeptRows, stats.DroppedRows)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO salary_records (
		snapshot_id, row_num, year, seniority, contract_type, job_title, salary_amount,
		salary_currency, salary_usd, residence_country, remote_ratio, company_location, company_size
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range snap.Table.Records {
		_, err = stmt.ExecContext(ctx, snap.ID, i, r.Year, r.Seniority, r.ContractType, r.JobTitle,
			r.SalaryAmount, r.SalaryCurrency, r.SalaryUSD, r.ResidenceCountry, r.RemoteRatio,
			r.CompanyLocation, r.CompanySize)
		if err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Latest returns the id and row count of the archived snapshot.
func (a *SQLiteArchive) Latest(ctx context.Context) (id string, rows int, err error) {
	err = a.db.QueryRowContext(ctx,
		`SELECT m.id, (SELECT COUNT(*) FROM salary_records r WHERE r.snapshot_id = m.id) FROM snapshot_meta m`).
		Scan(&id, &rows)
	if err == sql.ErrNoRows {
		return "", 0, nil
	}
	return id, rows, err
}
