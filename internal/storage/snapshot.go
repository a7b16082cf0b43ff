// Package storage writes the normalized dataset out of process: the CSV
// snapshot next to the binary and optional archive copies of it.
package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"datajobs/internal/core"

	"github.com/google/uuid"
)

// SnapshotPath is where every load writes the normalized table.
const SnapshotPath = "dados_final.csv"

// Snapshot is one written copy of a loaded table.
type Snapshot struct {
	ID      string
	TakenAt time.Time
	Table   *core.Table
}

func NewSnapshot(table *core.Table) Snapshot {
	return Snapshot{
		ID:      uuid.NewString(),
		TakenAt: time.Now().UTC(),
		Table:   table,
	}
}

// Sink receives every snapshot. Each write replaces the previous one.
type Sink interface {
	Name() string
	Write(ctx context.Context, snap Snapshot) error
}

// CSVSnapshot writes the table as CSV using the working vocabulary header.
type CSVSnapshot struct {
	path string
}

var _ Sink = (*CSVSnapshot)(nil)

func NewCSVSnapshot(path string) *CSVSnapshot {
	if path == "" {
		path = SnapshotPath
	}
	return &CSVSnapshot{path: path}
}

func (s *CSVSnapshot) Name() string { return "csv:" + s.path }

func (s *CSVSnapshot) Path() string { return s.path }

// Write replaces the file atomically through a temporary sibling.
func (s *CSVSnapshot) Write(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.csv")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, snap.Table); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// WriteCSV encodes records with a header row. It is shared with the export endpoint.
func WriteCSV(w io.Writer, table *core.Table) error {
	var records []core.Record
	if table != nil {
		records = table.Records
	}
	return WriteRecords(w, records)
}

func WriteRecords(w io.Writer, records []core.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(core.Columns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
