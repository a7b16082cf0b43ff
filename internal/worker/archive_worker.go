// Package worker copies announced snapshots into the archive sinks outside
// the web process.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"datajobs/internal/events"
	"datajobs/internal/log"
	"datajobs/internal/storage"

	"golang.org/x/sync/errgroup"
)

// ArchiveWorker handles snapshot events by reading the snapshot file and
// writing it to every sink.
type ArchiveWorker struct {
	sinks  []storage.Sink
	logger *log.Logger

	mu   sync.Mutex
	last string
}

func NewArchiveWorker(sinks []storage.Sink, logger *log.Logger) *ArchiveWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ArchiveWorker{sinks: sinks, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleSnapshot archives the snapshot named by evt. A snapshot whose row
// count disagrees with the event was overwritten by a newer load and is
// skipped; the newer event will follow.
func (w *ArchiveWorker) HandleSnapshot(ctx context.Context, evt events.SnapshotEvent) error {
	if evt.Path == "" {
		return errors.New("snapshot event without path")
	}

	w.mu.Lock()
	dup := evt.ID == w.last
	w.mu.Unlock()
	if dup {
		w.logger.DebugContext(ctx, "Snapshot already archived", log.FieldSnapshotID, evt.ID)
		return nil
	}

	table, err := storage.ReadSnapshot(evt.Path)
	if err != nil {
		return err
	}
	if table.Len() != evt.KeptRows {
		w.logger.WarnContext(ctx, "Snapshot file changed since event, skipping",
			log.FieldSnapshotID, evt.ID,
			"expected_rows", evt.KeptRows,
			"file_rows", table.Len(),
		)
		return nil
	}
	table.Source = evt.Source
	table.RawRows = evt.RawRows
	table.Dropped = evt.DroppedRows
	table.LoadedAt = evt.Timestamp

	snap := storage.Snapshot{ID: evt.ID, TakenAt: evt.Timestamp, Table: table}
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now().UTC()
	}
	if err := w.archive(ctx, snap); err != nil {
		return err
	}

	w.mu.Lock()
	w.last = evt.ID
	w.mu.Unlock()
	return nil
}

// ArchiveFile archives the snapshot currently on disk, used at startup to
// catch up on events published while no worker was running.
func (w *ArchiveWorker) ArchiveFile(ctx context.Context, path string) error {
	table, err := storage.ReadSnapshot(path)
	if err != nil {
		return err
	}
	snap := storage.NewSnapshot(table)
	if err := w.archive(ctx, snap); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "Startup archive complete", log.FieldSnapshotID, snap.ID, "rows", table.Len())
	return nil
}

// archive writes snap to every sink concurrently. Any failure fails the
// whole snapshot so the event is redelivered.
func (w *ArchiveWorker) archive(ctx context.Context, snap storage.Snapshot) error {
	if len(w.sinks) == 0 {
		return errors.New("no archive sinks configured")
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for _, sink := range w.sinks {
		g.Go(func() error {
			if err := sink.Write(gctx, snap); err != nil {
				return fmt.Errorf("%s: %w", sink.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("archive snapshot %s: %w", snap.ID, err)
	}

	w.logger.InfoContext(ctx, "Snapshot archived",
		log.FieldSnapshotID, snap.ID,
		log.FieldOperation, log.OpArchive,
		"sinks", len(w.sinks),
		log.FieldDuration, time.Since(start).Milliseconds(),
	)
	return nil
}
