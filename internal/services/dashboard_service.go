package services

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"datajobs/internal/cache"
	"datajobs/internal/core"
	"datajobs/internal/engine"
	apperrors "datajobs/internal/errors"
	"datajobs/internal/events"
	"datajobs/internal/log"
	"datajobs/internal/normalize"
	"datajobs/internal/sources"
	"datajobs/internal/storage"
	"datajobs/internal/telemetry"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const tableKey = "table"

var tracer = telemetry.GetTracer("datajobs/services")

// Invalidator is implemented by sources that keep their own copy of the
// raw dataset.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// DashboardConfig holds the collaborators of a DashboardService.
type DashboardConfig struct {
	// TTL is how long a loaded table is served before the next load (default: 10m)
	TTL time.Duration

	// Snapshot is written on every load. A failed write fails the load.
	Snapshot storage.Sink

	// Archives receive a copy of every snapshot. Failures are logged only.
	Archives []storage.Sink

	// Publishers are notified after the snapshot is written.
	Publishers []events.Publisher

	Logger *log.Logger
}

// ServiceStats are the counters exposed on /metrics.
type ServiceStats struct {
	Loads        int64
	LoadFailures int64
	Reloads      int64
	Recomputes   int64
	Cached       bool
}

// DashboardService loads the dataset once per TTL and answers dashboard
// queries against the cached table.
type DashboardService struct {
	source     sources.DatasetSource
	snapshot   storage.Sink
	archives   []storage.Sink
	publishers []events.Publisher
	ttl        time.Duration

	tables   *cache.LRUCache[*core.Table]
	group    singleflight.Group
	resolver *core.CountryResolver

	logger     *log.Logger
	structured *log.StructuredLogger

	loads      atomic.Int64
	failures   atomic.Int64
	reloads    atomic.Int64
	recomputes atomic.Int64
}

func NewDashboardService(source sources.DatasetSource, cfg DashboardConfig) *DashboardService {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.Snapshot == nil {
		cfg.Snapshot = storage.NewCSVSnapshot(storage.SnapshotPath)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentDataset)

	return &DashboardService{
		source:     source,
		snapshot:   cfg.Snapshot,
		archives:   cfg.Archives,
		publishers: cfg.Publishers,
		ttl:        cfg.TTL,
		tables:     cache.NewLRUCache[*core.Table](1, cfg.TTL),
		resolver:   core.NewCountryResolver(),
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
	}
}

// TableCache exposes the table cache so it can be swept by a cache.Manager.
func (s *DashboardService) TableCache() cache.Cleaner {
	return s.tables
}

// Table returns the cached table, loading it when absent or expired.
// Concurrent callers share a single load.
func (s *DashboardService) Table(ctx context.Context) (*core.Table, error) {
	if table, ok := s.tables.Get(tableKey); ok {
		return table, nil
	}

	ch := s.group.DoChan(tableKey, func() (interface{}, error) {
		if table, ok := s.tables.Get(tableKey); ok {
			return table, nil
		}
		// one caller giving up must not fail the others
		return s.load(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*core.Table), nil
	}
}

// Reload drops the cached table and any source-side copy, then loads again.
func (s *DashboardService) Reload(ctx context.Context) (*core.Table, error) {
	s.reloads.Add(1)
	s.tables.Delete(tableKey)
	s.group.Forget(tableKey)

	if inv, ok := s.source.(Invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "Failed to invalidate source cache", log.FieldSource, s.source.Name(), log.FieldError, err)
		}
	}

	s.logger.InfoContext(ctx, "Dataset reload requested", log.FieldSource, s.source.Name(), log.FieldOperation, log.OpReload)
	return s.Table(ctx)
}

// Recompute filters and aggregates the current table for spec.
func (s *DashboardService) Recompute(ctx context.Context, spec engine.FilterSpec, opts ...engine.Option) (engine.Result, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return engine.Result{}, err
	}

	_, span := tracer.Start(ctx, "dashboard.recompute")
	defer span.End()

	opts = append([]engine.Option{engine.WithResolver(s.resolver.ISO3)}, opts...)
	res := engine.Recompute(table, spec, opts...)
	s.recomputes.Add(1)

	span.SetAttributes(
		telemetry.Int("rows.total", res.TotalRows),
		telemetry.Int("rows.filtered", res.Summary.Count),
		telemetry.String("job_title", spec.JobTitle),
	)
	s.logger.DebugContext(ctx, "Dashboard recomputed",
		log.FieldOperation, log.OpRecompute,
		log.FieldFiltered, res.Summary.Count,
	)
	return res, nil
}

// Options returns the selectable values of the current table.
func (s *DashboardService) Options(ctx context.Context) (engine.Options, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.OptionsFor(table), nil
}

// DefaultSpec returns the everything-selected filter of the current table.
func (s *DashboardService) DefaultSpec(ctx context.Context) (engine.FilterSpec, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return engine.FilterSpec{}, err
	}
	return engine.DefaultSpec(table), nil
}

// Filtered returns the records of the current table matching spec.
func (s *DashboardService) Filtered(ctx context.Context, spec engine.FilterSpec) ([]core.Record, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return engine.Filter(table.Records, spec), nil
}

func (s *DashboardService) Stats() ServiceStats {
	_, cached := s.tables.Get(tableKey)
	return ServiceStats{
		Loads:        s.loads.Load(),
		LoadFailures: s.failures.Load(),
		Reloads:      s.reloads.Load(),
		Recomputes:   s.recomputes.Load(),
		Cached:       cached,
	}
}

func (s *DashboardService) SourceName() string {
	return s.source.Name()
}

// load fetches, normalizes and snapshots the dataset, then caches the table.
func (s *DashboardService) load(ctx context.Context) (*core.Table, error) {
	ctx, span := tracer.Start(ctx, "dashboard.load")
	defer span.End()

	start := time.Now()
	table, err := s.fetchAndNormalize(ctx)
	if err != nil {
		s.failures.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.structured.LogError(ctx, "Dataset load failed", err, log.ComponentDataset, log.OpLoad,
			log.NewFields().WithDataset(s.source.Name(), 0, 0, 0))
		return nil, err
	}
	table.LoadedAt = time.Now().UTC()

	snap := storage.NewSnapshot(table)
	if err := s.writeSnapshot(ctx, snap); err != nil {
		s.failures.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.publish(ctx, snap)

	s.tables.SetWithTTL(tableKey, table, s.ttl)
	s.loads.Add(1)

	stats := table.Stats()
	span.SetAttributes(
		telemetry.String("source", s.source.Name()),
		telemetry.Int("rows.raw", stats.RawRows),
		telemetry.Int("rows.kept", stats.KeptRows),
		telemetry.String("snapshot.id", snap.ID),
	)
	s.structured.LogDatasetLoaded(ctx, s.source.Name(), stats.RawRows, stats.KeptRows, stats.DroppedRows, time.Since(start).Milliseconds())
	return table, nil
}

func (s *DashboardService) fetchAndNormalize(ctx context.Context) (*core.Table, error) {
	fetchCtx, fetchSpan := tracer.Start(ctx, "dataset.fetch")
	raw, err := s.source.Fetch(fetchCtx)
	fetchSpan.End()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.source.Name(), err)
	}

	_, normSpan := tracer.Start(ctx, "dataset.normalize")
	defer normSpan.End()
	normSpan.SetAttributes(telemetry.Int("rows.raw", len(raw.Rows)))

	table, err := normalize.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", s.source.Name(), err)
	}
	return table, nil
}

// writeSnapshot writes the required snapshot and every archive concurrently.
func (s *DashboardService) writeSnapshot(ctx context.Context, snap storage.Snapshot) error {
	ctx, span := tracer.Start(ctx, "dataset.snapshot")
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.snapshot.Write(gctx, snap); err != nil {
			return apperrors.Internal(fmt.Sprintf("write snapshot %s", s.snapshot.Name()), err)
		}
		return nil
	})
	for _, sink := range s.archives {
		g.Go(func() error {
			if err := sink.Write(gctx, snap); err != nil {
				s.logger.WarnContext(ctx, "Archive write failed",
					log.FieldSink, sink.Name(),
					log.FieldSnapshotID, snap.ID,
					log.FieldError, err,
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "Snapshot written",
		log.FieldOperation, log.OpSnapshot,
		log.FieldSnapshotID, snap.ID,
		log.FieldSink, s.snapshot.Name(),
	)
	return nil
}

func (s *DashboardService) publish(ctx context.Context, snap storage.Snapshot) {
	if len(s.publishers) == 0 {
		return
	}

	stats := snap.Table.Stats()
	evt := events.SnapshotEvent{
		ID:          snap.ID,
		Source:      s.source.Name(),
		Path:        sinkLocation(s.snapshot),
		RawRows:     stats.RawRows,
		KeptRows:    stats.KeptRows,
		DroppedRows: stats.DroppedRows,
		Timestamp:   snap.TakenAt,
	}
	for _, p := range s.publishers {
		if err := p.PublishSnapshot(ctx, evt); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish snapshot event",
				log.FieldSnapshotID, snap.ID,
				log.FieldOperation, log.OpPublish,
				log.FieldError, err,
			)
		}
	}
}

// Close releases publishers and any sink holding a connection.
func (s *DashboardService) Close() error {
	var errs []error

	for _, p := range s.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	for _, sink := range append([]storage.Sink{s.snapshot}, s.archives...) {
		if c, ok := sink.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close dashboard service: %v", errs)
	}
	return nil
}

func sinkLocation(sink storage.Sink) string {
	if p, ok := sink.(interface{ Path() string }); ok {
		return p.Path()
	}
	return sink.Name()
}
