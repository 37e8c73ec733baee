package indexmanager

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/sushant-115/gojodb-spatial/core/indexing/spatial"
	internaltelemetry "github.com/sushant-115/gojodb-spatial/internal/telemetry"
	"github.com/sushant-115/gojodb-spatial/pkg/treeview"
)

// ===============================================
// SpatialIndexManager: locking, caching wrapper around spatial.RTree
// ===============================================

// Options configures a SpatialIndexManager. Zero values disable the matching
// feature: no logging, no-op metrics and traces, no cache, no observer.
type Options struct {
	Logger *zap.Logger
	Meter  metric.Meter
	Tracer trace.Tracer

	CacheEnabled     bool
	CacheNumCounters int64
	CacheMaxCost     int64

	// Observer receives tree events. Queries run concurrently under a read
	// lock, so it must be safe for concurrent use.
	Observer spatial.Observer
}

// SpatialIndexManager implements IndexManager on top of an in-memory R-tree.
type SpatialIndexManager struct {
	mu      sync.RWMutex
	tree    *spatial.RTree
	version uint64
	closed  bool

	logger  *zap.Logger
	metrics *internaltelemetry.SpatialIndexMetrics
	tracer  trace.Tracer

	cache       *ristretto.Cache[string, []spatial.Point]
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
}

var _ IndexManager = (*SpatialIndexManager)(nil)

// NewSpatialIndexManager builds an empty index.
func NewSpatialIndexManager(opts Options) (*SpatialIndexManager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("spatial_index")

	meter := opts.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}
	metrics, err := internaltelemetry.NewSpatialIndexMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create spatial index metrics: %w", err)
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	m := &SpatialIndexManager{
		tree:    spatial.NewRTree(logger),
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
	if opts.Observer != nil {
		m.tree.SetObserver(opts.Observer)
	}

	if opts.CacheEnabled {
		cache, err := ristretto.NewCache(&ristretto.Config[string, []spatial.Point]{
			NumCounters:        opts.CacheNumCounters,
			MaxCost:            opts.CacheMaxCost,
			BufferItems:        64,
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create query cache: %w", err)
		}
		m.cache = cache
	}

	logger.Info("Spatial index manager created",
		zap.Int("max_entries", spatial.MaxEntries),
		zap.Int("min_entries", spatial.MinEntries),
		zap.Bool("cache", m.cache != nil))
	return m, nil
}

func (m *SpatialIndexManager) Name() string { return "spatial" }

// Version returns the current mutation counter.
func (m *SpatialIndexManager) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Insert adds p to the index.
func (m *SpatialIndexManager) Insert(ctx context.Context, p spatial.Point) (bool, error) {
	ctx, span := m.tracer.Start(ctx, "spatial.Insert", trace.WithAttributes(pointAttrs(p)...))
	defer span.End()
	defer m.observe(ctx, "insert", time.Now())

	if !p.IsValid() {
		return m.fail(span, ErrInvalidPoint)
	}
	if err := ctx.Err(); err != nil {
		return m.fail(span, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return m.fail(span, ErrClosed)
	}

	inserted := m.tree.Insert(p)
	if !inserted {
		m.metrics.NoopCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "insert")))
		span.SetAttributes(attribute.Bool("duplicate", true))
		return false, nil
	}
	m.version++
	m.metrics.PointsUpDown.Add(ctx, 1)
	return true, nil
}

// Delete removes p from the index.
func (m *SpatialIndexManager) Delete(ctx context.Context, p spatial.Point) (bool, error) {
	ctx, span := m.tracer.Start(ctx, "spatial.Delete", trace.WithAttributes(pointAttrs(p)...))
	defer span.End()
	defer m.observe(ctx, "delete", time.Now())

	if !p.IsValid() {
		return m.fail(span, ErrInvalidPoint)
	}
	if err := ctx.Err(); err != nil {
		return m.fail(span, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return m.fail(span, ErrClosed)
	}

	deleted := m.tree.Delete(p)
	if !deleted {
		m.metrics.NoopCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "delete")))
		span.SetAttributes(attribute.Bool("missing", true))
		return false, nil
	}
	m.version++
	m.metrics.PointsUpDown.Add(ctx, -1)
	return true, nil
}

// Search returns every point inside r, borders included.
func (m *SpatialIndexManager) Search(ctx context.Context, r spatial.Rect) ([]spatial.Point, error) {
	ctx, span := m.tracer.Start(ctx, "spatial.Search", trace.WithAttributes(
		attribute.String("rect", r.String())))
	defer span.End()
	defer m.observe(ctx, "search", time.Now())

	if !r.Min.IsValid() || !r.Max.IsValid() {
		_, err := m.fail(span, ErrInvalidRect)
		return nil, err
	}
	return m.query(ctx, span, searchKey(r), func() ([]spatial.Point, spatial.QueryStats) {
		return m.tree.SearchStats(r)
	})
}

// Nearest returns up to k points ordered by distance to source.
func (m *SpatialIndexManager) Nearest(ctx context.Context, source spatial.Point, k int) ([]spatial.Point, error) {
	ctx, span := m.tracer.Start(ctx, "spatial.Nearest", trace.WithAttributes(
		append(pointAttrs(source), attribute.Int("k", k))...))
	defer span.End()
	defer m.observe(ctx, "nearest", time.Now())

	if !source.IsValid() {
		_, err := m.fail(span, ErrInvalidPoint)
		return nil, err
	}
	return m.query(ctx, span, nearestKey(source, k), func() ([]spatial.Point, spatial.QueryStats) {
		return m.tree.NearestStats(source, k)
	})
}

// query runs fn under the read lock, serving and filling the cache around it.
func (m *SpatialIndexManager) query(ctx context.Context, span trace.Span, key string, fn func() ([]spatial.Point, spatial.QueryStats)) ([]spatial.Point, error) {
	if err := ctx.Err(); err != nil {
		_, err = m.fail(span, err)
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		_, err := m.fail(span, ErrClosed)
		return nil, err
	}

	key = fmt.Sprintf("%d/%s", m.version, key)
	if m.cache != nil {
		if cached, ok := m.cache.Get(key); ok {
			m.cacheHits.Add(1)
			m.metrics.CacheHitsCounter.Add(ctx, 1)
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return append([]spatial.Point{}, cached...), nil
		}
		m.cacheMisses.Add(1)
		m.metrics.CacheMissesCounter.Add(ctx, 1)
	}

	results, stats := fn()
	m.metrics.NodesVisited.Record(ctx, int64(stats.NodesVisited))
	span.SetAttributes(
		attribute.Int("nodes_visited", stats.NodesVisited),
		attribute.Int("nodes_pruned", stats.NodesPruned),
		attribute.Int("results", len(results)))

	if m.cache != nil {
		m.cache.Set(key, append([]spatial.Point(nil), results...), 1)
		m.cache.Wait()
	}
	return results, nil
}

// Stats reports size, shape and cache counters.
func (m *SpatialIndexManager) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Stats{}, ErrClosed
	}
	return Stats{
		Size:        m.tree.Size(),
		Height:      m.tree.Height(),
		Nodes:       m.tree.NodeCount(),
		Version:     m.version,
		Bounds:      m.tree.Bounds(),
		CacheHits:   m.cacheHits.Load(),
		CacheMisses: m.cacheMisses.Load(),
	}, nil
}

// Snapshot returns a copy of every stored point.
func (m *SpatialIndexManager) Snapshot(ctx context.Context) ([]spatial.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.tree.Points(), nil
}

// Load inserts points under a single write lock. Invalid points abort the load
// before anything is inserted.
func (m *SpatialIndexManager) Load(ctx context.Context, points []spatial.Point) (int, error) {
	ctx, span := m.tracer.Start(ctx, "spatial.Load", trace.WithAttributes(attribute.Int("points", len(points))))
	defer span.End()

	for i, p := range points {
		if !p.IsValid() {
			err := fmt.Errorf("point %d %v: %w", i, p, ErrInvalidPoint)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, err
		}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}

	inserted := 0
	for _, p := range points {
		if m.tree.Insert(p) {
			inserted++
		}
	}
	if inserted > 0 {
		m.version++
		m.metrics.PointsUpDown.Add(ctx, int64(inserted))
	}
	m.metrics.OpsCounter.Add(ctx, int64(len(points)), metric.WithAttributes(attribute.String("op", "insert")))
	m.logger.Debug("Spatial index: bulk load finished",
		zap.Int("requested", len(points)),
		zap.Int("inserted", inserted),
		zap.Int("height", m.tree.Height()))
	return inserted, nil
}

// Clear removes every point.
func (m *SpatialIndexManager) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if removed := m.tree.Size(); removed > 0 {
		m.tree.Reset()
		m.version++
		m.metrics.PointsUpDown.Add(ctx, -int64(removed))
		m.logger.Info("Spatial index cleared", zap.Int("removed", removed))
	}
	return nil
}

// Render writes the tree outline to w.
func (m *SpatialIndexManager) Render(ctx context.Context, w io.Writer, opts treeview.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return treeview.Render(w, m.tree, opts)
}

// Validate checks the tree's structural invariants.
func (m *SpatialIndexManager) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return m.tree.Validate()
}

// Close releases the cache. Further calls return ErrClosed.
func (m *SpatialIndexManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.cache != nil {
		m.cache.Close()
	}
	m.logger.Info("Spatial index manager closed", zap.Int("size", m.tree.Size()))
	return nil
}

// observe records the operation counter and latency for op.
func (m *SpatialIndexManager) observe(ctx context.Context, op string, start time.Time) {
	attrs := metric.WithAttributes(attribute.String("op", op))
	m.metrics.OpsCounter.Add(ctx, 1, attrs)
	m.metrics.LatencyHistogram.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
}

func (m *SpatialIndexManager) fail(span trace.Span, err error) (bool, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return false, err
}

func pointAttrs(p spatial.Point) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.Float64("x", p.X), attribute.Float64("y", p.Y)}
}

// Cache keys use the exact bit patterns of the coordinates.
func searchKey(r spatial.Rect) string {
	return fmt.Sprintf("S/%x/%x/%x/%x",
		math.Float64bits(r.Min.X), math.Float64bits(r.Min.Y),
		math.Float64bits(r.Max.X), math.Float64bits(r.Max.Y))
}

func nearestKey(p spatial.Point, k int) string {
	return fmt.Sprintf("N/%x/%x/%d", math.Float64bits(p.X), math.Float64bits(p.Y), k)
}
