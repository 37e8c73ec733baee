package internaltelemetry

import (
	"go.opentelemetry.io/otel/metric"
)

// SpatialIndexMetrics holds the instruments the spatial index manager records.
// Operation counters carry an "op" attribute (insert, delete, search, nearest).
type SpatialIndexMetrics struct {
	OpsCounter         metric.Int64Counter
	NoopCounter        metric.Int64Counter
	LatencyHistogram   metric.Float64Histogram
	PointsUpDown       metric.Int64UpDownCounter
	NodesVisited       metric.Int64Histogram
	CacheHitsCounter   metric.Int64Counter
	CacheMissesCounter metric.Int64Counter
}

// NewSpatialIndexMetrics creates and registers the index instruments.
func NewSpatialIndexMetrics(meter metric.Meter) (*SpatialIndexMetrics, error) {
	ops, err := meter.Int64Counter(
		"gojodb.spatial.index.operations_total",
		metric.WithDescription("Index operations executed, by op."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	noops, err := meter.Int64Counter(
		"gojodb.spatial.index.noop_total",
		metric.WithDescription("Inserts of duplicates and deletes of absent points."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram(
		"gojodb.spatial.index.duration",
		metric.WithDescription("Latency of index operations."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	points, err := meter.Int64UpDownCounter(
		"gojodb.spatial.index.points",
		metric.WithDescription("Number of points stored."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	visited, err := meter.Int64Histogram(
		"gojodb.spatial.index.nodes_visited",
		metric.WithDescription("Nodes expanded per query."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	hits, err := meter.Int64Counter(
		"gojodb.spatial.cache.hits_total",
		metric.WithDescription("Query results served from the cache."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"gojodb.spatial.cache.misses_total",
		metric.WithDescription("Queries that had to walk the tree."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &SpatialIndexMetrics{
		OpsCounter:         ops,
		NoopCounter:        noops,
		LatencyHistogram:   latency,
		PointsUpDown:       points,
		NodesVisited:       visited,
		CacheHitsCounter:   hits,
		CacheMissesCounter: misses,
	}, nil
}
