// Package indexmanager exposes the spatial index to the service layer: it
// serializes access to the tree, caches query results, records metrics and
// traces, and reports errors instead of silently ignoring bad input.
package indexmanager

import (
	"context"
	"errors"
	"io"

	"github.com/sushant-115/gojodb-spatial/core/indexing/spatial"
	"github.com/sushant-115/gojodb-spatial/pkg/treeview"
)

var (
	// ErrInvalidPoint is returned for points with NaN or infinite coordinates.
	ErrInvalidPoint = errors.New("indexmanager: point coordinates must be finite")
	// ErrInvalidRect is returned for query rectangles with non-finite corners.
	ErrInvalidRect = errors.New("indexmanager: rectangle corners must be finite")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("indexmanager: index is closed")
)

// IndexManager defines the operations the API services need from an index.
type IndexManager interface {
	// Insert adds p. It reports false when p was already stored.
	Insert(ctx context.Context, p spatial.Point) (bool, error)
	// Delete removes p. It reports false when p was not stored.
	Delete(ctx context.Context, p spatial.Point) (bool, error)
	Search(ctx context.Context, r spatial.Rect) ([]spatial.Point, error)
	Nearest(ctx context.Context, source spatial.Point, k int) ([]spatial.Point, error)
	Stats(ctx context.Context) (Stats, error)
	// Snapshot returns every stored point.
	Snapshot(ctx context.Context) ([]spatial.Point, error)
	// Load inserts points in order and returns how many were new.
	Load(ctx context.Context, points []spatial.Point) (int, error)
	Clear(ctx context.Context) error
	// Render writes a human-readable outline of the index to w.
	Render(ctx context.Context, w io.Writer, opts treeview.Options) error
	Validate(ctx context.Context) error
	// Version increases with every change to the stored point set.
	Version() uint64
	// Name returns the name/type of this index manager (e.g., "spatial").
	Name() string
	Close() error
}

// Stats summarizes the state of an index.
type Stats struct {
	Size        int          `json:"size"`
	Height      int          `json:"height"`
	Nodes       int          `json:"nodes"`
	Version     uint64       `json:"version"`
	Bounds      spatial.Rect `json:"-"`
	CacheHits   uint64       `json:"cache_hits"`
	CacheMisses uint64       `json:"cache_misses"`
}
