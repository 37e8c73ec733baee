package spatialhttp

import (
	"encoding/json"

	"github.com/sushant-115/gojodb-spatial/core/indexing/spatial"
	"github.com/sushant-115/gojodb-spatial/core/indexmanager"
)

// Commands accepted on POST /api/spatial.
const (
	CommandAdd     = "ADD"
	CommandDelete  = "DELETE"
	CommandSearch  = "SEARCH"
	CommandNearest = "NEAREST"
	CommandStats   = "STATS"
	CommandDump    = "DUMP"
)

// Response statuses.
const (
	StatusOK       = "OK"
	StatusError    = "ERROR"
	StatusNotFound = "NOT_FOUND"
)

// Point is the wire form of a spatial.Point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is the wire form of a query rectangle. Corners may be given in any order.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// APIRequest represents a client request received by the service.
type APIRequest struct {
	Command string `json:"command"`
	Point   *Point `json:"point,omitempty"` // ADD, DELETE, NEAREST
	Rect    *Rect  `json:"rect,omitempty"`  // SEARCH
	K       int    `json:"k,omitempty"`     // NEAREST
}

// APIResponse represents a response sent back to the client.
type APIResponse struct {
	Status  string          `json:"status"`            // OK, ERROR, NOT_FOUND
	Message string          `json:"message,omitempty"` // Details for humans
	Data    json.RawMessage `json:"data,omitempty"`    // Command-specific payload
}

// MutationResult is the data of ADD and DELETE.
type MutationResult struct {
	Changed bool   `json:"changed"`
	Version uint64 `json:"version"`
}

// PointsResult is the data of SEARCH and NEAREST.
type PointsResult struct {
	Count  int     `json:"count"`
	Points []Point `json:"points"`
}

// StatsResult is the data of STATS and GET /status.
type StatsResult struct {
	Size        int    `json:"size"`
	Height      int    `json:"height"`
	Nodes       int    `json:"nodes"`
	Version     uint64 `json:"version"`
	Bounds      *Rect  `json:"bounds,omitempty"`
	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`
}

// DumpResult is the data of DUMP.
type DumpResult struct {
	Tree string `json:"tree"`
}

func (p Point) toSpatial() spatial.Point { return spatial.Point{X: p.X, Y: p.Y} }

func (r Rect) toSpatial() spatial.Rect { return spatial.NewRect(r.Min.toSpatial(), r.Max.toSpatial()) }

func fromSpatial(p spatial.Point) Point { return Point{X: p.X, Y: p.Y} }

func fromSpatialPoints(points []spatial.Point) PointsResult {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = fromSpatial(p)
	}
	return PointsResult{Count: len(out), Points: out}
}

func fromStats(s indexmanager.Stats) StatsResult {
	res := StatsResult{
		Size:        s.Size,
		Height:      s.Height,
		Nodes:       s.Nodes,
		Version:     s.Version,
		CacheHits:   s.CacheHits,
		CacheMisses: s.CacheMisses,
	}
	if !s.Bounds.IsEmpty() {
		res.Bounds = &Rect{Min: fromSpatial(s.Bounds.Min), Max: fromSpatial(s.Bounds.Max)}
	}
	return res
}
