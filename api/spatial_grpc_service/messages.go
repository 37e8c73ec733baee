package spatialgrpc

import "github.com/sushant-115/gojodb-spatial/core/indexing/spatial"

// Point is the wire form of a spatial.Point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PointRequest struct {
	Point *Point `json:"point"`
}

type MutationReply struct {
	Changed bool   `json:"changed"`
	Version uint64 `json:"version"`
}

type SearchRequest struct {
	Min *Point `json:"min"`
	Max *Point `json:"max"`
}

type NearestRequest struct {
	Point *Point `json:"point"`
	K     int32  `json:"k"`
}

type PointsReply struct {
	Points []Point `json:"points"`
}

type StatsRequest struct{}

type StatsReply struct {
	Size        int64  `json:"size"`
	Height      int64  `json:"height"`
	Nodes       int64  `json:"nodes"`
	Version     uint64 `json:"version"`
	Empty       bool   `json:"empty"`
	Min         Point  `json:"min"`
	Max         Point  `json:"max"`
	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`
}

func (p *Point) toSpatial() spatial.Point { return spatial.Point{X: p.X, Y: p.Y} }

func fromSpatial(p spatial.Point) Point { return Point{X: p.X, Y: p.Y} }

func toPoints(points []Point) []spatial.Point {
	out := make([]spatial.Point, len(points))
	for i, p := range points {
		out[i] = p.toSpatial()
	}
	return out
}

func fromPoints(points []spatial.Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = fromSpatial(p)
	}
	return out
}
