package main

import (
	"cmp"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/sushant-115/gojodb-spatial/core/indexing/spatial"
)

// benchConfig controls one comparison run.
type benchConfig struct {
	Queries int
	K       int
	// Window is the side length of each range query as a fraction of the
	// data bounds.
	Window float64
}

// phase holds the timings of one query family.
type phase struct {
	Name    string
	Tree    time.Duration
	Linear  time.Duration
	Visited int
	Pruned  int
	Results int
}

// Speedup is linear time over tree time.
func (p phase) Speedup() float64 {
	if p.Tree == 0 {
		return 0
	}
	return float64(p.Linear) / float64(p.Tree)
}

type report struct {
	Points int
	Height int
	Nodes  int
	Build  time.Duration
	Phases []phase
}

// runBench builds a tree over points and races it against a linear scan.
// Every tree answer is checked against the scan; a mismatch is an error.
func runBench(logger *zap.Logger, points []spatial.Point, cfg benchConfig, rnd *rand.Rand) (report, error) {
	tr := spatial.NewRTree(logger)
	start := time.Now()
	for _, p := range points {
		tr.Insert(p)
	}
	rep := report{Points: tr.Size(), Height: tr.Height(), Nodes: tr.NodeCount(), Build: time.Since(start)}
	logger.Info("Spatial bench: tree built",
		zap.Int("points", rep.Points),
		zap.Int("height", rep.Height),
		zap.Int("nodes", rep.Nodes),
		zap.Duration("elapsed", rep.Build),
	)
	if err := tr.Validate(); err != nil {
		return rep, fmt.Errorf("tree invalid after build: %w", err)
	}

	bounds := tr.Bounds()
	if bounds.IsEmpty() {
		return rep, nil
	}

	rects := make([]spatial.Rect, cfg.Queries)
	sources := make([]spatial.Point, cfg.Queries)
	w := (bounds.Max.X - bounds.Min.X) * cfg.Window
	h := (bounds.Max.Y - bounds.Min.Y) * cfg.Window
	for i := range rects {
		lo := randomIn(rnd, bounds)
		rects[i] = spatial.NewRect(lo, spatial.Point{X: lo.X + w, Y: lo.Y + h})
		sources[i] = randomIn(rnd, bounds)
	}

	search := phase{Name: "range"}
	for _, r := range rects {
		t0 := time.Now()
		got, stats := tr.SearchStats(r)
		search.Tree += time.Since(t0)
		search.Visited += stats.NodesVisited
		search.Pruned += stats.NodesPruned
		search.Results += len(got)

		t0 = time.Now()
		want := linearSearch(points, r)
		search.Linear += time.Since(t0)

		if !samePoints(got, want) {
			return rep, fmt.Errorf("range query %v: tree returned %d points, scan %d", r, len(got), len(want))
		}
	}
	rep.Phases = append(rep.Phases, search)

	knn := phase{Name: fmt.Sprintf("knn(k=%d)", cfg.K)}
	for _, src := range sources {
		t0 := time.Now()
		got, stats := tr.NearestStats(src, cfg.K)
		knn.Tree += time.Since(t0)
		knn.Visited += stats.NodesVisited
		knn.Pruned += stats.NodesPruned
		knn.Results += len(got)

		t0 = time.Now()
		want := linearNearest(points, src, cfg.K)
		knn.Linear += time.Since(t0)

		if !sameDistances(src, got, want) {
			return rep, fmt.Errorf("knn query %v: tree and scan disagree", src)
		}
	}
	rep.Phases = append(rep.Phases, knn)

	for _, p := range rep.Phases {
		logger.Info("Spatial bench: phase done",
			zap.String("phase", p.Name),
			zap.Duration("tree", p.Tree),
			zap.Duration("linear", p.Linear),
			zap.Float64("speedup", p.Speedup()),
			zap.Int("nodesVisited", p.Visited),
			zap.Int("nodesPruned", p.Pruned),
		)
	}
	return rep, nil
}

func randomIn(rnd *rand.Rand, r spatial.Rect) spatial.Point {
	return spatial.Point{
		X: r.Min.X + rnd.Float64()*(r.Max.X-r.Min.X),
		Y: r.Min.Y + rnd.Float64()*(r.Max.Y-r.Min.Y),
	}
}

func linearSearch(points []spatial.Point, r spatial.Rect) []spatial.Point {
	var out []spatial.Point
	for _, p := range points {
		if r.ContainsPoint(p) {
			out = append(out, p)
		}
	}
	return out
}

func linearNearest(points []spatial.Point, src spatial.Point, k int) []spatial.Point {
	sorted := slices.Clone(points)
	slices.SortFunc(sorted, func(a, b spatial.Point) int {
		return cmp.Compare(src.DistSq(a), src.DistSq(b))
	})
	return sorted[:min(k, len(sorted))]
}

func comparePoints(a, b spatial.Point) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Y, b.Y)
}

func samePoints(a, b []spatial.Point) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.SortFunc(a, comparePoints)
	slices.SortFunc(b, comparePoints)
	return slices.Equal(a, b)
}

// sameDistances compares kNN answers by distance so that ties may be broken
// differently.
func sameDistances(src spatial.Point, a, b []spatial.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if src.DistSq(a[i]) != src.DistSq(b[i]) {
			return false
		}
	}
	return true
}
