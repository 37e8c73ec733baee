// Command gojodb_spatial_bench compares the R-tree against a linear scan for
// range and nearest-neighbor queries and checks that both agree.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/sushant-115/gojodb-spatial/core/indexing/spatial"
	"github.com/sushant-115/gojodb-spatial/pkg/logger"
)

var (
	numPoints  = flag.Int("n", 20000, "Number of points to index")
	numQueries = flag.Int("queries", 500, "Number of range and kNN queries each")
	k          = flag.Int("k", 10, "Neighbors per kNN query")
	window     = flag.Float64("window", 0.05, "Range query side as a fraction of the data bounds")
	source     = flag.String("source", sourceFaker, "Point source: faker (lon/lat) or uniform")
	extent     = flag.Float64("extent", 1000, "Coordinate range for uniform points")
	seed       = flag.Int64("seed", 1, "Seed for uniform points and query placement")
	dataset    = flag.String("dataset", "", "Snappy dataset file; read when it exists, written after generation otherwise")
	logLevel   = flag.String("log_level", "info", "Log level")
)

func main() {
	flag.Parse()

	zlogger, err := logger.New(logger.Config{Level: *logLevel, Format: "console", Service: "gojodb-spatial-bench"})
	if err != nil {
		log.Fatalf("CRITICAL: Can't initialize zap logger: %v", err)
	}
	defer func() { _ = zlogger.Sync() }()

	rnd := rand.New(rand.NewSource(*seed))
	points, err := loadPoints(zlogger, rnd)
	if err != nil {
		zlogger.Fatal("CRITICAL: Failed to prepare points", zap.Error(err))
	}

	rep, err := runBench(zlogger, points, benchConfig{Queries: *numQueries, K: *k, Window: *window}, rnd)
	if err != nil {
		zlogger.Fatal("CRITICAL: Benchmark failed", zap.Error(err))
	}

	fmt.Printf("points=%d height=%d nodes=%d build=%v\n", rep.Points, rep.Height, rep.Nodes, rep.Build)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "query\trtree\tlinear\tspeedup\tvisited\tpruned\tresults")
	for _, p := range rep.Phases {
		fmt.Fprintf(tw, "%s\t%v\t%v\t%.1fx\t%d\t%d\t%d\n",
			p.Name, p.Tree.Round(time.Microsecond), p.Linear.Round(time.Microsecond), p.Speedup(), p.Visited, p.Pruned, p.Results)
	}
	_ = tw.Flush()
}

func loadPoints(zlogger *zap.Logger, rnd *rand.Rand) ([]spatial.Point, error) {
	if *dataset != "" {
		points, err := readDataset(*dataset)
		if err == nil {
			zlogger.Info("Spatial bench: dataset loaded", zap.String("path", *dataset), zap.Int("points", len(points)))
			return points, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	points, err := generatePoints(*source, *numPoints, rnd, *extent)
	if err != nil {
		return nil, err
	}
	if *dataset != "" {
		if err := writeDataset(*dataset, points); err != nil {
			return nil, err
		}
		zlogger.Info("Spatial bench: dataset written", zap.String("path", *dataset), zap.Int("points", len(points)))
	}
	return points, nil
}
