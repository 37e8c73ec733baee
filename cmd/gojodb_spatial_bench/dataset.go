package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/go-faker/faker/v4"
	"github.com/golang/snappy"

	"github.com/sushant-115/gojodb-spatial/core/indexing/spatial"
)

// Point sources understood by generatePoints.
const (
	sourceFaker   = "faker"
	sourceUniform = "uniform"
)

// generatePoints returns n distinct points. Faker points are (longitude,
// latitude) pairs; uniform points are drawn from [0, extent) on both axes.
func generatePoints(source string, n int, rnd *rand.Rand, extent float64) ([]spatial.Point, error) {
	var next func() spatial.Point
	switch source {
	case sourceFaker:
		next = func() spatial.Point { return spatial.Point{X: faker.Longitude(), Y: faker.Latitude()} }
	case sourceUniform:
		next = func() spatial.Point { return spatial.Point{X: rnd.Float64() * extent, Y: rnd.Float64() * extent} }
	default:
		return nil, fmt.Errorf("unknown point source %q", source)
	}

	seen := make(map[spatial.Point]struct{}, n)
	points := make([]spatial.Point, 0, n)
	for len(points) < n {
		p := next()
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		points = append(points, p)
	}
	return points, nil
}

// writeDataset stores points as a snappy-framed stream of a uint32 count
// followed by little-endian (x, y) float64 pairs.
func writeDataset(path string, points []spatial.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset %s: %w", path, err)
	}
	defer f.Close()

	w := snappy.NewBufferedWriter(f)
	if err := encodeDataset(w, points); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to flush dataset %s: %w", path, err)
	}
	return f.Sync()
}

// readDataset loads a file written by writeDataset.
func readDataset(path string) ([]spatial.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()
	return decodeDataset(snappy.NewReader(f))
}

func encodeDataset(w io.Writer, points []spatial.Point) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(points))); err != nil {
		return fmt.Errorf("failed to write dataset header: %w", err)
	}
	buf := make([]float64, 0, 2*len(points))
	for _, p := range points {
		buf = append(buf, p.X, p.Y)
	}
	if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
		return fmt.Errorf("failed to write dataset points: %w", err)
	}
	return nil
}

func decodeDataset(r io.Reader) ([]spatial.Point, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}
	buf := make([]float64, 2*int(n))
	if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
		return nil, fmt.Errorf("failed to read dataset points: %w", err)
	}
	points := make([]spatial.Point, n)
	for i := range points {
		points[i] = spatial.Point{X: buf[2*i], Y: buf[2*i+1]}
	}
	return points, nil
}
