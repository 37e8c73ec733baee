package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/sushant-115/gojodb-spatial/core/indexing/spatial"
	"github.com/sushant-115/gojodb-spatial/core/indexmanager"
	"github.com/sushant-115/gojodb-spatial/pkg/treeview"
)

// errQuit ends the REPL.
var errQuit = errors.New("quit")

// demoPoints are four clusters plus a diagonal band across a 200x200 plane.
var demoPoints = []spatial.Point{
	{X: 20, Y: 30}, {X: 25, Y: 25}, {X: 30, Y: 40}, {X: 35, Y: 20},
	{X: 40, Y: 35}, {X: 15, Y: 45}, {X: 45, Y: 15}, {X: 28, Y: 32},
	{X: 30, Y: 150}, {X: 40, Y: 170}, {X: 50, Y: 140}, {X: 25, Y: 160},
	{X: 55, Y: 175}, {X: 60, Y: 155}, {X: 45, Y: 135}, {X: 38, Y: 145},
	{X: 160, Y: 60}, {X: 170, Y: 70}, {X: 155, Y: 80}, {X: 180, Y: 55},
	{X: 175, Y: 90}, {X: 165, Y: 95}, {X: 150, Y: 75}, {X: 185, Y: 85},
	{X: 70, Y: 80}, {X: 95, Y: 90}, {X: 120, Y: 100}, {X: 80, Y: 110},
	{X: 130, Y: 40}, {X: 100, Y: 65},
}

const helpText = `Commands:
  add <x> <y>                 insert a point
  del <x> <y>                 delete a point
  search <x1> <y1> <x2> <y2>  range query over the rectangle spanned by two corners
  knn <x> <y> <k>             k nearest neighbors of (x, y)
  seed <n>                    insert n random points on the 0..200 grid
  demo                        insert the 30-point demo set
  points                      list every stored point
  dump                        print the tree
  log                         print the events of the last command
  stats                       print size, height and node count
  check                       verify the structural invariants
  clear                       remove every point
  help                        show this text
  exit                        leave the shell`

// shell executes one command line at a time against an in-process index.
type shell struct {
	index   *indexmanager.SpatialIndexManager
	trace   *treeview.Trace
	out     io.Writer
	palette treeview.Palette
	rng     *rand.Rand
	// quiet suppresses the tree dump after mutations.
	quiet bool
}

func newShell(index *indexmanager.SpatialIndexManager, trace *treeview.Trace, out io.Writer, seed int64) *shell {
	return &shell{
		index:   index,
		trace:   trace,
		out:     out,
		palette: treeview.DefaultPalette(),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// exec runs line. It returns errQuit when the user asked to leave.
func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	// "log" reports on the previous command, so it must not clear the trace.
	if cmd != "log" {
		s.trace.Reset()
	}

	switch cmd {
	case "add", "del", "delete":
		nums, err := parseFloats(args, 2)
		if err != nil {
			return err
		}
		p := spatial.Point{X: nums[0], Y: nums[1]}
		var changed bool
		if cmd == "add" {
			changed, err = s.index.Insert(ctx, p)
		} else {
			changed, err = s.index.Delete(ctx, p)
		}
		if err != nil {
			return err
		}
		switch {
		case cmd == "add" && !changed:
			fmt.Fprintf(s.out, "%s already indexed\n", p)
		case cmd != "add" && !changed:
			fmt.Fprintf(s.out, "%s not found\n", p)
		}
		return s.dumpAfterMutation(ctx, changed)

	case "search":
		nums, err := parseFloats(args, 4)
		if err != nil {
			return err
		}
		r := spatial.NewRect(spatial.Point{X: nums[0], Y: nums[1]}, spatial.Point{X: nums[2], Y: nums[3]})
		points, err := s.index.Search(ctx, r)
		if err != nil {
			return err
		}
		visited, pruned := s.countEvents()
		fmt.Fprintf(s.out, "%d point(s) in %s (visited %d node(s), pruned %d)\n", len(points), r, visited, pruned)
		for _, p := range points {
			fmt.Fprintf(s.out, "  %s\n", p)
		}
		return nil

	case "knn":
		if len(args) != 3 {
			return fmt.Errorf("usage: knn <x> <y> <k>")
		}
		nums, err := parseFloats(args[:2], 2)
		if err != nil {
			return err
		}
		k, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid k %q: %w", args[2], err)
		}
		source := spatial.Point{X: nums[0], Y: nums[1]}
		points, err := s.index.Nearest(ctx, source, k)
		if err != nil {
			return err
		}
		for i, p := range points {
			fmt.Fprintf(s.out, "%3d. %s  dist=%.4f\n", i+1, p, source.Dist(p))
		}
		if len(points) == 0 {
			fmt.Fprintln(s.out, "no neighbors")
		}
		return nil

	case "seed":
		if len(args) != 1 {
			return fmt.Errorf("usage: seed <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		points := make([]spatial.Point, n)
		for i := range points {
			points[i] = spatial.Point{X: float64(s.rng.Intn(201)), Y: float64(s.rng.Intn(201))}
		}
		return s.load(ctx, points)

	case "demo":
		return s.load(ctx, demoPoints)

	case "points":
		points, err := s.index.Snapshot(ctx)
		if err != nil {
			return err
		}
		for _, p := range points {
			fmt.Fprintf(s.out, "  %s\n", p)
		}
		fmt.Fprintf(s.out, "%d point(s)\n", len(points))
		return nil

	case "dump":
		return s.index.Render(ctx, s.out, treeview.Options{Palette: s.palette})

	case "log":
		return s.trace.WriteLog(s.out)

	case "stats":
		st, err := s.index.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "size=%d height=%d nodes=%d version=%d bounds=%s\n", st.Size, st.Height, st.Nodes, st.Version, st.Bounds)
		return nil

	case "check":
		if err := s.index.Validate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, color.GreenString("ok"))
		return nil

	case "clear":
		return s.index.Clear(ctx)

	case "help", "?":
		fmt.Fprintln(s.out, helpText)
		return nil

	case "exit", "quit":
		return errQuit

	default:
		return fmt.Errorf("unknown command %q, try help", fields[0])
	}
}

func (s *shell) load(ctx context.Context, points []spatial.Point) error {
	added, err := s.index.Load(ctx, points)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "inserted %d of %d point(s)\n", added, len(points))
	return s.dumpAfterMutation(ctx, added > 0)
}

func (s *shell) dumpAfterMutation(ctx context.Context, changed bool) error {
	if s.quiet || !changed {
		return nil
	}
	return s.index.Render(ctx, s.out, treeview.Options{Palette: s.palette, Marks: s.trace.Marks()})
}

func (s *shell) countEvents() (visited, pruned int) {
	for _, e := range s.trace.Events() {
		switch e.Kind {
		case spatial.EventVisit:
			visited++
		case spatial.EventPrune:
			pruned++
		}
	}
	return visited, pruned
}

func parseFloats(args []string, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d numbers, got %d", n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", a, err)
		}
		out[i] = v
	}
	return out, nil
}
