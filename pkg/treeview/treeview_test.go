package treeview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/sushant-115/gojodb-spatial/core/indexing/spatial"
)

func init() {
	color.NoColor = true
}

func buildTree(points ...spatial.Point) *spatial.RTree {
	tr := spatial.NewRTree(nil)
	for _, p := range points {
		tr.Insert(p)
	}
	return tr
}

func TestRender_EmptyTree(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, spatial.NewRTree(nil), Options{}))
	require.Equal(t, "(empty tree)\n", buf.String())
}

func TestRender_RootLeaf(t *testing.T) {
	var buf bytes.Buffer
	tr := buildTree(spatial.Point{X: 1, Y: 1}, spatial.Point{X: 2, Y: 3})
	require.NoError(t, Render(&buf, tr, Options{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "Root leaf #0 [(1, 1) - (2, 3)] (1, 1) (2, 3)", lines[0])
	require.Equal(t, "size=2 height=1 nodes=1", lines[1])
}

func TestRender_NestedOutline(t *testing.T) {
	var buf bytes.Buffer
	tr := buildTree(
		spatial.Point{X: 1, Y: 1}, spatial.Point{X: 2, Y: 2}, spatial.Point{X: 8, Y: 8},
		spatial.Point{X: 9, Y: 9}, spatial.Point{X: 1, Y: 9},
	)
	require.NoError(t, Render(&buf, tr, Options{HidePoints: true}))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "Root #"))
	require.Contains(t, out, "├── Leaf #")
	require.Contains(t, out, "└── Leaf #")
	require.NotContains(t, out, "(1, 9) ", "points are hidden")
	require.Contains(t, out, "size=5 height=2 nodes=3")
}

func TestRender_MarksFromTrace(t *testing.T) {
	tr := buildTree(
		spatial.Point{X: 1, Y: 1}, spatial.Point{X: 2, Y: 2}, spatial.Point{X: 8, Y: 8},
		spatial.Point{X: 9, Y: 9}, spatial.Point{X: 1, Y: 9},
	)
	trace := &Trace{}
	tr.SetObserver(trace)
	tr.Search(spatial.NewRect(spatial.Point{X: 0, Y: 0}, spatial.Point{X: 3, Y: 3}))
	tr.SetObserver(nil)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, tr, Options{Marks: trace.Marks(), HidePoints: true}))
	require.Contains(t, buf.String(), "[prune]")
	require.Contains(t, buf.String(), "[visit]")

	var log bytes.Buffer
	require.NoError(t, trace.WriteLog(&log))
	require.Contains(t, log.String(), "prune")

	trace.Reset()
	require.Empty(t, trace.Events())
}

func TestTrace_LogsNeighbors(t *testing.T) {
	tr := buildTree(spatial.Point{X: 3, Y: 4}, spatial.Point{X: 10, Y: 10})
	trace := &Trace{}
	tr.SetObserver(trace)
	tr.Nearest(spatial.Point{}, 1)

	var log bytes.Buffer
	require.NoError(t, trace.WriteLog(&log))
	require.Contains(t, log.String(), "neighbor      (3, 4) dist=5.0000")
}
