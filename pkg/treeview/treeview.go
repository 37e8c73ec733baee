// Package treeview renders an R-tree as an indented, coloured outline. Roots
// are magenta, internal nodes blue and leaves green; nodes touched by the last
// operation can be tagged through a Trace.
package treeview

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/sushant-115/gojodb-spatial/core/indexing/spatial"
)

// Palette holds the colours used for each kind of line.
type Palette struct {
	Root     *color.Color
	Internal *color.Color
	Leaf     *color.Color
	Point    *color.Color
	Mark     *color.Color
}

// DefaultPalette returns the standard colours.
func DefaultPalette() Palette {
	return Palette{
		Root:     color.New(color.FgMagenta, color.Bold),
		Internal: color.New(color.FgBlue),
		Leaf:     color.New(color.FgGreen),
		Point:    color.New(color.FgWhite),
		Mark:     color.New(color.FgYellow),
	}
}

// PlainPalette returns a palette that never emits escape codes.
func PlainPalette() Palette {
	p := DefaultPalette()
	for _, c := range []*color.Color{p.Root, p.Internal, p.Leaf, p.Point, p.Mark} {
		c.DisableColor()
	}
	return p
}

// Options tunes Render.
type Options struct {
	Palette Palette
	// Marks tags nodes with a short label such as "pruned".
	Marks map[spatial.NodeID]string
	// HidePoints prints leaves without their point lists.
	HidePoints bool
}

// Render writes the outline of tr to w.
func Render(w io.Writer, tr *spatial.RTree, opts Options) error {
	if opts.Palette.Root == nil {
		opts.Palette = DefaultPalette()
	}
	if tr.IsEmpty() {
		_, err := fmt.Fprintln(w, "(empty tree)")
		return err
	}

	r := renderer{w: w, tr: tr, opts: opts}
	r.node(tr.Root(), "", true, true)
	if r.err != nil {
		return r.err
	}
	_, err := fmt.Fprintf(w, "size=%d height=%d nodes=%d\n", tr.Size(), tr.Height(), tr.NodeCount())
	return err
}

type renderer struct {
	w    io.Writer
	tr   *spatial.RTree
	opts Options
	err  error
}

func (r *renderer) node(n *spatial.Node, prefix string, isLast, isRoot bool) {
	if r.err != nil {
		return
	}

	var branch, childPrefix string
	if !isRoot {
		branch = "├── "
		childPrefix = prefix + "│   "
		if isLast {
			branch = "└── "
			childPrefix = prefix + "    "
		}
	}

	var c *color.Color
	var label string
	switch {
	case isRoot:
		c, label = r.opts.Palette.Root, "Root"
	case n.IsLeaf():
		c, label = r.opts.Palette.Leaf, "Leaf"
	default:
		c, label = r.opts.Palette.Internal, "Node"
	}
	if isRoot && n.IsLeaf() {
		label = "Root leaf"
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(branch)
	b.WriteString(c.Sprintf("%s #%d %v", label, n.ID(), n.MBR()))
	if mark, ok := r.opts.Marks[n.ID()]; ok {
		b.WriteString(" ")
		b.WriteString(r.opts.Palette.Mark.Sprintf("[%s]", mark))
	}
	if n.IsLeaf() && !r.opts.HidePoints {
		points := n.Points()
		parts := make([]string, len(points))
		for i, p := range points {
			parts[i] = p.String()
		}
		b.WriteString(" ")
		b.WriteString(r.opts.Palette.Point.Sprint(strings.Join(parts, " ")))
	}
	b.WriteString("\n")
	if _, err := io.WriteString(r.w, b.String()); err != nil {
		r.err = err
		return
	}

	children := n.Children()
	for i, id := range children {
		r.node(r.tr.Node(id), childPrefix, i == len(children)-1, false)
	}
}
