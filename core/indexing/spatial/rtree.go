// Package spatial implements an in-memory 4-way R-tree over 2-D points with
// insertion (quadratic split), pruning range search, best-first k-nearest
// neighbour search and deletion with merge/borrow underflow handling.
//
// An RTree is not safe for concurrent use. core/indexmanager wraps it with the
// locking a service needs.
package spatial

import (
	"go.uber.org/zap"
)

// RTree represents the R-tree index structure.
type RTree struct {
	nodes    []*Node  // node arena, nil slots are free
	free     []NodeID // recyclable arena slots
	rootID   NodeID
	size     int
	height   int
	logger   *zap.Logger
	observer Observer
}

// NewRTree creates an empty R-tree. A nil logger disables logging.
func NewRTree(logger *zap.Logger) *RTree {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RTree{
		rootID: InvalidNodeID,
		logger: logger,
	}
}

// SetObserver installs o as the event sink; nil removes it.
func (tr *RTree) SetObserver(o Observer) {
	tr.observer = o
}

// Size returns the number of points stored in the tree.
func (tr *RTree) Size() int { return tr.size }

// Height returns the number of levels, 0 for an empty tree and 1 for a tree
// whose root is a leaf.
func (tr *RTree) Height() int { return tr.height }

// IsEmpty reports whether the tree holds no points.
func (tr *RTree) IsEmpty() bool { return tr.size == 0 }

// RootID returns the ID of the root node, InvalidNodeID when empty.
func (tr *RTree) RootID() NodeID { return tr.rootID }

// Root returns the root node, or nil when the tree is empty.
func (tr *RTree) Root() *Node {
	return tr.Node(tr.rootID)
}

// Node resolves id to its node. It returns nil for unknown or freed IDs.
func (tr *RTree) Node(id NodeID) *Node {
	if id == InvalidNodeID || int(id) >= len(tr.nodes) {
		return nil
	}
	return tr.nodes[id]
}

// NodeCount returns the number of live nodes.
func (tr *RTree) NodeCount() int {
	return len(tr.nodes) - len(tr.free)
}

// Bounds returns the MBR of the whole tree (EmptyRect when empty).
func (tr *RTree) Bounds() Rect {
	if root := tr.Root(); root != nil {
		return root.mbr
	}
	return EmptyRect()
}

// Reset drops every node and returns the tree to the empty state.
func (tr *RTree) Reset() {
	tr.nodes = nil
	tr.free = nil
	tr.rootID = InvalidNodeID
	tr.size = 0
	tr.height = 0
}

// Walk visits the nodes depth-first, parents before children, in child order.
// depth is 0 at the root. Returning false from fn skips the node's subtree.
func (tr *RTree) Walk(fn func(n *Node, depth int) bool) {
	if root := tr.Root(); root != nil {
		tr.walk(root, 0, fn)
	}
}

func (tr *RTree) walk(n *Node, depth int, fn func(*Node, int) bool) {
	if !fn(n, depth) || n.isLeaf {
		return
	}
	for _, e := range n.entries {
		tr.walk(tr.nodes[e.Child], depth+1, fn)
	}
}

// Points returns every stored point in depth-first leaf order.
func (tr *RTree) Points() []Point {
	points := make([]Point, 0, tr.size)
	tr.Walk(func(n *Node, _ int) bool {
		if n.isLeaf {
			for _, e := range n.entries {
				points = append(points, e.Point)
			}
		}
		return true
	})
	return points
}

// Contains reports whether a point with exactly p's coordinates is stored.
func (tr *RTree) Contains(p Point) bool {
	root := tr.Root()
	if root == nil {
		return false
	}
	leaf, _ := tr.findLeaf(root, p)
	return leaf != nil
}

// allocNode takes a slot from the free list or grows the arena.
func (tr *RTree) allocNode(isLeaf bool, parentID NodeID) *Node {
	var id NodeID
	if n := len(tr.free); n > 0 {
		id = tr.free[n-1]
		tr.free = tr.free[:n-1]
	} else {
		id = NodeID(len(tr.nodes))
		tr.nodes = append(tr.nodes, nil)
	}
	node := newNode(id, isLeaf, parentID)
	tr.nodes[id] = node
	return node
}

func (tr *RTree) freeNode(id NodeID) {
	tr.nodes[id] = nil
	tr.free = append(tr.free, id)
}

// entryRect returns the rectangle an entry occupies: the degenerate rect of a
// point or the cached MBR of a child.
func (tr *RTree) entryRect(e Entry) Rect {
	if e.IsBranch {
		return tr.nodes[e.Child].mbr
	}
	return PointRect(e.Point)
}

// recalcMBR recomputes n's bound from its entries.
func (tr *RTree) recalcMBR(n *Node) {
	mbr := EmptyRect()
	for _, e := range n.entries {
		mbr = mbr.Union(tr.entryRect(e))
	}
	n.mbr = mbr
}

// adopt appends e to n, pointing a moved child back at n.
func (tr *RTree) adopt(n *Node, e Entry) {
	n.entries = append(n.entries, e)
	if e.IsBranch {
		tr.nodes[e.Child].parentID = n.id
	}
}
