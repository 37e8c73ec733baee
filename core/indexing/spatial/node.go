package spatial

import "math"

const (
	// MaxEntries is the maximum number of entries a node can hold.
	MaxEntries = 4

	// MinEntries is the minimum number of entries a node must hold (except root).
	MinEntries = MaxEntries / 2
)

// NodeID addresses a node inside the tree's node arena. Parent links and child
// lists store NodeIDs, never pointers.
type NodeID uint32

// InvalidNodeID marks "no node": the parent of the root, or the root of an
// empty tree.
const InvalidNodeID NodeID = math.MaxUint32

// Entry is a single slot of a node. Leaf entries carry a Point, branch entries
// carry the ID of a child node.
type Entry struct {
	Point    Point  // Stored point if IsBranch is false
	Child    NodeID // Child node if IsBranch is true
	IsBranch bool
}

// Node represents a node in the R-tree. All fields are owned by the tree;
// collaborators read them through the accessor methods.
type Node struct {
	id       NodeID
	isLeaf   bool
	entries  []Entry
	parentID NodeID // InvalidNodeID for root
	mbr      Rect
}

func newNode(id NodeID, isLeaf bool, parentID NodeID) *Node {
	return &Node{
		id:       id,
		isLeaf:   isLeaf,
		entries:  make([]Entry, 0, MaxEntries+1),
		parentID: parentID,
		mbr:      EmptyRect(),
	}
}

// ID returns the arena handle of n.
func (n *Node) ID() NodeID { return n.id }

// IsLeaf reports whether n stores points rather than children.
func (n *Node) IsLeaf() bool { return n.isLeaf }

// MBR returns the cached minimum bounding rectangle of n.
func (n *Node) MBR() Rect { return n.mbr }

// Parent returns the ID of n's parent, or InvalidNodeID for the root.
func (n *Node) Parent() NodeID { return n.parentID }

// Len returns the number of entries in n.
func (n *Node) Len() int { return len(n.entries) }

// Points returns a copy of the points stored in a leaf. It returns nil for
// internal nodes.
func (n *Node) Points() []Point {
	if !n.isLeaf {
		return nil
	}
	points := make([]Point, len(n.entries))
	for i, e := range n.entries {
		points[i] = e.Point
	}
	return points
}

// Children returns a copy of the child IDs of an internal node. It returns nil
// for leaves.
func (n *Node) Children() []NodeID {
	if n.isLeaf {
		return nil
	}
	children := make([]NodeID, len(n.entries))
	for i, e := range n.entries {
		children[i] = e.Child
	}
	return children
}

// indexOfChild returns the position of the branch entry pointing at child, or -1.
func (n *Node) indexOfChild(child NodeID) int {
	for i, e := range n.entries {
		if e.IsBranch && e.Child == child {
			return i
		}
	}
	return -1
}

// indexOfPoint returns the position of the leaf entry equal to p, or -1.
func (n *Node) indexOfPoint(p Point) int {
	for i, e := range n.entries {
		if !e.IsBranch && e.Point == p {
			return i
		}
	}
	return -1
}

func (n *Node) removeEntry(i int) Entry {
	e := n.entries[i]
	n.entries = append(n.entries[:i], n.entries[i+1:]...)
	return e
}
