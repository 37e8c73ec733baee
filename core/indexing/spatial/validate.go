package spatial

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation is wrapped by every error Validate returns.
var ErrInvariantViolation = errors.New("spatial: invariant violation")

// Validate recomputes the tree's structural invariants from scratch: fanout
// bounds, tight bounds, uniform leaf depth, unique points, parent links and the
// cached size and height. It is meant for tests and debugging tools.
func (tr *RTree) Validate() error {
	if tr.rootID == InvalidNodeID {
		if tr.size != 0 || tr.height != 0 {
			return fmt.Errorf("%w: empty tree reports size %d height %d", ErrInvariantViolation, tr.size, tr.height)
		}
		if live := tr.NodeCount(); live != 0 {
			return fmt.Errorf("%w: empty tree holds %d live nodes", ErrInvariantViolation, live)
		}
		return nil
	}

	root := tr.Root()
	if root == nil {
		return fmt.Errorf("%w: root %d is not allocated", ErrInvariantViolation, tr.rootID)
	}
	if root.parentID != InvalidNodeID {
		return fmt.Errorf("%w: root %d has parent %d", ErrInvariantViolation, root.id, root.parentID)
	}

	v := validator{
		tr:        tr,
		seen:      make(map[Point]struct{}, tr.size),
		leafDepth: -1,
	}
	if err := v.check(root, 1); err != nil {
		return err
	}
	if v.points != tr.size {
		return fmt.Errorf("%w: counted %d points, size says %d", ErrInvariantViolation, v.points, tr.size)
	}
	if v.leafDepth != tr.height {
		return fmt.Errorf("%w: leaves at depth %d, height says %d", ErrInvariantViolation, v.leafDepth, tr.height)
	}
	if live := tr.NodeCount(); v.nodes != live {
		return fmt.Errorf("%w: reached %d nodes, arena holds %d", ErrInvariantViolation, v.nodes, live)
	}
	return nil
}

type validator struct {
	tr        *RTree
	seen      map[Point]struct{}
	leafDepth int
	points    int
	nodes     int
}

func (v *validator) check(n *Node, depth int) error {
	v.nodes++
	if v.tr.Node(n.id) != n {
		return fmt.Errorf("%w: node %d is not registered under its ID", ErrInvariantViolation, n.id)
	}

	count := len(n.entries)
	isRoot := n.id == v.tr.rootID
	switch {
	case count > MaxEntries:
		return fmt.Errorf("%w: node %d overflows with %d entries", ErrInvariantViolation, n.id, count)
	case !isRoot && count < MinEntries:
		return fmt.Errorf("%w: node %d underflows with %d entries", ErrInvariantViolation, n.id, count)
	case isRoot && count == 0:
		return fmt.Errorf("%w: root %d is empty", ErrInvariantViolation, n.id)
	case isRoot && !n.isLeaf && count < 2:
		return fmt.Errorf("%w: internal root %d has a single child", ErrInvariantViolation, n.id)
	}

	mbr := EmptyRect()
	for _, e := range n.entries {
		if e.IsBranch == n.isLeaf {
			return fmt.Errorf("%w: node %d (leaf=%t) holds a mismatched entry", ErrInvariantViolation, n.id, n.isLeaf)
		}
		if !e.IsBranch {
			if _, dup := v.seen[e.Point]; dup {
				return fmt.Errorf("%w: point %v stored twice", ErrInvariantViolation, e.Point)
			}
			v.seen[e.Point] = struct{}{}
			v.points++
			mbr = mbr.Extend(e.Point)
			continue
		}

		child := v.tr.Node(e.Child)
		if child == nil {
			return fmt.Errorf("%w: node %d references missing child %d", ErrInvariantViolation, n.id, e.Child)
		}
		if child.parentID != n.id {
			return fmt.Errorf("%w: child %d points at parent %d instead of %d", ErrInvariantViolation, child.id, child.parentID, n.id)
		}
		if err := v.check(child, depth+1); err != nil {
			return err
		}
		mbr = mbr.Union(child.mbr)
	}

	if mbr != n.mbr {
		return fmt.Errorf("%w: node %d caches bound %v, contents span %v", ErrInvariantViolation, n.id, n.mbr, mbr)
	}

	if n.isLeaf {
		if v.leafDepth == -1 {
			v.leafDepth = depth
		} else if v.leafDepth != depth {
			return fmt.Errorf("%w: leaf %d at depth %d, other leaves at %d", ErrInvariantViolation, n.id, depth, v.leafDepth)
		}
	}
	return nil
}
