package spatial

import (
	"math"

	"go.uber.org/zap"
)

// Delete removes the point with p's exact coordinates. It returns false and
// does nothing when no such point is stored.
func (tr *RTree) Delete(p Point) bool {
	root := tr.Root()
	if root == nil {
		return false
	}
	leaf, idx := tr.findLeaf(root, p)
	if leaf == nil {
		return false
	}

	leaf.removeEntry(idx)
	tr.recalcMBR(leaf)
	tr.size--
	tr.emit(Event{Kind: EventDelete, Node: leaf.id, Other: InvalidNodeID, Point: p})

	if tr.size == 0 {
		tr.Reset()
		tr.logger.Debug("Spatial index: tree became empty")
		return true
	}
	tr.condenseTree(leaf)
	return true
}

// findLeaf locates the leaf storing p and the entry index inside it. Only
// children whose bound contains p are descended.
func (tr *RTree) findLeaf(n *Node, p Point) (*Node, int) {
	if n.isLeaf {
		if i := n.indexOfPoint(p); i >= 0 {
			return n, i
		}
		return nil, -1
	}
	for _, e := range n.entries {
		child := tr.nodes[e.Child]
		if !child.mbr.ContainsPoint(p) {
			continue
		}
		if leaf, i := tr.findLeaf(child, p); leaf != nil {
			return leaf, i
		}
	}
	return nil, -1
}

// condenseTree walks from n to the root repairing underflowing nodes and
// refreshing bounds, then shortens the tree while the root is an internal node
// with a single child.
func (tr *RTree) condenseTree(n *Node) {
	for n.id != tr.rootID {
		parent := tr.nodes[n.parentID]
		if len(n.entries) < MinEntries {
			tr.handleUnderflow(n, parent)
		} else {
			tr.recalcMBR(n)
		}
		n = parent
	}
	tr.recalcMBR(n)

	for {
		root := tr.nodes[tr.rootID]
		if root.isLeaf || len(root.entries) != 1 {
			return
		}
		child := tr.nodes[root.entries[0].Child]
		child.parentID = InvalidNodeID
		tr.freeNode(root.id)
		tr.rootID = child.id
		tr.height--

		tr.logger.Debug("Spatial index: root collapsed",
			zap.Uint32("root", uint32(child.id)),
			zap.Int("height", tr.height))
		tr.emit(Event{Kind: EventRootCollapse, Node: child.id, Other: root.id})
	}
}

// handleUnderflow repairs a non-root node holding fewer than MinEntries
// entries. It merges the node into a sibling when both fit in one node and
// otherwise borrows entries from that sibling until the node is full enough.
func (tr *RTree) handleUnderflow(n, parent *Node) {
	tr.recalcMBR(n)
	sibling := tr.pickSibling(n, parent)
	if sibling == nil {
		return
	}

	if len(sibling.entries)+len(n.entries) <= MaxEntries {
		for _, e := range n.entries {
			tr.adopt(sibling, e)
		}
		tr.recalcMBR(sibling)
		parent.removeEntry(parent.indexOfChild(n.id))
		n.entries = nil
		tr.freeNode(n.id)

		tr.logger.Debug("Spatial index: merged underflowing node",
			zap.Uint32("node", uint32(n.id)),
			zap.Uint32("sibling", uint32(sibling.id)))
		tr.emit(Event{Kind: EventMerge, Node: n.id, Other: sibling.id})
		return
	}

	for len(n.entries) < MinEntries && len(sibling.entries) > MinEntries {
		i := tr.cheapestTransfer(sibling, n.mbr)
		tr.adopt(n, sibling.removeEntry(i))
		tr.recalcMBR(n)
	}
	tr.recalcMBR(sibling)

	tr.logger.Debug("Spatial index: underflowing node borrowed entries",
		zap.Uint32("node", uint32(n.id)),
		zap.Uint32("sibling", uint32(sibling.id)))
	tr.emit(Event{Kind: EventBorrow, Node: n.id, Other: sibling.id})
}

// pickSibling chooses, among n's siblings, the one whose bound grows least by
// absorbing n; ties go to the sibling with fewer entries, then child order.
func (tr *RTree) pickSibling(n, parent *Node) *Node {
	var best *Node
	bestCost := math.Inf(1)
	for _, e := range parent.entries {
		if e.Child == n.id {
			continue
		}
		s := tr.nodes[e.Child]
		cost := s.mbr.Enlargement(n.mbr)
		if best == nil || cost < bestCost ||
			(cost == bestCost && len(s.entries) < len(best.entries)) {
			best = s
			bestCost = cost
		}
	}
	return best
}

// cheapestTransfer returns the index of the entry of from whose move would
// enlarge target least.
func (tr *RTree) cheapestTransfer(from *Node, target Rect) int {
	best := 0
	bestCost := math.Inf(1)
	for i, e := range from.entries {
		if cost := target.Enlargement(tr.entryRect(e)); cost < bestCost {
			best = i
			bestCost = cost
		}
	}
	return best
}
