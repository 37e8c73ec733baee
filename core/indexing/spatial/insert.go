package spatial

import (
	"math"

	"go.uber.org/zap"
)

// Insert adds p to the tree. It returns false, leaving the tree untouched, when
// a point with identical coordinates is already stored or when p has a NaN or
// infinite coordinate.
func (tr *RTree) Insert(p Point) bool {
	if !p.IsValid() || tr.Contains(p) {
		return false
	}

	entry := Entry{Point: p}

	if tr.rootID == InvalidNodeID {
		// Tree is empty, create a new root leaf node
		root := tr.allocNode(true, InvalidNodeID)
		root.entries = append(root.entries, entry)
		tr.recalcMBR(root)
		tr.rootID = root.id
		tr.height = 1
		tr.size = 1
		tr.emit(Event{Kind: EventInsert, Node: root.id, Other: InvalidNodeID, Point: p})
		return true
	}

	leaf := tr.chooseLeaf(tr.nodes[tr.rootID], p)
	leaf.entries = append(leaf.entries, entry)
	tr.recalcMBR(leaf)
	tr.size++
	tr.emit(Event{Kind: EventInsert, Node: leaf.id, Other: InvalidNodeID, Point: p})

	var sibling *Node
	if len(leaf.entries) > MaxEntries {
		sibling = tr.splitNode(leaf)
	}
	tr.adjustTree(leaf, sibling)
	return true
}

// chooseLeaf descends from n to the leaf whose bound grows least when p is
// added. Ties go to the child with the smaller area, then to the first one.
func (tr *RTree) chooseLeaf(n *Node, p Point) *Node {
	for !n.isLeaf {
		var chosen *Node
		minEnlargement := math.Inf(1)
		minArea := math.Inf(1)

		for _, e := range n.entries {
			child := tr.nodes[e.Child]
			enlargement := child.mbr.EnlargementPoint(p)
			area := child.mbr.Area()
			if chosen == nil || enlargement < minEnlargement ||
				(enlargement == minEnlargement && area < minArea) {
				chosen = child
				minEnlargement = enlargement
				minArea = area
			}
		}
		n = chosen
	}
	return n
}

// adjustTree walks from node to the root, hooking a pending split sibling into
// each parent, refreshing bounds and splitting parents that overflow. A sibling
// still pending at the root grows the tree by one level.
func (tr *RTree) adjustTree(node, sibling *Node) {
	for node.id != tr.rootID {
		parent := tr.nodes[node.parentID]
		if sibling != nil {
			tr.adopt(parent, Entry{Child: sibling.id, IsBranch: true})
		}
		tr.recalcMBR(parent)

		if len(parent.entries) > MaxEntries {
			sibling = tr.splitNode(parent)
		} else {
			sibling = nil
		}
		node = parent
	}

	if sibling == nil {
		tr.recalcMBR(node)
		return
	}
	tr.growRoot(node, sibling)
}

// growRoot installs a new internal root above the old root and its sibling.
func (tr *RTree) growRoot(oldRoot, sibling *Node) {
	newRoot := tr.allocNode(false, InvalidNodeID)
	tr.adopt(newRoot, Entry{Child: oldRoot.id, IsBranch: true})
	tr.adopt(newRoot, Entry{Child: sibling.id, IsBranch: true})
	tr.recalcMBR(newRoot)
	tr.rootID = newRoot.id
	tr.height++

	tr.logger.Debug("Spatial index: root split, new root created",
		zap.Uint32("root", uint32(newRoot.id)),
		zap.Int("height", tr.height))
	tr.emit(Event{Kind: EventRootGrow, Node: newRoot.id, Other: InvalidNodeID})
}
