package spatial

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// splitNode splits an overflowing node using Guttman's quadratic split.
// n keeps the first group and a freshly allocated sibling under
// the same parent receives the second. Moved children are reparented.
func (tr *RTree) splitNode(n *Node) *Node {
	pool := n.entries
	seed1, seed2 := tr.pickSeeds(pool)

	sibling := tr.allocNode(n.isLeaf, n.parentID)
	n.entries = make([]Entry, 0, MaxEntries+1)
	tr.adopt(n, pool[seed1])
	tr.adopt(sibling, pool[seed2])
	tr.recalcMBR(n)
	tr.recalcMBR(sibling)

	remaining := make([]Entry, 0, len(pool)-2)
	for i, e := range pool {
		if i != seed1 && i != seed2 {
			remaining = append(remaining, e)
		}
	}

	for len(remaining) > 0 {
		// Hand everything left to a group that would otherwise stay below MinEntries.
		if len(n.entries)+len(remaining) == MinEntries {
			tr.assignAll(n, remaining)
			break
		}
		if len(sibling.entries)+len(remaining) == MinEntries {
			tr.assignAll(sibling, remaining)
			break
		}

		i := tr.pickNext(remaining, n.mbr, sibling.mbr)
		e := remaining[i]
		remaining = append(remaining[:i], remaining[i+1:]...)

		target := tr.chooseGroup(e, n, sibling)
		tr.adopt(target, e)
		tr.recalcMBR(target)
	}

	if !validFill(len(n.entries)) || !validFill(len(sibling.entries)) {
		panic(fmt.Sprintf("spatial: split of node %d produced groups of %d and %d entries",
			n.id, len(n.entries), len(sibling.entries)))
	}

	tr.logger.Debug("Spatial index: node split",
		zap.Uint32("node", uint32(n.id)),
		zap.Uint32("sibling", uint32(sibling.id)),
		zap.Bool("leaf", n.isLeaf),
		zap.Int("left", len(n.entries)),
		zap.Int("right", len(sibling.entries)))
	tr.emit(Event{Kind: EventSplit, Node: n.id, Other: sibling.id})
	return sibling
}

func validFill(count int) bool {
	return count >= MinEntries && count <= MaxEntries
}

func (tr *RTree) assignAll(n *Node, entries []Entry) {
	for _, e := range entries {
		tr.adopt(n, e)
	}
	tr.recalcMBR(n)
}

// pickSeeds returns the indexes of the pair of entries that would waste the
// most area if placed in the same group. The first pair found wins ties.
func (tr *RTree) pickSeeds(entries []Entry) (int, int) {
	seed1, seed2 := 0, 1
	maxWaste := math.Inf(-1)
	for i := 0; i < len(entries); i++ {
		r1 := tr.entryRect(entries[i])
		for j := i + 1; j < len(entries); j++ {
			r2 := tr.entryRect(entries[j])
			waste := r1.Union(r2).Area() - r1.Area() - r2.Area()
			if waste > maxWaste {
				maxWaste = waste
				seed1, seed2 = i, j
			}
		}
	}
	return seed1, seed2
}

// pickNext returns the index of the entry with the strongest preference for
// one group over the other.
func (tr *RTree) pickNext(entries []Entry, mbr1, mbr2 Rect) int {
	next := 0
	maxDiff := math.Inf(-1)
	for i, e := range entries {
		r := tr.entryRect(e)
		diff := math.Abs(mbr1.Enlargement(r) - mbr2.Enlargement(r))
		if diff > maxDiff {
			maxDiff = diff
			next = i
		}
	}
	return next
}

// chooseGroup picks the group that needs least enlargement to take e, then the
// one with the smaller resulting area, then the smaller group, then g1.
func (tr *RTree) chooseGroup(e Entry, g1, g2 *Node) *Node {
	r := tr.entryRect(e)
	cost1 := g1.mbr.Enlargement(r)
	cost2 := g2.mbr.Enlargement(r)
	if cost1 != cost2 {
		if cost1 < cost2 {
			return g1
		}
		return g2
	}
	area1 := g1.mbr.Union(r).Area()
	area2 := g2.mbr.Union(r).Area()
	if area1 != area2 {
		if area1 < area2 {
			return g1
		}
		return g2
	}
	if len(g2.entries) < len(g1.entries) {
		return g2
	}
	return g1
}
