package spatial

// QueryStats counts the work a query performed.
type QueryStats struct {
	NodesVisited int // nodes whose entries were examined
	NodesPruned  int // subtrees skipped without inspection
	PointsTested int // leaf points compared against the query
}

// Search performs a spatial query and returns every stored point inside
// queryRect (closed intervals on both axes). The result is a fresh slice in
// depth-first leaf order. An empty or NaN query rectangle matches nothing.
func (tr *RTree) Search(queryRect Rect) []Point {
	results, _ := tr.SearchStats(queryRect)
	return results
}

// SearchStats is Search that also reports how many nodes were visited and
// pruned.
func (tr *RTree) SearchStats(queryRect Rect) ([]Point, QueryStats) {
	results := []Point{}
	var stats QueryStats

	root := tr.Root()
	if root == nil || queryRect.IsEmpty() {
		return results, stats
	}
	tr.searchRecursive(root, queryRect, &results, &stats)
	return results, stats
}

func (tr *RTree) searchRecursive(n *Node, queryRect Rect, results *[]Point, stats *QueryStats) {
	stats.NodesVisited++
	tr.emit(Event{Kind: EventVisit, Node: n.id, Other: InvalidNodeID})

	if n.isLeaf {
		for _, e := range n.entries {
			stats.PointsTested++
			if queryRect.ContainsPoint(e.Point) {
				*results = append(*results, e.Point)
			}
		}
		return
	}

	for _, e := range n.entries {
		child := tr.nodes[e.Child]
		if child.mbr.Intersects(queryRect) {
			tr.searchRecursive(child, queryRect, results, stats)
			continue
		}
		stats.NodesPruned++
		tr.emit(Event{Kind: EventPrune, Node: child.id, Other: InvalidNodeID})
	}
}
