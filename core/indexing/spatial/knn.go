package spatial

import (
	"math"

	"github.com/tidwall/tinyqueue"
)

// queueItem is a kNN candidate: either a node keyed by the squared MINDIST to
// its bound or a point keyed by its squared distance.
type queueItem struct {
	node    *Node
	point   Point
	isPoint bool
	dist    float64
	seq     uint64
}

// Less orders by key, then points before nodes, then push order.
func (item *queueItem) Less(b tinyqueue.Item) bool {
	other := b.(*queueItem)
	if item.dist != other.dist {
		return item.dist < other.dist
	}
	if item.isPoint != other.isPoint {
		return item.isPoint
	}
	return item.seq < other.seq
}

// Nearest returns up to k stored points ordered nearest-first by Euclidean
// distance to source. k <= 0, an invalid source or an empty tree yield an
// empty slice.
func (tr *RTree) Nearest(source Point, k int) []Point {
	results, _ := tr.NearestStats(source, k)
	return results
}

// NearestStats is Nearest that also reports how many nodes were expanded.
// NodesPruned counts subtrees still queued when the search stopped.
func (tr *RTree) NearestStats(source Point, k int) ([]Point, QueryStats) {
	var stats QueryStats
	root := tr.Root()
	if root == nil || k <= 0 || !source.IsValid() {
		return []Point{}, stats
	}

	results := make([]Point, 0, min(k, tr.size))
	var seq uint64
	queue := tinyqueue.New(nil)
	queue.Push(&queueItem{node: root, dist: 0, seq: seq})
	queuedNodes := 1

	for queue.Len() > 0 && len(results) < k {
		item := queue.Pop().(*queueItem)
		if item.isPoint {
			// Every queued node key is a lower bound for the points below it,
			// so no unseen point can be closer than this one.
			results = append(results, item.point)
			tr.emit(Event{Kind: EventNeighbor, Node: InvalidNodeID, Other: InvalidNodeID,
				Point: item.point, Dist: math.Sqrt(item.dist)})
			continue
		}

		n := item.node
		stats.NodesVisited++
		tr.emit(Event{Kind: EventVisit, Node: n.id, Other: InvalidNodeID, Dist: math.Sqrt(item.dist)})
		for _, e := range n.entries {
			seq++
			if e.IsBranch {
				child := tr.nodes[e.Child]
				queue.Push(&queueItem{node: child, dist: child.mbr.MinDistSq(source), seq: seq})
				queuedNodes++
				continue
			}
			stats.PointsTested++
			queue.Push(&queueItem{point: e.Point, isPoint: true, dist: e.Point.DistSq(source), seq: seq})
		}
	}

	stats.NodesPruned = queuedNodes - stats.NodesVisited
	return results, stats
}
