package spatial

// EventKind identifies a structural or query event emitted by the tree.
type EventKind int

const (
	// EventInsert fires after a point has been placed in a leaf.
	EventInsert EventKind = iota
	// EventSplit fires after a node was split; Other is the new sibling.
	EventSplit
	// EventRootGrow fires when a root split created a new root.
	EventRootGrow
	// EventVisit fires for every node a query expands.
	EventVisit
	// EventPrune fires for every child a range search skipped.
	EventPrune
	// EventNeighbor fires for every point a kNN query emits, Dist is its distance.
	EventNeighbor
	// EventDelete fires after a point has been removed from Node.
	EventDelete
	// EventMerge fires when an underflowing Node was merged into Other.
	EventMerge
	// EventBorrow fires when an underflowing Node borrowed entries from Other.
	EventBorrow
	// EventRootCollapse fires when the root's only child became the new root.
	EventRootCollapse
)

var eventKindNames = [...]string{
	EventInsert:       "insert",
	EventSplit:        "split",
	EventRootGrow:     "root-grow",
	EventVisit:        "visit",
	EventPrune:        "prune",
	EventNeighbor:     "neighbor",
	EventDelete:       "delete",
	EventMerge:        "merge",
	EventBorrow:       "borrow",
	EventRootCollapse: "root-collapse",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return "unknown"
	}
	return eventKindNames[k]
}

// Event describes one step of a tree operation.
type Event struct {
	Kind  EventKind
	Node  NodeID
	Other NodeID
	Point Point
	Dist  float64
}

// Observer receives events synchronously while an operation runs. It must not
// call back into the tree.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

func (tr *RTree) emit(e Event) {
	if tr.observer != nil {
		tr.observer.Observe(e)
	}
}
