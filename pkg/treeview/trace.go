package treeview

import (
	"fmt"
	"io"
	"sync"

	"github.com/sushant-115/gojodb-spatial/core/indexing/spatial"
)

// Trace is a spatial.Observer that records the events of one operation so the
// next Render can tag the nodes involved.
type Trace struct {
	mu     sync.Mutex
	events []spatial.Event
}

var _ spatial.Observer = (*Trace)(nil)

// Observe records e.
func (t *Trace) Observe(e spatial.Event) {
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
}

// Events returns the recorded events in order.
func (t *Trace) Events() []spatial.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]spatial.Event(nil), t.events...)
}

// Reset forgets every recorded event.
func (t *Trace) Reset() {
	t.mu.Lock()
	t.events = nil
	t.mu.Unlock()
}

// Marks maps each node that still appears in the trace to the name of the last
// event that touched it. Callers should drop IDs the tree no longer holds.
func (t *Trace) Marks() map[spatial.NodeID]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	marks := make(map[spatial.NodeID]string)
	for _, e := range t.events {
		if e.Node == spatial.InvalidNodeID {
			continue
		}
		marks[e.Node] = e.Kind.String()
		if e.Kind == spatial.EventSplit && e.Other != spatial.InvalidNodeID {
			marks[e.Other] = e.Kind.String()
		}
	}
	return marks
}

// WriteLog prints one line per recorded event.
func (t *Trace) WriteLog(w io.Writer) error {
	for _, e := range t.Events() {
		var err error
		switch e.Kind {
		case spatial.EventNeighbor:
			_, err = fmt.Fprintf(w, "  %-13s %v dist=%.4f\n", e.Kind, e.Point, e.Dist)
		case spatial.EventInsert, spatial.EventDelete:
			_, err = fmt.Fprintf(w, "  %-13s %v in node #%d\n", e.Kind, e.Point, e.Node)
		default:
			_, err = fmt.Fprintf(w, "  %-13s node #%d\n", e.Kind, e.Node)
			if err == nil && e.Other != spatial.InvalidNodeID {
				_, err = fmt.Fprintf(w, "  %-13s   with node #%d\n", "", e.Other)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
