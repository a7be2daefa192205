package capability

import (
	"reflect"
)

// Detector classifies concrete extension instances against a catalog by
// walking the capability graph breadth-first.
type Detector struct {
	catalog *Catalog
	graph   *Graph
}

// NewDetector creates a detector over the given catalog and graph.
func NewDetector(catalog *Catalog, graph *Graph) *Detector {
	return &Detector{catalog: catalog, graph: graph}
}

// Detect returns the nearest catalogued ancestor of the instance's concrete
// type. The walk is breadth-first: the exact type first, then its declared
// parent, then its declared capability interfaces in order, then theirs, and
// so on. The first catalogued type dequeued wins, so a closer ancestor always
// beats a farther one; ancestors at equal depth resolve by declaration order.
//
// A type with no recorded declaration falls back to the catalogued points it
// implements (in catalog registration order), so a plugin written directly
// against one extension point needs no declaration at all.
//
// The boolean is false when the type belongs to no known capability family.
// That is not an error; the instance is simply unclassified.
func (d *Detector) Detect(instance any) (reflect.Type, bool) {
	if instance == nil {
		return nil, false
	}

	start := reflect.TypeOf(instance)
	queue := []reflect.Type{start}
	seen := map[reflect.Type]struct{}{start: {}}

	enqueue := func(t reflect.Type) {
		if t == nil {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		queue = append(queue, t)
	}

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]

		if d.catalog.Known(t) {
			return t, true
		}

		if decl, ok := d.graph.declaration(t); ok {
			enqueue(decl.Extends)
			for _, iface := range decl.Implements {
				enqueue(iface)
			}
			continue
		}

		// No declared ancestry: bridge directly to whichever catalogued
		// points the type implements. Depth is one hop for all of them,
		// which preserves BFS ordering for undeclared leaves.
		for _, point := range d.catalog.Points() {
			if point.Kind() == reflect.Interface && t.Implements(point) {
				enqueue(point)
			}
		}
	}

	return nil, false
}
