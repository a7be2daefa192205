package capability

import (
	"reflect"
	"sync"
)

// Declaration records a type's direct capability ancestry: a single parent
// type (the "extends" edge) and the capability interfaces the type was
// written against, in their declared order. Declared-order matters: when two
// catalogued ancestors sit at the same depth, detection resolves to the one
// declared first.
type Declaration struct {
	Extends    reflect.Type
	Implements []reflect.Type
}

// Graph holds the capability ancestry declared at plugin-registration time.
// It is safe for concurrent use: plugin deployment declares while resolution
// reads.
type Graph struct {
	mu    sync.RWMutex
	decls map[reflect.Type]Declaration
}

// NewGraph creates an empty capability graph.
func NewGraph() *Graph {
	return &Graph{decls: make(map[reflect.Type]Declaration)}
}

// Declare records the direct ancestry of t. Ancestors that do not satisfy
// the ExtensionPoint capability are dropped here, at registration time, so
// detection never has to re-check them. Re-declaring a type replaces its
// previous declaration.
func (g *Graph) Declare(t reflect.Type, d Declaration) {
	kept := Declaration{}
	if capable(d.Extends) {
		kept.Extends = d.Extends
	}
	for _, iface := range d.Implements {
		if capable(iface) {
			kept.Implements = append(kept.Implements, iface)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.decls[t] = kept
}

// declaration returns the recorded ancestry of t, if any.
func (g *Graph) declaration(t reflect.Type) (Declaration, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.decls[t]
	return d, ok
}
