// Package capability implements the extension-point catalog and the
// nearest-ancestor detection algorithm.
//
// An extension point is an abstract capability contract: a Go interface that
// embeds [Point]. The Catalog is the fixed mapping from each known extension
// point to the chain type that aggregates multiple implementations of it.
//
// Because Go offers no way to enumerate the interfaces a type was declared
// against, ancestry between capability types is explicit: plugin modules
// Declare each type's direct parent and implemented capability interfaces
// into a Graph at registration time. The Detector walks that graph
// breadth-first from a concrete instance's type and returns the nearest
// catalogued ancestor, so concrete plugin types stay decoupled from the
// fixed catalog.
package capability
