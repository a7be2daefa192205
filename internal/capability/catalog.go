package capability

import (
	"fmt"
	"log/slog"
	"reflect"
)

// Catalog is the fixed mapping from extension-point types to the chain types
// that aggregate their implementations. It is populated once at startup and
// never mutated afterwards; there is no removal operation.
type Catalog struct {
	entries map[reflect.Type]reflect.Type
	order   []reflect.Type
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[reflect.Type]reflect.Type)}
}

// Register adds an extension point and its chain type to the catalog.
// Registering a duplicate key, or a key that does not itself satisfy the
// ExtensionPoint capability, is a programmer error and panics.
func (c *Catalog) Register(point, chain reflect.Type) {
	if !capable(point) {
		panic(fmt.Sprintf("catalog key %s does not satisfy the extension-point capability", point))
	}
	if _, exists := c.entries[point]; exists {
		panic(fmt.Sprintf("extension point %s already catalogued", point))
	}
	slog.Debug("Registering extension point.", "point", point.String(), "chain", chain.String())
	c.entries[point] = chain
	c.order = append(c.order, point)
}

// Known reports whether point is a catalogued extension point.
func (c *Catalog) Known(point reflect.Type) bool {
	_, ok := c.entries[point]
	return ok
}

// ChainFor returns the chain type for a catalogued point. Absence is a
// normal outcome, not an error; callers must handle ok == false.
func (c *Catalog) ChainFor(point reflect.Type) (reflect.Type, bool) {
	chain, ok := c.entries[point]
	return chain, ok
}

// Points returns the catalogued extension points in registration order.
func (c *Catalog) Points() []reflect.Type {
	out := make([]reflect.Type, len(c.order))
	copy(out, c.order)
	return out
}
