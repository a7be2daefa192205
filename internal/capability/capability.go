package capability

import "reflect"

// Point is the marker interface every extension-point contract embeds.
// A type satisfies the ExtensionPoint capability when it implements Point,
// either by embedding it (interfaces) or by embedding Marker (structs).
type Point interface {
	ExtensionPoint()
}

// Marker is embedded by concrete plugin and chain types to satisfy Point.
type Marker struct{}

// ExtensionPoint implements Point.
func (Marker) ExtensionPoint() {}

// pointType is the reflected Point interface, used to test whether an
// arbitrary type satisfies the ExtensionPoint capability.
var pointType = reflect.TypeOf((*Point)(nil)).Elem()

// TypeOf returns the reflect.Type of T without requiring an instance.
// It is the canonical way to name an interface type in catalog and
// graph declarations: capability.TypeOf[extpoint.Filter]().
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// capable reports whether t satisfies the ExtensionPoint capability.
// Types that are not capable never participate in detection.
func capable(t reflect.Type) bool {
	return t != nil && t.Implements(pointType)
}
