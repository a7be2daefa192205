package capability_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/plugridgo/internal/capability"
)

// Test hierarchy, roughly a job-filtering plugin family:
//
//	filterPoint (catalogued)
//	  ^ baseFilter
//	      ^ deepFilter (also implements taggable, which is not catalogued)
//	myFilter implements filterPoint directly.
type filterPoint interface {
	capability.Point
	applyFilter()
}

type filterChain struct{ capability.Marker }

func (filterChain) applyFilter() {}

type baseFilter interface {
	filterPoint
	baseBehavior()
}

type taggable interface {
	capability.Point
	tags()
}

type myFilter struct{ capability.Marker }

func (myFilter) applyFilter() {}

type deepFilter struct{ capability.Marker }

func (deepFilter) applyFilter()  {}
func (deepFilter) baseBehavior() {}
func (deepFilter) tags()         {}

type unrelated struct{}

func newFilterCatalog() *capability.Catalog {
	c := capability.NewCatalog()
	c.Register(capability.TypeOf[filterPoint](), capability.TypeOf[*filterChain]())
	return c
}

func TestDetect_DirectImplementation(t *testing.T) {
	t.Parallel()

	d := capability.NewDetector(newFilterCatalog(), capability.NewGraph())

	point, ok := d.Detect(myFilter{})
	require.True(t, ok)
	require.Equal(t, capability.TypeOf[filterPoint](), point)
}

func TestDetect_ViaSuperclassChain(t *testing.T) {
	t.Parallel()

	g := capability.NewGraph()
	// deepFilter extends baseFilter and implements the uncatalogued
	// taggable; baseFilter extends filterPoint.
	g.Declare(reflect.TypeOf(deepFilter{}), capability.Declaration{
		Extends:    capability.TypeOf[baseFilter](),
		Implements: []reflect.Type{capability.TypeOf[taggable]()},
	})
	g.Declare(capability.TypeOf[baseFilter](), capability.Declaration{
		Extends: capability.TypeOf[filterPoint](),
	})
	g.Declare(capability.TypeOf[taggable](), capability.Declaration{})

	d := capability.NewDetector(newFilterCatalog(), g)

	point, ok := d.Detect(deepFilter{})
	require.True(t, ok)
	require.Equal(t, capability.TypeOf[filterPoint](), point)
}

func TestDetect_NoCataloguedAncestorIsAbsence(t *testing.T) {
	t.Parallel()

	d := capability.NewDetector(newFilterCatalog(), capability.NewGraph())

	_, ok := d.Detect(unrelated{})
	require.False(t, ok)

	_, ok = d.Detect(nil)
	require.False(t, ok)
}

type nearPoint interface {
	capability.Point
	near()
}

type farPoint interface {
	capability.Point
	far()
}

type middle interface {
	capability.Point
	mid()
}

type twoAncestors struct{ capability.Marker }

func (twoAncestors) near() {}
func (twoAncestors) mid()  {}

func TestDetect_NearerAncestorWins(t *testing.T) {
	t.Parallel()

	c := capability.NewCatalog()
	c.Register(capability.TypeOf[nearPoint](), capability.TypeOf[*filterChain]())
	c.Register(capability.TypeOf[farPoint](), capability.TypeOf[*filterChain]())

	g := capability.NewGraph()
	// nearPoint is one hop away; farPoint is two hops via middle.
	g.Declare(reflect.TypeOf(twoAncestors{}), capability.Declaration{
		Implements: []reflect.Type{capability.TypeOf[middle](), capability.TypeOf[nearPoint]()},
	})
	g.Declare(capability.TypeOf[middle](), capability.Declaration{
		Extends: capability.TypeOf[farPoint](),
	})

	d := capability.NewDetector(c, g)

	point, ok := d.Detect(twoAncestors{})
	require.True(t, ok)
	require.Equal(t, capability.TypeOf[nearPoint](), point)
}

type leftPoint interface {
	capability.Point
	left()
}

type rightPoint interface {
	capability.Point
	right()
}

type diamondLeaf struct{ capability.Marker }

func (diamondLeaf) left()  {}
func (diamondLeaf) right() {}

func TestDetect_SameDepthResolvesByDeclarationOrder(t *testing.T) {
	t.Parallel()

	c := capability.NewCatalog()
	c.Register(capability.TypeOf[leftPoint](), capability.TypeOf[*filterChain]())
	c.Register(capability.TypeOf[rightPoint](), capability.TypeOf[*filterChain]())

	g := capability.NewGraph()
	g.Declare(reflect.TypeOf(diamondLeaf{}), capability.Declaration{
		Implements: []reflect.Type{capability.TypeOf[rightPoint](), capability.TypeOf[leftPoint]()},
	})

	d := capability.NewDetector(c, g)

	point, ok := d.Detect(diamondLeaf{})
	require.True(t, ok)
	require.Equal(t, capability.TypeOf[rightPoint](), point, "first declared interface wins at equal depth")
}

type sharedRoot interface {
	capability.Point
	root()
}

type diamondA interface {
	capability.Point
	a()
}

type diamondB interface {
	capability.Point
	b()
}

type diamondTop struct{ capability.Marker }

func (diamondTop) a() {}
func (diamondTop) b() {}

func TestDetect_DiamondHierarchyTerminates(t *testing.T) {
	t.Parallel()

	c := capability.NewCatalog()
	c.Register(capability.TypeOf[sharedRoot](), capability.TypeOf[*filterChain]())

	g := capability.NewGraph()
	g.Declare(reflect.TypeOf(diamondTop{}), capability.Declaration{
		Implements: []reflect.Type{capability.TypeOf[diamondA](), capability.TypeOf[diamondB]()},
	})
	g.Declare(capability.TypeOf[diamondA](), capability.Declaration{Extends: capability.TypeOf[sharedRoot]()})
	g.Declare(capability.TypeOf[diamondB](), capability.Declaration{Extends: capability.TypeOf[sharedRoot]()})

	d := capability.NewDetector(c, g)

	point, ok := d.Detect(diamondTop{})
	require.True(t, ok)
	require.Equal(t, capability.TypeOf[sharedRoot](), point)
}

func TestDetect_NonCapableAncestorsDroppedAtDeclaration(t *testing.T) {
	t.Parallel()

	g := capability.NewGraph()
	// unrelated does not satisfy the extension-point capability, so the
	// declaration keeps no edge to it.
	g.Declare(reflect.TypeOf(myFilter{}), capability.Declaration{
		Implements: []reflect.Type{reflect.TypeOf(unrelated{})},
	})

	d := capability.NewDetector(newFilterCatalog(), g)

	// The declaration exists, so the reflection bridge is bypassed and the
	// only declared edge was dropped: nothing to find.
	_, ok := d.Detect(myFilter{})
	require.False(t, ok)
}
