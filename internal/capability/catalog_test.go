package capability_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/plugridgo/internal/capability"
)

type loggingPoint interface {
	capability.Point
	emit()
}

type loggingChain struct{ capability.Marker }

func (loggingChain) emit() {}

type plainStruct struct{}

func TestCatalog_RegisterAndLookup(t *testing.T) {
	t.Parallel()

	c := capability.NewCatalog()
	point := capability.TypeOf[loggingPoint]()
	chain := capability.TypeOf[*loggingChain]()

	c.Register(point, chain)

	require.True(t, c.Known(point))
	got, ok := c.ChainFor(point)
	require.True(t, ok)
	require.Equal(t, chain, got)
	require.Equal(t, []reflect.Type{point}, c.Points())
}

func TestCatalog_UnknownPointIsAbsence(t *testing.T) {
	t.Parallel()

	c := capability.NewCatalog()
	_, ok := c.ChainFor(capability.TypeOf[loggingPoint]())
	require.False(t, ok)
	require.False(t, c.Known(capability.TypeOf[loggingPoint]()))
}

func TestCatalog_DuplicateKeyPanics(t *testing.T) {
	t.Parallel()

	c := capability.NewCatalog()
	point := capability.TypeOf[loggingPoint]()
	c.Register(point, capability.TypeOf[*loggingChain]())

	require.Panics(t, func() {
		c.Register(point, capability.TypeOf[*loggingChain]())
	})
}

func TestCatalog_NonCapableKeyPanics(t *testing.T) {
	t.Parallel()

	c := capability.NewCatalog()
	require.Panics(t, func() {
		c.Register(capability.TypeOf[plainStruct](), capability.TypeOf[*loggingChain]())
	})
}
