package jobcache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/plugridgo/internal/adapter"
	"github.com/vk/plugridgo/internal/capability"
	"github.com/vk/plugridgo/internal/job"
	"github.com/vk/plugridgo/internal/jobcache"
	"github.com/vk/plugridgo/internal/runtime"
	"github.com/vk/plugridgo/internal/shutdown"
	"github.com/vk/plugridgo/internal/testutil"
)

type pinger interface {
	capability.Point
	Ping() string
}

type staticPinger struct {
	capability.Marker
	reply string
}

func (p *staticPinger) Ping() string { return p.reply }

func newCache(t *testing.T, size int, factory *testutil.CountingFactory) *jobcache.Cache {
	t.Helper()
	c, err := jobcache.New(size, factory, shutdown.New(), nil)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsNonPositiveSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1} {
		_, err := jobcache.New(size, &testutil.CountingFactory{}, shutdown.New(), nil)
		require.ErrorContains(t, err, "cache size must be positive")
	}
}

func TestCache_ConcurrentFirstAccessStartsOnce(t *testing.T) {
	t.Parallel()

	factory := &testutil.CountingFactory{StartDelay: 20 * time.Millisecond}
	cache := newCache(t, 8, factory)
	j := job.New("ingest", nil)

	const requests = 16
	adapters := make([]*adapter.Adapter, requests)
	errs := make([]error, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			adapters[i], errs[i] = cache.AdapterFor(context.Background(), j)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), factory.Starts(), "concurrent first access must share one initialization")
	for _, ad := range adapters[1:] {
		require.Same(t, adapters[0], ad)
	}
}

func TestCache_SequentialAccessReusesAdapter(t *testing.T) {
	t.Parallel()

	factory := &testutil.CountingFactory{}
	cache := newCache(t, 8, factory)
	j := job.New("ingest", nil)

	first, err := cache.AdapterFor(context.Background(), j)
	require.NoError(t, err)
	second, err := cache.AdapterFor(context.Background(), j)
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, int32(1), factory.Starts())
}

func TestCache_UnrelatedJobsGetIndependentRuntimes(t *testing.T) {
	t.Parallel()

	factory := &testutil.CountingFactory{}
	cache := newCache(t, 8, factory)

	a, err := cache.AdapterFor(context.Background(), job.New("a", nil))
	require.NoError(t, err)
	b, err := cache.AdapterFor(context.Background(), job.New("b", nil))
	require.NoError(t, err)

	require.NotSame(t, a, b)
	require.Equal(t, int32(2), factory.Starts())
	require.Equal(t, 2, cache.Len())
}

func TestCache_MissingImplementationIsAbsence(t *testing.T) {
	t.Parallel()

	cache := newCache(t, 8, &testutil.CountingFactory{})

	impl, ok, err := cache.GetExtension(context.Background(), capability.TypeOf[pinger](), job.New("j", nil))
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, impl)
}

func TestCache_ResolvesSeededService(t *testing.T) {
	t.Parallel()

	factory := &testutil.CountingFactory{
		Services: []runtime.Service{{Name: "static", Instance: &staticPinger{reply: "pong"}}},
	}
	cache := newCache(t, 8, factory)
	j := job.New("j", nil)

	impl, ok, err := cache.GetExtension(context.Background(), capability.TypeOf[pinger](), j)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "pong", impl.(pinger).Ping())

	impls, err := cache.GetExtensions(context.Background(), capability.TypeOf[pinger](), j)
	require.NoError(t, err)
	require.Len(t, impls, 1)
}

func TestCache_EvictionStopsRuntime(t *testing.T) {
	t.Parallel()

	factory := &testutil.CountingFactory{}
	cache := newCache(t, 1, factory)

	_, err := cache.AdapterFor(context.Background(), job.New("first", nil))
	require.NoError(t, err)
	_, err = cache.AdapterFor(context.Background(), job.New("second", nil))
	require.NoError(t, err)

	require.Equal(t, 1, cache.Len())
	runtimes := factory.Runtimes()
	require.Len(t, runtimes, 2)
	require.True(t, runtimes[0].Stopped(), "evicted runtime must be stopped")
	require.False(t, runtimes[1].Stopped())
}

func TestCache_EvictionChurnKeepsHookListBounded(t *testing.T) {
	t.Parallel()

	factory := &testutil.CountingFactory{}
	hooks := shutdown.New()
	cache, err := jobcache.New(2, factory, hooks, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := cache.AdapterFor(context.Background(), job.New("churn", nil))
		require.NoError(t, err)
	}

	require.Equal(t, 2, cache.Len())
	require.Equal(t, 2, hooks.Len(), "evicted adapters must release their exit hooks")
}

func TestCache_DropStopsRuntime(t *testing.T) {
	t.Parallel()

	factory := &testutil.CountingFactory{}
	cache := newCache(t, 8, factory)
	j := job.New("j", nil)

	_, err := cache.AdapterFor(context.Background(), j)
	require.NoError(t, err)

	cache.Drop(j)
	require.Equal(t, 0, cache.Len())
	require.Equal(t, int32(1), factory.Stops())

	// A fresh request after Drop initializes a new runtime.
	_, err = cache.AdapterFor(context.Background(), j)
	require.NoError(t, err)
	require.Equal(t, int32(2), factory.Starts())
}

func TestCache_FailedInitializationIsNotCached(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	factory := &testutil.CountingFactory{StartErr: boom}
	cache := newCache(t, 8, factory)
	j := job.New("j", nil)

	_, err := cache.AdapterFor(context.Background(), j)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, cache.Len())

	factory.StartErr = nil
	ad, err := cache.AdapterFor(context.Background(), j)
	require.NoError(t, err)
	require.NotNil(t, ad)
	require.Equal(t, 1, cache.Len())
}

func TestCache_FactoryErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("no runtime for you")
	cache := newCache(t, 8, &testutil.CountingFactory{NewErr: boom})

	_, _, err := cache.GetExtension(context.Background(), capability.TypeOf[pinger](), job.New("j", nil))
	require.ErrorIs(t, err, boom)
}

func TestCache_PurgeStopsEverything(t *testing.T) {
	t.Parallel()

	factory := &testutil.CountingFactory{}
	cache := newCache(t, 8, factory)

	for _, name := range []string{"a", "b", "c"} {
		_, err := cache.AdapterFor(context.Background(), job.New(name, nil))
		require.NoError(t, err)
	}

	cache.Purge()
	require.Equal(t, 0, cache.Len())
	require.Equal(t, int32(3), factory.Stops())
}
