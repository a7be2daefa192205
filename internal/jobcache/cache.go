// Package jobcache implements the process-wide, job-scoped extension cache:
// one registry adapter per distinct job identity, initialized lazily and at
// most once per job even under concurrent first access.
//
// The cache is bounded. When it overflows, the least recently used adapter
// is evicted and its runtime stopped, so long-running processes do not
// accumulate one runtime per job forever.
package jobcache

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/vk/plugridgo/internal/adapter"
	"github.com/vk/plugridgo/internal/ctxlog"
	"github.com/vk/plugridgo/internal/job"
	"github.com/vk/plugridgo/internal/runtime"
	"github.com/vk/plugridgo/internal/shutdown"
)

// DefaultSize is the cache bound used when the caller does not choose one.
const DefaultSize = 64

// Cache maps job identity to an initialized registry adapter.
type Cache struct {
	group    singleflight.Group
	adapters *lru.Cache[string, *adapter.Adapter]
	factory  runtime.Factory
	hooks    *shutdown.Hooks
	logger   *slog.Logger
}

// New creates a cache holding at most size adapters; size must be positive.
// Evicted adapters have their runtime stopped; a stop failure at eviction
// can only be logged, the process-exit hook will surface it again if it
// persists.
func New(size int, factory runtime.Factory, hooks *shutdown.Hooks, logger *slog.Logger) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cache{factory: factory, hooks: hooks, logger: logger}

	adapters, err := lru.NewWithEvict(size, func(key string, ad *adapter.Adapter) {
		if err := ad.Stop(context.Background()); err != nil {
			c.logger.Error("Failed to stop evicted runtime.", "job", key, "error", err)
		} else {
			c.logger.Debug("Evicted job runtime stopped.", "job", key)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create adapter cache: %w", err)
	}

	c.adapters = adapters
	return c, nil
}

// GetExtension resolves the first live implementation of point for the given
// job, creating and loading the job's adapter on first use. Runtime startup
// errors propagate out of the request that triggered initialization; a
// missing implementation is an absence, not an error.
func (c *Cache) GetExtension(ctx context.Context, point reflect.Type, j *job.Job) (any, bool, error) {
	ad, err := c.AdapterFor(ctx, j)
	if err != nil {
		return nil, false, err
	}
	impl, ok := ad.GetExtension(point)
	return impl, ok, nil
}

// GetExtensions resolves every live implementation of point for the job.
func (c *Cache) GetExtensions(ctx context.Context, point reflect.Type, j *job.Job) ([]any, error) {
	ad, err := c.AdapterFor(ctx, j)
	if err != nil {
		return nil, err
	}
	return ad.GetExtensions(point), nil
}

// AdapterFor returns the adapter for j, creating and loading it when absent.
// The load happens once per job identity: concurrent first requests for the
// same job share a single initialization, while requests for unrelated jobs
// proceed independently. A failed initialization is not cached; the next
// request for the job triggers a fresh attempt.
func (c *Cache) AdapterFor(ctx context.Context, j *job.Job) (*adapter.Adapter, error) {
	if ad, ok := c.adapters.Get(j.ID); ok {
		return ad, nil
	}

	v, err, _ := c.group.Do(j.ID, func() (any, error) {
		// Re-check under the per-key barrier: a racing request may have
		// finished initializing while this one waited.
		if ad, ok := c.adapters.Get(j.ID); ok {
			return ad, nil
		}

		logger := ctxlog.FromContext(ctx)
		logger.Debug("Initializing extension runtime for job.", "job", j.ID)

		rt, err := c.factory.New(ctx, j)
		if err != nil {
			return nil, err
		}
		ad := adapter.New(j, rt, c.hooks)
		if err := ad.Load(ctx); err != nil {
			return nil, err
		}

		c.adapters.Add(j.ID, ad)
		logger.Info("Extension runtime ready.", "job", j.ID)
		return ad, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*adapter.Adapter), nil
}

// Drop evicts the adapter for j, stopping its runtime. It is a no-op for
// unknown jobs.
func (c *Cache) Drop(j *job.Job) {
	c.adapters.Remove(j.ID)
}

// Len returns the number of cached adapters.
func (c *Cache) Len() int {
	return c.adapters.Len()
}

// Purge evicts every adapter, stopping each runtime.
func (c *Cache) Purge() {
	c.adapters.Purge()
}
