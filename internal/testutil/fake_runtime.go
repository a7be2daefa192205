package testutil

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/plugridgo/internal/job"
	"github.com/vk/plugridgo/internal/runtime"
)

// FakeRuntime is an in-memory runtime.Runtime whose starts are counted by
// its factory, for asserting at-most-once initialization semantics.
type FakeRuntime struct {
	factory *CountingFactory

	mu       sync.Mutex
	started  bool
	stopped  bool
	services []runtime.Service
}

// Start implements runtime.Runtime.
func (f *FakeRuntime) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return runtime.ErrStopped
	}
	if f.started {
		return nil
	}
	if f.factory.StartDelay > 0 {
		time.Sleep(f.factory.StartDelay)
	}
	if f.factory.StartErr != nil {
		return f.factory.StartErr
	}
	f.factory.starts.Add(1)
	f.started = true
	return nil
}

// Stop implements runtime.Runtime.
func (f *FakeRuntime) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return nil
	}
	f.stopped = true
	f.factory.stops.Add(1)
	return f.factory.StopErr
}

// Stopped reports whether the runtime has been stopped.
func (f *FakeRuntime) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// Services implements runtime.Runtime.
func (f *FakeRuntime) Services(point reflect.Type) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []any
	for _, s := range f.services {
		if point != nil && point.Kind() == reflect.Interface && reflect.TypeOf(s.Instance).Implements(point) {
			out = append(out, s.Instance)
		}
	}
	return out
}

// Instances implements runtime.Runtime.
func (f *FakeRuntime) Instances() []runtime.Service {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]runtime.Service, len(f.services))
	copy(out, f.services)
	return out
}

// CountingFactory is a runtime.Factory producing FakeRuntimes. It counts
// runtime starts and stops across every runtime it has produced.
type CountingFactory struct {
	// StartDelay widens the first-access race window in concurrency tests.
	StartDelay time.Duration

	// NewErr, when set, fails adapter creation.
	NewErr error

	// StartErr, when set, fails runtime startup.
	StartErr error

	// StopErr, when set, fails runtime teardown.
	StopErr error

	// Services seeds every produced runtime's live services.
	Services []runtime.Service

	mu       sync.Mutex
	runtimes []*FakeRuntime
	starts   atomic.Int32
	stops    atomic.Int32
}

// New implements runtime.Factory.
func (c *CountingFactory) New(ctx context.Context, j *job.Job) (runtime.Runtime, error) {
	if c.NewErr != nil {
		return nil, c.NewErr
	}
	rt := &FakeRuntime{factory: c, services: c.Services}
	c.mu.Lock()
	c.runtimes = append(c.runtimes, rt)
	c.mu.Unlock()
	return rt, nil
}

// Starts returns how many runtime starts have completed.
func (c *CountingFactory) Starts() int32 {
	return c.starts.Load()
}

// Stops returns how many runtime stops have completed.
func (c *CountingFactory) Stops() int32 {
	return c.stops.Load()
}

// Runtimes returns every runtime the factory has produced.
func (c *CountingFactory) Runtimes() []*FakeRuntime {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*FakeRuntime, len(c.runtimes))
	copy(out, c.runtimes)
	return out
}
