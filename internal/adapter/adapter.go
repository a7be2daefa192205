// Package adapter provides the per-job handle to the module runtime: a
// loaded adapter owns one running runtime instance and answers extension
// queries against it.
package adapter

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/vk/plugridgo/internal/job"
	"github.com/vk/plugridgo/internal/runtime"
	"github.com/vk/plugridgo/internal/shutdown"
)

// Adapter binds one job to one runtime instance.
type Adapter struct {
	mu         sync.Mutex
	j          *job.Job
	rt         runtime.Runtime
	hooks      *shutdown.Hooks
	loaded     bool
	deregister func()
}

// New creates an unloaded adapter. The runtime is not started until Load.
func New(j *job.Job, rt runtime.Runtime, hooks *shutdown.Hooks) *Adapter {
	return &Adapter{j: j, rt: rt, hooks: hooks}
}

// Load starts the runtime for this adapter's job and registers its teardown
// as a process-exit hook. Load is idempotent; a startup failure propagates
// and leaves the adapter unloaded. A failure to stop the runtime at exit is
// surfaced through the hook's error, never swallowed.
func (a *Adapter) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.loaded {
		return nil
	}
	if err := a.rt.Start(ctx); err != nil {
		return fmt.Errorf("failed to start extension runtime for job %s: %w", a.j, err)
	}

	a.deregister = a.hooks.Register(func(ctx context.Context) error {
		if err := a.rt.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop extension runtime for job %s: %w", a.j, err)
		}
		return nil
	})

	a.loaded = true
	return nil
}

// GetExtension returns the first live implementation of the given extension
// point, in the runtime's stable service order. ok is false when no
// implementation is registered; that is a normal outcome, not an error.
func (a *Adapter) GetExtension(point reflect.Type) (any, bool) {
	impls := a.rt.Services(point)
	if len(impls) == 0 {
		return nil, false
	}
	return impls[0], true
}

// GetExtensions returns every live implementation of the given point, in
// stable order. Chain types aggregate over this.
func (a *Adapter) GetExtensions(point reflect.Type) []any {
	return a.rt.Services(point)
}

// Instances exposes the runtime's live services for classification tooling.
func (a *Adapter) Instances() []runtime.Service {
	return a.rt.Instances()
}

// Stop tears the adapter's runtime down eagerly, ahead of process exit,
// and releases its slot in the exit-hook list. Without the release, a
// process with heavy eviction churn would accumulate one dead hook per job
// ever seen.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	deregister := a.deregister
	a.deregister = nil
	a.mu.Unlock()
	if deregister != nil {
		deregister()
	}
	return a.rt.Stop(ctx)
}

// Job returns the job this adapter is scoped to.
func (a *Adapter) Job() *job.Job {
	return a.j
}
