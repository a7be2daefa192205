// Package shutdown maintains the process-wide list of cleanup hooks run
// before the process exits. Runtime adapters register their teardown here;
// the CLI runs the hooks once when the application is done or interrupted.
package shutdown

import (
	"context"
	"errors"
	"sync"

	"github.com/vk/plugridgo/internal/ctxlog"
)

// Hook is a single cleanup function.
type Hook func(ctx context.Context) error

// Hooks is a concurrency-safe hook list. Hooks run in reverse registration
// order, mirroring construction order. Run executes each hook exactly once;
// hooks registered after Run are never executed.
type Hooks struct {
	mu   sync.Mutex
	fns  []Hook
	done bool
}

// New creates an empty hook list.
func New() *Hooks {
	return &Hooks{}
}

// Register appends a cleanup hook and returns a deregister function for
// callers that tear down eagerly, so the hook list does not grow without
// bound in a long-running process. Registration after Run is a no-op.
func (h *Hooks) Register(fn Hook) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return func() {}
	}
	h.fns = append(h.fns, fn)
	i := len(h.fns) - 1
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if i < len(h.fns) {
			h.fns[i] = nil
		}
	}
}

// Run executes all hooks in reverse order. A failing hook is logged and its
// error joined into the result; remaining hooks still run. Subsequent calls
// are no-ops.
func (h *Hooks) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return nil
	}
	h.done = true
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	var errs []error
	for i := len(fns) - 1; i >= 0; i-- {
		if fns[i] == nil {
			continue // deregistered
		}
		if err := fns[i](ctx); err != nil {
			logger.Error("Shutdown hook failed.", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of pending hooks.
func (h *Hooks) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, fn := range h.fns {
		if fn != nil {
			n++
		}
	}
	return n
}
