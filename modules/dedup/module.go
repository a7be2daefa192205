// Package dedup provides a filter plugin that rejects jobs whose
// deduplication key has already been seen.
package dedup

import (
	"context"
	"reflect"
	"sync"

	"github.com/vk/plugridgo/internal/capability"
	"github.com/vk/plugridgo/internal/ctxlog"
	"github.com/vk/plugridgo/internal/job"
	"github.com/vk/plugridgo/internal/runtime"
)

// Module implements the runtime.Module interface for this package.
type Module struct{}

// Settings defines the manifest settings for the dedup filter.
type Settings struct {
	// KeyMeta names the metadata entry used as the deduplication key.
	// When empty, the job name is the key.
	KeyMeta string `hcl:"key_meta,optional"`

	// Window caps how many keys are remembered. Oldest keys are forgotten
	// first once the window is full.
	Window int `hcl:"window,optional"`
}

// Filter rejects jobs whose key was already admitted.
type Filter struct {
	capability.Marker

	mu      sync.Mutex
	keyMeta string
	window  int
	seen    map[string]struct{}
	order   []string
}

// NewFilter builds a dedup filter from decoded settings.
func NewFilter(settings *Settings) *Filter {
	window := settings.Window
	if window <= 0 {
		window = 1024
	}
	return &Filter{
		keyMeta: settings.KeyMeta,
		window:  window,
		seen:    make(map[string]struct{}),
	}
}

// Apply implements extpoint.Filter.
func (f *Filter) Apply(ctx context.Context, j *job.Job) (bool, error) {
	key := j.Name
	if f.keyMeta != "" {
		key = j.Meta(f.keyMeta)
	}
	if key == "" {
		// Jobs without a key are never deduplicated.
		return true, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.seen[key]; dup {
		ctxlog.FromContext(ctx).Debug("Duplicate job rejected.", "key", key, "job", j.ID)
		return false, nil
	}

	f.seen[key] = struct{}{}
	f.order = append(f.order, key)
	if len(f.order) > f.window {
		oldest := f.order[0]
		f.order = f.order[1:]
		delete(f.seen, oldest)
	}
	return true, nil
}

// Register registers the constructor with the runtime.
func (m *Module) Register(r *runtime.FactoryRegistry) {
	r.RegisterConstructor("NewDedupFilter", &runtime.Constructor{
		NewSettings:  func() any { return new(Settings) },
		SettingsType: reflect.TypeOf(Settings{}),
		New: func(ctx context.Context, settings any) (any, error) {
			return NewFilter(settings.(*Settings)), nil
		},
	})
}
