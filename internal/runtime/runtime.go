package runtime

import (
	"context"
	"reflect"

	"github.com/vk/plugridgo/internal/job"
)

// Service is one live plugin instance held by a running runtime.
type Service struct {
	// Name is the plugin type from the manifest.
	Name string

	// Instance is the constructed plugin value.
	Instance any

	// Source is the manifest file the plugin was deployed from.
	Source string
}

// Runtime is a startable, stoppable module runtime scoped to one job.
type Runtime interface {
	// Start boots the runtime. Starting an already-running runtime is a
	// no-op; starting a stopped runtime is an error, runtimes are never
	// restarted.
	Start(ctx context.Context) error

	// Stop tears the runtime down. Stop is idempotent.
	Stop(ctx context.Context) error

	// Services returns the live instances implementing the given
	// capability interface, in deployment order. An empty result is a
	// normal outcome.
	Services(point reflect.Type) []any

	// Instances returns every live service, for classification tooling.
	Instances() []Service
}

// Factory produces a runtime instance scoped to a job. The extension cache
// calls it once per distinct job identity.
type Factory interface {
	New(ctx context.Context, j *job.Job) (Runtime, error)
}
