// Package extpoint defines the extension points of the job-processing
// application and the chain types that aggregate their implementations.
//
// Each extension point is a small interface embedding capability.Point.
// Plugins opt in to a capability by implementing its interface; the chain
// type for each point combines every live implementation into one callable.
package extpoint

import (
	"context"
	"time"

	"github.com/vk/plugridgo/internal/capability"
	"github.com/vk/plugridgo/internal/job"
)

// Filter decides whether a job may proceed. Returning false rejects the job;
// an error aborts evaluation entirely.
type Filter interface {
	capability.Point
	Apply(ctx context.Context, j *job.Job) (bool, error)
}

// Decorator annotates a job before it is dispatched, typically by mutating
// its metadata.
type Decorator interface {
	capability.Point
	Decorate(ctx context.Context, j *job.Job) error
}

// Event is a job lifecycle occurrence delivered to notifiers.
type Event struct {
	Kind string    `json:"kind"`
	Job  *job.Job  `json:"job"`
	At   time.Time `json:"at"`
}

// Notifier observes job lifecycle events.
type Notifier interface {
	capability.Point
	Notify(ctx context.Context, ev Event) error
}

// NewCatalog builds the default capability catalog: each extension point of
// the application paired with its chain type.
func NewCatalog() *capability.Catalog {
	c := capability.NewCatalog()
	c.Register(capability.TypeOf[Filter](), capability.TypeOf[*FilterChain]())
	c.Register(capability.TypeOf[Decorator](), capability.TypeOf[*DecoratorChain]())
	c.Register(capability.TypeOf[Notifier](), capability.TypeOf[*NotifierChain]())
	return c
}
