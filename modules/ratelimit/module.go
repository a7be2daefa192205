// Package ratelimit provides a filter plugin that admits jobs at a bounded
// rate using a token bucket.
package ratelimit

import (
	"context"
	"fmt"
	"reflect"

	"golang.org/x/time/rate"

	"github.com/vk/plugridgo/internal/capability"
	"github.com/vk/plugridgo/internal/job"
	"github.com/vk/plugridgo/internal/runtime"
)

// Module implements the runtime.Module interface for this package.
type Module struct{}

// Settings defines the manifest settings for the rate-limit filter.
type Settings struct {
	// PerSecond is the sustained admission rate.
	PerSecond float64 `hcl:"per_second"`

	// Burst is the bucket size. Defaults to 1 when omitted.
	Burst int `hcl:"burst,optional"`
}

// Filter admits jobs while the token bucket has capacity and rejects the
// rest. Rejection is not an error; the caller decides fallback behavior.
type Filter struct {
	capability.Marker
	limiter *rate.Limiter
}

// NewFilter builds a rate-limit filter from decoded settings.
func NewFilter(settings *Settings) (*Filter, error) {
	if settings.PerSecond <= 0 {
		return nil, fmt.Errorf("per_second must be positive, got %v", settings.PerSecond)
	}
	burst := settings.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Filter{limiter: rate.NewLimiter(rate.Limit(settings.PerSecond), burst)}, nil
}

// Apply implements extpoint.Filter.
func (f *Filter) Apply(ctx context.Context, j *job.Job) (bool, error) {
	return f.limiter.Allow(), nil
}

// Register registers the constructor with the runtime.
func (m *Module) Register(r *runtime.FactoryRegistry) {
	r.RegisterConstructor("NewRateLimitFilter", &runtime.Constructor{
		NewSettings:  func() any { return new(Settings) },
		SettingsType: reflect.TypeOf(Settings{}),
		New: func(ctx context.Context, settings any) (any, error) {
			return NewFilter(settings.(*Settings))
		},
	})
}
