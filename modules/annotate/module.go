// Package annotate provides a decorator plugin that stamps configured
// metadata onto every job before dispatch.
package annotate

import (
	"context"
	"reflect"

	"github.com/vk/plugridgo/internal/capability"
	"github.com/vk/plugridgo/internal/job"
	"github.com/vk/plugridgo/internal/runtime"
)

// Module implements the runtime.Module interface for this package.
type Module struct{}

// Settings defines the manifest settings for the annotate decorator.
type Settings struct {
	// Tags are copied into each job's metadata. Existing entries with the
	// same key are not overwritten.
	Tags map[string]string `hcl:"tags"`
}

// Decorator adds static tags to jobs.
type Decorator struct {
	capability.Marker
	tags map[string]string
}

// NewDecorator builds an annotate decorator from decoded settings.
func NewDecorator(settings *Settings) *Decorator {
	return &Decorator{tags: settings.Tags}
}

// Decorate implements extpoint.Decorator.
func (d *Decorator) Decorate(ctx context.Context, j *job.Job) error {
	for key, value := range d.tags {
		if j.Meta(key) == "" {
			j.SetMeta(key, value)
		}
	}
	return nil
}

// Register registers the constructor with the runtime.
func (m *Module) Register(r *runtime.FactoryRegistry) {
	r.RegisterConstructor("NewAnnotateDecorator", &runtime.Constructor{
		NewSettings:  func() any { return new(Settings) },
		SettingsType: reflect.TypeOf(Settings{}),
		New: func(ctx context.Context, settings any) (any, error) {
			return NewDecorator(settings.(*Settings)), nil
		},
	})
}
