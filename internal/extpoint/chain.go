package extpoint

import (
	"context"
	"errors"
	"reflect"

	"github.com/vk/plugridgo/internal/capability"
	"github.com/vk/plugridgo/internal/ctxlog"
	"github.com/vk/plugridgo/internal/job"
)

// FilterChain applies filters in sequence. A job is admitted only when every
// filter admits it; the first rejection or error stops the chain.
type FilterChain struct {
	capability.Marker
	filters []Filter
}

// NewFilterChain creates a chain over the given filters, in order.
func NewFilterChain(filters ...Filter) *FilterChain {
	return &FilterChain{filters: filters}
}

// Apply implements Filter.
func (c *FilterChain) Apply(ctx context.Context, j *job.Job) (bool, error) {
	for _, f := range c.filters {
		ok, err := f.Apply(ctx, j)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// DecoratorChain applies decorators in order. The first error stops the
// chain; earlier decorations are not rolled back.
type DecoratorChain struct {
	capability.Marker
	decorators []Decorator
}

// NewDecoratorChain creates a chain over the given decorators, in order.
func NewDecoratorChain(decorators ...Decorator) *DecoratorChain {
	return &DecoratorChain{decorators: decorators}
}

// Decorate implements Decorator.
func (c *DecoratorChain) Decorate(ctx context.Context, j *job.Job) error {
	for _, d := range c.decorators {
		if err := d.Decorate(ctx, j); err != nil {
			return err
		}
	}
	return nil
}

// NotifierChain fans an event out to every notifier. All notifiers run even
// when some fail; their errors are joined.
type NotifierChain struct {
	capability.Marker
	notifiers []Notifier
}

// NewNotifierChain creates a chain over the given notifiers.
func NewNotifierChain(notifiers ...Notifier) *NotifierChain {
	return &NotifierChain{notifiers: notifiers}
}

// Notify implements Notifier.
func (c *NotifierChain) Notify(ctx context.Context, ev Event) error {
	logger := ctxlog.FromContext(ctx)
	var errs []error
	for _, n := range c.notifiers {
		if err := n.Notify(ctx, ev); err != nil {
			logger.Warn("Notifier failed.", "kind", ev.Kind, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewChain aggregates live implementations of a catalogued point into its
// chain. The boolean is false when the point is not one this package knows
// how to chain, or when an implementation has the wrong type.
func NewChain(point reflect.Type, impls []any) (capability.Point, bool) {
	switch point {
	case capability.TypeOf[Filter]():
		filters := make([]Filter, 0, len(impls))
		for _, impl := range impls {
			f, ok := impl.(Filter)
			if !ok {
				return nil, false
			}
			filters = append(filters, f)
		}
		return NewFilterChain(filters...), true
	case capability.TypeOf[Decorator]():
		decorators := make([]Decorator, 0, len(impls))
		for _, impl := range impls {
			d, ok := impl.(Decorator)
			if !ok {
				return nil, false
			}
			decorators = append(decorators, d)
		}
		return NewDecoratorChain(decorators...), true
	case capability.TypeOf[Notifier]():
		notifiers := make([]Notifier, 0, len(impls))
		for _, impl := range impls {
			n, ok := impl.(Notifier)
			if !ok {
				return nil, false
			}
			notifiers = append(notifiers, n)
		}
		return NewNotifierChain(notifiers...), true
	}
	return nil, false
}
