package extpoint_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/plugridgo/internal/capability"
	"github.com/vk/plugridgo/internal/extpoint"
	"github.com/vk/plugridgo/internal/job"
)

type stubFilter struct {
	capability.Marker
	admit bool
	err   error
	calls int
}

func (f *stubFilter) Apply(ctx context.Context, j *job.Job) (bool, error) {
	f.calls++
	return f.admit, f.err
}

type stubDecorator struct {
	capability.Marker
	key string
	err error
}

func (d *stubDecorator) Decorate(ctx context.Context, j *job.Job) error {
	if d.err != nil {
		return d.err
	}
	j.SetMeta(d.key, "set")
	j.SetMeta("order", j.Meta("order")+d.key)
	return nil
}

type stubNotifier struct {
	capability.Marker
	err   error
	calls int
}

func (n *stubNotifier) Notify(ctx context.Context, ev extpoint.Event) error {
	n.calls++
	return n.err
}

func TestFilterChain_AllAdmit(t *testing.T) {
	t.Parallel()

	a, b := &stubFilter{admit: true}, &stubFilter{admit: true}
	chain := extpoint.NewFilterChain(a, b)

	ok, err := chain.Apply(context.Background(), job.New("j", nil))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, a.calls)
	require.Equal(t, 1, b.calls)
}

func TestFilterChain_FirstRejectionStops(t *testing.T) {
	t.Parallel()

	a, b := &stubFilter{admit: false}, &stubFilter{admit: true}
	chain := extpoint.NewFilterChain(a, b)

	ok, err := chain.Apply(context.Background(), job.New("j", nil))
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, b.calls, "rejection short-circuits the chain")
}

func TestFilterChain_ErrorAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	a, b := &stubFilter{admit: true, err: boom}, &stubFilter{admit: true}
	chain := extpoint.NewFilterChain(a, b)

	ok, err := chain.Apply(context.Background(), job.New("j", nil))
	require.ErrorIs(t, err, boom)
	require.False(t, ok)
	require.Equal(t, 0, b.calls)
}

func TestDecoratorChain_AppliesInOrder(t *testing.T) {
	t.Parallel()

	chain := extpoint.NewDecoratorChain(&stubDecorator{key: "a"}, &stubDecorator{key: "b"})
	j := job.New("j", nil)

	require.NoError(t, chain.Decorate(context.Background(), j))
	require.Equal(t, "ab", j.Meta("order"))
}

func TestNotifierChain_FansOutAndJoinsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	a, b := &stubNotifier{err: boom}, &stubNotifier{}
	chain := extpoint.NewNotifierChain(a, b)

	err := chain.Notify(context.Background(), extpoint.Event{Kind: "job.enqueued", Job: job.New("j", nil)})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, a.calls)
	require.Equal(t, 1, b.calls, "every notifier runs even when one fails")
}

func TestNewChain_AggregatesByPoint(t *testing.T) {
	t.Parallel()

	impls := []any{&stubFilter{admit: true}, &stubFilter{admit: false}}
	chain, ok := extpoint.NewChain(capability.TypeOf[extpoint.Filter](), impls)
	require.True(t, ok)

	filter, isFilter := chain.(extpoint.Filter)
	require.True(t, isFilter)

	admitted, err := filter.Apply(context.Background(), job.New("j", nil))
	require.NoError(t, err)
	require.False(t, admitted)
}

func TestNewChain_UnknownPoint(t *testing.T) {
	t.Parallel()

	_, ok := extpoint.NewChain(capability.TypeOf[capability.Point](), nil)
	require.False(t, ok)
}

func TestCatalog_ChainsSatisfyTheirPoints(t *testing.T) {
	t.Parallel()

	c := extpoint.NewCatalog()
	require.Len(t, c.Points(), 3)

	var _ extpoint.Filter = (*extpoint.FilterChain)(nil)
	var _ extpoint.Decorator = (*extpoint.DecoratorChain)(nil)
	var _ extpoint.Notifier = (*extpoint.NotifierChain)(nil)
}
