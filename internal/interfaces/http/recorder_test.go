package http

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garyjia/billed/internal/application/service"
)

type reporterFunc func(ctx context.Context, err error)

func (f reporterFunc) Report(ctx context.Context, err error) { f(ctx, err) }

func TestRecorder_DrainResets(t *testing.T) {
	var forwarded error
	r := NewRecorder(reporterFunc(func(ctx context.Context, err error) { forwarded = err }))
	ctx := context.Background()

	r.Warn(ctx, "first")
	r.Warn(ctx, "second")
	r.ClearFileInput(ctx)
	r.Navigate(ctx, "#employee/bills")
	r.Report(ctx, errors.New("Erreur 404"))

	events := r.Drain()
	assert.Equal(t, []string{"first", "second"}, events.Warnings)
	assert.True(t, events.FileInputCleared)
	assert.Equal(t, "#employee/bills", events.NavigateTo)
	assert.Equal(t, "Erreur 404", events.Error)
	assert.EqualError(t, forwarded, "Erreur 404")

	assert.Equal(t, UIEvents{}, r.Drain())
}

func TestDraftRegistry(t *testing.T) {
	registry := NewDraftRegistry(func(ui *Recorder) service.NewBillWorkflow {
		return service.NewNewBillWorkflow(service.WorkflowDeps{Notifier: ui, Navigator: ui, Reporter: ui, Logger: nopLogger{}})
	}, nil)

	a, _ := registry.Open()
	b, _ := registry.Open()
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, registry.Len())

	_, err := registry.Get(a)
	assert.NoError(t, err)
	assert.NoError(t, registry.Close(a))
	assert.ErrorIs(t, registry.Close(a), ErrDraftNotFound)
	_, err = registry.Get(a)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.Equal(t, 1, registry.Len())
}
