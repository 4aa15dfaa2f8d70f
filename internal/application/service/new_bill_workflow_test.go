package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/draft"
	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/domain/workflow"
)

const employeeEmail = "employee@test.tld"

func newTestWorkflow(store port.BillStore, ui *mockUI) NewBillWorkflow {
	return NewNewBillWorkflow(WorkflowDeps{
		Store:     store,
		Session:   &mockSession{user: &entity.User{Type: "Employee", Email: employeeEmail}},
		Notifier:  ui,
		Navigator: ui,
		Reporter:  ui,
		Logger:    &mockLogger{},
	})
}

func receipt(name string) draft.FileSelection {
	return draft.FileSelection{Path: name, ContentType: "image/jpg", Content: []byte(name)}
}

func sampleForm() draft.FormSnapshot {
	return draft.FormSnapshot{
		draft.FieldType:       entity.ExpenseTypeTransport,
		draft.FieldName:       "Vol Paris Londres",
		draft.FieldDate:       "2022-02-15",
		draft.FieldAmount:     "348",
		draft.FieldVAT:        "70",
		draft.FieldPct:        "",
		draft.FieldCommentary: "séminaire billed",
	}
}

func TestNewBillWorkflow_SelectValidReceipt(t *testing.T) {
	ui := &mockUI{}
	wf := newTestWorkflow(&mockStore{}, ui)

	err := wf.SelectFile(context.Background(), receipt("image.jpg"))

	require.NoError(t, err)
	assert.Empty(t, ui.warnings)
	d := wf.Draft()
	assert.True(t, d.IsFileValid())
	require.NotNil(t, d.Staged)
	assert.Equal(t, employeeEmail, d.Staged.Email)
	assert.Equal(t, "image.jpg", d.FileName)
}

func TestNewBillWorkflow_SelectInvalidReceipt(t *testing.T) {
	ui := &mockUI{}
	wf := newTestWorkflow(&mockStore{}, ui)

	err := wf.SelectFile(context.Background(), receipt("image.pdf"))

	require.NoError(t, err)
	assert.Equal(t, []string{draft.InvalidReceiptWarning}, ui.warnings)
	assert.Equal(t, 1, ui.cleared)
	assert.Nil(t, wf.Draft().Staged)
	assert.False(t, wf.Draft().IsFileValid())
}

func TestNewBillWorkflow_SubmitWithoutValidReceiptMakesNoRemoteCall(t *testing.T) {
	store := &mockStore{}
	ui := &mockUI{}
	wf := newTestWorkflow(store, ui)
	require.NoError(t, wf.SelectFile(context.Background(), receipt("image.pdf")))

	err := wf.Submit(context.Background(), sampleForm())

	assert.ErrorIs(t, err, draft.ErrNoValidReceipt)
	assert.Empty(t, store.createCalls())
	assert.Empty(t, store.updateCalls())
	assert.Empty(t, ui.routes)
}

func TestNewBillWorkflow_SubmitCreatesThenFinalizes(t *testing.T) {
	store := &mockStore{
		createFunc: func(ctx context.Context, upload entity.ReceiptUpload) (*entity.CreatedFile, error) {
			return &entity.CreatedFile{FileURL: "u", Key: "k"}, nil
		},
	}
	ui := &mockUI{}
	wf := newTestWorkflow(store, ui)
	require.NoError(t, wf.SelectFile(context.Background(), receipt("image.jpg")))

	err := wf.Submit(context.Background(), sampleForm())

	require.NoError(t, err)
	require.Len(t, store.createCalls(), 1)
	assert.Equal(t, employeeEmail, store.createCalls()[0].Email)
	assert.Equal(t, "image.jpg", store.createCalls()[0].FileName)

	updates := store.updateCalls()
	require.Len(t, updates, 1)
	assert.Equal(t, "k", updates[0].Selector)

	var sent entity.Bill
	require.NoError(t, json.Unmarshal(updates[0].Data, &sent))
	assert.Equal(t, "u", sent.FileURL)
	assert.Equal(t, "image.jpg", sent.FileName)
	assert.Equal(t, employeeEmail, sent.Email)
	assert.Equal(t, 348, sent.Amount)
	assert.Equal(t, entity.DefaultPct, sent.Pct)
	assert.Equal(t, entity.StatusPending, sent.Status)

	assert.Equal(t, []string{entity.RouteBills}, ui.routes)
	assert.Empty(t, ui.reported)
	d := wf.Draft()
	assert.Equal(t, workflow.StateFinalized, d.State)
	assert.Equal(t, "k", d.PendingBillID)
	assert.Equal(t, "u", d.FileURL)
}

func TestNewBillWorkflow_CreateRejected(t *testing.T) {
	cause := errors.New("Erreur 500")
	store := &mockStore{
		createFunc: func(ctx context.Context, upload entity.ReceiptUpload) (*entity.CreatedFile, error) {
			return nil, cause
		},
	}
	ui := &mockUI{}
	wf := newTestWorkflow(store, ui)
	require.NoError(t, wf.SelectFile(context.Background(), receipt("image.png")))

	err := wf.Submit(context.Background(), sampleForm())

	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, store.updateCalls())
	assert.Empty(t, ui.routes)
	require.Len(t, ui.reported, 1)
	assert.Same(t, cause, ui.reported[0])

	d := wf.Draft()
	assert.Equal(t, workflow.StateFailed, d.State)
	assert.Empty(t, d.PendingBillID)
	assert.True(t, d.IsFileValid())
}

func TestNewBillWorkflow_CreateWithoutKeyIsRemoteFault(t *testing.T) {
	results := map[string]*entity.CreatedFile{
		"nil result": nil,
		"empty key":  {FileURL: "https://localhost:3456/images/test.jpg"},
	}
	for name, result := range results {
		t.Run(name, func(t *testing.T) {
			store := &mockStore{
				createFunc: func(ctx context.Context, upload entity.ReceiptUpload) (*entity.CreatedFile, error) {
					return result, nil
				},
			}
			ui := &mockUI{}
			wf := newTestWorkflow(store, ui)
			require.NoError(t, wf.SelectFile(context.Background(), receipt("image.jpg")))

			var err error
			assert.NotPanics(t, func() { err = wf.Submit(context.Background(), sampleForm()) })

			assert.ErrorIs(t, err, ErrSubmissionFailed)
			assert.ErrorIs(t, err, ErrNoBillKey)
			assert.Empty(t, store.updateCalls())
			assert.Empty(t, ui.routes)
			require.Len(t, ui.reported, 1)
			assert.ErrorIs(t, ui.reported[0], ErrNoBillKey)
			assert.Equal(t, workflow.StateFailed, wf.Draft().State)
			assert.Empty(t, wf.Draft().PendingBillID)
		})
	}
}

func TestNewBillWorkflow_UpdateRejected(t *testing.T) {
	cause := errors.New("Erreur 404")
	store := &mockStore{
		updateFunc: func(ctx context.Context, req port.UpdateRequest) (*entity.Bill, error) {
			return nil, cause
		},
	}
	ui := &mockUI{}
	wf := newTestWorkflow(store, ui)
	require.NoError(t, wf.SelectFile(context.Background(), receipt("image.jpeg")))

	err := wf.Submit(context.Background(), sampleForm())

	assert.ErrorIs(t, err, cause)
	assert.Len(t, store.updateCalls(), 1)
	assert.Empty(t, ui.routes)
	require.Len(t, ui.reported, 1)
	assert.Same(t, cause, ui.reported[0])
	assert.Equal(t, workflow.StateFailed, wf.Draft().State)
	assert.Equal(t, "1234", wf.Draft().PendingBillID)
}

func TestNewBillWorkflow_FreshSubmissionAfterFailure(t *testing.T) {
	calls := 0
	store := &mockStore{
		createFunc: func(ctx context.Context, upload entity.ReceiptUpload) (*entity.CreatedFile, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("network down")
			}
			return &entity.CreatedFile{FileURL: "u2", Key: "k2"}, nil
		},
	}
	ui := &mockUI{}
	wf := newTestWorkflow(store, ui)
	require.NoError(t, wf.SelectFile(context.Background(), receipt("image.jpg")))

	require.Error(t, wf.Submit(context.Background(), sampleForm()))
	assert.Empty(t, ui.routes)

	require.NoError(t, wf.Submit(context.Background(), sampleForm()))
	assert.Equal(t, []string{entity.RouteBills}, ui.routes)
	assert.Equal(t, "k2", store.updateCalls()[0].Selector)
}

func TestNewBillWorkflow_OverlappingSubmitIsRejected(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	store := &mockStore{
		createFunc: func(ctx context.Context, upload entity.ReceiptUpload) (*entity.CreatedFile, error) {
			close(entered)
			<-release
			return &entity.CreatedFile{FileURL: "u", Key: "k"}, nil
		},
	}
	wf := newTestWorkflow(store, &mockUI{})
	require.NoError(t, wf.SelectFile(context.Background(), receipt("image.jpg")))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = wf.Submit(context.Background(), sampleForm())
	}()
	<-entered

	err := wf.Submit(context.Background(), sampleForm())
	close(release)
	wg.Wait()

	assert.ErrorIs(t, err, draft.ErrSubmissionInFlight)
	assert.NoError(t, firstErr)
	assert.Len(t, store.createCalls(), 1)
	assert.Len(t, store.updateCalls(), 1)
}

func TestNewBillWorkflow_InvalidReceiptDuringSubmissionStillWarns(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	store := &mockStore{
		createFunc: func(ctx context.Context, upload entity.ReceiptUpload) (*entity.CreatedFile, error) {
			close(entered)
			<-release
			return &entity.CreatedFile{FileURL: "u", Key: "k"}, nil
		},
	}
	ui := &mockUI{}
	wf := newTestWorkflow(store, ui)
	require.NoError(t, wf.SelectFile(context.Background(), receipt("image.jpg")))

	var wg sync.WaitGroup
	var submitErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		submitErr = wf.Submit(context.Background(), sampleForm())
	}()
	<-entered

	err := wf.SelectFile(context.Background(), receipt("notes.pdf"))
	assert.Equal(t, []string{draft.InvalidReceiptWarning}, ui.warnings)
	assert.Equal(t, 1, ui.cleared)

	close(release)
	wg.Wait()

	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.NoError(t, submitErr)
	assert.Equal(t, "image.jpg", wf.Draft().FileName)
	assert.Equal(t, []string{entity.RouteBills}, ui.routes)
}

func TestNewBillWorkflow_SubmitWithoutStore(t *testing.T) {
	ui := &mockUI{}
	wf := newTestWorkflow(nil, ui)
	require.NoError(t, wf.SelectFile(context.Background(), receipt("image.jpg")))

	err := wf.Submit(context.Background(), sampleForm())

	assert.ErrorIs(t, err, ErrStoreNotConfigured)
	assert.Equal(t, workflow.StateStaged, wf.Draft().State)
	assert.Empty(t, ui.routes)
}

func TestNewBillWorkflow_MissingSessionBlocksStaging(t *testing.T) {
	ui := &mockUI{}
	wf := NewNewBillWorkflow(WorkflowDeps{
		Store:     &mockStore{},
		Session:   &mockSession{err: errors.New("no user in session")},
		Notifier:  ui,
		Navigator: ui,
		Reporter:  ui,
		Logger:    &mockLogger{},
	})

	err := wf.SelectFile(context.Background(), receipt("image.jpg"))
	assert.ErrorIs(t, err, draft.ErrMissingIdentity)

	// an invalid file is still reported to the user
	require.NoError(t, wf.SelectFile(context.Background(), receipt("image.pdf")))
	assert.Len(t, ui.warnings, 1)
}
