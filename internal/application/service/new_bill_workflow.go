package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/draft"
	"github.com/garyjia/billed/internal/domain/event"
)

var (
	// ErrStoreNotConfigured is returned when a remote call is needed but no store is set
	ErrStoreNotConfigured = errors.New("store not configured")

	// ErrSubmissionFailed wraps a rejected create or update call
	ErrSubmissionFailed = errors.New("submission failed")

	// ErrNoBillKey is reported when the store accepts a receipt without naming the bill
	ErrNoBillKey = errors.New("store returned no bill key")
)

// NewBillWorkflow drives one new bill draft from receipt selection to finalization
type NewBillWorkflow interface {
	// SelectFile validates and stages a receipt
	SelectFile(ctx context.Context, sel draft.FileSelection) error

	// Submit runs the create then finalize protocol against the store
	Submit(ctx context.Context, form draft.FormSnapshot) error

	// Draft returns a copy of the current draft
	Draft() draft.Draft
}

// WorkflowDeps groups the collaborators of a NewBillWorkflow
type WorkflowDeps struct {
	Store     port.BillStore
	Session   port.SessionProvider
	Notifier  port.Notifier
	Navigator port.Navigator
	Reporter  port.ErrorReporter
	// Events is optional
	Events port.EventPublisher
	Logger Logger
}

type newBillWorkflowImpl struct {
	mu    sync.Mutex
	draft draft.Draft
	// correlation ties the events of one submission together
	correlation string
	email       string

	store     port.BillStore
	session   port.SessionProvider
	notifier  port.Notifier
	navigator port.Navigator
	reporter  port.ErrorReporter
	events    port.EventPublisher
	logger    Logger
}

// NewNewBillWorkflow opens a workflow on an empty draft
func NewNewBillWorkflow(deps WorkflowDeps) NewBillWorkflow {
	return &newBillWorkflowImpl{
		draft:     draft.New(),
		store:     deps.Store,
		session:   deps.Session,
		notifier:  deps.Notifier,
		navigator: deps.Navigator,
		reporter:  deps.Reporter,
		events:    deps.Events,
		logger:    deps.Logger,
	}
}

func (w *newBillWorkflowImpl) Draft() draft.Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

func (w *newBillWorkflowImpl) SelectFile(ctx context.Context, sel draft.FileSelection) error {
	email := w.currentEmail(ctx)

	effects, err := w.apply(func(d draft.Draft) (draft.Draft, []draft.Effect, error) {
		return draft.SelectFile(d, sel, email)
	})
	if err != nil {
		w.logger.Error("Failed to select receipt", "error", err, "path", sel.Path)
		if runErr := w.run(ctx, effects); runErr != nil {
			return runErr
		}
		return err
	}

	d := w.Draft()
	w.logger.Info("Receipt selected",
		"file_name", d.FileName,
		"validity", d.FileValidity.String(),
		"state", d.State.String())
	return w.run(ctx, effects)
}

func (w *newBillWorkflowImpl) Submit(ctx context.Context, form draft.FormSnapshot) error {
	if w.store == nil {
		return ErrStoreNotConfigured
	}
	email := w.currentEmail(ctx)

	effects, err := w.apply(func(d draft.Draft) (draft.Draft, []draft.Effect, error) {
		next, effects, err := draft.BeginSubmit(d, form, email)
		if err == nil {
			w.correlation = uuid.NewString()
			w.email = email
		}
		return next, effects, err
	})
	if err != nil {
		w.logger.Info("Submission not started", "reason", err.Error())
		return err
	}

	w.logger.Info("Submitting bill", "email", email)
	return w.run(ctx, effects)
}

// apply runs a transition under the lock and stores its result. A failed
// transition leaves the draft alone but still hands back its effects.
func (w *newBillWorkflowImpl) apply(transition func(draft.Draft) (draft.Draft, []draft.Effect, error)) ([]draft.Effect, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, effects, err := transition(w.draft)
	if err != nil {
		return effects, err
	}
	w.draft = next
	return effects, nil
}

// run performs effects in order. Remote calls are made without holding the lock;
// the SUBMITTING state already keeps other submissions out.
func (w *newBillWorkflowImpl) run(ctx context.Context, effects []draft.Effect) error {
	var failure error
	for len(effects) > 0 {
		effect := effects[0]
		effects = effects[1:]

		more, err := w.perform(ctx, effect)
		if err != nil {
			return err
		}
		if report, ok := effect.(draft.ReportError); ok {
			failure = fmt.Errorf("%w during %s: %w", ErrSubmissionFailed, report.Phase, report.Err)
		}
		effects = append(effects, more...)
	}
	return failure
}

func (w *newBillWorkflowImpl) perform(ctx context.Context, effect draft.Effect) ([]draft.Effect, error) {
	switch e := effect.(type) {
	case draft.Warn:
		w.notifier.Warn(ctx, e.Message)
	case draft.ClearFileInput:
		w.notifier.ClearFileInput(ctx)
	case draft.CreateFile:
		return w.create(ctx, e)
	case draft.UpdateBill:
		return w.finalize(ctx, e)
	case draft.Navigate:
		w.navigator.Navigate(ctx, e.Route)
	case draft.ReportError:
		w.logger.Error("Bill submission failed", "phase", string(e.Phase), "error", e.Err)
		w.reporter.Report(ctx, e.Err)
		w.publish(ctx, event.TypeSubmissionFailed, w.Draft().PendingBillID, map[string]interface{}{
			event.KeyPhase: string(e.Phase),
			event.KeyError: e.Err.Error(),
		})
	default:
		return nil, fmt.Errorf("unknown effect %T", effect)
	}
	return nil, nil
}

func (w *newBillWorkflowImpl) create(ctx context.Context, e draft.CreateFile) ([]draft.Effect, error) {
	created, err := w.store.Create(ctx, e.Upload)
	if err == nil && (created == nil || created.Key == "") {
		err = ErrNoBillKey
	}
	if err != nil {
		return w.apply(func(d draft.Draft) (draft.Draft, []draft.Effect, error) {
			return draft.RemoteFailed(d, draft.PhaseCreate, err)
		})
	}

	w.logger.Info("Receipt uploaded", "key", created.Key, "file_url", created.FileURL)
	w.publish(ctx, event.TypeBillCreated, created.Key, map[string]interface{}{event.KeyFileURL: created.FileURL})
	return w.apply(func(d draft.Draft) (draft.Draft, []draft.Effect, error) {
		return draft.CreateSucceeded(d, *created)
	})
}

// finalize issues the update call. Submit has already checked the store.
func (w *newBillWorkflowImpl) finalize(ctx context.Context, e draft.UpdateBill) ([]draft.Effect, error) {
	data, err := json.Marshal(e.Bill)
	if err != nil {
		return nil, fmt.Errorf("serialize bill: %w", err)
	}

	if _, err := w.store.Update(ctx, port.UpdateRequest{Data: data, Selector: e.Selector}); err != nil {
		return w.apply(func(d draft.Draft) (draft.Draft, []draft.Effect, error) {
			return draft.RemoteFailed(d, draft.PhaseFinalize, err)
		})
	}

	w.logger.Info("Bill finalized", "bill_id", e.Selector)
	w.publish(ctx, event.TypeBillFinalized, e.Selector, map[string]interface{}{event.KeyFileURL: e.Bill.FileURL})
	return w.apply(draft.UpdateSucceeded)
}

func (w *newBillWorkflowImpl) publish(ctx context.Context, eventType event.Type, billID string, payload map[string]interface{}) {
	if w.events == nil {
		return
	}
	w.mu.Lock()
	correlation, email := w.correlation, w.email
	w.mu.Unlock()
	w.events.Publish(ctx, event.NewEventWithCorrelation(eventType, billID, email, payload, correlation))
}

// currentEmail returns the session email, or "" when the session cannot be read.
// The draft transitions turn a missing email into ErrMissingIdentity where it matters.
func (w *newBillWorkflowImpl) currentEmail(ctx context.Context) string {
	if w.session == nil {
		return ""
	}
	user, err := w.session.CurrentUser(ctx)
	if err != nil || user == nil {
		w.logger.Error("Failed to read session identity", "error", err)
		return ""
	}
	return user.Email
}
