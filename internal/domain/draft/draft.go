// Package draft holds the state of one in-progress new bill and its transitions.
//
// Every transition is a pure function: it takes a Draft and an event and returns
// the next Draft plus the effects the caller must run. Remote calls, warnings and
// navigation only happen through those effects.
package draft

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/domain/workflow"
)

// InvalidReceiptWarning is shown when the selected file is not an accepted image
const InvalidReceiptWarning = "Veuillez uploader une image du format .jpg, .jpeg ou .png"

// Validity is the tri-state outcome of receipt validation
type Validity int

const (
	ValidityUnknown Validity = iota
	ValidityValid
	ValidityInvalid
)

// String returns a readable name
func (v Validity) String() string {
	switch v {
	case ValidityValid:
		return "valid"
	case ValidityInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// FileSelection is the payload of a file-change event
type FileSelection struct {
	// Path as reported by the file input; browsers send C:\fakepath\name.jpg
	Path        string
	ContentType string
	Content     []byte
}

// Draft is the in-memory state of one new bill form
type Draft struct {
	State         workflow.State
	FileName      string
	FileValidity  Validity
	Staged        *entity.ReceiptUpload
	PendingBillID string
	FileURL       string
	// Bill assembled at submit time, completed with file fields after the create phase
	Pending *entity.Bill
}

// New returns an empty draft
func New() Draft {
	return Draft{State: workflow.StateEmpty}
}

// IsFileValid reports whether a valid receipt is staged
func (d Draft) IsFileValid() bool {
	return d.FileValidity == ValidityValid
}

type draftKey struct{}

func fileIsValid(ctx context.Context) bool {
	d, ok := ctx.Value(draftKey{}).(Draft)
	return ok && d.IsFileValid()
}

var lifecycle = buildLifecycle()

func buildLifecycle() *workflow.Definition {
	b := workflow.NewBuilder()
	b.Configure(workflow.StateEmpty).
		Permit(workflow.TriggerSelectFile, workflow.StateFileSelected).
		Permit(workflow.TriggerRejectFile, workflow.StateEmpty)
	b.Configure(workflow.StateFileSelected).
		Permit(workflow.TriggerStage, workflow.StateStaged).
		Permit(workflow.TriggerRejectFile, workflow.StateEmpty)
	b.Configure(workflow.StateStaged).
		Permit(workflow.TriggerSelectFile, workflow.StateFileSelected).
		Permit(workflow.TriggerRejectFile, workflow.StateEmpty).
		PermitIf(workflow.TriggerSubmit, workflow.StateSubmitting, fileIsValid)
	b.Configure(workflow.StateSubmitting).
		Permit(workflow.TriggerFinalize, workflow.StateFinalized).
		Permit(workflow.TriggerFail, workflow.StateFailed)
	b.Configure(workflow.StateFailed).
		Permit(workflow.TriggerSelectFile, workflow.StateFileSelected).
		Permit(workflow.TriggerRejectFile, workflow.StateEmpty).
		PermitIf(workflow.TriggerSubmit, workflow.StateSubmitting, fileIsValid)
	return b.Build()
}

// Lifecycle returns the transition table drafts follow
func Lifecycle() *workflow.Definition {
	return lifecycle
}

func fire(d Draft, trigger workflow.Trigger) (workflow.State, error) {
	ctx := context.WithValue(context.Background(), draftKey{}, d)
	return lifecycle.Next(ctx, d.State, trigger)
}

// FileNameFromPath returns the last path element, splitting on both separators
func FileNameFromPath(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// IsAcceptedReceipt reports whether name carries an accepted image extension
func IsAcceptedReceipt(name string) bool {
	return entity.ReceiptExtensions[strings.ToLower(filepath.Ext(name))]
}

// SelectFile validates a newly selected receipt. Validation starts from scratch on
// every call; an invalid file drops whatever was staged before. An invalid file
// is always warned about and cleared, even when the draft cannot change state.
func SelectFile(d Draft, sel FileSelection, email string) (Draft, []Effect, error) {
	fileName := FileNameFromPath(sel.Path)

	if !IsAcceptedReceipt(fileName) {
		rejected := []Effect{Warn{Message: InvalidReceiptWarning}, ClearFileInput{}}
		next, err := fire(d, workflow.TriggerRejectFile)
		if err != nil {
			return d, rejected, err
		}
		d.State = next
		d.FileValidity = ValidityInvalid
		d.FileName = ""
		d.Staged = nil
		return d, rejected, nil
	}

	if email == "" {
		return d, nil, ErrMissingIdentity
	}

	selected, err := fire(d, workflow.TriggerSelectFile)
	if err != nil {
		return d, nil, err
	}
	d.State = selected
	staged, err := fire(d, workflow.TriggerStage)
	if err != nil {
		return d, nil, err
	}
	d.State = staged
	d.FileValidity = ValidityValid
	d.FileName = fileName
	d.Staged = &entity.ReceiptUpload{
		FileName:    fileName,
		ContentType: sel.ContentType,
		Content:     sel.Content,
		Email:       email,
	}
	return d, nil, nil
}

// BeginSubmit starts the two-phase submission. Without a valid receipt it changes
// nothing and requests no effect.
func BeginSubmit(d Draft, form FormSnapshot, email string) (Draft, []Effect, error) {
	if d.State == workflow.StateSubmitting {
		return d, nil, ErrSubmissionInFlight
	}
	if !d.IsFileValid() || d.Staged == nil {
		return d, nil, ErrNoValidReceipt
	}
	if email == "" {
		return d, nil, ErrMissingIdentity
	}

	next, err := fire(d, workflow.TriggerSubmit)
	if err != nil {
		return d, nil, err
	}

	bill := form.Bill(email)
	bill.FileName = d.FileName
	d.State = next
	d.Pending = &bill
	d.PendingBillID = ""
	d.FileURL = ""
	return d, []Effect{CreateFile{Upload: *d.Staged}}, nil
}

// CreateSucceeded records the created file and requests the finalize update.
// The update always carries the key and fileUrl the store just returned.
func CreateSucceeded(d Draft, created entity.CreatedFile) (Draft, []Effect, error) {
	if d.State != workflow.StateSubmitting || d.Pending == nil {
		return d, nil, fmt.Errorf("%w: create result received in state %s", workflow.ErrInvalidTransition, d.State)
	}
	d.PendingBillID = created.Key
	d.FileURL = created.FileURL

	bill := *d.Pending
	bill.FileURL = created.FileURL
	bill.FileName = d.FileName
	d.Pending = &bill
	return d, []Effect{UpdateBill{Bill: bill, Selector: created.Key}}, nil
}

// UpdateSucceeded completes the draft and sends the user back to the bill list
func UpdateSucceeded(d Draft) (Draft, []Effect, error) {
	next, err := fire(d, workflow.TriggerFinalize)
	if err != nil {
		return d, nil, err
	}
	d.State = next
	return d, []Effect{Navigate{Route: entity.RouteBills}}, nil
}

// RemoteFailed marks the submission failed. The rest of the draft is kept as is
// so a later submission can start again from it.
func RemoteFailed(d Draft, phase Phase, cause error) (Draft, []Effect, error) {
	next, err := fire(d, workflow.TriggerFail)
	if err != nil {
		return d, nil, err
	}
	d.State = next
	return d, []Effect{ReportError{Phase: phase, Err: cause}}, nil
}
