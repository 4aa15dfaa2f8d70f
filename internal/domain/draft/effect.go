package draft

import "github.com/garyjia/billed/internal/domain/entity"

// Effect is a side effect requested by a draft transition.
// Transitions never perform effects themselves; the caller executes them in order.
type Effect interface {
	isEffect()
}

// Phase names the remote step an effect or failure belongs to
type Phase string

const (
	PhaseCreate   Phase = "create"
	PhaseFinalize Phase = "finalize"
)

// Warn shows a user-facing warning
type Warn struct {
	Message string
}

// ClearFileInput empties the file input so no stale file is kept
type ClearFileInput struct{}

// CreateFile uploads the staged receipt and creates the bill record
type CreateFile struct {
	Upload entity.ReceiptUpload
}

// UpdateBill finalizes the bill record selected by Selector
type UpdateBill struct {
	Bill     entity.Bill
	Selector string
}

// Navigate moves the user to another view
type Navigate struct {
	Route string
}

// ReportError hands a remote failure to the error reporter
type ReportError struct {
	Phase Phase
	Err   error
}

func (Warn) isEffect()           {}
func (ClearFileInput) isEffect() {}
func (CreateFile) isEffect()     {}
func (UpdateBill) isEffect()     {}
func (Navigate) isEffect()       {}
func (ReportError) isEffect()    {}
