package event

// Type identifies the type of domain event
type Type string

const (
	TypeBillCreated      Type = "bill.created"
	TypeBillFinalized    Type = "bill.finalized"
	TypeSubmissionFailed Type = "bill.submission_failed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeBillCreated, TypeBillFinalized, TypeSubmissionFailed:
		return true
	default:
		return false
	}
}
