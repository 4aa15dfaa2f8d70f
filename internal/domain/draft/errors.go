package draft

import "errors"

var (
	// ErrNoValidReceipt is returned when submitting a draft whose receipt is missing or rejected
	ErrNoValidReceipt = errors.New("no valid receipt selected")

	// ErrSubmissionInFlight is returned when submitting while a previous submission is still running
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrMissingIdentity is returned when no owner email is available
	ErrMissingIdentity = errors.New("missing employee identity")
)
