package workflow

// Trigger is an event that can move a draft to another state
type Trigger string

const (
	TriggerSelectFile Trigger = "SELECT_FILE"
	TriggerRejectFile Trigger = "REJECT_FILE"
	TriggerStage      Trigger = "STAGE"
	TriggerSubmit     Trigger = "SUBMIT"
	TriggerFinalize   Trigger = "FINALIZE"
	TriggerFail       Trigger = "FAIL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
