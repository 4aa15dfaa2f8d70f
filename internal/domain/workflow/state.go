package workflow

// State is a lifecycle state of a new bill draft
type State string

const (
	StateEmpty        State = "EMPTY"
	StateFileSelected State = "FILE_SELECTED"
	StateStaged       State = "STAGED"
	StateSubmitting   State = "SUBMITTING"
	StateFinalized    State = "FINALIZED"
	StateFailed       State = "FAILED"
)

var validStates = map[State]bool{
	StateEmpty:        true,
	StateFileSelected: true,
	StateStaged:       true,
	StateSubmitting:   true,
	StateFinalized:    true,
	StateFailed:       true,
}

// FAILED is not terminal: a fresh submission may follow it.
var terminalStates = map[State]bool{
	StateFinalized: true,
}

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known draft state
func (s State) IsValid() bool {
	return validStates[s]
}
