package workflow

import "context"

// StateMachine tracks a current state against a Definition
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger has at least one transition from the current state
	CanFire(trigger Trigger) bool

	// Fire executes the trigger, moving to the new state if a transition allows it
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers configured for the current state
	PermittedTriggers() []Trigger
}

type stateMachine struct {
	current    State
	definition *Definition
}

// State returns the current state
func (m *stateMachine) State() State {
	return m.current
}

// CanFire returns true if the trigger is configured for the current state.
// Guards are not evaluated here since they need a context.
func (m *stateMachine) CanFire(trigger Trigger) bool {
	return len(m.definition.transitions[m.current][trigger]) > 0
}

// Fire attempts to execute the trigger
func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	next, err := m.definition.Next(ctx, m.current, trigger)
	if err != nil {
		return err
	}
	m.current = next
	return nil
}

// PermittedTriggers returns all triggers configured for the current state
func (m *stateMachine) PermittedTriggers() []Trigger {
	return m.definition.Permitted(m.current)
}
