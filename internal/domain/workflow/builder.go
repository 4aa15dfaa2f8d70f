package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc decides whether a transition may be taken
type GuardFunc func(ctx context.Context) bool

type transition struct {
	toState State
	guard   GuardFunc
}

// Builder collects transitions before freezing them into a Definition
type Builder struct {
	transitions map[State]map[Trigger][]transition
}

// StateConfiguration configures the transitions leaving one state
type StateConfiguration struct {
	builder   *Builder
	fromState State
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		transitions: make(map[State]map[Trigger][]transition),
	}
}

// Configure returns the configuration for transitions leaving state
func (b *Builder) Configure(state State) *StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	if _, ok := b.transitions[state]; !ok {
		b.transitions[state] = make(map[Trigger][]transition)
	}
	return &StateConfiguration{builder: b, fromState: state}
}

// Permit allows trigger to move to toState unconditionally
func (c *StateConfiguration) Permit(trigger Trigger, toState State) *StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

// PermitIf allows trigger to move to toState when guard passes.
// Transitions for the same trigger are tried in registration order.
func (c *StateConfiguration) PermitIf(trigger Trigger, toState State, guard GuardFunc) *StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	if c.fromState.IsTerminal() {
		panic(fmt.Sprintf("terminal state %s cannot have transitions", c.fromState))
	}
	byTrigger := c.builder.transitions[c.fromState]
	byTrigger[trigger] = append(byTrigger[trigger], transition{toState: toState, guard: guard})
	return c
}

// Build freezes the configured transitions. Later changes to the builder do not leak into it.
func (b *Builder) Build() *Definition {
	frozen := make(map[State]map[Trigger][]transition, len(b.transitions))
	for state, byTrigger := range b.transitions {
		copied := make(map[Trigger][]transition, len(byTrigger))
		for trigger, ts := range byTrigger {
			copied[trigger] = append([]transition(nil), ts...)
		}
		frozen[state] = copied
	}
	return &Definition{transitions: frozen}
}

// Definition is an immutable transition table, safe for concurrent use
type Definition struct {
	transitions map[State]map[Trigger][]transition
}

// Next computes the state reached from `from` by firing trigger, without side effects
func (d *Definition) Next(ctx context.Context, from State, trigger Trigger) (State, error) {
	ts := d.transitions[from][trigger]
	if len(ts) == 0 {
		return from, fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, from)
	}
	for _, t := range ts {
		if t.guard == nil || t.guard(ctx) {
			return t.toState, nil
		}
	}
	return from, fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, from)
}

// Permitted returns the triggers configured for a state, sorted by name
func (d *Definition) Permitted(from State) []Trigger {
	triggers := make([]Trigger, 0, len(d.transitions[from]))
	for trigger := range d.transitions[from] {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}

// Machine returns a mutable state machine starting at initial
func (d *Definition) Machine(initial State) StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}
	return &stateMachine{current: initial, definition: d}
}
