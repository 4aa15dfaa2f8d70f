package workflow

import (
	"context"
	"errors"
	"testing"
)

type ctxKey string

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateEmpty, false},
		{StateFileSelected, false},
		{StateStaged, false},
		{StateSubmitting, false},
		{StateFailed, false},
		{StateFinalized, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"empty draft", StateEmpty, true},
		{"finalized", StateFinalized, true},
		{"unknown", State("INVALID"), false},
		{"blank", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTrigger_String(t *testing.T) {
	if got := TriggerSubmit.String(); got != "SUBMIT" {
		t.Errorf("Trigger.String() = %v, want %v", got, "SUBMIT")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	NewBuilder().Configure(State("INVALID"))
}

func TestBuilder_PermitPanicsOnTerminalState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic when leaving a terminal state")
		}
	}()

	NewBuilder().Configure(StateFinalized).Permit(TriggerSubmit, StateSubmitting)
}

func TestDefinition_MachinePanicsOnInvalidInitialState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Machine() should panic on invalid initial state")
		}
	}()

	NewBuilder().Build().Machine(State("INVALID"))
}

func TestMachine_Permit(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateStaged).Permit(TriggerSubmit, StateSubmitting)

	machine := builder.Build().Machine(StateStaged)

	if !machine.CanFire(TriggerSubmit) {
		t.Error("CanFire() should return true for permitted trigger")
	}
	if err := machine.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine.State() != StateSubmitting {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StateSubmitting)
	}
}

func TestMachine_FireUnconfiguredTrigger(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateEmpty).Permit(TriggerSelectFile, StateFileSelected)

	machine := builder.Build().Machine(StateEmpty)

	err := machine.Fire(context.Background(), TriggerSubmit)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if machine.State() != StateEmpty {
		t.Errorf("State should remain %v, got %v", StateEmpty, machine.State())
	}
}

func TestMachine_PermitIf_GuardFails(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateStaged).
		PermitIf(TriggerSubmit, StateSubmitting, func(ctx context.Context) bool {
			return false
		})

	machine := builder.Build().Machine(StateStaged)

	err := machine.Fire(context.Background(), TriggerSubmit)
	if !errors.Is(err, ErrGuardFailed) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if machine.State() != StateStaged {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateStaged, machine.State())
	}
}

func TestMachine_PermitIf_FirstPassingGuardWins(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitting).
		PermitIf(TriggerFinalize, StateFinalized, func(ctx context.Context) bool {
			return ctx.Value(ctxKey("ok")).(bool)
		}).
		PermitIf(TriggerFinalize, StateFailed, func(ctx context.Context) bool {
			return !ctx.Value(ctxKey("ok")).(bool)
		})
	def := builder.Build()

	okCtx := context.WithValue(context.Background(), ctxKey("ok"), true)
	if next, err := def.Next(okCtx, StateSubmitting, TriggerFinalize); err != nil || next != StateFinalized {
		t.Errorf("Next() = %v, %v; want %v", next, err, StateFinalized)
	}

	failCtx := context.WithValue(context.Background(), ctxKey("ok"), false)
	if next, err := def.Next(failCtx, StateSubmitting, TriggerFinalize); err != nil || next != StateFailed {
		t.Errorf("Next() = %v, %v; want %v", next, err, StateFailed)
	}
}

func TestBuilder_BuildIsIsolatedFromLaterChanges(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateEmpty).Permit(TriggerSelectFile, StateFileSelected)
	def := builder.Build()

	builder.Configure(StateEmpty).Permit(TriggerRejectFile, StateEmpty)

	if got := def.Permitted(StateEmpty); len(got) != 1 || got[0] != TriggerSelectFile {
		t.Errorf("Permitted() = %v, want [%v]", got, TriggerSelectFile)
	}
}

func TestDefinition_PermittedSorted(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateStaged).
		Permit(TriggerSubmit, StateSubmitting).
		Permit(TriggerRejectFile, StateEmpty).
		Permit(TriggerSelectFile, StateFileSelected)

	got := builder.Build().Machine(StateStaged).PermittedTriggers()
	want := []Trigger{TriggerRejectFile, TriggerSelectFile, TriggerSubmit}
	if len(got) != len(want) {
		t.Fatalf("PermittedTriggers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PermittedTriggers()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
