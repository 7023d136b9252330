// Package session owns the WhatsApp connection lifecycle: the single client
// handle, its readiness, the pending QR token, and the reconnect, restart and
// logout flows.
package session

import (
	"context"

	"github.com/qmuntal/stateless"
)

// State is a connection lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateAwaitingScan  State = "awaiting_scan"
	StateReady         State = "ready"
	StateDisconnected  State = "disconnected"
	StateTearingDown   State = "tearing_down"
)

func (s State) String() string {
	return string(s)
}

// Trigger is an event that drives a lifecycle transition.
type Trigger string

const (
	TriggerInitialize   Trigger = "initialize"
	TriggerQR           Trigger = "qr"
	TriggerReady        Trigger = "ready"
	TriggerAuthFailure  Trigger = "auth_failure"
	TriggerDisconnected Trigger = "disconnected"
	TriggerTeardown     Trigger = "teardown"
	TriggerReset        Trigger = "reset"
)

func (t Trigger) String() string {
	return string(t)
}

// Machine is the enumerated transition function over the session states.
// Illegal triggers surface as errors instead of silently corrupting state.
type Machine struct {
	sm *stateless.StateMachine
}

// NewMachine builds the lifecycle machine starting in Uninitialized.
func NewMachine() *Machine {
	sm := stateless.NewStateMachine(StateUninitialized)

	sm.Configure(StateUninitialized).
		Permit(TriggerInitialize, StateInitializing).
		Permit(TriggerTeardown, StateTearingDown)

	sm.Configure(StateInitializing).
		// A failed startup retries from here without leaving the state.
		PermitReentry(TriggerInitialize).
		Permit(TriggerQR, StateAwaitingScan).
		Permit(TriggerReady, StateReady).
		Permit(TriggerAuthFailure, StateDisconnected).
		Permit(TriggerDisconnected, StateDisconnected).
		Permit(TriggerTeardown, StateTearingDown)

	sm.Configure(StateAwaitingScan).
		PermitReentry(TriggerQR).
		Permit(TriggerReady, StateReady).
		Permit(TriggerAuthFailure, StateDisconnected).
		Permit(TriggerDisconnected, StateDisconnected).
		Permit(TriggerTeardown, StateTearingDown)

	sm.Configure(StateReady).
		PermitReentry(TriggerReady).
		Permit(TriggerQR, StateAwaitingScan).
		Permit(TriggerAuthFailure, StateDisconnected).
		Permit(TriggerDisconnected, StateDisconnected).
		Permit(TriggerTeardown, StateTearingDown)

	sm.Configure(StateDisconnected).
		PermitReentry(TriggerDisconnected).
		PermitReentry(TriggerAuthFailure).
		Permit(TriggerInitialize, StateInitializing).
		Permit(TriggerQR, StateAwaitingScan).
		Permit(TriggerReady, StateReady).
		Permit(TriggerTeardown, StateTearingDown)

	sm.Configure(StateTearingDown).
		Permit(TriggerReset, StateUninitialized)

	return &Machine{sm: sm}
}

// OnTransitioned registers a callback invoked after every transition.
func (m *Machine) OnTransitioned(cb func(from, to State, trigger Trigger)) {
	m.sm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		cb(t.Source.(State), t.Destination.(State), t.Trigger.(Trigger))
	})
}

// Fire attempts a transition and returns an error if the trigger is not
// permitted in the current state.
func (m *Machine) Fire(trigger Trigger) error {
	return m.sm.Fire(trigger)
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	return m.sm.MustState().(State)
}
