package lifecycle

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Machine validates the phase sequence of one run and forwards each accepted
// state to a sink, usually Emitter.Emit.
type Machine struct {
	mu    sync.Mutex
	state State
	sink  func(State)
}

// NewMachine returns a Machine at idle. sink may be nil.
func NewMachine(sink func(State)) *Machine {
	return &Machine{state: Idle(), sink: sink}
}

// State returns the last accepted state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins the first attempt.
func (m *Machine) Start() error {
	return m.apply(func(cur State) (State, error) {
		if cur.Phase != PhaseIdle {
			return cur, invalid(cur.Phase, PhasePreparing)
		}
		return State{Phase: PhasePreparing, Attempt: 1}, nil
	})
}

// NextAttempt restarts at preparing for a retry. Only an active run can
// restart.
func (m *Machine) NextAttempt() error {
	return m.apply(func(cur State) (State, error) {
		if !cur.Phase.Active() {
			return cur, invalid(cur.Phase, PhasePreparing)
		}
		return State{Phase: PhasePreparing, Attempt: cur.Attempt + 1}, nil
	})
}

// Advance moves forward to signing, sending or confirming. Phases may be
// skipped but never revisited.
func (m *Machine) Advance(next Phase) error {
	return m.advance(next, solana.Signature{})
}

// Confirming moves to confirming and records the submitted signature.
func (m *Machine) Confirming(sig solana.Signature) error {
	return m.advance(PhaseConfirming, sig)
}

func (m *Machine) advance(next Phase, sig solana.Signature) error {
	return m.apply(func(cur State) (State, error) {
		if !cur.Phase.Active() || !next.Active() || next == PhasePreparing || rank[next] <= rank[cur.Phase] {
			return cur, invalid(cur.Phase, next)
		}
		cur.Phase = next
		if sig != (solana.Signature{}) {
			cur.Signature = sig
		}
		return cur, nil
	})
}

// Confirm ends the run successfully.
func (m *Machine) Confirm(sig solana.Signature) error {
	return m.apply(func(cur State) (State, error) {
		if cur.Phase != PhaseConfirming {
			return cur, invalid(cur.Phase, PhaseConfirmed)
		}
		cur.Phase = PhaseConfirmed
		cur.Signature = sig
		return cur, nil
	})
}

// Fail ends the run with reason. A run that already ended cannot fail.
func (m *Machine) Fail(reason string) error {
	return m.apply(func(cur State) (State, error) {
		if cur.Phase.Terminal() {
			return cur, invalid(cur.Phase, PhaseError)
		}
		cur.Phase = PhaseError
		cur.Reason = reason
		return cur, nil
	})
}

// Reset returns the machine to idle from any phase.
func (m *Machine) Reset() {
	_ = m.apply(func(State) (State, error) { return Idle(), nil })
}

func (m *Machine) apply(step func(State) (State, error)) error {
	m.mu.Lock()
	next, err := step(m.state)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.state = next
	sink := m.sink
	m.mu.Unlock()

	if sink != nil {
		sink(next)
	}
	return nil
}

func invalid(from, to Phase) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
