package lifecycle

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phases(states []State) []Phase {
	out := make([]Phase, len(states))
	for i, s := range states {
		out[i] = s.Phase
	}
	return out
}

func TestMachineFullRun(t *testing.T) {
	var seen []State
	m := NewMachine(func(s State) { seen = append(seen, s) })

	require.NoError(t, m.Start())
	require.NoError(t, m.Advance(PhaseSigning))
	require.NoError(t, m.Advance(PhaseSending))
	require.NoError(t, m.Confirming(solana.Signature{1}))
	require.NoError(t, m.Confirm(solana.Signature{1}))

	assert.Equal(t, []Phase{PhasePreparing, PhaseSigning, PhaseSending, PhaseConfirming, PhaseConfirmed}, phases(seen))
	assert.Equal(t, solana.Signature{1}, m.State().Signature)
	assert.Equal(t, 1, m.State().Attempt)
}

func TestMachineSkipsSending(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Start())
	require.NoError(t, m.Advance(PhaseSigning))
	assert.NoError(t, m.Confirming(solana.Signature{2}))
}

func TestMachineRejectsBackwardAndRepeat(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Start())
	require.NoError(t, m.Advance(PhaseSending))

	assert.ErrorIs(t, m.Advance(PhaseSigning), ErrInvalidTransition)
	assert.ErrorIs(t, m.Advance(PhaseSending), ErrInvalidTransition)
	assert.ErrorIs(t, m.Advance(PhasePreparing), ErrInvalidTransition)
	assert.ErrorIs(t, m.Advance(PhaseConfirmed), ErrInvalidTransition)
	assert.ErrorIs(t, m.Start(), ErrInvalidTransition)
	assert.Equal(t, PhaseSending, m.State().Phase)
}

func TestMachineNextAttempt(t *testing.T) {
	var seen []State
	m := NewMachine(func(s State) { seen = append(seen, s) })
	require.NoError(t, m.Start())
	require.NoError(t, m.Confirming(solana.Signature{3}))
	require.NoError(t, m.NextAttempt())

	st := m.State()
	assert.Equal(t, PhasePreparing, st.Phase)
	assert.Equal(t, 2, st.Attempt)
	assert.Equal(t, solana.Signature{}, st.Signature, "a new attempt starts without a signature")
	assert.Len(t, seen, 3)
}

func TestMachineTerminalUntilReset(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Start())
	require.NoError(t, m.Fail("user rejected"))
	assert.Equal(t, "user rejected", m.State().Reason)

	assert.ErrorIs(t, m.NextAttempt(), ErrInvalidTransition)
	assert.ErrorIs(t, m.Fail("again"), ErrInvalidTransition)
	assert.ErrorIs(t, m.Advance(PhaseSigning), ErrInvalidTransition)

	m.Reset()
	assert.Equal(t, Idle(), m.State())
	assert.NoError(t, m.Start())
}

func TestMachineConfirmRequiresConfirming(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Start())
	assert.ErrorIs(t, m.Confirm(solana.Signature{1}), ErrInvalidTransition)
}

func TestMachineFailFromIdle(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Fail("wallet not connected"))
	assert.Equal(t, PhaseError, m.State().Phase)
}

func TestEmitterBroadcastsInOrder(t *testing.T) {
	e := NewEmitter()
	var order []string
	e.Subscribe(func(s State) { order = append(order, "a:"+s.Phase.String()) })
	e.Subscribe(func(s State) { order = append(order, "b:"+s.Phase.String()) })

	e.Emit(State{Phase: PhaseSigning})
	assert.Equal(t, []string{"a:signing", "b:signing"}, order)
	assert.Equal(t, PhaseSigning, e.Current().Phase)
}

func TestEmitterUnsubscribe(t *testing.T) {
	e := NewEmitter()
	var a, b int
	unsubA := e.Subscribe(func(State) { a++ })
	e.Subscribe(func(State) { b++ })

	e.Emit(State{Phase: PhasePreparing})
	unsubA()
	unsubA()
	e.Emit(State{Phase: PhaseSigning})

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestEmitterNoHistory(t *testing.T) {
	e := NewEmitter()
	e.Emit(State{Phase: PhasePreparing})
	e.Emit(State{Phase: PhaseSigning})

	var seen []Phase
	e.Subscribe(func(s State) { seen = append(seen, s.Phase) })
	assert.Empty(t, seen)

	e.Reset()
	assert.Equal(t, []Phase{PhaseIdle}, seen)
	assert.Equal(t, Idle(), e.Current())
}

func TestEmitterObserverMayReenter(t *testing.T) {
	e := NewEmitter()
	var current State
	e.Subscribe(func(State) { current = e.Current() })
	e.Emit(State{Phase: PhaseConfirming, Attempt: 2})
	assert.Equal(t, 2, current.Attempt)
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("confirming")
	require.NoError(t, err)
	assert.Equal(t, PhaseConfirming, p)
	p, err = ParsePhase("error")
	require.NoError(t, err)
	assert.Equal(t, PhaseError, p)
	_, err = ParsePhase("done")
	assert.ErrorIs(t, err, ErrUnknownPhase)

	assert.True(t, PhaseSending.Active())
	assert.False(t, PhaseIdle.Active())
	assert.True(t, PhaseError.Terminal())
}
