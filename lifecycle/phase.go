// Package lifecycle tracks the phase of a transaction submission and
// broadcasts it to observers.
//
// A run moves strictly forward through
//
//	idle → preparing → signing → sending → confirming → confirmed
//
// and may end in error from any point. Retrying restarts at preparing with a
// higher attempt number; that is the only backward edge. Confirmed and error
// are left only through an explicit reset to idle.
package lifecycle

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Phase is one step of the submission lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePreparing  Phase = "preparing"
	PhaseSigning    Phase = "signing"
	PhaseSending    Phase = "sending"
	PhaseConfirming Phase = "confirming"
	PhaseConfirmed  Phase = "confirmed"
	PhaseError      Phase = "error"
)

// rank orders the forward phases. Error is outside the order.
var rank = map[Phase]int{
	PhaseIdle:       0,
	PhasePreparing:  1,
	PhaseSigning:    2,
	PhaseSending:    3,
	PhaseConfirming: 4,
	PhaseConfirmed:  5,
}

// ParsePhase converts a phase name.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if _, ok := rank[p]; ok || p == PhaseError {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPhase, s)
}

func (p Phase) String() string { return string(p) }

// Terminal reports whether p ends a run.
func (p Phase) Terminal() bool { return p == PhaseConfirmed || p == PhaseError }

// Active reports whether p is between idle and a terminal phase.
func (p Phase) Active() bool {
	r, ok := rank[p]
	return ok && r >= rank[PhasePreparing] && r <= rank[PhaseConfirming]
}

// State is the observable snapshot of a run.
type State struct {
	Phase     Phase
	Attempt   int
	Signature solana.Signature
	Reason    string
}

// Idle is the zero run state.
func Idle() State { return State{Phase: PhaseIdle} }
