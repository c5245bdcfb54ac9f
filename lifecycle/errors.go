package lifecycle

import "errors"

var (
	// ErrInvalidTransition indicates a phase change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("lifecycle: invalid phase transition")

	// ErrUnknownPhase indicates a phase name that does not parse.
	ErrUnknownPhase = errors.New("lifecycle: unknown phase")
)
