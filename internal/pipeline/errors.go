package pipeline

import "errors"

var (
	// ErrIllegalTransition is returned when a step tries to move a job
	// into a state its current state cannot reach.
	ErrIllegalTransition = errors.New("illegal job state transition")

	// ErrUnknownKind is returned for a job kind without a step sequence.
	ErrUnknownKind = errors.New("unknown job kind")
)
