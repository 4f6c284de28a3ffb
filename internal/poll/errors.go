package poll

import "errors"

var (
	// ErrAlreadyStarted is returned when Run or Start is called on a task
	// that already ran. Tasks are single-use.
	ErrAlreadyStarted = errors.New("task already started")

	// ErrInvalidInterval is returned for a non-positive interval.
	ErrInvalidInterval = errors.New("task interval must be positive")
)
