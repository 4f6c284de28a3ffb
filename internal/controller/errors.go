package controller

import "errors"

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid input")

	// ErrBusy is returned when an operation is suppressed because the
	// same operation is still in flight.
	ErrBusy = errors.New("operation already in progress")

	// ErrNoSession is returned by operations that need a finished upload.
	ErrNoSession = errors.New("no active session")

	// ErrClosed is returned by operations on a closed controller.
	ErrClosed = errors.New("controller is closed")
)

// ValidationError is a user input error. Message is shown verbatim.
type ValidationError struct {
	Message string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) true for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
