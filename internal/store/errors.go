package store

import "errors"

var (
	// ErrNotFound is returned by Load when nothing was saved for the
	// session and form.
	ErrNotFound = errors.New("no saved form data")

	// ErrEmptyKey is returned for an empty session or form name.
	ErrEmptyKey = errors.New("session and form name must not be empty")
)
