package staging

import "errors"

var (
	// ErrTotalExceeded is returned by Add when the batch was rolled back
	// because the aggregate size went over the total limit.
	ErrTotalExceeded = errors.New("total file size exceeds limit")

	// ErrIndexOutOfRange is returned by Remove for an index outside the list.
	ErrIndexOutOfRange = errors.New("staged file index out of range")
)
