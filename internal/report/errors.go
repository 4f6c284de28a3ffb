package report

import "errors"

// ErrUnknownFormat is returned for an output format no writer handles.
var ErrUnknownFormat = errors.New("unknown output format (want text, markdown or json)")
