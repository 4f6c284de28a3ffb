package view

import "errors"

var (
	// ErrRender is returned when a template fails to execute.
	ErrRender = errors.New("failed to render view")

	// ErrInvalidFrame is returned when a live frame is not base64 data.
	ErrInvalidFrame = errors.New("invalid frame data")
)
