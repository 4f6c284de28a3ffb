package view

// StatusKind selects the style of a status message.
type StatusKind string

const (
	StatusInfo       StatusKind = "info"
	StatusProcessing StatusKind = "processing"
	StatusSuccess    StatusKind = "success"
	StatusWarning    StatusKind = "warning"
	StatusError      StatusKind = "error"
)

// Status is a message shown next to the control that caused it.
type Status struct {
	Message string
	Kind    StatusKind
}

// IsZero reports whether there is nothing to show.
func (s Status) IsZero() bool {
	return s.Message == ""
}

// NewStatus returns a status message.
func NewStatus(kind StatusKind, message string) Status {
	return Status{Message: message, Kind: kind}
}

// ErrorStatus returns an error status.
func ErrorStatus(message string) Status {
	return Status{Message: message, Kind: StatusError}
}
