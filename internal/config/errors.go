package config

import "errors"

// Configuration validation errors returned by Config.Validate.
//
// Design decision: package-level sentinels so callers can use errors.Is
// while the message stays readable on the command line.
var (
	// ErrNoBaseURL is returned when the backend address is empty.
	ErrNoBaseURL = errors.New("no base URL specified: set --base-url or server.baseURL")

	// ErrInvalidBaseURL is returned when the backend address is not an
	// absolute http or https URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidInterval is returned when a polling interval is not positive.
	ErrInvalidInterval = errors.New("invalid interval: polling intervals must be positive")

	// ErrInvalidDelay is returned when the mark-read or post-send delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidLimits is returned when upload limits are not positive or the
	// per-file limit exceeds the total limit.
	ErrInvalidLimits = errors.New("invalid upload limits: sizes must be positive and per-file must not exceed total")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")
)
