package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork wraps every transport failure: refused connections, DNS
	// errors, timeouts and proxy failures.
	ErrNetwork = errors.New("network error")

	// ErrMalformedPayload is matched by every *PayloadError.
	ErrMalformedPayload = errors.New("malformed response payload")

	// ErrInvalidBaseURL is returned by NewClient for a base URL that is not
	// an absolute http or https URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrNoFiles is returned by upload methods called without any file.
	ErrNoFiles = errors.New("no files to upload")

	// ErrNoSession is returned by session-scoped methods called with an
	// empty session id.
	ErrNoSession = errors.New("no active session")
)

// HTTPError is a non-2xx reply.
type HTTPError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the server-provided error text, empty when the body
	// carried none.
	Message string

	// SessionScoped is set for requests addressing an upload session, where
	// a 404 means the session expired.
	SessionScoped bool
}

// Error returns the server text verbatim, or a generic status message.
func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Hint returns follow-up advice for statuses caused by an expired login or
// an expired upload session. It is empty for every other status.
func (e *HTTPError) Hint() string {
	switch {
	case e.StatusCode == http.StatusForbidden:
		return "Try refreshing the page and logging in again."
	case e.StatusCode == http.StatusNotFound && e.SessionScoped:
		return "The session may have expired. Try processing images again."
	default:
		return ""
	}
}

// DomainError is a 2xx reply that reported "success": false.
type DomainError struct {
	Message string
}

// Error implements error.
func (e *DomainError) Error() string {
	return e.Message
}

// PayloadError describes a reply whose body could not be used.
type PayloadError struct {
	// Detail is the user-facing description.
	Detail string

	// Err is the underlying decode error, if any.
	Err error
}

// Error implements error.
func (e *PayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

// Unwrap returns the underlying decode error.
func (e *PayloadError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformedPayload) true for every PayloadError.
func (e *PayloadError) Is(target error) bool {
	return target == ErrMalformedPayload
}

// scoped marks an HTTPError as belonging to a session request.
func scoped(err error) error {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		httpErr.SessionScoped = true
	}
	return err
}

// scopedBlob is scoped for download results.
func scopedBlob(b *Blob, err error) (*Blob, error) {
	return b, scoped(err)
}

func malformed(detail string, err error) error {
	return &PayloadError{Detail: detail, Err: err}
}

// StatusCode returns the HTTP status of err, or 0 when err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// UserMessage converts an error returned by Client into the message shown to
// the user. Server-provided text is returned verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		domainErr  *DomainError
		httpErr    *HTTPError
		payloadErr *PayloadError
	)
	switch {
	case errors.As(err, &domainErr):
		return domainErr.Message
	case errors.As(err, &httpErr):
		if hint := httpErr.Hint(); hint != "" {
			return httpErr.Error() + "\n" + hint
		}
		return httpErr.Error()
	case errors.As(err, &payloadErr):
		return payloadErr.Detail
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	case errors.Is(err, ErrNetwork):
		return "Network error occurred"
	default:
		return err.Error()
	}
}
