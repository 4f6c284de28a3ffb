package model

import "fmt"

// SessionID is the opaque token returned by an upload endpoint. It scopes the
// process, progress, download and cleanup calls that follow the upload.
//
// A controller sets its SessionID only after an upload response reported
// success, and clears it on a new scan or when the page is closed.
type SessionID string

// IsZero reports whether no session has been established.
func (s SessionID) IsZero() bool {
	return s == ""
}

// String implements fmt.Stringer.
func (s SessionID) String() string {
	return string(s)
}

// ProgressStatus is the status tag of a progress record returned by a polling
// endpoint.
type ProgressStatus string

const (
	// ProgressProcessing means the job is still running.
	ProgressProcessing ProgressStatus = "processing"
	// ProgressCompleted means the job finished and results are attached.
	ProgressCompleted ProgressStatus = "completed"
	// ProgressError means the job failed; the record carries an error text.
	ProgressError ProgressStatus = "error"
	// ProgressNotFound means the server does not know the session.
	ProgressNotFound ProgressStatus = "not_found"
)

// IsTerminal reports whether polling must stop after observing this status.
// Unknown statuses are not terminal and are ignored by the poller.
func (s ProgressStatus) IsTerminal() bool {
	switch s {
	case ProgressCompleted, ProgressError, ProgressNotFound:
		return true
	default:
		return false
	}
}

// VideoProgress is the progress record returned by the video progress endpoint.
type VideoProgress struct {
	Status      ProgressStatus `json:"status"`
	Progress    float64        `json:"progress"`
	CurrentFile string         `json:"current_file,omitempty"`
	Results     *VideoResults  `json:"results,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// JobState is the client-side state of a long-running submission.
//
//	idle -> uploading -> processing -> {completed | error | not_found}
//
// A failure while uploading or starting the job moves straight to error.
// Every terminal state may go back to idle (a retry or a new scan), and
// uploading may also start again from a terminal state.
type JobState int

const (
	// JobIdle is the state before any submission.
	JobIdle JobState = iota
	// JobUploading is entered when the multipart upload starts.
	JobUploading
	// JobProcessing is entered when the process request is sent.
	JobProcessing
	// JobCompleted is terminal: results were rendered.
	JobCompleted
	// JobError is terminal: the job or one of its requests failed.
	JobError
	// JobNotFound is terminal: the server lost the session.
	JobNotFound
)

// String returns the lowercase state name.
func (s JobState) String() string {
	switch s {
	case JobIdle:
		return "idle"
	case JobUploading:
		return "uploading"
	case JobProcessing:
		return "processing"
	case JobCompleted:
		return "completed"
	case JobError:
		return "error"
	case JobNotFound:
		return "not_found"
	default:
		return fmt.Sprintf("JobState(%d)", int(s))
	}
}

// IsTerminal reports whether the state ends a job.
func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobError || s == JobNotFound
}

// CanTransition reports whether moving from s to next is a legal step.
func (s JobState) CanTransition(next JobState) bool {
	switch s {
	case JobIdle:
		return next == JobUploading
	case JobUploading:
		return next == JobProcessing || next == JobCompleted || next == JobError
	case JobProcessing:
		return next.IsTerminal()
	case JobCompleted, JobError, JobNotFound:
		return next == JobIdle || next == JobUploading
	default:
		return false
	}
}

// StateForProgress maps a terminal progress status to the job state it ends
// in. ok is false for non-terminal or unknown statuses.
func StateForProgress(status ProgressStatus) (state JobState, ok bool) {
	switch status {
	case ProgressCompleted:
		return JobCompleted, true
	case ProgressError:
		return JobError, true
	case ProgressNotFound:
		return JobNotFound, true
	default:
		return JobProcessing, false
	}
}
