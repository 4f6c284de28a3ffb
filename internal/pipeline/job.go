package pipeline

import (
	"fmt"
	"time"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/model"
)

// Kind selects the backend feature a job is submitted to.
type Kind string

const (
	// KindImages is image object detection.
	KindImages Kind = "images"
	// KindVideos is video object detection with progress polling.
	KindVideos Kind = "videos"
	// KindCamo is camouflage detection.
	KindCamo Kind = "camouflage"
	// KindUAV is UAV detection, which uploads and processes in one request.
	KindUAV Kind = "uav"
)

// Observer receives a copy of the job after every change.
type Observer func(Job)

// Job is the record of one submission.
type Job struct {
	Kind   Kind
	Parts  []api.Part
	Filter model.DetectionFilter

	State     model.JobState
	SessionID model.SessionID

	// Progress is the last reported percentage of a video job.
	Progress    float64
	CurrentFile string

	Images *model.ImageResults
	Videos *model.VideoResults
	Camo   *model.CamoResults
	UAV    *model.UAVUploadResponse

	// Err is the error that ended the job, and ErrorMessage its
	// user-facing text.
	Err          error
	ErrorMessage string

	PerformedSteps []string
	StartedAt      time.Time
	FinishedAt     time.Time

	observer Observer
}

// JobOption configures a Job.
type JobOption func(*Job)

// WithObserver registers fn to be called after every change.
func WithObserver(fn Observer) JobOption {
	return func(j *Job) {
		j.observer = fn
	}
}

// WithFilter sets the detection filter sent with the process request.
func WithFilter(filter model.DetectionFilter) JobOption {
	return func(j *Job) {
		j.Filter = filter
	}
}

// NewJob creates an idle job for the given files.
func NewJob(kind Kind, parts []api.Part, opts ...JobOption) *Job {
	j := &Job{
		Kind:   kind,
		Parts:  parts,
		Filter: model.FilterAll,
		State:  model.JobIdle,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Transition moves the job to next.
func (j *Job) Transition(next model.JobState) error {
	if !j.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, j.State, next)
	}
	j.State = next
	if next == model.JobUploading {
		j.StartedAt = time.Now()
	}
	if next.IsTerminal() {
		j.FinishedAt = time.Now()
	}
	j.notify()
	return nil
}

// SetProgress records a non-terminal progress report.
func (j *Job) SetProgress(percent float64, file string) {
	j.Progress = percent
	j.CurrentFile = file
	j.notify()
}

// Fail ends the job in the error state from any state and records err.
func (j *Job) Fail(err error) {
	j.Err = err
	j.ErrorMessage = api.UserMessage(err)
	j.State = model.JobError
	j.FinishedAt = time.Now()
	j.notify()
}

// NotFound ends the job because the server no longer knows the session.
func (j *Job) NotFound() error {
	j.ErrorMessage = "Session not found"
	return j.Transition(model.JobNotFound)
}

// Duration returns how long the job ran, or zero while it is running.
func (j *Job) Duration() time.Duration {
	if j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

func (j *Job) notify() {
	if j.observer != nil {
		j.observer(*j)
	}
}
