package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/config"
	"github.com/nao1215/opsdash/internal/log"
	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/poll"
)

// Backend is the part of the API client the submission steps use.
// *api.Client implements it.
type Backend interface {
	UploadImages(ctx context.Context, parts []api.Part) (*model.UploadResponse, error)
	UploadVideos(ctx context.Context, parts []api.Part) (*model.UploadResponse, error)
	UploadCamo(ctx context.Context, parts []api.Part) (*model.UploadResponse, error)
	UploadUAV(ctx context.Context, parts []api.Part) (*model.UAVUploadResponse, error)
	ProcessImages(ctx context.Context, sid model.SessionID, filter model.DetectionFilter) (*model.ImageResults, error)
	ProcessVideos(ctx context.Context, sid model.SessionID, filter model.DetectionFilter) error
	ProcessCamo(ctx context.Context, sid model.SessionID) (*model.CamoResults, error)
	VideoProgress(ctx context.Context, sid model.SessionID) (*model.VideoProgress, error)
}

// UploadStep sends the job's files and records the returned session.
// A UAV upload also carries the results and completes the job.
type UploadStep struct {
	backend Backend
}

// NewUploadStep creates an upload step.
func NewUploadStep(backend Backend) *UploadStep {
	return &UploadStep{backend: backend}
}

// Name returns the step name.
func (s *UploadStep) Name() string {
	return "upload"
}

// Do executes the upload.
func (s *UploadStep) Do(ctx context.Context, job *Job) error {
	if len(job.Parts) == 0 {
		return api.ErrNoFiles
	}
	if err := job.Transition(model.JobUploading); err != nil {
		return err
	}

	var (
		resp *model.UploadResponse
		err  error
	)
	switch job.Kind {
	case KindImages:
		resp, err = s.backend.UploadImages(ctx, job.Parts)
	case KindVideos:
		resp, err = s.backend.UploadVideos(ctx, job.Parts)
	case KindCamo:
		resp, err = s.backend.UploadCamo(ctx, job.Parts)
	case KindUAV:
		uav, err := s.backend.UploadUAV(ctx, job.Parts)
		if err != nil {
			return err
		}
		job.SessionID = uav.SessionID
		job.UAV = uav
		return job.Transition(model.JobCompleted)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, job.Kind)
	}
	if err != nil {
		return err
	}

	job.SessionID = resp.SessionID
	return nil
}

// ProcessImagesStep runs detection over an uploaded image session.
type ProcessImagesStep struct {
	backend Backend
}

// NewProcessImagesStep creates an image processing step.
func NewProcessImagesStep(backend Backend) *ProcessImagesStep {
	return &ProcessImagesStep{backend: backend}
}

// Name returns the step name.
func (s *ProcessImagesStep) Name() string {
	return "process_images"
}

// Do executes the process request and completes the job.
func (s *ProcessImagesStep) Do(ctx context.Context, job *Job) error {
	if err := job.Transition(model.JobProcessing); err != nil {
		return err
	}
	results, err := s.backend.ProcessImages(ctx, job.SessionID, job.Filter)
	if err != nil {
		return err
	}
	job.Images = results
	return job.Transition(model.JobCompleted)
}

// ProcessCamoStep runs camouflage detection over an uploaded session.
type ProcessCamoStep struct {
	backend Backend
}

// NewProcessCamoStep creates a camouflage processing step.
func NewProcessCamoStep(backend Backend) *ProcessCamoStep {
	return &ProcessCamoStep{backend: backend}
}

// Name returns the step name.
func (s *ProcessCamoStep) Name() string {
	return "process_camouflage"
}

// Do executes the process request and completes the job.
func (s *ProcessCamoStep) Do(ctx context.Context, job *Job) error {
	if err := job.Transition(model.JobProcessing); err != nil {
		return err
	}
	results, err := s.backend.ProcessCamo(ctx, job.SessionID)
	if err != nil {
		return err
	}
	job.Camo = results
	return job.Transition(model.JobCompleted)
}

// StartVideosStep starts background processing of an uploaded video session.
type StartVideosStep struct {
	backend Backend
}

// NewStartVideosStep creates a video start step.
func NewStartVideosStep(backend Backend) *StartVideosStep {
	return &StartVideosStep{backend: backend}
}

// Name returns the step name.
func (s *StartVideosStep) Name() string {
	return "process_videos"
}

// Do sends the process request. The job stays in processing.
func (s *StartVideosStep) Do(ctx context.Context, job *Job) error {
	if err := s.backend.ProcessVideos(ctx, job.SessionID, job.Filter); err != nil {
		return err
	}
	return job.Transition(model.JobProcessing)
}

// terminalProgress is the set of progress statuses that stop polling.
var terminalProgress = poll.NewTerminal(
	model.ProgressCompleted,
	model.ProgressError,
	model.ProgressNotFound,
)

// PollProgressStep polls the video progress endpoint until the job reaches
// a terminal status.
//
// Design decision: Only a 403 ends polling early, since an expired login
// never recovers on its own. Every other failed poll is logged and the next
// tick tries again; a lost session arrives as the not_found status.
type PollProgressStep struct {
	backend  Backend
	interval time.Duration
	logger   *slog.Logger
}

// PollProgressOption configures a PollProgressStep.
type PollProgressOption func(*PollProgressStep)

// WithPollInterval sets the progress polling interval.
func WithPollInterval(d time.Duration) PollProgressOption {
	return func(s *PollProgressStep) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithPollLogger sets a custom logger for the polling step.
func WithPollLogger(logger *slog.Logger) PollProgressOption {
	return func(s *PollProgressStep) {
		s.logger = logger
	}
}

// NewPollProgressStep creates a progress polling step.
func NewPollProgressStep(backend Backend, opts ...PollProgressOption) *PollProgressStep {
	s := &PollProgressStep{
		backend:  backend,
		interval: config.DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewDiscardLogger()
	}
	return s
}

// Name returns the step name.
func (s *PollProgressStep) Name() string {
	return "poll_progress"
}

// Do polls until a terminal status, a 403, or ctx ends.
func (s *PollProgressStep) Do(ctx context.Context, job *Job) error {
	var final error

	fn := poll.Until(
		func(ctx context.Context) (*model.VideoProgress, error) {
			return s.backend.VideoProgress(ctx, job.SessionID)
		},
		func(p *model.VideoProgress) model.ProgressStatus {
			return p.Status
		},
		terminalProgress,
		func(p *model.VideoProgress) {
			switch p.Status {
			case model.ProgressProcessing:
				job.SetProgress(p.Progress, p.CurrentFile)
			case model.ProgressCompleted:
				job.Videos = p.Results
				final = job.Transition(model.JobCompleted)
			case model.ProgressError:
				final = &api.DomainError{Message: model.Envelope{Error: p.Error}.ErrorText("Processing failed")}
			case model.ProgressNotFound:
				final = job.NotFound()
			default:
				s.logger.Debug("ignoring unknown progress status", "status", p.Status)
			}
		},
		func(err error) bool {
			if api.StatusCode(err) == http.StatusForbidden {
				final = err
				return true
			}
			s.logger.Warn("progress poll failed",
				"session", job.SessionID,
				"error", err,
			)
			return false
		},
	)

	task, err := poll.NewTask("video_progress", s.interval, fn, poll.WithLogger(s.logger))
	if err != nil {
		return err
	}
	if err := task.Run(ctx); err != nil {
		return err
	}
	if final == nil && !job.State.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return final
}

// ForKind builds the step sequence of a job kind.
func ForKind(kind Kind, backend Backend, opts []Option, pollOpts ...PollProgressOption) (*Pipeline, error) {
	p := New(opts...)
	switch kind {
	case KindImages:
		p.AddSteps(NewUploadStep(backend), NewProcessImagesStep(backend))
	case KindVideos:
		p.AddSteps(NewUploadStep(backend), NewStartVideosStep(backend), NewPollProgressStep(backend, pollOpts...))
	case KindCamo:
		p.AddSteps(NewUploadStep(backend), NewProcessCamoStep(backend))
	case KindUAV:
		p.AddStep(NewUploadStep(backend))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return p, nil
}
