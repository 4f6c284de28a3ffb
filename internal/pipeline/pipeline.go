package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/opsdash/internal/log"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each advancing the shared Job.
//
// Design decision: We use an interface rather than function types because
// steps carry their backend and interval configuration, and Name() gives
// every log line a stable step label.
type Step interface {
	// Do executes the step. A returned error ends the job in the error
	// state and the pipeline with it.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = log.NewDiscardLogger()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in sequence until one fails or the job reaches
// a terminal state.
//
// Design decision: We check ctx before each step rather than during,
// because steps hand ctx to their requests and stop on their own.
//
// The returned error is also recorded on the job with its user-facing
// message.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			job.Fail(err)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"kind", job.Kind,
			"session", job.SessionID,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"kind", job.Kind,
				"session", job.SessionID,
				"error", err,
			)
			job.Fail(err)
			return err
		}
		p.logger.Debug("step completed",
			"step", step.Name(),
			"state", job.State,
		)

		job.PerformedSteps = append(job.PerformedSteps, step.Name())

		// A step that ended the job ends the pipeline.
		if job.State.IsTerminal() {
			break
		}
	}
	return nil
}
