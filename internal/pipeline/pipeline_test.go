package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, job *Job) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, job *Job) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, job)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// memPart is an in-memory upload part.
type memPart struct {
	name string
	data string
}

func (p memPart) Name() string { return p.name }

func (p memPart) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(p.data)), nil
}

func testParts() []api.Part {
	return []api.Part{memPart{name: "a.png", data: "\x89PNG"}}
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if len(p.steps) != 0 {
			t.Errorf("expected 0 steps, got %d", len(p.steps))
		}
		if p.logger == nil {
			t.Error("expected non-nil logger")
		}
	})
}

// TestPipelineExecute tests step sequencing and error handling.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New()
		p.AddSteps(
			&mockStep{name: "step-1", doFunc: func(context.Context, *Job) error {
				order = append(order, "step-1")
				return nil
			}},
			&mockStep{name: "step-2", doFunc: func(context.Context, *Job) error {
				order = append(order, "step-2")
				return nil
			}},
		)

		job := NewJob(KindImages, testParts())
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 2 || order[0] != "step-1" || order[1] != "step-2" {
			t.Errorf("wrong execution order: %v", order)
		}
		if len(job.PerformedSteps) != 2 {
			t.Errorf("expected 2 performed steps, got %v", job.PerformedSteps)
		}
	})

	t.Run("stops on first error and fails the job", func(t *testing.T) {
		t.Parallel()

		expectedErr := &api.DomainError{Message: "No valid images"}
		second := &mockStep{name: "should-not-run"}

		p := New()
		p.AddSteps(
			&mockStep{name: "failing", doFunc: func(context.Context, *Job) error { return expectedErr }},
			second,
		)

		job := NewJob(KindImages, testParts())
		err := p.Execute(context.Background(), job)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected %v, got %v", expectedErr, err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if job.State != model.JobError {
			t.Errorf("expected error state, got %s", job.State)
		}
		if job.ErrorMessage != "No valid images" {
			t.Errorf("expected server text, got %q", job.ErrorMessage)
		}
	})

	t.Run("terminal state ends the pipeline", func(t *testing.T) {
		t.Parallel()

		after := &mockStep{name: "after"}
		p := New()
		p.AddSteps(
			&mockStep{name: "finish", doFunc: func(_ context.Context, job *Job) error {
				if err := job.Transition(model.JobUploading); err != nil {
					return err
				}
				return job.Transition(model.JobCompleted)
			}},
			after,
		)

		job := NewJob(KindUAV, testParts())
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if after.callCount != 0 {
			t.Error("no step should run after the job completed")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "never"}
		p := New()
		p.AddStep(step)

		job := NewJob(KindImages, testParts())
		err := p.Execute(ctx, job)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not run after cancellation")
		}
		if job.ErrorMessage != "Request cancelled" {
			t.Errorf("unexpected message %q", job.ErrorMessage)
		}
	})
}

// TestForKindVideoSteps tests the order of the video steps.
func TestForKindVideoSteps(t *testing.T) {
	t.Parallel()

	p, err := ForKind(KindVideos, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"upload", "process_videos", "poll_progress"}
	got := make([]string, len(p.steps))
	for i, step := range p.steps {
		got[i] = step.Name()
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

// TestForKind tests the step sequence per job kind.
func TestForKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind    Kind
		steps   int
		wantErr error
	}{
		{KindImages, 2, nil},
		{KindVideos, 3, nil},
		{KindCamo, 2, nil},
		{KindUAV, 1, nil},
		{Kind("audio"), 0, ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()

			p, err := ForKind(tt.kind, nil, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if err == nil && len(p.steps) != tt.steps {
				t.Errorf("expected %d steps, got %d", tt.steps, len(p.steps))
			}
		})
	}
}
