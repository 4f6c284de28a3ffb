package pipeline

import (
	"errors"
	"testing"

	"github.com/nao1215/opsdash/internal/model"
)

// TestJobTransition tests state changes and observer notifications.
func TestJobTransition(t *testing.T) {
	t.Parallel()

	t.Run("follows the job state machine", func(t *testing.T) {
		t.Parallel()

		var seen []model.JobState
		job := NewJob(KindVideos, testParts(), WithObserver(func(j Job) {
			seen = append(seen, j.State)
		}))

		for _, next := range []model.JobState{model.JobUploading, model.JobProcessing, model.JobCompleted} {
			if err := job.Transition(next); err != nil {
				t.Fatalf("transition to %s: %v", next, err)
			}
		}

		want := []model.JobState{model.JobUploading, model.JobProcessing, model.JobCompleted}
		if len(seen) != len(want) {
			t.Fatalf("expected %v, got %v", want, seen)
		}
		for i := range want {
			if seen[i] != want[i] {
				t.Errorf("notification %d: expected %s, got %s", i, want[i], seen[i])
			}
		}
		if job.StartedAt.IsZero() || job.FinishedAt.IsZero() {
			t.Error("expected start and finish times")
		}
		if job.Duration() < 0 {
			t.Error("expected non-negative duration")
		}
	})

	t.Run("rejects illegal transitions", func(t *testing.T) {
		t.Parallel()

		job := NewJob(KindImages, testParts())
		err := job.Transition(model.JobCompleted)
		if !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("expected ErrIllegalTransition, got %v", err)
		}
		if job.State != model.JobIdle {
			t.Errorf("state changed to %s", job.State)
		}
	})

	t.Run("not found records the message", func(t *testing.T) {
		t.Parallel()

		job := NewJob(KindVideos, testParts())
		_ = job.Transition(model.JobUploading)
		_ = job.Transition(model.JobProcessing)
		if err := job.NotFound(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if job.State != model.JobNotFound || job.ErrorMessage != "Session not found" {
			t.Errorf("unexpected job %s %q", job.State, job.ErrorMessage)
		}
	})

	t.Run("defaults the filter to all", func(t *testing.T) {
		t.Parallel()

		if got := NewJob(KindImages, nil).Filter; got != model.FilterAll {
			t.Errorf("expected all, got %s", got)
		}
		if got := NewJob(KindImages, nil, WithFilter(model.FilterCar)).Filter; got != model.FilterCar {
			t.Errorf("expected car, got %s", got)
		}
	})
}
