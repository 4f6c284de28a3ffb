package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

const (
	testInterval = 5 * time.Millisecond
	testDeadline = 2 * time.Second
)

func waitDone(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(testDeadline):
		t.Fatalf("task %s did not end", task.Name())
	}
}

// TestNewTask tests the Task constructor.
func TestNewTask(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive interval", func(t *testing.T) {
		t.Parallel()

		_, err := NewTask("bad", 0, func(context.Context) bool { return true })
		if !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("expected ErrInvalidInterval, got %v", err)
		}
	})

	t.Run("starts idle", func(t *testing.T) {
		t.Parallel()

		task, err := NewTask("idle", testInterval, func(context.Context) bool { return true })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if task.State() != StateIdle {
			t.Errorf("expected idle, got %s", task.State())
		}
	})
}

// TestTaskRun tests the scheduling loop.
func TestTaskRun(t *testing.T) {
	t.Parallel()

	t.Run("ends when the function reports done", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		task, err := NewTask("count", testInterval, func(context.Context) bool {
			return calls.Add(1) == 3
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := task.Start(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		waitDone(t, task)

		if calls.Load() != 3 {
			t.Errorf("expected 3 calls, got %d", calls.Load())
		}
		if task.State() != StateStopped {
			t.Errorf("expected stopped, got %s", task.State())
		}
	})

	t.Run("immediate runs the first tick without waiting", func(t *testing.T) {
		t.Parallel()

		task, err := NewTask("now", time.Hour, func(context.Context) bool { return true }, WithImmediate())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := task.Start(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		waitDone(t, task)

		if task.Ticks() != 1 {
			t.Errorf("expected 1 tick, got %d", task.Ticks())
		}
	})

	t.Run("cannot start twice", func(t *testing.T) {
		t.Parallel()

		task, err := NewTask("twice", testInterval, func(context.Context) bool { return true })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := task.Start(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := task.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
			t.Errorf("expected ErrAlreadyStarted, got %v", err)
		}
		waitDone(t, task)
		if err := task.Run(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
			t.Errorf("expected ErrAlreadyStarted after stop, got %v", err)
		}
	})

	t.Run("context cancellation ends the task", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		task, err := NewTask("ctx", testInterval, func(context.Context) bool { return false })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := task.Start(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cancel()
		waitDone(t, task)
	})

	t.Run("recovers from panics and keeps ticking", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		task, err := NewTask("panic", testInterval, func(context.Context) bool {
			if calls.Add(1) == 1 {
				panic("boom")
			}
			return true
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := task.Start(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		waitDone(t, task)

		if calls.Load() != 2 {
			t.Errorf("expected 2 calls, got %d", calls.Load())
		}
	})
}

// TestTaskStop tests that Stop is final and idempotent.
func TestTaskStop(t *testing.T) {
	t.Parallel()

	t.Run("stop ends a running task", func(t *testing.T) {
		t.Parallel()

		task, err := NewTask("stop", testInterval, func(context.Context) bool { return false })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := task.Start(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		time.Sleep(3 * testInterval)
		task.Stop()
		task.Stop()
		task.Wait()

		ticks := task.Ticks()
		time.Sleep(3 * testInterval)
		if task.Ticks() != ticks {
			t.Errorf("task ticked after stop: %d -> %d", ticks, task.Ticks())
		}
	})

	t.Run("stop before start prevents running", func(t *testing.T) {
		t.Parallel()

		task, err := NewTask("never", testInterval, func(context.Context) bool { return false })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		task.Stop()
		waitDone(t, task)

		if err := task.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
			t.Errorf("expected ErrAlreadyStarted, got %v", err)
		}
		if task.Ticks() != 0 {
			t.Errorf("expected no ticks, got %d", task.Ticks())
		}
	})

	t.Run("wait on an idle task returns", func(t *testing.T) {
		t.Parallel()

		task, err := NewTask("idle", testInterval, func(context.Context) bool { return false })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		task.Wait()
	})
}

// TestTimer tests one-shot tasks.
func TestTimer(t *testing.T) {
	t.Parallel()

	t.Run("fires once after the delay", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		timer := NewTimer("once", testInterval, func(context.Context) { calls.Add(1) })
		if err := timer.Start(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		waitDone(t, timer)

		if calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", calls.Load())
		}
	})

	t.Run("stopped timer never fires", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		timer := NewTimer("cancelled", time.Hour, func(context.Context) { calls.Add(1) })
		if err := timer.Start(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		timer.Stop()
		waitDone(t, timer)

		if calls.Load() != 0 {
			t.Errorf("expected no calls, got %d", calls.Load())
		}
	})
}

// TestStateString tests State names.
func TestStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateRunning, "running"},
		{StateStopped, "stopped"},
		{State(9), "State(9)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
