package poll

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/opsdash/internal/log"
)

// Func is one tick of a task. Returning true ends the task.
type Func func(ctx context.Context) (done bool)

// State is the lifecycle state of a Task.
type State int32

const (
	// StateIdle means the task was created but not started.
	StateIdle State = iota
	// StateRunning means the task is scheduled.
	StateRunning
	// StateStopped is terminal: the task finished or was stopped.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Task is a cancellable scheduled task.
type Task struct {
	name      string
	interval  time.Duration
	fn        Func
	logger    *slog.Logger
	immediate bool
	once      bool

	state    atomic.Int32
	ticks    atomic.Int64
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Task.
type Option func(*Task)

// WithLogger sets the logger for panics and lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Task) {
		t.logger = logger
	}
}

// WithImmediate runs the first tick right away instead of after one interval.
func WithImmediate() Option {
	return func(t *Task) {
		t.immediate = true
	}
}

// NewTask creates a task that calls fn every interval.
func NewTask(name string, interval time.Duration, fn Func, opts ...Option) (*Task, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, name)
	}
	t := &Task{
		name:     name,
		interval: interval,
		fn:       fn,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = log.NewDiscardLogger()
	}
	return t, nil
}

// NewTimer creates a task that calls fn once after delay. A zero delay
// fires on the next scheduler turn.
func NewTimer(name string, delay time.Duration, fn func(ctx context.Context), opts ...Option) *Task {
	t := &Task{
		name:     name,
		interval: max(delay, 0),
		fn: func(ctx context.Context) bool {
			fn(ctx)
			return true
		},
		once: true,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = log.NewDiscardLogger()
	}
	return t
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// State returns the current lifecycle state.
func (t *Task) State() State {
	return State(t.state.Load())
}

// Ticks returns how many times the task function has been called.
func (t *Task) Ticks() int64 {
	return t.ticks.Load()
}

// Start runs the task in a new goroutine.
func (t *Task) Start(ctx context.Context) error {
	if !t.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("%w: %s", ErrAlreadyStarted, t.name)
	}
	go t.loop(ctx)
	return nil
}

// Run runs the task on the calling goroutine until it ends.
// It returns nil when the task finished, was stopped, or ctx ended.
func (t *Task) Run(ctx context.Context) error {
	if !t.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("%w: %s", ErrAlreadyStarted, t.name)
	}
	t.loop(ctx)
	return nil
}

// Stop ends the task. It is safe to call more than once and before Start.
// A tick already in progress is not interrupted.
func (t *Task) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
		// A task stopped before it started never runs.
		if t.state.CompareAndSwap(int32(StateIdle), int32(StateStopped)) {
			close(t.done)
		}
	})
}

// Done returns a channel closed when the task has ended.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task has ended. It returns immediately for a task
// that was never started.
func (t *Task) Wait() {
	if t.State() == StateIdle {
		return
	}
	<-t.done
}

func (t *Task) stopped() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}

func (t *Task) loop(ctx context.Context) {
	defer func() {
		t.state.Store(int32(StateStopped))
		close(t.done)
		t.logger.Debug("task ended", "task", t.name, "ticks", t.ticks.Load())
	}()

	if t.once {
		timer := time.NewTimer(t.interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-t.stop:
		case <-timer.C:
			t.tick(ctx)
		}
		return
	}

	if t.immediate && t.tick(ctx) {
		return
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case <-ticker.C:
			if t.tick(ctx) {
				return
			}
		}
	}
}

// tick calls the task function once. A recovered panic does not end the task.
func (t *Task) tick(ctx context.Context) (done bool) {
	if t.stopped() || ctx.Err() != nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("scheduled task panicked", "task", t.name, "panic", r)
			done = t.once
		}
	}()
	t.ticks.Add(1)
	return t.fn(ctx)
}
