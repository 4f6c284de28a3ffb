package poll

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Group starts and stops a set of tasks together.
//
// Design decision: errgroup tracks the task goroutines so Wait can join
// all of them; the tasks never return errors, so one task ending does not
// cancel its siblings. Stopping the group is always explicit.
type Group struct {
	tasks []*Task

	mu      sync.Mutex
	eg      *errgroup.Group
	started bool
}

// NewGroup returns a group of tasks.
func NewGroup(tasks ...*Task) *Group {
	return &Group{tasks: tasks}
}

// Start starts every task. It returns ErrAlreadyStarted if the group
// already ran.
func (g *Group) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return ErrAlreadyStarted
	}
	g.started = true

	g.eg = &errgroup.Group{}
	for _, t := range g.tasks {
		g.eg.Go(func() error {
			return t.Run(ctx)
		})
	}
	return nil
}

// Stop stops every task. It does not wait for in-flight ticks.
func (g *Group) Stop() {
	for _, t := range g.tasks {
		t.Stop()
	}
}

// Wait blocks until every task has ended.
func (g *Group) Wait() error {
	g.mu.Lock()
	eg := g.eg
	g.mu.Unlock()

	if eg == nil {
		return nil
	}
	return eg.Wait()
}

// Running reports whether the group was started and any task is still
// scheduled. Tasks whose goroutine has not begun yet count as scheduled.
func (g *Group) Running() bool {
	g.mu.Lock()
	started := g.started
	g.mu.Unlock()
	if !started {
		return false
	}
	for _, t := range g.tasks {
		if t.State() != StateStopped {
			return true
		}
	}
	return false
}

// Tasks returns the tasks of the group.
func (g *Group) Tasks() []*Task {
	return g.tasks
}
