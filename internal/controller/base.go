package controller

import (
	"context"
	"sync"
	"time"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/poll"
	"github.com/nao1215/opsdash/internal/view"
)

// base carries what every controller has: settings, a page, its controls
// and the work it started.
type base struct {
	settings

	page     *view.Page
	controls *view.Controls

	mu      sync.Mutex
	tasks   []*poll.Task
	cancels map[int]context.CancelFunc
	nextID  int
	closed  bool
}

func newBase(title string, opts []Option, containers ...string) base {
	return base{
		settings: newSettings(opts),
		page:     view.NewPage(title, containers...),
		controls: view.NewControls(),
	}
}

// Page returns the page the controller renders into.
func (b *base) Page() *view.Page {
	return b.page
}

// Controls returns the state of the page's buttons.
func (b *base) Controls() *view.Controls {
	return b.controls
}

// render writes a fragment into a container. A failed render is logged
// and leaves the previous content in place.
func (b *base) render(container, tmpl string, data any) {
	if err := b.page.Render(container, tmpl, data); err != nil {
		b.logger.Error("render failed",
			"page", b.page.Title(),
			"container", container,
			"template", tmpl,
			"error", err,
		)
	}
}

// status shows a status message in container.
func (b *base) status(container string, s view.Status) {
	b.render(container, view.TmplStatus, s)
}

// fail logs err and shows msg as an error status in container.
func (b *base) fail(container, msg string, err error) {
	b.logger.Warn("operation failed",
		"page", b.page.Title(),
		"container", container,
		"error", err,
	)
	b.status(container, view.ErrorStatus(msg))
}

// flash shows s in container and clears it after ttl unless a newer
// write replaced it first.
func (b *base) flash(ctx context.Context, container string, s view.Status, ttl time.Duration) {
	b.status(container, s)
	c := b.page.Container(container)
	shown := c.Version()
	hide := poll.NewTimer(container+"_clear", ttl, func(context.Context) {
		if c.Version() == shown {
			c.Clear()
		}
	}, poll.WithLogger(b.logger))
	if err := b.schedule(context.WithoutCancel(ctx), hide); err != nil {
		b.logger.Debug("status clear not scheduled", "container", container, "error", err)
	}
}

// schedule starts t and keeps it so Close can stop it. Tasks that already
// ended are dropped from the list.
func (b *base) schedule(ctx context.Context, t *poll.Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		t.Stop()
		return ErrClosed
	}
	live := b.tasks[:0]
	for _, old := range b.tasks {
		if old.State() != poll.StateStopped {
			live = append(live, old)
		}
	}
	b.tasks = append(live, t)
	return t.Start(ctx)
}

// track derives a context that shutdown cancels, for work that runs on
// the caller's goroutine such as a progress poll. done must be called
// when that work returns.
func (b *base) track(ctx context.Context) (tracked context.Context, done func(), err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, nil, ErrClosed
	}
	tracked, cancel := context.WithCancel(ctx)
	if b.cancels == nil {
		b.cancels = make(map[int]context.CancelFunc)
	}
	id := b.nextID
	b.nextID++
	b.cancels[id] = cancel

	return tracked, func() {
		b.mu.Lock()
		delete(b.cancels, id)
		b.mu.Unlock()
		cancel()
	}, nil
}

// isClosed reports whether Close ran.
func (b *base) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// shutdown stops every scheduled task, cancels tracked work and tears
// the page down. Requests still in flight land on the closed page and
// are dropped.
func (b *base) shutdown() {
	b.mu.Lock()
	b.closed = true
	tasks := b.tasks
	cancels := b.cancels
	b.tasks = nil
	b.cancels = nil
	b.mu.Unlock()

	for _, t := range tasks {
		t.Stop()
	}
	for _, cancel := range cancels {
		cancel()
	}
	b.page.Close()
}

// Download is a file fetched from the backend, ready to be saved.
type Download struct {
	Name        string
	ContentType string
	Data        []byte
}

func newDownload(name string, blob *api.Blob) *Download {
	return &Download{Name: name, ContentType: blob.ContentType, Data: blob.Data}
}
