package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sync"
)

// Container is a named render target. The last write wins.
type Container struct {
	name string

	mu      sync.Mutex
	html    template.HTML
	version uint64
	closed  bool
}

// Name returns the container name.
func (c *Container) Name() string {
	return c.name
}

// Set replaces the content. It returns false when the container is closed
// and the write was dropped.
func (c *Container) Set(h template.HTML) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.html = h
	c.version++
	return true
}

// Clear empties the content.
func (c *Container) Clear() bool {
	return c.Set("")
}

// HTML returns the current content.
func (c *Container) HTML() template.HTML {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.html
}

// Version counts accepted writes.
func (c *Container) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

func (c *Container) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Page is the set of containers one controller renders into.
type Page struct {
	title string

	mu         sync.Mutex
	containers map[string]*Container
	order      []string
	closed     bool
}

// NewPage returns a page with the given containers, in display order.
func NewPage(title string, names ...string) *Page {
	p := &Page{
		title:      title,
		containers: make(map[string]*Container, len(names)),
	}
	for _, n := range names {
		p.Container(n)
	}
	return p
}

// Title returns the page title.
func (p *Page) Title() string {
	return p.title
}

// Container returns the named container, creating it on first use.
// Containers created after Close are closed too.
func (p *Page) Container(name string) *Container {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.containers[name]; ok {
		return c
	}
	c := &Container{name: name, closed: p.closed}
	p.containers[name] = c
	p.order = append(p.order, name)
	return c
}

// Names returns container names in display order.
func (p *Page) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.order...)
}

// Close tears the page down. Later writes to any container are dropped.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	for _, c := range p.containers {
		c.close()
	}
}

// Closed reports whether the page was torn down.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Render executes the named template with data and writes the result into
// the named container.
func (p *Page) Render(container, tmpl string, data any) error {
	h, err := Execute(tmpl, data)
	if err != nil {
		return err
	}
	p.Container(container).Set(h)
	return nil
}

// WriteTo writes the whole page as an HTML document.
func (p *Page) WriteTo(w io.Writer) (int64, error) {
	type section struct {
		Name string
		HTML template.HTML
	}
	data := struct {
		Title    string
		Sections []section
	}{Title: p.title}
	for _, name := range p.Names() {
		data.Sections = append(data.Sections, section{Name: name, HTML: p.Container(name).HTML()})
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "page", data); err != nil {
		return 0, fmt.Errorf("render page %q: %w", p.title, err)
	}
	return buf.WriteTo(w)
}
