package view

import "sync"

// Control is the state of one button or input.
type Control struct {
	Enabled bool
	Visible bool
	Label   string
}

// Controls holds the control states of a page by name.
type Controls struct {
	mu sync.Mutex
	m  map[string]Control
}

// NewControls returns an empty control set.
func NewControls() *Controls {
	return &Controls{m: make(map[string]Control)}
}

// Set replaces a control state.
func (c *Controls) Set(name string, ctl Control) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[name] = ctl
}

// Get returns a control state. Unknown controls are disabled and hidden.
func (c *Controls) Get(name string) Control {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[name]
}

// Enable sets whether a control accepts input.
func (c *Controls) Enable(name string, enabled bool) {
	c.update(name, func(ctl *Control) { ctl.Enabled = enabled })
}

// Show sets whether a control is displayed.
func (c *Controls) Show(name string, visible bool) {
	c.update(name, func(ctl *Control) { ctl.Visible = visible })
}

// SetLabel sets a control's label.
func (c *Controls) SetLabel(name, label string) {
	c.update(name, func(ctl *Control) { ctl.Label = label })
}

// Enabled reports whether the named control accepts input.
func (c *Controls) Enabled(name string) bool {
	return c.Get(name).Enabled
}

// Visible reports whether the named control is displayed.
func (c *Controls) Visible(name string) bool {
	return c.Get(name).Visible
}

func (c *Controls) update(name string, fn func(*Control)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctl := c.m[name]
	fn(&ctl)
	c.m[name] = ctl
}
