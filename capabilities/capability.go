// Package capabilities defines the named behavior modifiers that shape the
// system prompt of a session and are reported back as used.
package capabilities

import "github.com/alexschlessinger/saintsal/bag"

// Capability is a named, independently toggleable behavior modifier.
// Parameters are opaque to the core and only rendered into prompt text.
type Capability struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Enabled     bool     `json:"enabled"`
	Parameters  *bag.Bag `json:"parameters,omitempty"`
}

// Update is a partial patch for the capability called Name. Nil fields are
// left untouched; a non-nil Parameters replaces the whole parameter bag.
type Update struct {
	Name        string   `json:"name" jsonschema:"minLength=1"`
	Description *string  `json:"description,omitempty"`
	Enabled     *bool    `json:"enabled,omitempty"`
	Parameters  *bag.Bag `json:"parameters,omitempty"`
}

// clone returns a copy whose parameter bag is not shared with c.
func (c Capability) clone() Capability {
	if c.Parameters != nil {
		c.Parameters = bag.Clone(c.Parameters)
	}
	return c
}

// apply merges the provided fields of u into c.
func (c *Capability) apply(u Update) {
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Enabled != nil {
		c.Enabled = *u.Enabled
	}
	if u.Parameters != nil {
		c.Parameters = bag.Clone(u.Parameters)
	}
}

// Names returns the names of caps in order.
func Names(caps []Capability) []string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.Name
	}
	return names
}

// Enable and Disable build Update values for the common toggle case.
func Enable(name string) Update  { return toggle(name, true) }
func Disable(name string) Update { return toggle(name, false) }

func toggle(name string, enabled bool) Update {
	return Update{Name: name, Enabled: &enabled}
}
