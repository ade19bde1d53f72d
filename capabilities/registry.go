package capabilities

import (
	"slices"
	"sync"
)

// Registry holds the capabilities of a single session, unique by name and
// kept in insertion order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	caps  map[string]*Capability
}

// NewRegistry creates a registry from caps. When a name repeats, the first
// occurrence wins.
func NewRegistry(caps []Capability) *Registry {
	r := &Registry{
		caps: make(map[string]*Capability, len(caps)),
	}
	for _, c := range caps {
		if _, exists := r.caps[c.Name]; exists {
			continue
		}
		c = c.clone()
		r.caps[c.Name] = &c
		r.order = append(r.order, c.Name)
	}
	return r
}

// Get returns a copy of the named capability.
func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.caps[name]
	if !ok {
		return Capability{}, false
	}
	return c.clone(), true
}

// List returns copies of all capabilities in stored order.
func (r *Registry) List() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Capability, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.caps[name].clone())
	}
	return out
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ActiveFor returns the enabled capabilities, in stored order. A nil
// requested list applies no further restriction; otherwise only names in
// requested are kept. Unknown requested names are ignored.
func (r *Registry) ActiveFor(requested []string) []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]Capability, 0, len(r.order))
	for _, name := range r.order {
		c := r.caps[name]
		if !c.Enabled {
			continue
		}
		if requested != nil && !slices.Contains(requested, name) {
			continue
		}
		active = append(active, c.clone())
	}
	return active
}

// Apply patches existing capabilities in place and returns how many updates
// matched. Updates naming unknown capabilities are ignored; nothing is ever
// created or removed through this path.
func (r *Registry) Apply(updates []Update) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := 0
	for _, u := range updates {
		c, ok := r.caps[u.Name]
		if !ok {
			continue
		}
		c.apply(u)
		matched++
	}
	return matched
}
