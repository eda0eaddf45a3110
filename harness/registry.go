package harness

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
)

// ErrDuplicate is returned when a harness name is registered twice.
var ErrDuplicate = errors.New("harness: duplicate name")

// Registry indexes harnesses by name.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Harness
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Harness)}
}

// Register adds hs. Nothing is added if any harness is invalid or its name
// is already taken.
func (r *Registry) Register(hs ...*Harness) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(hs))
	for _, h := range hs {
		if err := h.validate(); err != nil {
			return err
		}
		if _, ok := r.byName[h.Name]; ok || seen[h.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicate, h.Name)
		}
		seen[h.Name] = true
	}
	for _, h := range hs {
		r.byName[h.Name] = h
	}
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(hs ...*Harness) {
	if err := r.Register(hs...); err != nil {
		panic(err)
	}
}

// Lookup returns the harness registered as name.
func (r *Registry) Lookup(name string) (*Harness, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byName[name]
	return h, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every harness sorted by name.
func (r *Registry) All() []*Harness {
	hs, _ := r.Match("")
	return hs
}

// Match returns the harnesses whose name, or family/name, matches the glob
// pattern. An empty pattern or "all" matches everything.
func (r *Registry) Match(pattern string) ([]*Harness, error) {
	if pattern != "" && pattern != "all" {
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("harness: bad pattern %q: %w", pattern, err)
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Harness
	for _, h := range r.byName {
		if pattern == "" || pattern == "all" || matches(pattern, h) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func matches(pattern string, h *Harness) bool {
	if ok, _ := path.Match(pattern, h.Name); ok {
		return true
	}
	ok, _ := path.Match(pattern, h.Family+"/"+h.Name)
	return ok
}
