// Package registry maintains the table of storage backends and the path
// templates that map a (format, base scope, component scope) triple to a
// concrete storage location.
//
// A Registry is an explicit object constructed once at startup and injected
// into each settings handle. Nothing in this module holds package-level
// mutable state, so tests can build isolated registries freely.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sprucekit/settings/backend"
	"github.com/sprucekit/settings/scope"
)

// ErrPathNotRegistered indicates no path template exists for a
// (format, base scope, component scope) triple that location resolution
// needs. The failure propagates out of resolution; it is never skipped.
var ErrPathNotRegistered = fmt.Errorf("no path registered for scope")

type pathKey struct {
	format    string
	base      scope.Base
	component scope.Component
}

// Registry maps format names to backends and scope triples to path templates.
// It is safe for concurrent use; the handles that consume it are not.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]backend.Backend
	paths    map[pathKey]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		backends: make(map[string]backend.Backend),
		paths:    make(map[pathKey]string),
	}
}

// RegisterBackend stores b under its format name, unconditionally replacing
// any prior registration. Last writer wins.
func (r *Registry) RegisterBackend(b backend.Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Name()] = b
}

// Backend returns the backend registered under name.
func (r *Registry) Backend(name string) (backend.Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	return b, ok
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetPath stores the path template for one (format, base, component) triple.
// Templates may contain the placeholders {organization}, {application},
// {subsystem}, and {extension}, substituted literally at resolution time.
func (r *Registry) SetPath(format string, base scope.Base, component scope.Component, template string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[pathKey{format: format, base: base, component: component}] = template
}

// Path returns the template registered for the triple, or an error wrapping
// ErrPathNotRegistered when none exists.
func (r *Registry) Path(format string, base scope.Base, component scope.Component) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	template, ok := r.paths[pathKey{format: format, base: base, component: component}]
	if !ok {
		return "", fmt.Errorf("%w: format %q, base scope %s, component scope %s",
			ErrPathNotRegistered, format, base, component)
	}
	return template, nil
}
