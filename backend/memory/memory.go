// Package memory implements a volatile in-memory settings backend.
//
// The backend is primarily useful for tests and for runtime-only settings
// that should not outlive the process. Each Backend instance owns its own
// store; two instances never share state.
package memory

import (
	"github.com/sprucekit/settings/backend"
	"github.com/sprucekit/settings/registry"
	"github.com/sprucekit/settings/scope"
)

// FormatName is the name the backend registers under.
const FormatName = "memory"

// Backend stores settings in process memory, keyed by location.
type Backend struct {
	stores map[string]map[string]string
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{stores: make(map[string]map[string]string)}
}

// Register installs a new in-memory backend and its path templates into reg
// and returns the backend so callers can seed it directly.
//
// Locations are virtual slash paths: "user/{organization}" down to
// "system/{organization}/{application}/{subsystem}".
func Register(reg *registry.Registry) *Backend {
	b := New()
	reg.RegisterBackend(b)

	reg.SetPath(FormatName, scope.BaseUser, scope.Organization, "user/{organization}")
	reg.SetPath(FormatName, scope.BaseUser, scope.Application, "user/{organization}/{application}")
	reg.SetPath(FormatName, scope.BaseUser, scope.Subsystem, "user/{organization}/{application}/{subsystem}")
	reg.SetPath(FormatName, scope.BaseSystem, scope.Organization, "system/{organization}")
	reg.SetPath(FormatName, scope.BaseSystem, scope.Application, "system/{organization}/{application}")
	reg.SetPath(FormatName, scope.BaseSystem, scope.Subsystem, "system/{organization}/{application}/{subsystem}")

	return b
}

// Name returns the format name.
func (b *Backend) Name() string { return FormatName }

// Extension returns the empty extension; locations are not file paths.
func (b *Backend) Extension() string { return "" }

// Writable reports that the backend supports writing.
func (b *Backend) Writable() bool { return true }

// Seed replaces the contents of location, bypassing the write contract.
// Intended for test setup.
func (b *Backend) Seed(location string, values map[string]string) {
	store := make(map[string]string, len(values))
	for k, v := range values {
		store[k] = v
	}
	b.stores[location] = store
}

// Read returns the values at location. An unknown location reads as empty.
func (b *Backend) Read(location string, keys []string) (backend.Values, error) {
	store := b.stores[location]

	if backend.WantsAllKeys(keys) {
		out := make(backend.Values, len(store))
		for k, v := range store {
			out[k] = backend.String(v)
		}
		return out, nil
	}

	out := make(backend.Values, len(keys))
	for _, key := range keys {
		if v, ok := store[key]; ok {
			out[key] = backend.String(v)
		} else {
			out[key] = backend.Absent()
		}
	}
	return out, nil
}

// Write applies values to location. Absent values remove keys; the wipe-all
// mapping discards the location entirely.
func (b *Backend) Write(location string, values backend.Values) error {
	if wipe, ok := values[""]; ok && !wipe.Present() && len(values) == 1 {
		delete(b.stores, location)
		return nil
	}

	store := b.stores[location]
	if store == nil {
		store = make(map[string]string)
		b.stores[location] = store
	}
	for key, value := range values {
		if value.Present() {
			store[key] = value.String()
		} else {
			delete(store, key)
		}
	}
	return nil
}

var _ backend.Backend = (*Backend)(nil)
