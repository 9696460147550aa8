package settings_test

import (
	"github.com/sprucekit/settings/backend"
	"github.com/sprucekit/settings/registry"
	"github.com/sprucekit/settings/scope"
)

// fakeBackend is an instrumented in-memory backend for exercising the
// settings core: it counts reads, records writes, and can be primed to fail.
type fakeBackend struct {
	format   string
	ext      string
	writable bool

	stores   map[string]backend.Values
	readErrs map[string]error
	writeErr error

	reads  int
	writes []fakeWrite
}

type fakeWrite struct {
	location string
	values   backend.Values
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		format:   "fake",
		writable: true,
		stores:   make(map[string]backend.Values),
		readErrs: make(map[string]error),
	}
}

func (b *fakeBackend) Name() string      { return b.format }
func (b *fakeBackend) Extension() string { return b.ext }
func (b *fakeBackend) Writable() bool    { return b.writable }

func (b *fakeBackend) Read(location string, keys []string) (backend.Values, error) {
	b.reads++
	if err := b.readErrs[location]; err != nil {
		return nil, err
	}

	store := b.stores[location]
	if backend.WantsAllKeys(keys) {
		return store.Clone(), nil
	}

	out := make(backend.Values, len(keys))
	for _, key := range keys {
		if v, ok := store[key]; ok {
			out[key] = v
		} else {
			out[key] = backend.Absent()
		}
	}
	return out, nil
}

func (b *fakeBackend) Write(location string, values backend.Values) error {
	if b.writeErr != nil {
		return b.writeErr
	}
	b.writes = append(b.writes, fakeWrite{location: location, values: values.Clone()})

	if wipe, ok := values[""]; ok && !wipe.Present() && len(values) == 1 {
		delete(b.stores, location)
		return nil
	}

	store := b.stores[location]
	if store == nil {
		store = make(backend.Values)
		b.stores[location] = store
	}
	for key, value := range values {
		if value.Present() {
			store[key] = value
		} else {
			delete(store, key)
		}
	}
	return nil
}

func (b *fakeBackend) seed(location string, values map[string]string) {
	store := make(backend.Values, len(values))
	for k, v := range values {
		store[k] = backend.String(v)
	}
	b.stores[location] = store
}

// newFakeRegistry installs b with virtual slash-path templates matching the
// in-memory backend's layout.
func newFakeRegistry(b *fakeBackend) *registry.Registry {
	reg := registry.New()
	reg.RegisterBackend(b)

	reg.SetPath(b.format, scope.BaseUser, scope.Organization, "user/{organization}")
	reg.SetPath(b.format, scope.BaseUser, scope.Application, "user/{organization}/{application}")
	reg.SetPath(b.format, scope.BaseUser, scope.Subsystem, "user/{organization}/{application}/{subsystem}")
	reg.SetPath(b.format, scope.BaseSystem, scope.Organization, "system/{organization}")
	reg.SetPath(b.format, scope.BaseSystem, scope.Application, "system/{organization}/{application}")
	reg.SetPath(b.format, scope.BaseSystem, scope.Subsystem, "system/{organization}/{application}/{subsystem}")

	return reg
}
