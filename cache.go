package settings

import (
	"errors"
	"fmt"
	"time"

	"github.com/sprucekit/settings/backend"
	"github.com/sprucekit/settings/notify"
)

// Sync writes unsaved changes to the primary location and rebuilds the cache
// from every resolved location.
//
// Writes always target the primary (highest precedence) location only.
// A pending ClearAll is actuated first as the backend-defined
// remove-everything write. Remaining dirty keys are flushed as one mapping;
// a backend without write capability fails here with ErrWriteNotSupported,
// so pending changes are never dropped silently.
//
// The cache is then rebuilt from scratch: the flattened defaults seed it at
// the lowest precedence, and each location is read in reverse precedence
// order so higher-precedence values overwrite lower ones. The key set read
// from the primary location is recorded as the writable surface.
func (s *Settings) Sync() error {
	b, ok := s.reg.Backend(s.format)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, s.format)
	}

	locations, err := s.resolveLocations()
	if err != nil {
		return err
	}
	s.locations = locations
	primary := locations[0]

	if _, pending := s.dirty[""]; pending {
		if err := b.Write(primary, backend.WipeAll()); err != nil {
			return annotateLocation(primary, err)
		}
		delete(s.dirty, "")
		delete(s.cache, "")
	}

	if len(s.dirty) > 0 {
		// The dirty set may be shared with copies of this handle; only keys
		// this cache has an entry for are flushed here.
		pendingWrites := make(backend.Values, len(s.dirty))
		for key := range s.dirty {
			if v, ok := s.cache[key]; ok {
				pendingWrites[key] = v
			}
		}
		if len(pendingWrites) > 0 {
			if err := b.Write(primary, pendingWrites); err != nil {
				return annotateLocation(primary, err)
			}
			s.logger.Debug("flushed settings",
				"format", s.format, "location", primary, "keys", len(pendingWrites))
			for key := range pendingWrites {
				delete(s.dirty, key)
			}
		}
	}

	s.cache = make(backend.Values, len(s.defaults))
	for key, value := range s.defaults {
		s.cache[key] = backend.String(value)
	}
	for i := len(locations) - 1; i >= 0; i-- {
		location := locations[i]
		read, err := b.Read(location, backend.AllKeys)
		if err != nil {
			return annotateLocation(location, err)
		}
		for key, value := range read {
			if value.Present() {
				s.cache[key] = value
			}
		}
		if i == 0 {
			for key := range s.primaryKeys {
				delete(s.primaryKeys, key)
			}
			for key := range read {
				s.primaryKeys[key] = struct{}{}
			}
		}
	}

	s.cacheCreated = time.Now()
	s.cachePopulated = true
	s.logger.Debug("synchronized settings",
		"format", s.format, "locations", len(locations), "keys", len(s.cache))
	s.notifier.Notify(notify.Change{Type: notify.ChangeReload, Location: primary})
	return nil
}

// annotateLocation attaches the location that triggered a backend failure.
// Malformed-location errors are re-wrapped so they always carry the location
// string; other errors are wrapped with location context.
func annotateLocation(location string, err error) error {
	var malformed *MalformedLocationError
	if errors.As(err, &malformed) {
		inner := malformed.Err
		if inner == nil {
			inner = err
		}
		return &MalformedLocationError{Location: location, Err: inner}
	}
	return fmt.Errorf("settings location %q: %w", location, err)
}

// ensureFresh synchronizes before a read when the cache was never populated,
// or when expiry is enabled and the cache has outlived its lifespan. This is
// the only automatic sync trigger besides Open and Close; there is no
// background refresh.
func (s *Settings) ensureFresh() error {
	if !s.cachePopulated {
		return s.Sync()
	}
	if s.expiryDisabled {
		return nil
	}
	if time.Since(s.cacheCreated) > s.lifespan {
		return s.Sync()
	}
	return nil
}
