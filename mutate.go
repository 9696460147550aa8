package settings

import (
	"strings"

	"github.com/sprucekit/settings/backend"
	"github.com/sprucekit/settings/notify"
)

// SetValue assigns value to the setting identified by key in the current
// group. The change lands in the cache immediately and is flushed to the
// primary location on the next synchronization. Mutation does not trigger a
// sync by itself.
func (s *Settings) SetValue(key, value string) {
	abs := s.AbsName(key)
	var old string
	if prev, ok := s.cache[abs]; ok && prev.Present() {
		old = prev.String()
	}
	s.cache[abs] = backend.String(value)
	s.dirty[abs] = struct{}{}
	s.primaryKeys[abs] = struct{}{}
	s.notifier.Notify(notify.Change{Key: abs, Type: notify.ChangeSet, OldValue: old, NewValue: value})
}

// SetBoolValue assigns the canonical boolean encoding, which reads back
// through BoolValue.
func (s *Settings) SetBoolValue(key string, value bool) {
	s.SetValue(key, EncodeBool(value))
}

// SetIntValue assigns the canonical integer encoding, which reads back
// through IntValue.
func (s *Settings) SetIntValue(key string, value int64) {
	s.SetValue(key, EncodeInt(value))
}

// SetFloatValue assigns the canonical floating-point encoding, which reads
// back through FloatValue.
func (s *Settings) SetFloatValue(key string, value float64) {
	s.SetValue(key, EncodeFloat(value))
}

// SetListValue assigns the canonical list encoding, which reads back through
// ListValue. Items containing the default separator cannot round-trip.
func (s *Settings) SetListValue(key string, items []string) {
	s.SetValue(key, EncodeList(items))
}

// Remove marks the setting identified by key in the current group as absent
// and schedules its removal from the primary location on the next
// synchronization. Entries in fallback locations are untouched, so a removed
// key may still resolve through fallback after the next sync.
func (s *Settings) Remove(key string) {
	abs := s.AbsName(key)
	var old string
	if prev, ok := s.cache[abs]; ok && prev.Present() {
		old = prev.String()
	}
	s.cache[abs] = backend.Absent()
	s.dirty[abs] = struct{}{}
	s.notifier.Notify(notify.Change{Key: abs, Type: notify.ChangeRemove, OldValue: old})
}

// RemoveSubtree marks every cached setting under the named group (resolved
// against the current group) as absent and dirty. An empty name targets the
// current group itself. Unlike ClearAll this removes keys individually and
// never issues the backend-wide wipe, so it only affects keys currently
// visible in the cache.
func (s *Settings) RemoveSubtree(group string) {
	prefix := s.AbsName(group)
	for key, value := range s.cache {
		if !value.Present() {
			continue
		}
		if prefix != "" && key != prefix && !strings.HasPrefix(key, prefix+"/") {
			continue
		}
		s.cache[key] = backend.Absent()
		s.dirty[key] = struct{}{}
	}
}

// ClearAll removes every entry in the primary location. The cache is wiped
// immediately and the backend-defined remove-everything write is issued on
// the next synchronization. Entries in fallback locations are not removed.
func (s *Settings) ClearAll() {
	for key := range s.dirty {
		delete(s.dirty, key)
	}
	s.dirty[""] = struct{}{}

	for key := range s.cache {
		delete(s.cache, key)
	}
	s.cache[""] = backend.Absent()
	s.notifier.Notify(notify.Change{Type: notify.ChangeClear})
}
