// Package backend defines the storage contract consumed by the settings core.
//
// A backend knows how to read and write the key/value contents of one storage
// format at a concrete location (typically a file path). The core never
// interprets locations itself; it obtains them from the registry's path
// templates and hands them to the backend unchanged.
//
// Values are strings. A setting can be present with an empty value, which is
// distinct from being absent; Value carries that distinction explicitly.
package backend

// Value is one settings value read from or written to a location.
// The zero Value is absent. An absent Value passed to Write means
// "remove this key".
type Value struct {
	str     string
	present bool
}

// String constructs a present Value. An empty string is a valid, present
// value.
func String(s string) Value {
	return Value{str: s, present: true}
}

// Absent constructs an absent Value.
func Absent() Value {
	return Value{}
}

// Present reports whether the value exists.
func (v Value) Present() bool {
	return v.present
}

// String returns the underlying string, or "" when the value is absent.
func (v Value) String() string {
	return v.str
}

// Values maps settings keys to their values. Keys are absolute,
// slash-delimited names.
type Values map[string]Value

// Clone returns an independent copy of vs.
func (vs Values) Clone() Values {
	out := make(Values, len(vs))
	for k, v := range vs {
		out[k] = v
	}
	return out
}

// AllKeys is the read sentinel meaning "return everything available at the
// location" as a full key-to-value mapping.
var AllKeys = []string{""}

// WipeAll returns the write mapping that instructs a backend to remove every
// key at a location.
func WipeAll() Values {
	return Values{"": Absent()}
}

// Backend reads and writes settings in one storage format.
//
// Read returns the values stored at location. When keys equals AllKeys, the
// result contains every key present at the location. Otherwise it contains
// exactly one entry per requested key, absent when the key is not stored.
// A location that exists but cannot be parsed as valid storage for the format
// fails with a MalformedLocationError (see the settings package). A location
// that simply does not exist reads as empty: fallback locations routinely
// point at files that were never created.
//
// Write stores the given values at location, removing keys mapped to absent
// values. The mapping returned by WipeAll removes every key at the location.
// Backends without write support return an error matching the settings
// package's ErrWriteNotSupported and report Writable false.
type Backend interface {
	// Name returns the unique format name used for registration and lookup.
	Name() string

	// Extension returns the file extension including the leading period,
	// or "" when the format has none.
	Extension() string

	// Read returns the values for the requested keys at location.
	Read(location string, keys []string) (Values, error)

	// Write stores values at location.
	Write(location string, values Values) error

	// Writable reports whether the backend supports Write.
	Writable() bool
}

// WantsAllKeys reports whether keys is the AllKeys read sentinel.
func WantsAllKeys(keys []string) bool {
	return len(keys) == 1 && keys[0] == ""
}
