package settings

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors. These indicate invalid construction parameters or a
// broken registry setup; they are fatal to the call and never retried.
var (
	// ErrUnknownFormat indicates the requested format has no registered
	// backend.
	ErrUnknownFormat = errors.New("unregistered settings format")

	// ErrInvalidName indicates an empty organization, application, or
	// subsystem name, or a subsystem given without an application.
	ErrInvalidName = errors.New("invalid component name")

	// ErrInvalidScope indicates an invalid base scope or fallback pair.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrUnresolvedPlaceholder indicates a resolved location still contains a
	// placeholder the handle cannot substitute, such as {application} on an
	// organization-only handle. Reaching one is a registry misconfiguration.
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder in settings location")

	// ErrUnsupportedDefault indicates a defaults leaf value of a type with no
	// canonical string encoding.
	ErrUnsupportedDefault = errors.New("unsupported default value type")
)

// ErrWriteNotSupported indicates the backend behind the primary location
// lacks write capability. It surfaces as a hard failure from Sync when
// unsaved changes exist, so pending writes are never dropped silently.
var ErrWriteNotSupported = errors.New("settings backend does not support writing")

// Sentinels for errors.Is matching against the structured error types below.
var (
	// ErrMissingValue matches MissingValueError.
	ErrMissingValue = errors.New("missing required settings value")

	// ErrInvalidValue matches InvalidValueError.
	ErrInvalidValue = errors.New("invalid settings value")

	// ErrMalformedLocation matches MalformedLocationError.
	ErrMalformedLocation = errors.New("malformed settings location")
)

// MissingValueError reports a required key absent from every resolved
// location and from the defaults. It is an expected control-flow error,
// recoverable by the caller.
type MissingValueError struct {
	// Key is the absolute key that was requested.
	Key string

	// Type is the expected value type label ("boolean", "integer",
	// "floating point", "list"), or "" for a plain string value.
	Type string

	// Locations lists the locations that were searched, highest precedence
	// first.
	Locations []string
}

// Error implements the error interface.
func (e *MissingValueError) Error() string {
	want := fmt.Sprintf("value for %q", e.Key)
	if e.Type != "" {
		want = e.Type + " " + want
	}
	msg := "missing required " + want + " in persistent settings"
	if len(e.Locations) > 0 {
		msg += " at [" + strings.Join(e.Locations, ", ") + "]"
	}
	return msg
}

// Is implements error matching against ErrMissingValue.
func (e *MissingValueError) Is(target error) bool {
	return target == ErrMissingValue
}

// InvalidValueError reports a stored value that failed type coercion.
type InvalidValueError struct {
	// Key is the absolute key whose value is invalid.
	Key string

	// Value is the raw stored string.
	Value string

	// Type is the value type label the caller requested.
	Type string

	// Err is the underlying parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	what := fmt.Sprintf("value %q for %q", e.Value, e.Key)
	if e.Type != "" {
		what = e.Type + " " + what
	}
	msg := "invalid " + what + " in persistent settings"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying parse error.
func (e *InvalidValueError) Unwrap() error {
	return e.Err
}

// Is implements error matching against ErrInvalidValue.
func (e *InvalidValueError) Is(target error) bool {
	return target == ErrInvalidValue
}

// MalformedLocationError reports a location whose contents could not be
// parsed or opened as valid storage for its format. The cache manager
// attaches the location string before re-raising backend failures, so the
// error always names the location that triggered it.
type MalformedLocationError struct {
	// Location is the storage location that is malformed.
	Location string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *MalformedLocationError) Error() string {
	msg := "malformed persistent settings"
	if e.Location != "" {
		msg += fmt.Sprintf(" at %q", e.Location)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying failure.
func (e *MalformedLocationError) Unwrap() error {
	return e.Err
}

// Is implements error matching against ErrMalformedLocation.
func (e *MalformedLocationError) Is(target error) bool {
	return target == ErrMalformedLocation
}
