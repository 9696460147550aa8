// Package scope defines the base and component scopes that identify where
// settings are stored and the fallback relationships between them.
//
// Settings are specific to an organization, an application, or an application
// subsystem; these are the component scopes. Independently, settings may be
// per-user or system-wide; these are the base scopes. Narrower component
// scopes take precedence over broader ones when resolving a key.
package scope

import (
	"errors"
	"fmt"
)

// Base identifies whether settings are per-user or system-wide.
type Base uint8

const (
	// BaseUser selects per-user settings. User-scope handles fall back to
	// system-wide settings when base-scope fallback is enabled.
	BaseUser Base = iota

	// BaseSystem selects system-wide settings only.
	BaseSystem
)

// String returns the base scope name.
func (b Base) String() string {
	switch b {
	case BaseUser:
		return "user"
	case BaseSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Valid reports whether b is a defined base scope.
func (b Base) Valid() bool {
	return b == BaseUser || b == BaseSystem
}

// Component identifies which component a settings location belongs to.
// Precedence is subsystem > application > organization: a key found in a
// narrower scope shadows the same key in a broader one.
type Component uint8

const (
	// Organization is the broadest component scope.
	Organization Component = iota

	// Application scopes settings to one application within an organization.
	Application

	// Subsystem is the narrowest component scope, one subsystem of an
	// application.
	Subsystem
)

// String returns the component scope name.
func (c Component) String() string {
	switch c {
	case Organization:
		return "organization"
	case Application:
		return "application"
	case Subsystem:
		return "subsystem"
	default:
		return "unknown"
	}
}

// Valid reports whether c is a defined component scope.
func (c Component) Valid() bool {
	return c == Organization || c == Application || c == Subsystem
}

// Greater returns the component scopes broader than c, nearest first.
// Subsystem yields application then organization; organization yields none.
func (c Component) Greater() []Component {
	switch c {
	case Subsystem:
		return []Component{Application, Organization}
	case Application:
		return []Component{Organization}
	default:
		return nil
	}
}

// Errors returned when validating fallback pairs.
var (
	// ErrInvalidLesser indicates the lesser scope of a fallback pair is not
	// application or subsystem.
	ErrInvalidLesser = errors.New("invalid lesser component scope")

	// ErrInvalidGreater indicates the greater scope of a fallback pair is not
	// organization or application.
	ErrInvalidGreater = errors.New("invalid greater component scope")

	// ErrNotNarrower indicates the lesser scope of a fallback pair is not
	// strictly narrower than the greater scope.
	ErrNotNarrower = errors.New("lesser component scope must be narrower than greater")
)

// FallbackPair names a fallback edge from a narrower component scope to a
// broader one. A key not found in Lesser may be searched for in Greater.
type FallbackPair struct {
	Lesser  Component
	Greater Component
}

// Validate checks that the pair is one of the three valid fallback edges:
// (subsystem, application), (subsystem, organization), or
// (application, organization).
func (p FallbackPair) Validate() error {
	if p.Lesser != Application && p.Lesser != Subsystem {
		return fmt.Errorf("%w: %s", ErrInvalidLesser, p.Lesser)
	}
	if p.Greater != Organization && p.Greater != Application {
		return fmt.Errorf("%w: %s", ErrInvalidGreater, p.Greater)
	}
	if p.Lesser <= p.Greater {
		return fmt.Errorf("%w (lesser: %s, greater: %s)", ErrNotNarrower, p.Lesser, p.Greater)
	}
	return nil
}

// String returns the pair in "lesser->greater" form.
func (p FallbackPair) String() string {
	return p.Lesser.String() + "->" + p.Greater.String()
}

// DefaultFallbacks returns the fallback table with every valid pair enabled,
// the default for new handles.
func DefaultFallbacks() map[FallbackPair]bool {
	return map[FallbackPair]bool{
		{Lesser: Subsystem, Greater: Application}:    true,
		{Lesser: Subsystem, Greater: Organization}:   true,
		{Lesser: Application, Greater: Organization}: true,
	}
}
