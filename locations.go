package settings

import (
	"fmt"
	"strings"

	"github.com/sprucekit/settings/scope"
)

// resolveLocations produces the ordered list of concrete storage locations
// for this handle, highest precedence first.
//
// The primary location comes first: (format, base scope, component scope).
// Each broader component scope follows in descending precedence when the
// corresponding fallback pair is enabled. For user-scope handles with
// base-scope fallback enabled, the same sequence repeats in the system base
// scope after all user locations.
//
// A missing path template for any reachable triple is an error, never
// skipped: silently dropping a location would change resolution results.
func (s *Settings) resolveLocations() ([]string, error) {
	ext := ""
	if b, ok := s.reg.Backend(s.format); ok {
		ext = b.Extension()
	}

	bases := []scope.Base{s.base}
	if s.base == scope.BaseUser && s.baseFallback {
		bases = append(bases, scope.BaseSystem)
	}

	var locations []string
	for _, base := range bases {
		template, err := s.reg.Path(s.format, base, s.component)
		if err != nil {
			return nil, err
		}
		locations = append(locations, template)

		for _, greater := range s.component.Greater() {
			pair := scope.FallbackPair{Lesser: s.component, Greater: greater}
			if !s.componentFallback[pair] {
				continue
			}
			template, err := s.reg.Path(s.format, base, greater)
			if err != nil {
				return nil, err
			}
			locations = append(locations, template)
		}
	}

	for i, location := range locations {
		location = strings.ReplaceAll(location, "{organization}", s.organization)
		if s.application != "" {
			location = strings.ReplaceAll(location, "{application}", s.application)
		}
		if s.subsystem != "" {
			location = strings.ReplaceAll(location, "{subsystem}", s.subsystem)
		}
		location = strings.ReplaceAll(location, "{extension}", ext)

		if err := checkResolved(location); err != nil {
			return nil, err
		}
		locations[i] = location
	}

	return locations, nil
}

// checkResolved rejects locations that still contain a path placeholder
// after substitution.
func checkResolved(location string) error {
	for _, placeholder := range []string{"{organization}", "{application}", "{subsystem}", "{extension}"} {
		if strings.Contains(location, placeholder) {
			return fmt.Errorf("%w: %s in %q", ErrUnresolvedPlaceholder, placeholder, location)
		}
	}
	return nil
}
