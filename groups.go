package settings

import (
	"sort"
	"strings"
)

// Group returns the current group, or "" when there is none. The current
// group is prepended to every key given to this handle and scopes the
// enumeration methods.
func (s *Settings) Group() string {
	return s.group
}

// AbsName resolves a relative key or group name against the current group.
func (s *Settings) AbsName(name string) string {
	if s.group == "" {
		return name
	}
	if name == "" {
		return s.group
	}
	return s.group + "/" + name
}

// InGroup runs fn with the current group set to group, resolved relative to
// the caller's current group. The previous group is restored on every exit
// path, including when fn returns an error or panics. An empty group name
// leaves the current group unchanged.
//
// Groups nest: InGroup("A", ...) containing InGroup("B", ...) resolves keys
// against "A/B".
func (s *Settings) InGroup(group string, fn func() error) error {
	if group == "" {
		return fn()
	}

	s.pushGroup(group)
	defer s.popGroup()
	return fn()
}

func (s *Settings) pushGroup(group string) {
	s.prevGroups = append(s.prevGroups, s.group)
	if s.group == "" {
		s.group = group
	} else {
		s.group = s.group + "/" + group
	}
}

func (s *Settings) popGroup() {
	if len(s.prevGroups) == 0 {
		s.group = ""
		return
	}
	s.group = s.prevGroups[len(s.prevGroups)-1]
	s.prevGroups = s.prevGroups[:len(s.prevGroups)-1]
}

// AllKeys returns every key readable in the current group at any depth,
// relative to the group and sorted. Keys contributed by the defaults are
// included; keys marked for removal are not.
func (s *Settings) AllKeys() ([]string, error) {
	if err := s.ensureFresh(); err != nil {
		return nil, err
	}

	var keys []string
	for key, value := range s.cache {
		if !value.Present() {
			continue
		}
		rel, ok := s.relativeName(key)
		if !ok {
			continue
		}
		keys = append(keys, rel)
	}
	sort.Strings(keys)
	return keys, nil
}

// AllGroups returns every group, including nested subgroups, that contains
// at least one readable key under the current group. Names are relative to
// the current group and sorted.
func (s *Settings) AllGroups() ([]string, error) {
	keys, err := s.AllKeys()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, key := range keys {
		for i, c := range key {
			if c == '/' {
				seen[key[:i]] = struct{}{}
			}
		}
	}
	return sortedKeys(seen), nil
}

// ChildKeys returns the keys directly inside the current group, relative to
// it and sorted. The whole hierarchy can be walked by recursing with
// ChildKeys and ChildGroups.
func (s *Settings) ChildKeys() ([]string, error) {
	keys, err := s.AllKeys()
	if err != nil {
		return nil, err
	}

	var children []string
	for _, key := range keys {
		if !strings.Contains(key, "/") {
			children = append(children, key)
		}
	}
	return children, nil
}

// ChildGroups returns the non-empty groups directly inside the current
// group, sorted.
func (s *Settings) ChildGroups() ([]string, error) {
	keys, err := s.AllKeys()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, key := range keys {
		if i := strings.Index(key, "/"); i > 0 {
			seen[key[:i]] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

// relativeName strips the current group prefix from an absolute key,
// reporting false for keys outside the group.
func (s *Settings) relativeName(key string) (string, bool) {
	if s.group == "" {
		return key, true
	}
	if !strings.HasPrefix(key, s.group+"/") {
		return "", false
	}
	return key[len(s.group)+1:], true
}
