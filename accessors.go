package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Value type labels used in missing- and invalid-value errors.
const (
	typeBool  = "boolean"
	typeInt   = "integer"
	typeFloat = "floating point"
	typeList  = "list"
)

// DefaultListSeparator separates list items in the underlying string value.
const DefaultListSeparator = ","

// lookup resolves key against the current group and fetches it from the
// cache, synchronizing first when the cache is stale or unpopulated.
func (s *Settings) lookup(key string) (string, bool, error) {
	if err := s.ensureFresh(); err != nil {
		return "", false, err
	}
	v, ok := s.cache[s.AbsName(key)]
	if !ok || !v.Present() {
		return "", false, nil
	}
	return v.String(), true, nil
}

func (s *Settings) missing(key, typeLabel string) error {
	return &MissingValueError{Key: s.AbsName(key), Type: typeLabel, Locations: s.Locations()}
}

// Contains reports whether a setting identified by key exists in the current
// group, in any resolved location or in the defaults.
func (s *Settings) Contains(key string) (bool, error) {
	_, ok, err := s.lookup(key)
	return ok, err
}

// Value returns the string value of the setting identified by key in the
// current group, or def when the setting is absent. A blank setting returns
// an empty string, which is a value nonetheless.
func (s *Settings) Value(key, def string) (string, error) {
	raw, ok, err := s.lookup(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return raw, nil
}

// RequiredValue returns the string value of the setting identified by key,
// failing with a MissingValueError when the setting is absent from every
// location and the defaults.
func (s *Settings) RequiredValue(key string) (string, error) {
	raw, ok, err := s.lookup(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", s.missing(key, "")
	}
	return raw, nil
}

// parseBool accepts the eight case-insensitive boolean literals.
func (s *Settings) parseBool(key, raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, &InvalidValueError{Key: s.AbsName(key), Value: raw, Type: typeBool}
}

// BoolValue returns the setting converted to a bool, or def when absent.
// Accepted case-insensitive representations are true/1/yes/on and
// false/0/no/off; anything else fails with an InvalidValueError.
func (s *Settings) BoolValue(key string, def bool) (bool, error) {
	raw, ok, err := s.lookup(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return def, nil
	}
	return s.parseBool(key, raw)
}

// RequiredBoolValue returns the setting converted to a bool, failing with a
// MissingValueError when absent.
func (s *Settings) RequiredBoolValue(key string) (bool, error) {
	raw, ok, err := s.lookup(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, s.missing(key, typeBool)
	}
	return s.parseBool(key, raw)
}

func (s *Settings) parseInt(key, raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &InvalidValueError{Key: s.AbsName(key), Value: raw, Type: typeInt, Err: unwrapNum(err)}
	}
	return v, nil
}

// IntValue returns the setting converted to an int64, or def when absent.
func (s *Settings) IntValue(key string, def int64) (int64, error) {
	raw, ok, err := s.lookup(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	return s.parseInt(key, raw)
}

// RequiredIntValue returns the setting converted to an int64, failing with a
// MissingValueError when absent.
func (s *Settings) RequiredIntValue(key string) (int64, error) {
	raw, ok, err := s.lookup(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, s.missing(key, typeInt)
	}
	return s.parseInt(key, raw)
}

func (s *Settings) parseFloat(key, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &InvalidValueError{Key: s.AbsName(key), Value: raw, Type: typeFloat, Err: unwrapNum(err)}
	}
	return v, nil
}

// FloatValue returns the setting converted to a float64, or def when absent.
func (s *Settings) FloatValue(key string, def float64) (float64, error) {
	raw, ok, err := s.lookup(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	return s.parseFloat(key, raw)
}

// RequiredFloatValue returns the setting converted to a float64, failing
// with a MissingValueError when absent.
func (s *Settings) RequiredFloatValue(key string) (float64, error) {
	raw, ok, err := s.lookup(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, s.missing(key, typeFloat)
	}
	return s.parseFloat(key, raw)
}

// ListValue returns the setting converted to a list using the default
// separator, or def when absent.
func (s *Settings) ListValue(key string, def []string) ([]string, error) {
	return s.ListValueSep(key, DefaultListSeparator, def)
}

// RequiredListValue returns the setting converted to a list, failing with a
// MissingValueError when absent.
func (s *Settings) RequiredListValue(key string) ([]string, error) {
	raw, ok, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.missing(key, typeList)
	}
	return splitList(raw, DefaultListSeparator), nil
}

// ListValueSep returns the setting converted to a list using sep as the item
// separator, or def when absent.
//
// The value may optionally be surrounded by one layer of square, round, or
// curly brackets. An empty value, or a bare bracket pair, is an empty list;
// there is no way to represent a singleton list containing an empty string.
// Separators inside items are not escapable.
func (s *Settings) ListValueSep(key, sep string, def []string) ([]string, error) {
	raw, ok, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return def, nil
	}
	return splitList(raw, sep), nil
}

// splitList implements the list decoding: trim, strip exactly one matching
// bracket layer, then split on sep and trim each item.
func splitList(raw, sep string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if (first == '[' && last == ']') ||
			(first == '(' && last == ')') ||
			(first == '{' && last == '}') {
			raw = raw[1 : len(raw)-1]
		}
	}

	if !strings.Contains(raw, sep) {
		if raw == "" {
			return []string{}
		}
		return []string{raw}
	}

	items := strings.Split(raw, sep)
	for i, item := range items {
		items[i] = strings.TrimSpace(item)
	}
	return items
}

// unwrapNum strips the strconv.NumError wrapper so invalid-value errors
// carry the underlying reason (ErrSyntax, ErrRange) without repeating the
// function name and input.
func unwrapNum(err error) error {
	if numErr, ok := err.(*strconv.NumError); ok {
		return fmt.Errorf("parsing %q: %w", numErr.Num, numErr.Err)
	}
	return err
}
