package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Canonical string encodings for typed values. Each encoding round-trips
// through the matching typed accessor, so values written with the typed
// setters read back unchanged.

// EncodeBool returns the canonical encoding of a boolean value.
func EncodeBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// EncodeInt returns the canonical encoding of an integer value.
func EncodeInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// EncodeFloat returns the canonical encoding of a floating-point value.
func EncodeFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// EncodeList returns the canonical encoding of a list value. Items are
// joined with ", "; items containing the separator cannot be represented
// faithfully, since list decoding supports no escaping.
func EncodeList(items []string) string {
	return strings.Join(items, ", ")
}

// encodeDefault produces the canonical encoding for one defaults leaf.
func encodeDefault(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return EncodeBool(v), nil
	case int:
		return EncodeInt(int64(v)), nil
	case int64:
		return EncodeInt(v), nil
	case float64:
		return EncodeFloat(v), nil
	case []string:
		return EncodeList(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedDefault, value)
	}
}

// flattenDefaults expands a possibly nested defaults mapping into absolute
// slash-delimited keys with canonically encoded values. Sub-maps become
// groups; a consequence is that a default value cannot itself be a map.
func flattenDefaults(defaults map[string]any) (map[string]string, error) {
	flat := make(map[string]string)
	if err := flattenInto(flat, "", defaults); err != nil {
		return nil, err
	}
	return flat, nil
}

func flattenInto(flat map[string]string, group string, defaults map[string]any) error {
	for key, value := range defaults {
		abs := key
		if group != "" {
			abs = group + "/" + key
		}
		if sub, ok := value.(map[string]any); ok {
			if err := flattenInto(flat, abs, sub); err != nil {
				return err
			}
			continue
		}
		encoded, err := encodeDefault(value)
		if err != nil {
			return fmt.Errorf("default %q: %w", abs, err)
		}
		flat[abs] = encoded
	}
	return nil
}

// sortedKeys returns the keys of set in sorted order.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
