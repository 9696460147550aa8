// Package tomlconf implements a TOML settings backend with full read/write
// support.
//
// TOML tables map to settings groups: [db] host = "localhost" stores the key
// "db/host". Scalar values of any TOML type read back as their canonical
// string encodings; values written by the settings core are stored as TOML
// strings.
package tomlconf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/sprucekit/settings"
	"github.com/sprucekit/settings/backend"
	"github.com/sprucekit/settings/registry"
	"github.com/sprucekit/settings/scope"
)

// FormatName is the name the backend registers under.
const FormatName = "toml"

// Extension is the toml file extension, including the leading period.
const Extension = ".toml"

// Backend reads and writes TOML settings files.
type Backend struct{}

// New creates a TOML backend.
func New() *Backend {
	return &Backend{}
}

// Register installs the TOML backend and its default path templates into
// reg. The layout mirrors the conf format with a .toml extension.
func Register(reg *registry.Registry) {
	reg.RegisterBackend(New())

	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}

	reg.SetPath(FormatName, scope.BaseUser, scope.Organization,
		filepath.Join(home, ".{organization}", "{organization}{extension}"))
	reg.SetPath(FormatName, scope.BaseUser, scope.Application,
		filepath.Join(home, ".{organization}", "{application}{extension}"))
	reg.SetPath(FormatName, scope.BaseUser, scope.Subsystem,
		filepath.Join(home, ".{organization}", "{application}", "{subsystem}{extension}"))
	reg.SetPath(FormatName, scope.BaseSystem, scope.Organization,
		filepath.Join("/etc", "{organization}", "{organization}{extension}"))
	reg.SetPath(FormatName, scope.BaseSystem, scope.Application,
		filepath.Join("/etc", "{organization}", "{application}{extension}"))
	reg.SetPath(FormatName, scope.BaseSystem, scope.Subsystem,
		filepath.Join("/etc", "{organization}", "{application}", "{subsystem}{extension}"))
}

// Name returns the format name.
func (b *Backend) Name() string { return FormatName }

// Extension returns the toml file extension.
func (b *Backend) Extension() string { return Extension }

// Writable reports that the backend supports writing.
func (b *Backend) Writable() bool { return true }

// Read returns the settings stored at location. A missing file reads as
// empty; invalid TOML fails with a MalformedLocationError.
func (b *Backend) Read(location string, keys []string) (backend.Values, error) {
	doc, err := load(location)
	if err != nil {
		return nil, err
	}

	all := make(backend.Values)
	flatten(all, "", doc)

	if backend.WantsAllKeys(keys) {
		return all, nil
	}

	out := make(backend.Values, len(keys))
	for _, key := range keys {
		if v, ok := all[key]; ok {
			out[key] = v
		} else {
			out[key] = backend.Absent()
		}
	}
	return out, nil
}

// Write applies values to the TOML file at location, creating it and any
// parent directories as needed. Absent values remove keys; the wipe-all
// mapping truncates the document.
func (b *Backend) Write(location string, values backend.Values) error {
	doc, err := load(location)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = make(map[string]any)
	}

	if wipe, ok := values[""]; ok && !wipe.Present() && len(values) == 1 {
		doc = make(map[string]any)
	} else {
		for key, value := range values {
			segments := strings.Split(key, "/")
			if value.Present() {
				setNested(doc, segments, value.String())
			} else {
				deleteNested(doc, segments)
			}
		}
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return &settings.MalformedLocationError{Location: location, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(location), 0o755); err != nil {
		return fmt.Errorf("writing settings to %q: %w", location, err)
	}
	if err := os.WriteFile(location, data, 0o644); err != nil {
		return fmt.Errorf("writing settings to %q: %w", location, err)
	}
	return nil
}

// load parses the TOML file at location. It returns (nil, nil) when the
// file does not exist.
func load(location string) (map[string]any, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &settings.MalformedLocationError{Location: location, Err: err}
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, &settings.MalformedLocationError{Location: location, Err: err}
	}
	return doc, nil
}

// flatten walks nested tables, joining path segments with slashes and
// stringifying scalar leaves.
func flatten(out backend.Values, prefix string, doc map[string]any) {
	for key, value := range doc {
		abs := key
		if prefix != "" {
			abs = prefix + "/" + key
		}
		if table, ok := value.(map[string]any); ok {
			flatten(out, abs, table)
			continue
		}
		out[abs] = backend.String(stringify(value))
	}
}

// stringify produces the canonical string encoding of a TOML scalar.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = stringify(item)
		}
		return strings.Join(items, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// setNested assigns value at the path named by segments, creating
// intermediate tables. A scalar in the way of an intermediate segment is
// replaced by a table.
func setNested(doc map[string]any, segments []string, value string) {
	for _, segment := range segments[:len(segments)-1] {
		next, ok := doc[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			doc[segment] = next
		}
		doc = next
	}
	doc[segments[len(segments)-1]] = value
}

// deleteNested removes the key at the path named by segments, if present.
func deleteNested(doc map[string]any, segments []string) {
	for _, segment := range segments[:len(segments)-1] {
		next, ok := doc[segment].(map[string]any)
		if !ok {
			return
		}
		doc = next
	}
	delete(doc, segments[len(segments)-1])
}

var _ backend.Backend = (*Backend)(nil)
