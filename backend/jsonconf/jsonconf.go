// Package jsonconf implements a JSON settings backend with full read/write
// support, built on tidwall/gjson for reads and tidwall/sjson for writes.
//
// JSON objects map to settings groups: {"db": {"host": "localhost"}} stores
// the key "db/host". Scalar values of any JSON type read back as their
// canonical string encodings; values written by the settings core are
// stored as JSON strings.
package jsonconf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/sprucekit/settings"
	"github.com/sprucekit/settings/backend"
	"github.com/sprucekit/settings/registry"
	"github.com/sprucekit/settings/scope"
)

// FormatName is the name the backend registers under.
const FormatName = "json"

// Extension is the json file extension, including the leading period.
const Extension = ".json"

// emptyDocument is what a wiped or newly created location holds.
const emptyDocument = "{}"

// Backend reads and writes JSON settings files.
type Backend struct{}

// New creates a JSON backend.
func New() *Backend {
	return &Backend{}
}

// Register installs the JSON backend and its default path templates into
// reg. The layout mirrors the conf format with a .json extension.
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

// Extension returns the json file extension.
func (b *Backend) Extension() string { return Extension }

// Writable reports that the backend supports writing.
func (b *Backend) Writable() bool { return true }

// Read returns the settings stored at location. A missing file reads as
// empty; a file that is not a JSON object fails with a
// MalformedLocationError.
func (b *Backend) Read(location string, keys []string) (backend.Values, error) {
	doc, err := load(location)
	if err != nil {
		return nil, err
	}

	all := make(backend.Values)
	if doc != "" {
		flatten(all, "", gjson.Parse(doc))
	}

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

// Write applies values to the JSON file at location, creating it and any
// parent directories as needed. Absent values remove keys; the wipe-all
// mapping resets the document to an empty object.
func (b *Backend) Write(location string, values backend.Values) error {
	doc, err := load(location)
	if err != nil {
		return err
	}
	if doc == "" {
		doc = emptyDocument
	}

	if wipe, ok := values[""]; ok && !wipe.Present() && len(values) == 1 {
		doc = emptyDocument
	} else {
		for key, value := range values {
			path := jsonPath(key)
			if value.Present() {
				doc, err = sjson.Set(doc, path, value.String())
			} else {
				doc, err = sjson.Delete(doc, path)
			}
			if err != nil {
				return &settings.MalformedLocationError{Location: location, Err: err}
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(location), 0o755); err != nil {
		return fmt.Errorf("writing settings to %q: %w", location, err)
	}
	if err := os.WriteFile(location, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing settings to %q: %w", location, err)
	}
	return nil
}

// load reads the JSON document at location. It returns "" when the file
// does not exist.
func load(location string) (string, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", &settings.MalformedLocationError{Location: location, Err: err}
	}

	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return "", &settings.MalformedLocationError{
			Location: location,
			Err:      errors.New("not a JSON object"),
		}
	}
	return string(data), nil
}

// flatten walks nested objects, joining path segments with slashes and
// stringifying scalar leaves.
func flatten(out backend.Values, prefix string, doc gjson.Result) {
	doc.ForEach(func(key, value gjson.Result) bool {
		abs := key.String()
		if prefix != "" {
			abs = prefix + "/" + abs
		}
		if value.IsObject() {
			flatten(out, abs, value)
			return true
		}
		out[abs] = backend.String(stringify(value))
		return true
	})
}

// stringify produces the canonical string encoding of a JSON scalar or
// array.
func stringify(value gjson.Result) string {
	if value.IsArray() {
		items := value.Array()
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ", ")
	}
	return value.String()
}

// jsonPath converts a slash-delimited settings key into a gjson/sjson path,
// escaping characters the path syntax treats specially.
func jsonPath(key string) string {
	segments := strings.Split(key, "/")
	escaped := make([]string, len(segments))
	for i, segment := range segments {
		segment = strings.ReplaceAll(segment, `\`, `\\`)
		segment = strings.ReplaceAll(segment, ".", `\.`)
		segment = strings.ReplaceAll(segment, "*", `\*`)
		segment = strings.ReplaceAll(segment, "?", `\?`)
		escaped[i] = segment
	}
	return strings.Join(escaped, ".")
}

var _ backend.Backend = (*Backend)(nil)
