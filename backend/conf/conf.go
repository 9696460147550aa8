// Package conf implements the INI-style conf settings backend.
//
// Conf files live where Unix configuration is conventionally kept: under
// /etc/{organization} for system-wide settings and ~/.{organization} for
// per-user settings, one .conf file per component scope. Sections map to
// settings groups, so [db] host=localhost stores the key "db/host".
//
// The backend is read-only: Write fails with settings.ErrWriteNotSupported
// and Writable reports false. Handles over the conf format can still mutate
// their cache, but synchronizing those changes surfaces the error rather
// than dropping them.
package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/sprucekit/settings"
	"github.com/sprucekit/settings/backend"
	"github.com/sprucekit/settings/registry"
	"github.com/sprucekit/settings/scope"
)

// FormatName is the name the backend registers under.
const FormatName = "conf"

// Extension is the conf file extension, including the leading period.
const Extension = ".conf"

// Backend reads INI-style conf files.
type Backend struct{}

// New creates a conf backend.
func New() *Backend {
	return &Backend{}
}

// Register installs the conf backend and its default path templates into
// reg. The user templates resolve against the current user's home
// directory.
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

// Extension returns the conf file extension.
func (b *Backend) Extension() string { return Extension }

// Writable reports that the backend cannot persist changes.
func (b *Backend) Writable() bool { return false }

// Read returns the settings stored in the conf file at location. A missing
// file reads as empty; a file that cannot be opened or parsed as INI fails
// with a MalformedLocationError.
func (b *Backend) Read(location string, keys []string) (backend.Values, error) {
	file, err := load(location)
	if err != nil {
		return nil, err
	}

	if backend.WantsAllKeys(keys) {
		out := make(backend.Values)
		if file == nil {
			return out, nil
		}
		for _, section := range file.Sections() {
			prefix := ""
			if section.Name() != ini.DefaultSection {
				prefix = section.Name() + "/"
			}
			for _, key := range section.Keys() {
				out[prefix+key.Name()] = backend.String(key.Value())
			}
		}
		return out, nil
	}

	out := make(backend.Values, len(keys))
	for _, name := range keys {
		out[name] = lookup(file, name)
	}
	return out, nil
}

// Write fails: writing conf settings is not supported.
func (b *Backend) Write(location string, values backend.Values) error {
	return fmt.Errorf("%w: conf format at %q", settings.ErrWriteNotSupported, location)
}

// load parses the conf file at location. It returns (nil, nil) when the
// file does not exist.
func load(location string) (*ini.File, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &settings.MalformedLocationError{Location: location, Err: err}
	}

	file, err := ini.Load(data)
	if err != nil {
		return nil, &settings.MalformedLocationError{Location: location, Err: err}
	}
	return file, nil
}

// lookup fetches one key. The portion before the final slash names the
// section; keys without a slash live in the default section.
func lookup(file *ini.File, name string) backend.Value {
	if file == nil {
		return backend.Absent()
	}

	section := ini.DefaultSection
	key := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		section = name[:i]
		key = name[i+1:]
	}

	sec, err := file.GetSection(section)
	if err != nil || !sec.HasKey(key) {
		return backend.Absent()
	}
	return backend.String(sec.Key(key).Value())
}

var _ backend.Backend = (*Backend)(nil)
