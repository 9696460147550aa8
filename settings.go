package settings

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sprucekit/settings/backend"
	"github.com/sprucekit/settings/notify"
	"github.com/sprucekit/settings/registry"
	"github.com/sprucekit/settings/scope"
)

// DefaultCacheLifespan is the cache lifespan applied to new handles. A read
// on a cache older than this triggers a synchronization first.
const DefaultCacheLifespan = 6 * time.Second

// DefaultFormat is the format used when none is configured.
const DefaultFormat = "conf"

// Settings is a handle onto one configuration scope: all settings readable by
// a given organization, application, or subsystem in a given base scope,
// merged across every applicable storage location.
//
// A handle owns its cache exclusively. It performs no internal locking and
// must not be shared across goroutines without external synchronization; the
// registry and notifier it uses are safe to share, the handle itself is not.
type Settings struct {
	reg *registry.Registry

	organization string
	application  string
	subsystem    string
	format       string
	base         scope.Base
	component    scope.Component

	baseFallback      bool
	componentFallback map[scope.FallbackPair]bool

	// defaults holds the flattened, canonically encoded default values,
	// merged into the cache at the lowest precedence on every sync.
	defaults map[string]string

	cache          backend.Values
	cacheCreated   time.Time
	cachePopulated bool
	lifespan       time.Duration
	expiryDisabled bool

	// dirty and primaryKeys are shared by reference with copies of this
	// handle, mirroring the pending-write contract of Copy.
	dirty       map[string]struct{}
	primaryKeys map[string]struct{}

	locations []string

	group      string
	prevGroups []string

	isOpen   bool
	logger   *slog.Logger
	notifier *notify.Notifier

	// pendingDefaults carries the WithDefaults argument until New validates
	// and flattens it.
	pendingDefaults map[string]any
}

// Option configures a Settings handle at construction.
type Option func(*Settings)

// WithApplication sets the application name. Required when a subsystem is
// given.
func WithApplication(name string) Option {
	return func(s *Settings) {
		s.application = name
	}
}

// WithSubsystem sets the subsystem name.
func WithSubsystem(name string) Option {
	return func(s *Settings) {
		s.subsystem = name
	}
}

// WithFormat selects the storage format. The format must be registered with
// the handle's registry. Defaults to DefaultFormat.
func WithFormat(format string) Option {
	return func(s *Settings) {
		s.format = format
	}
}

// WithBaseScope selects the base scope. Defaults to scope.BaseUser.
func WithBaseScope(base scope.Base) Option {
	return func(s *Settings) {
		s.base = base
	}
}

// WithCacheLifespan sets the maximum cache age before a read triggers a
// fresh synchronization.
func WithCacheLifespan(d time.Duration) Option {
	return func(s *Settings) {
		s.lifespan = d
		s.expiryDisabled = false
	}
}

// WithoutCacheExpiry disables age-based cache invalidation. The cache is
// still populated on first access and rebuilt by explicit Sync calls.
func WithoutCacheExpiry() Option {
	return func(s *Settings) {
		s.expiryDisabled = true
	}
}

// WithDefaults supplies default values, consulted only for keys absent from
// every resolved location. The map may nest groups as sub-maps; leaves must
// be strings, bools, integers, floats, or string slices.
func WithDefaults(defaults map[string]any) Option {
	return func(s *Settings) {
		s.pendingDefaults = defaults
	}
}

// WithLogger sets the logger used for sync diagnostics. Defaults to
// slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Settings) {
		s.logger = logger
	}
}

// New creates a settings handle for the given organization.
//
// The returned handle resolves locations and validates its format against
// reg. Construction fails with a configuration error when the organization
// is empty, a subsystem is given without an application, any name is empty,
// the base scope is invalid, or the format has no registered backend.
func New(reg *registry.Registry, organization string, opts ...Option) (*Settings, error) {
	s := &Settings{
		reg:               reg,
		organization:      organization,
		format:            DefaultFormat,
		base:              scope.BaseUser,
		baseFallback:      true,
		componentFallback: scope.DefaultFallbacks(),
		defaults:          make(map[string]string),
		cache:             make(backend.Values),
		lifespan:          DefaultCacheLifespan,
		dirty:             make(map[string]struct{}),
		primaryKeys:       make(map[string]struct{}),
		notifier:          notify.New(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	if s.organization == "" {
		return nil, fmt.Errorf("%w: empty organization", ErrInvalidName)
	}
	if s.subsystem != "" && s.application == "" {
		return nil, fmt.Errorf("%w: subsystem %q requires an application", ErrInvalidName, s.subsystem)
	}
	if !s.base.Valid() {
		return nil, fmt.Errorf("%w: base scope %d", ErrInvalidScope, s.base)
	}
	if _, ok := reg.Backend(s.format); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, s.format)
	}

	switch {
	case s.subsystem != "":
		s.component = scope.Subsystem
	case s.application != "":
		s.component = scope.Application
	default:
		s.component = scope.Organization
	}

	if s.pendingDefaults != nil {
		defaults, err := flattenDefaults(s.pendingDefaults)
		if err != nil {
			return nil, err
		}
		s.defaults = defaults
		s.pendingDefaults = nil
	}

	return s, nil
}

// Organization returns the organization name.
func (s *Settings) Organization() string { return s.organization }

// Application returns the application name, or "" when the handle is
// organization-wide.
func (s *Settings) Application() string { return s.application }

// Subsystem returns the subsystem name, or "" when unset.
func (s *Settings) Subsystem() string { return s.subsystem }

// Format returns the storage format name.
func (s *Settings) Format() string { return s.format }

// BaseScope returns the handle's base scope.
func (s *Settings) BaseScope() scope.Base { return s.base }

// ComponentScope returns the component scope derived from which of
// application and subsystem are set.
func (s *Settings) ComponentScope() scope.Component { return s.component }

// BaseScopeFallback reports whether user-scope lookups fall back to
// system-wide settings. Enabled by default. It has no effect on system-scope
// handles.
func (s *Settings) BaseScopeFallback() bool { return s.baseFallback }

// SetBaseScopeFallback enables or disables base-scope fallback.
func (s *Settings) SetBaseScopeFallback(enabled bool) { s.baseFallback = enabled }

// ComponentScopeFallback reports whether keys not found in the lesser
// component scope are searched for in the greater one. Enabled by default
// for all valid pairs.
func (s *Settings) ComponentScopeFallback(lesser, greater scope.Component) (bool, error) {
	pair := scope.FallbackPair{Lesser: lesser, Greater: greater}
	if err := pair.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidScope, err)
	}
	return s.componentFallback[pair], nil
}

// SetComponentScopeFallback enables or disables fallback between two
// component scopes.
func (s *Settings) SetComponentScopeFallback(lesser, greater scope.Component, enabled bool) error {
	pair := scope.FallbackPair{Lesser: lesser, Greater: greater}
	if err := pair.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScope, err)
	}
	s.componentFallback[pair] = enabled
	return nil
}

// CacheLifespan returns the configured cache lifespan and whether expiry is
// enabled.
func (s *Settings) CacheLifespan() (time.Duration, bool) {
	return s.lifespan, !s.expiryDisabled
}

// SetCacheLifespan sets the maximum cache age and re-enables expiry.
func (s *Settings) SetCacheLifespan(d time.Duration) {
	s.lifespan = d
	s.expiryDisabled = false
}

// DisableCacheExpiry turns off age-based invalidation.
func (s *Settings) DisableCacheExpiry() { s.expiryDisabled = true }

// Locations returns the storage locations used by the last synchronization,
// highest precedence first. Empty before the first sync.
func (s *Settings) Locations() []string {
	out := make([]string, len(s.locations))
	copy(out, s.locations)
	return out
}

// Writable reports whether the handle's backend can persist changes.
func (s *Settings) Writable() bool {
	b, ok := s.reg.Backend(s.format)
	return ok && b.Writable()
}

// PrimaryKeys returns the keys observed in the primary location during the
// last synchronization plus any keys assigned since: the writable surface of
// the handle.
func (s *Settings) PrimaryKeys() []string {
	return sortedKeys(s.primaryKeys)
}

// Subscribe registers an observer for every change made through this handle.
func (s *Settings) Subscribe(observer notify.Observer) *notify.Subscription {
	return s.notifier.Subscribe(observer)
}

// SubscribeKey registers an observer for changes to one absolute key or any
// key below it.
func (s *Settings) SubscribeKey(key string, observer notify.Observer) *notify.Subscription {
	return s.notifier.SubscribeKey(key, observer)
}

// Open marks the handle open and performs an initial synchronization.
func (s *Settings) Open() error {
	s.isOpen = true
	return s.Sync()
}

// Close synchronizes pending changes and marks the handle closed. Closing a
// handle that is not open is a no-op. Close implements io.Closer.
func (s *Settings) Close() error {
	if !s.isOpen {
		return nil
	}
	s.isOpen = false
	return s.Sync()
}

// Copy returns an independent handle with the same configuration, defaults,
// fallback flags, and group state. The copy starts with an empty cache that
// is repopulated on its first access. The pending-write key set and the
// primary-location key set are shared by reference with the original at the
// time of the copy.
func (s *Settings) Copy() *Settings {
	dup := &Settings{
		reg:               s.reg,
		organization:      s.organization,
		application:       s.application,
		subsystem:         s.subsystem,
		format:            s.format,
		base:              s.base,
		component:         s.component,
		baseFallback:      s.baseFallback,
		componentFallback: make(map[scope.FallbackPair]bool, len(s.componentFallback)),
		defaults:          make(map[string]string, len(s.defaults)),
		cache:             make(backend.Values),
		lifespan:          s.lifespan,
		expiryDisabled:    s.expiryDisabled,
		dirty:             s.dirty,
		primaryKeys:       s.primaryKeys,
		group:             s.group,
		prevGroups:        append([]string(nil), s.prevGroups...),
		logger:            s.logger,
		notifier:          notify.New(),
	}
	for pair, enabled := range s.componentFallback {
		dup.componentFallback[pair] = enabled
	}
	for key, value := range s.defaults {
		dup.defaults[key] = value
	}
	return dup
}
