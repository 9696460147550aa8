// Package settings provides persistent application settings with
// deterministic scope fallback, modeled on the QSettings API.
//
// A Settings handle presents one logical key/value view while sourcing
// values from multiple physical locations: per-organization,
// per-application, per-subsystem, each per-user or system-wide. Keys are
// case-sensitive, slash-delimited strings; values are strings with typed
// accessors layered on top.
//
// All settings, including fallback settings, are read in a single pass into
// an in-memory cache just before the first access. Reads and writes operate
// on the cache; Sync flushes pending changes to the primary location and
// rebuilds the cache from storage. When the cache outlives its lifespan
// (6 seconds by default) the next access synchronizes first. Expiry is
// checked lazily on access; there are no background timers.
//
// Storage formats are pluggable. A format's backend and its path templates
// are installed into a registry.Registry, which is injected into each
// handle:
//
//	reg := registry.New()
//	conf.Register(reg)
//
//	s, err := settings.New(reg, "myorg", settings.WithApplication("myapp"))
//	if err != nil {
//		return err
//	}
//	if err := s.Open(); err != nil {
//		return err
//	}
//	defer s.Close()
//
//	err = s.InGroup("db", func() error {
//		host, err := s.RequiredValue("host")
//		if err != nil {
//			return err
//		}
//		port, err := s.IntValue("port", 5432)
//		...
//	})
//
// When a key is queried, the primary location is searched first. If it is
// not found there, greater component scopes are searched (subsystem falls
// back to application, then organization), and for user-scope handles the
// same sequence repeats in the system base scope. Application-supplied
// defaults sit below every location. Writes always target the primary
// location.
//
// A handle owns its cache exclusively and performs no internal locking.
// Sharing one handle across goroutines requires external synchronization.
package settings
