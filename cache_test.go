package settings_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprucekit/settings"
	"github.com/sprucekit/settings/backend"
	"github.com/sprucekit/settings/notify"
)

func TestSyncMergesLocationsByPrecedence(t *testing.T) {
	b := newFakeBackend()
	b.seed("user/acme/widget", map[string]string{"k": "app", "app-only": "1"})
	b.seed("user/acme", map[string]string{"k": "org", "org-only": "2"})
	b.seed("system/acme", map[string]string{"k": "sys", "sys-only": "3"})
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme",
		settings.WithFormat("fake"), settings.WithApplication("widget"))
	require.NoError(t, err)

	got, err := s.Value("k", "")
	require.NoError(t, err)
	assert.Equal(t, "app", got, "the narrowest location wins")

	got, err = s.Value("org-only", "")
	require.NoError(t, err)
	assert.Equal(t, "2", got)

	got, err = s.Value("sys-only", "")
	require.NoError(t, err)
	assert.Equal(t, "3", got)
}

func TestSyncCrossBaseFallback(t *testing.T) {
	b := newFakeBackend()
	b.seed("system/acme", map[string]string{"feature": "on"})
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme", settings.WithFormat("fake"))
	require.NoError(t, err)

	got, err := s.Value("feature", "off")
	require.NoError(t, err)
	assert.Equal(t, "on", got)

	s.SetBaseScopeFallback(false)
	require.NoError(t, s.Sync())
	got, err = s.Value("feature", "off")
	require.NoError(t, err)
	assert.Equal(t, "off", got, "system settings are unreachable without base fallback")
}

func TestSyncDefaultsAreLowestPrecedence(t *testing.T) {
	b := newFakeBackend()
	b.seed("user/acme", map[string]string{"stored": "from-storage"})
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme",
		settings.WithFormat("fake"),
		settings.WithDefaults(map[string]any{
			"stored":   "from-defaults",
			"unstored": "fallback",
			"limits": map[string]any{
				"max": 10,
			},
		}))
	require.NoError(t, err)

	got, err := s.Value("stored", "")
	require.NoError(t, err)
	assert.Equal(t, "from-storage", got)

	got, err = s.Value("unstored", "")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)

	max, err := s.IntValue("limits/max", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), max, "nested defaults flatten to slash keys")
}

func TestSyncRoundTrip(t *testing.T) {
	b := newFakeBackend()
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme", settings.WithFormat("fake"))
	require.NoError(t, err)

	s.SetValue("db/host", "localhost")
	require.NoError(t, s.Sync())

	require.Len(t, b.writes, 1)
	assert.Equal(t, "user/acme", b.writes[0].location, "writes target the primary location")

	other, err := settings.New(reg, "acme", settings.WithFormat("fake"))
	require.NoError(t, err)
	got, err := other.Value("db/host", "")
	require.NoError(t, err)
	assert.Equal(t, "localhost", got)
}

func TestSyncSkipsWriteWithoutPendingChanges(t *testing.T) {
	b := newFakeBackend()
	b.writable = false
	b.writeErr = fmt.Errorf("%w", settings.ErrWriteNotSupported)
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme", settings.WithFormat("fake"))
	require.NoError(t, err)

	require.NoError(t, s.Sync(), "a clean sync over a read-only backend succeeds")
}

func TestSyncSurfacesWriteNotSupported(t *testing.T) {
	b := newFakeBackend()
	b.writable = false
	b.writeErr = fmt.Errorf("%w", settings.ErrWriteNotSupported)
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme", settings.WithFormat("fake"))
	require.NoError(t, err)

	s.SetValue("k", "v")
	err = s.Sync()
	assert.ErrorIs(t, err, settings.ErrWriteNotSupported)

	// The change stays pending; the next sync attempt fails the same way
	// rather than dropping it.
	err = s.Sync()
	assert.ErrorIs(t, err, settings.ErrWriteNotSupported)
}

func TestSyncFlushesDirtyKeysOnce(t *testing.T) {
	b := newFakeBackend()
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme", settings.WithFormat("fake"))
	require.NoError(t, err)

	s.SetValue("k", "v")
	require.NoError(t, s.Sync())
	require.NoError(t, s.Sync())
	assert.Len(t, b.writes, 1, "a flushed key is not rewritten")
}

func TestSyncAnnotatesMalformedLocation(t *testing.T) {
	b := newFakeBackend()
	b.readErrs["system/acme"] = &settings.MalformedLocationError{Err: errors.New("unparseable")}
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme", settings.WithFormat("fake"))
	require.NoError(t, err)

	err = s.Sync()
	require.ErrorIs(t, err, settings.ErrMalformedLocation)

	var malformed *settings.MalformedLocationError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "system/acme", malformed.Location)
	assert.EqualError(t, malformed.Err, "unparseable")
}

func TestClearAllWipesPrimaryOnly(t *testing.T) {
	b := newFakeBackend()
	b.seed("user/acme/widget", map[string]string{"a": "1", "b": "2"})
	b.seed("user/acme", map[string]string{"a": "org", "shared": "kept"})
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme",
		settings.WithFormat("fake"), settings.WithApplication("widget"))
	require.NoError(t, err)
	require.NoError(t, s.Sync())

	s.ClearAll()
	require.NoError(t, s.Sync())

	_, ok := b.stores["user/acme/widget"]
	assert.False(t, ok, "the primary store is wiped")

	got, err := s.Value("a", "")
	require.NoError(t, err)
	assert.Equal(t, "org", got, "fallback entries survive a clear")

	got, err = s.Value("shared", "")
	require.NoError(t, err)
	assert.Equal(t, "kept", got)
}

func TestClearAllDiscardsPendingChanges(t *testing.T) {
	b := newFakeBackend()
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme", settings.WithFormat("fake"))
	require.NoError(t, err)

	s.SetValue("doomed", "v")
	s.ClearAll()
	require.NoError(t, s.Sync())

	require.Len(t, b.writes, 1)
	assert.Equal(t, backend.WipeAll(), b.writes[0].values)
}

func TestCacheExpiry(t *testing.T) {
	b := newFakeBackend()
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme",
		settings.WithFormat("fake"),
		settings.WithCacheLifespan(time.Nanosecond))
	require.NoError(t, err)

	_, err = s.Value("k", "")
	require.NoError(t, err)
	readsAfterFirst := b.reads
	require.Positive(t, readsAfterFirst)

	time.Sleep(5 * time.Millisecond)
	_, err = s.Value("k", "")
	require.NoError(t, err)
	assert.Greater(t, b.reads, readsAfterFirst, "an expired cache is rebuilt before the read")
}

func TestCacheExpiryDisabled(t *testing.T) {
	b := newFakeBackend()
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme",
		settings.WithFormat("fake"),
		settings.WithoutCacheExpiry())
	require.NoError(t, err)

	_, err = s.Value("k", "")
	require.NoError(t, err)
	readsAfterFirst := b.reads

	time.Sleep(5 * time.Millisecond)
	for i := 0; i < 10; i++ {
		_, err = s.Value("k", "")
		require.NoError(t, err)
	}
	assert.Equal(t, readsAfterFirst, b.reads, "reads never trigger a rebuild")

	require.NoError(t, s.Sync())
	assert.Greater(t, b.reads, readsAfterFirst, "explicit sync still rebuilds")
}

func TestCacheServesWithinLifespan(t *testing.T) {
	b := newFakeBackend()
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme",
		settings.WithFormat("fake"),
		settings.WithCacheLifespan(time.Hour))
	require.NoError(t, err)

	_, err = s.Value("k", "")
	require.NoError(t, err)
	readsAfterFirst := b.reads

	for i := 0; i < 10; i++ {
		_, err = s.Value("k", "")
		require.NoError(t, err)
	}
	assert.Equal(t, readsAfterFirst, b.reads)
}

func TestPrimaryKeys(t *testing.T) {
	b := newFakeBackend()
	b.seed("user/acme/widget", map[string]string{"a": "1"})
	b.seed("user/acme", map[string]string{"b": "2"})
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme",
		settings.WithFormat("fake"), settings.WithApplication("widget"))
	require.NoError(t, err)
	require.NoError(t, s.Sync())

	assert.Equal(t, []string{"a"}, s.PrimaryKeys(), "fallback keys are not writable surface")

	s.SetValue("c", "3")
	assert.Equal(t, []string{"a", "c"}, s.PrimaryKeys())
}

func TestSyncNotifiesReload(t *testing.T) {
	b := newFakeBackend()
	reg := newFakeRegistry(b)

	s, err := settings.New(reg, "acme", settings.WithFormat("fake"))
	require.NoError(t, err)

	var got []notify.Change
	s.Subscribe(func(c notify.Change) { got = append(got, c) })

	require.NoError(t, s.Sync())
	require.Len(t, got, 1)
	assert.Equal(t, notify.ChangeReload, got[0].Type)
	assert.Equal(t, "user/acme", got[0].Location)
}
