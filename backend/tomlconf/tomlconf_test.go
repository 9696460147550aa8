package tomlconf_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprucekit/settings"
	"github.com/sprucekit/settings/backend"
	"github.com/sprucekit/settings/backend/tomlconf"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReadFlattensTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acme.toml")
	writeFile(t, path, `
timeout = 30
debug = true
ratio = 0.5
tags = ["a", "b"]

[db]
host = "localhost"

[db.pool]
size = 4
`)

	b := tomlconf.New()
	got, err := b.Read(path, backend.AllKeys)
	require.NoError(t, err)

	assert.Equal(t, "30", got["timeout"].String())
	assert.Equal(t, "true", got["debug"].String())
	assert.Equal(t, "0.5", got["ratio"].String())
	assert.Equal(t, "a, b", got["tags"].String())
	assert.Equal(t, "localhost", got["db/host"].String())
	assert.Equal(t, "4", got["db/pool/size"].String())
}

func TestReadMissingFileIsEmpty(t *testing.T) {
	b := tomlconf.New()
	got, err := b.Read(filepath.Join(t.TempDir(), "nosuch.toml"), backend.AllKeys)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.toml")
	writeFile(t, path, "= not toml\n")

	b := tomlconf.New()
	_, err := b.Read(path, backend.AllKeys)
	require.ErrorIs(t, err, settings.ErrMalformedLocation)

	var malformed *settings.MalformedLocationError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, path, malformed.Location)
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "acme.toml")

	b := tomlconf.New()
	require.True(t, b.Writable())
	err := b.Write(path, backend.Values{
		"timeout": backend.String("30"),
		"db/host": backend.String("localhost"),
	})
	require.NoError(t, err, "write creates the file and parent directories")

	got, err := b.Read(path, backend.AllKeys)
	require.NoError(t, err)
	assert.Equal(t, "30", got["timeout"].String())
	assert.Equal(t, "localhost", got["db/host"].String())
}

func TestWritePreservesExistingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme.toml")
	b := tomlconf.New()

	require.NoError(t, b.Write(path, backend.Values{"a": backend.String("1")}))
	require.NoError(t, b.Write(path, backend.Values{"b": backend.String("2")}))

	got, err := b.Read(path, backend.AllKeys)
	require.NoError(t, err)
	assert.Equal(t, "1", got["a"].String())
	assert.Equal(t, "2", got["b"].String())
}

func TestWriteAbsentRemoves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme.toml")
	b := tomlconf.New()

	require.NoError(t, b.Write(path, backend.Values{
		"db/host": backend.String("localhost"),
		"db/port": backend.String("5432"),
	}))
	require.NoError(t, b.Write(path, backend.Values{"db/port": backend.Absent()}))

	got, err := b.Read(path, backend.AllKeys)
	require.NoError(t, err)
	assert.Equal(t, "localhost", got["db/host"].String())
	_, ok := got["db/port"]
	assert.False(t, ok)
}

func TestWriteWipeAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme.toml")
	b := tomlconf.New()

	require.NoError(t, b.Write(path, backend.Values{"a": backend.String("1")}))
	require.NoError(t, b.Write(path, backend.WipeAll()))

	got, err := b.Read(path, backend.AllKeys)
	require.NoError(t, err)
	assert.Empty(t, got)
}
