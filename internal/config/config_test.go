package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"MARIADB_HOST", "MARIADB_PORT", "MARIADB_USER",
	"MARIADB_PASSWORD", "MARIADB_DATABASE", "LOG_LEVEL", "AUDIT_PATH",
}

// clearEnv pins all recognized variables to empty so tests are isolated
// from the surrounding process environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", s.Host)
	assert.Equal(t, 3306, s.Port)
	assert.Equal(t, "root", s.User)
	assert.Equal(t, "", s.Password)
	assert.Equal(t, "mysql", s.Database)
	assert.Equal(t, "localhost:3306", s.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MARIADB_HOST", "db.internal")
	t.Setenv("MARIADB_PORT", "3307")
	t.Setenv("MARIADB_USER", "reader")
	t.Setenv("MARIADB_DATABASE", "sales")

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", s.Host)
	assert.Equal(t, 3307, s.Port)
	assert.Equal(t, "reader", s.User)
	assert.Equal(t, "sales", s.Database)
}

func TestLoad_FileDoesNotOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MARIADB_HOST", "envhost")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := "host = \"filehost\"\nport = 3310\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := Load(path)
	require.NoError(t, err)

	// Environment wins for host; file fills in what env left unset.
	assert.Equal(t, "envhost", s.Host)
	assert.Equal(t, 3310, s.Port)
}

func TestLoad_MissingFileTolerated(t *testing.T) {
	clearEnv(t)

	s, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "localhost", s.Host)
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("host = [broken"), 0o600))

	_, err := Load(path)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
}

func TestLoad_NonNumericPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("MARIADB_PORT", "not-a-port")

	_, err := Load("")
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
}

func TestLoad_PortOutOfRange(t *testing.T) {
	clearEnv(t)
	t.Setenv("MARIADB_PORT", "70000")

	_, err := Load("")
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "MARIADB_PORT", ce.Key)
}

func TestHolder_ReloadSwapsSnapshot(t *testing.T) {
	clearEnv(t)
	t.Setenv("MARIADB_HOST", "first")

	h, err := NewHolder("")
	require.NoError(t, err)
	assert.Equal(t, "first", h.Snapshot().Host)

	t.Setenv("MARIADB_HOST", "second")
	require.NoError(t, h.Reload())
	assert.Equal(t, "second", h.Snapshot().Host)
}

func TestHolder_ReloadKeepsSnapshotOnError(t *testing.T) {
	clearEnv(t)

	h, err := NewHolder("")
	require.NoError(t, err)

	t.Setenv("MARIADB_PORT", "bogus")
	require.Error(t, h.Reload())

	// The previous snapshot stays in effect.
	assert.Equal(t, 3306, h.Snapshot().Port)
}
