package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDB, EnvFormat, EnvPIN, EnvStyle} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_DATA_HOME", "/data")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, filepath.Join("/data", "worrylog", "worrylog.db"), cfg.DBPath)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "", cfg.PIN)
	assert.Equal(t, "dark", cfg.Style)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDB, "/tmp/j.db")
	t.Setenv(EnvFormat, "json")
	t.Setenv(EnvPIN, "1234")
	t.Setenv(EnvStyle, "light")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, &Config{DBPath: "/tmp/j.db", Format: "json", PIN: "1234", Style: "light"}, cfg)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvFormat, "text")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("WORRYLOG_DB=/from/file.db\nWORRYLOG_FORMAT=json\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv(EnvDB) })

	cfg := Load(path)

	assert.Equal(t, "/from/file.db", cfg.DBPath)
	assert.Equal(t, "text", cfg.Format, "environment wins over the file")
}

func TestDefaultDBPath_FallsBackToConfigDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	dir, err := os.UserConfigDir()
	if err != nil {
		t.Skip("no user config dir")
	}
	assert.Equal(t, filepath.Join(dir, "worrylog", "worrylog.db"), DefaultDBPath())
}
