package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadClient("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, strings.HasSuffix(cfg.DataPath, ".list42.db"))
}

func TestClientFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LIST42_BASE_URL", "https://lists.example.com/")
	t.Setenv("LIST42_TIMEOUT", "3s")
	t.Setenv("LIST42_SESSION_TOKEN", "tok")

	cfg, err := LoadClient("")
	require.NoError(t, err)

	assert.Equal(t, "https://lists.example.com", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "tok", cfg.SessionToken)
	assert.NotContains(t, cfg.String(), "tok")
	assert.Contains(t, cfg.String(), "SessionToken: ********")
}

func TestClientFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LIST42_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LIST42_LOG_LEVEL") })

	cfg, err := LoadClient("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestServerConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "list42d.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9090\"\ndb_path: /tmp/x.db\n"), 0o600))

	cfg, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, "http://localhost:9090", cfg.PublicURL)
}

func TestServerEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "list42d.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9090\"\n"), 0o600))
	t.Setenv("LIST42_PORT", "7070")

	cfg, err := LoadServer(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
}

func TestMissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadServer("/does/not/exist.yaml")
	require.Error(t, err)
}
