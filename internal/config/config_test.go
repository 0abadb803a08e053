package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches the working directory for the duration of the test so a
// stray .env in the repository does not leak into it.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Empty(t, cfg.Server.StaticDir)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "trades.db", cfg.Store.DSN)
	assert.Equal(t, 1000, cfg.Generator.Count)
	assert.Equal(t, time.Hour, cfg.Generator.Spacing)
	assert.Equal(t, "BTCUSDT", cfg.Generator.Symbol)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 5.0, cfg.Client.RateLimit)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	chdir(t, t.TempDir())
	dir := t.TempDir()
	yml := `
server:
  port: 8080
store:
  backend: file
  path: /tmp/trades.json
generator:
  count: 25
  spacing: 30m
logger:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0644))
	t.Setenv("GENERATOR_SEED", "42")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "/tmp/trades.json", cfg.Store.Path)
	assert.Equal(t, 25, cfg.Generator.Count)
	assert.Equal(t, int64(42), cfg.Generator.Seed)
	assert.Equal(t, 30*time.Minute, cfg.Generator.Spacing)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	wd := t.TempDir()
	chdir(t, wd)
	require.NoError(t, os.WriteFile(filepath.Join(wd, ".env"), []byte("STORE_BACKEND=memory\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("STORE_BACKEND") })

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoadConfig_NegativeGeneratorCount(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GENERATOR_COUNT", "-1")

	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "generator.count must not be negative")
}
