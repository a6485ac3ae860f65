package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvAdapter, EnvPath, EnvRedisURL, EnvDatabaseURL, EnvAddr,
		EnvPersistDelay, EnvHistoryDelay, EnvVersioned,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, ".", cfg.URI())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "sticky.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
adapter: redis
redis_url: redis://file:6379/0
versioned: true
persist_delay: 250ms
addr: ":9000"
`), 0644))

	t.Setenv(EnvRedisURL, "redis://env:6379/1")
	t.Setenv(EnvHistoryDelay, "2s")

	cfg, err := LoadConfig(file)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Adapter)
	assert.Equal(t, "redis://env:6379/1", cfg.RedisURL, "env wins over the file")
	assert.Equal(t, "redis://env:6379/1", cfg.URI())
	assert.Equal(t, 250*time.Millisecond, cfg.PersistDelay)
	assert.Equal(t, 2*time.Second, cfg.HistoryDelay)
	assert.Equal(t, ":9000", cfg.Addr)
	require.NotNil(t, cfg.Versioned)
	assert.True(t, *cfg.Versioned)
	assert.Len(t, cfg.Options(), 4)
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "a named file must exist")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("adapter: [\n"), 0644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	t.Setenv(EnvPersistDelay, "soon")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, EnvPersistDelay)
}
