package nimbus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9090"
log_level: debug
model:
  name: gpt-4o
  rate_limit: 5
store:
  backend: sqlite
  dsn: /tmp/test.db
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "gpt-4o", cfg.Model.Name)
	assert.Equal(t, float64(5), cfg.Model.RateLimit)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, 4, cfg.Model.Burst, "unset fields keep their defaults")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Model.APIKey)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestAppThreadReuse(t *testing.T) {
	app, err := New(DefaultConfig())
	require.NoError(t, err)
	defer app.Close()

	first := app.Thread("thread-1", "user-1")
	second := app.Thread("thread-1", "user-1")
	assert.Same(t, first, second, "threads are keyed by session")

	other := app.Thread("thread-2", "user-1")
	assert.NotSame(t, first, other)
}

func TestAppUnknownStoreBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Backend = "postgres"
	_, err := New(cfg)
	assert.Error(t, err)
}
