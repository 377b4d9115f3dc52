package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bartek5186/pcm2feed/internal/db"
	"github.com/bartek5186/pcm2feed/internal/integrations/feeds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate_FirstRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg, firstRun, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, firstRun)
	assert.Equal(t, db.DriverSQLite, cfg.Database.Driver)

	var fc feeds.Config
	require.NoError(t, cfg.UnmarshalIntegration("feeds", &fc))
	assert.Equal(t, filepath.Join(dir, "www"), fc.RootDir)
	require.Len(t, fc.Feeds, 3)
	assert.Equal(t, "xmlh", fc.Feeds[2].Format)

	again, firstRun, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, firstRun)
	assert.Equal(t, cfg.SyncIntervalSeconds, again.SyncIntervalSeconds)
	assert.Contains(t, again.Integrations, "importer")
}

func TestLoadOrCreate_Broken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))
	_, _, err := LoadOrCreate(path)
	assert.ErrorContains(t, err, "parsowania")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PCM2FEED_DB_DRIVER", "postgres")
	t.Setenv("PCM2FEED_DB_DSN", "postgres://feed@localhost/shop")
	t.Setenv("PCM2FEED_METRICS_PORT", "9090")

	cfg := Defaults(t.TempDir())
	ApplyEnv(cfg)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://feed@localhost/shop", cfg.Database.DSN)
	assert.Equal(t, "9090", cfg.MetricsPort)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PCM2FEED_TEST_ONLY=1\n"), 0o644))
	t.Setenv("PCM2FEED_TEST_ONLY", "")
	os.Unsetenv("PCM2FEED_TEST_ONLY")

	LoadEnv(dir)
	assert.Equal(t, "1", os.Getenv("PCM2FEED_TEST_ONLY"))
}

func TestUnmarshalIntegration_Missing(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.UnmarshalIntegration("nope", &struct{}{}))
}
