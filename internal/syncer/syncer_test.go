package syncer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bartek5186/pcm2feed/internal/catalog"
	conf "github.com/bartek5186/pcm2feed/internal/config"
	"github.com/bartek5186/pcm2feed/internal/db"
	"github.com/bartek5186/pcm2feed/internal/integrations/feeds"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*conf.Config, *db.Handle, string) {
	t.Helper()
	dir := t.TempDir()
	h, err := db.Open(dir, db.Config{Driver: db.DriverSQLitePureGo, DSN: filepath.Join(dir, "sync.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	require.NoError(t, h.Migrate())

	_, err = catalog.New(h.DB).Upsert(context.Background(), []db.CatalogProduct{
		{SKU: "A-1", Name: "Alpha", Price: decimal.NewFromInt(3), URLKey: "alpha", Enabled: true},
	})
	require.NoError(t, err)

	root := filepath.Join(dir, "www")
	raw, err := json.Marshal(feeds.Config{
		RootDir:     root,
		IntervalSec: 3600,
		Feeds:       []feeds.FeedConfig{{Directory: "feeds", Format: "csv"}},
	})
	require.NoError(t, err)

	cfg := &conf.Config{
		SyncIntervalSeconds: 3600,
		Integrations: map[string]json.RawMessage{
			"feeds":   raw,
			"unknown": json.RawMessage(`{}`),
		},
	}
	return cfg, h, root
}

func TestSyncer_StartRunsFeeds(t *testing.T) {
	cfg, h, root := setup(t)
	s := New(zerolog.Nop(), cfg, h.DB, nil)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	path := filepath.Join(root, "feeds", "feed.csv")
	assert.Eventually(t, func() bool {
		b, err := os.ReadFile(path)
		return err == nil && string(b) == "A-1|Alpha|3\n"
	}, 5*time.Second, 20*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	// drugi Stop nic nie robi
	s.Stop()
}

func TestSyncer_RunNowWhenStopped(t *testing.T) {
	cfg, h, root := setup(t)
	s := New(zerolog.Nop(), cfg, h.DB, nil)

	require.NoError(t, s.RunNow(context.Background(), "feeds"))
	b, err := os.ReadFile(filepath.Join(root, "feeds", "feed.csv"))
	require.NoError(t, err)
	assert.Equal(t, "A-1|Alpha|3\n", string(b))

	assert.Error(t, s.RunNow(context.Background(), "unknown"))
	assert.Error(t, s.RunNow(context.Background(), "missing"))
}
