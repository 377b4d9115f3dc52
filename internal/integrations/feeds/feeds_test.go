package feeds

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bartek5186/pcm2feed/internal/catalog"
	"github.com/bartek5186/pcm2feed/internal/db"
	"github.com/bartek5186/pcm2feed/internal/integrations"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *db.Handle {
	t.Helper()
	dir := t.TempDir()
	h, err := db.Open(dir, db.Config{Driver: db.DriverSQLitePureGo, DSN: filepath.Join(dir, "feeds.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	require.NoError(t, h.Migrate())

	_, err = catalog.New(h.DB).Upsert(context.Background(), []db.CatalogProduct{
		{SKU: "A-1", Name: "Alpha", Price: decimal.NewFromInt(10), URLKey: "alpha", Enabled: true,
			Attributes: catalog.Attrs(map[string]string{"color": "Red"})},
		{SKU: "B-2", Name: "Beta", Price: decimal.Zero, URLKey: "beta", Enabled: true},
	})
	require.NoError(t, err)
	return h
}

func TestRunOnce_AllFormats(t *testing.T) {
	h := seed(t)
	root := t.TempDir()

	job := New(zerolog.Nop(), Config{
		RootDir: root,
		BaseURL: "https://shop.example.sk",
		Feeds: []FeedConfig{
			{Directory: "csv", Format: "csv"},
			{Directory: "xml", Format: "xml"},
			{Directory: "heureka", Format: "xmlh"},
			{Directory: "other", Format: "pdf"},
		},
	}, h.DB, nil)

	require.NoError(t, job.RunOnce(context.Background()))

	b, err := os.ReadFile(filepath.Join(root, "csv", "feed.csv"))
	require.NoError(t, err)
	assert.Equal(t, "A-1|Alpha|10\nB-2|Beta|0\n", string(b))

	b, err = os.ReadFile(filepath.Join(root, "heureka", "feed.xmlh"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(b), "<SHOPITEM>"))
	assert.Contains(t, string(b), " <URL>https://shop.example.sk/alpha.html</URL>\n")
	assert.Contains(t, string(b), "  <VALUE>Red</VALUE>\n")

	_, err = os.Stat(filepath.Join(root, "other", "feed.csv"))
	assert.NoError(t, err)

	var runs []db.FeedRun
	require.NoError(t, h.DB.Order("id").Find(&runs).Error)
	require.Len(t, runs, 4)
	assert.True(t, runs[2].Success)
	assert.Equal(t, 1, runs[2].Items)
	assert.Equal(t, "csv", runs[3].Format)

	_, ok := db.GetKV(h.DB, KVLastExport)
	assert.True(t, ok)
}

func TestRunOnce_ReportsFailure(t *testing.T) {
	h := seed(t)
	tmp := t.TempDir()
	root := filepath.Join(tmp, "file")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))

	job := New(zerolog.Nop(), Config{RootDir: root, Feeds: []FeedConfig{{Directory: "csv", Format: "csv"}}}, h.DB, nil)
	err := job.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Directory")

	var run db.FeedRun
	require.NoError(t, h.DB.Take(&run).Error)
	assert.False(t, run.Success)
	assert.Contains(t, run.Message, "Directory")

	_, ok := db.GetKV(h.DB, KVLastExport)
	assert.False(t, ok)
}

func TestFactory(t *testing.T) {
	f, ok := integrations.Get("feeds")
	require.True(t, ok)

	_, err := f(integrations.Deps{Log: zerolog.Nop()}, json.RawMessage(`{"feeds":[]}`))
	assert.Error(t, err)

	inst, err := f(integrations.Deps{Log: zerolog.Nop()}, json.RawMessage(`{"root_dir":"/tmp/x","feeds":[{"directory":"a","format":"xml"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "feeds", inst.Name())
	_, isRunner := inst.(integrations.Runner)
	assert.True(t, isRunner)
}
