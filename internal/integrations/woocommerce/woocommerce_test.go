package woocommerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/bartek5186/pcm2feed/internal/catalog"
	"github.com/bartek5186/pcm2feed/internal/db"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *catalog.Repository {
	t.Helper()
	dir := t.TempDir()
	h, err := db.Open(dir, db.Config{Driver: db.DriverSQLitePureGo, DSN: filepath.Join(dir, "woo.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	require.NoError(t, h.Migrate())
	return catalog.New(h.DB)
}

func shopServer(t *testing.T, pages map[string][]wcProduct) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ck_test" || pass != "cs_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "/wp-json/wc/v3/products", r.URL.Path)
		assert.Equal(t, DefaultFields, r.URL.Query().Get("_fields"))

		items := pages[r.URL.Query().Get("page")]
		if items == nil {
			items = []wcProduct{}
		}
		_ = json.NewEncoder(w).Encode(items)
	}))
}

func TestSyncCatalog(t *testing.T) {
	srv := shopServer(t, map[string][]wcProduct{
		"1": {
			{
				ID: 1, SKU: "MUG-1", Name: "Hrnček", Slug: "hrncek", Status: "publish",
				RegularPrice: "12.90", SalePrice: "9.90", ShortDescription: "<p>Keramický</p>",
				Images:     []wcImage{{Src: "https://cdn.example.sk/media/hrncek.jpg"}},
				Attributes: []wcAttribute{{Name: "Farba", Options: []string{"Biela"}}, {Name: "Brand", Options: []string{"ThreeD"}}},
				MetaData:   []wcMeta{{Key: "heureka_category", Value: "Domácnosť | Hrnčeky"}, {Key: "_edit_lock", Value: "1"}},
			},
			{ID: 2, SKU: "", Name: "Bez SKU", Status: "publish", RegularPrice: "1"},
		},
		"2": {
			{ID: 3, SKU: "DRAFT-1", Name: "Koncept", Status: "draft", RegularPrice: "5"},
		},
	})
	defer srv.Close()

	repo := newRepo(t)
	w := New(zerolog.Nop(), Config{
		Enabled: true, BaseURL: srv.URL, ConsumerKey: "ck_test", ConsumerSec: "cs_test", PerPage: 2,
	}, repo)

	n, err := w.syncCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	products, err := repo.FeedProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1) // draft nie jest aktywny

	p := products[0]
	assert.Equal(t, "MUG-1", p.SKU())
	assert.Equal(t, "12.9", p.Price().String())
	assert.Equal(t, "9.9", p.FinalPrice().String())
	assert.Equal(t, "/hrncek.html", p.ProductURL())
	assert.Equal(t, "/media/hrncek.jpg", p.Attribute("image"))
	assert.Equal(t, "Biela", p.Attribute("color"))
	assert.Equal(t, "ThreeD", p.Attribute("manufacturer"))
	assert.Equal(t, "Domácnosť | Hrnčeky", p.Attribute("heureka_category"))
	assert.Equal(t, "<p>Keramický</p>", p.Attribute("short_description"))
}

func TestSyncCatalog_HTTPError(t *testing.T) {
	srv := shopServer(t, nil)
	defer srv.Close()

	w := New(zerolog.Nop(), Config{Enabled: true, BaseURL: srv.URL, ConsumerKey: "bad"}, newRepo(t))
	_, err := w.syncCatalog(context.Background())
	assert.ErrorContains(t, err, "http 401")
}

func TestRunOnce_Disabled(t *testing.T) {
	w := New(zerolog.Nop(), Config{}, nil)
	assert.Error(t, w.RunOnce(context.Background()))
	// Start przy wyłączonej integracji kończy się od razu
	assert.NoError(t, w.Start(context.Background()))
}
