package db

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Handle {
	t.Helper()
	dir := t.TempDir()
	h, err := Open(dir, Config{Driver: DriverSQLitePureGo, DSN: filepath.Join(dir, "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	require.NoError(t, h.Migrate())
	return h
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(t.TempDir(), Config{Driver: "oracle"})
	assert.ErrorContains(t, err, "oracle")
}

func TestMigrate_Twice(t *testing.T) {
	h := openTest(t)
	assert.NoError(t, h.Migrate())
	assert.True(t, h.DB.Migrator().HasTable(&CatalogProduct{}))
	assert.True(t, h.DB.Migrator().HasIndex(&ProductAttribute{}, "uniq_product_attr"))
}

func TestCatalogProduct_DecimalRoundTrip(t *testing.T) {
	h := openTest(t)
	p := CatalogProduct{SKU: "A1", Name: "A", Price: decimal.RequireFromString("19.99"), Enabled: true}
	require.NoError(t, h.DB.Create(&p).Error)

	var got CatalogProduct
	require.NoError(t, h.DB.Where("sku = ?", "A1").Take(&got).Error)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("19.99")), got.Price.String())
}

func TestKV(t *testing.T) {
	h := openTest(t)
	_, ok := GetKV(h.DB, "last_export")
	assert.False(t, ok)

	require.NoError(t, SetKV(h.DB, "last_export", "2026-10-19T10:00:00Z"))
	require.NoError(t, SetKV(h.DB, "last_export", "2026-10-19T11:00:00Z"))
	v, ok := GetKV(h.DB, "last_export")
	assert.True(t, ok)
	assert.Equal(t, "2026-10-19T11:00:00Z", v)
}
