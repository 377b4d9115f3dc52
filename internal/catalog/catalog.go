// Package catalog czyta i zapisuje katalog produktów, z którego powstają feedy.
package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bartek5186/pcm2feed/internal/db"
	"github.com/bartek5186/pcm2feed/internal/feed"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultURLSuffix = ".html"

type Repository struct {
	db        *gorm.DB
	urlSuffix string
}

func New(gdb *gorm.DB) *Repository {
	return &Repository{db: gdb, urlSuffix: DefaultURLSuffix}
}

// WithURLSuffix – np. "" dla sklepów bez .html w URL
func (r *Repository) WithURLSuffix(s string) *Repository {
	r.urlSuffix = s
	return r
}

// FeedProducts zwraca aktywne produkty (po SKU) jako feed.Product
func (r *Repository) FeedProducts(ctx context.Context) ([]feed.Product, error) {
	var rows []db.CatalogProduct
	if err := r.db.WithContext(ctx).
		Preload("Attributes").
		Where("enabled = ?", true).
		Order("sku").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("odczyt katalogu: %w", err)
	}

	out := make([]feed.Product, 0, len(rows))
	for _, p := range rows {
		out = append(out, r.toItem(p))
	}
	return out, nil
}

func (r *Repository) toItem(p db.CatalogProduct) feed.Item {
	attrs := make(map[string]string, len(p.Attributes))
	for _, a := range p.Attributes {
		attrs[a.Code] = a.Value
	}
	return feed.Item{
		Sku:        p.SKU,
		Title:      p.Name,
		BasePrice:  p.Price,
		Final:      FinalPrice(p),
		URL:        r.productURL(p),
		Attributes: attrs,
	}
}

// FinalPrice: cena promocyjna, jeśli jest niższa od bazowej, inaczej bazowa
func FinalPrice(p db.CatalogProduct) decimal.Decimal {
	if p.SpecialPrice.IsPositive() && p.SpecialPrice.LessThan(p.Price) {
		return p.SpecialPrice
	}
	return p.Price
}

func (r *Repository) productURL(p db.CatalogProduct) string {
	if p.URLKey == "" {
		return "/catalog/product/view/id/" + strconv.FormatUint(uint64(p.ID), 10)
	}
	return "/" + p.URLKey + r.urlSuffix
}

// Upsert zapisuje produkty po SKU i podmienia ich atrybuty (puste wartości pomijamy).
func (r *Repository) Upsert(ctx context.Context, rows []db.CatalogProduct) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			p := rows[i]
			attrs := p.Attributes
			p.Attributes = nil
			p.ID = 0

			if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "sku"}}, // klucz unikalny
				DoUpdates: clause.AssignmentColumns([]string{
					"name", "price", "special_price", "url_key", "enabled", "source", "updated_at",
				}),
			}).Create(&p).Error; err != nil {
				return fmt.Errorf("upsert %s: %w", p.SKU, err)
			}

			// ID po upsercie bywa niepewne (mysql przy UPDATE), więc czytamy po SKU
			var id uint
			if err := tx.Model(&db.CatalogProduct{}).Where("sku = ?", p.SKU).Select("id").Scan(&id).Error; err != nil {
				return fmt.Errorf("id dla %s: %w", p.SKU, err)
			}

			if err := tx.Where("product_id = ?", id).Delete(&db.ProductAttribute{}).Error; err != nil {
				return fmt.Errorf("atrybuty %s: %w", p.SKU, err)
			}
			keep := make([]db.ProductAttribute, 0, len(attrs))
			for _, a := range attrs {
				if a.Value == "" {
					continue
				}
				keep = append(keep, db.ProductAttribute{ProductID: id, Code: a.Code, Value: a.Value})
			}
			if len(keep) > 0 {
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "product_id"}, {Name: "code"}},
					DoUpdates: clause.AssignmentColumns([]string{"value"}),
				}).Create(&keep).Error; err != nil {
					return fmt.Errorf("atrybuty %s: %w", p.SKU, err)
				}
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Attrs – skrót do budowy listy atrybutów z mapy
func Attrs(m map[string]string) []db.ProductAttribute {
	out := make([]db.ProductAttribute, 0, len(m))
	for k, v := range m {
		out = append(out, db.ProductAttribute{Code: k, Value: v})
	}
	return out
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&db.CatalogProduct{}).Where("enabled = ?", true).Count(&n).Error
	return n, err
}
