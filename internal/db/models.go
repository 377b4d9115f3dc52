// internal/db/models.go
package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// import_files – pliki eksportu PCM już widziane przez importer
type ImportFile struct {
	ImportID     uint   `gorm:"primaryKey;column:import_id"`
	Filename     string `gorm:"uniqueIndex;size:255"`
	FileTimeUTC  string
	TransmisjaID string `gorm:"index;size:64"`
	SHA256       string `gorm:"uniqueIndex;size:64"`
	SizeBytes    int64
	Status       int       `gorm:"index"` // 0=pending, 1=done, 2=error
	LastError    string    `gorm:"type:text"`
	ReceivedAt   time.Time `gorm:"autoCreateTime"`
	ProcessedAt  *time.Time
}

const (
	ImportPending = 0
	ImportDone    = 1
	ImportError   = 2
)

// catalog_products – katalog, z którego generujemy feedy
type CatalogProduct struct {
	ID           uint            `gorm:"primaryKey"`
	SKU          string          `gorm:"uniqueIndex;size:64;not null"`
	Name         string          `gorm:"size:255"`
	Price        decimal.Decimal `gorm:"type:decimal(12,4)"`
	SpecialPrice decimal.Decimal `gorm:"type:decimal(12,4)"` // 0 = brak promocji
	URLKey       string          `gorm:"size:255"`
	Enabled      bool            `gorm:"index"`
	Source       string          `gorm:"size:32;index"` // pcm / woocommerce
	UpdatedAt    time.Time

	Attributes []ProductAttribute `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// product_attributes – atrybuty po kodzie (manufacturer, color, heureka_name, ...)
type ProductAttribute struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID uint   `gorm:"uniqueIndex:uniq_product_attr;not null"`
	Code      string `gorm:"uniqueIndex:uniq_product_attr;size:64;not null"`
	Value     string `gorm:"type:text"`
}

// feed_runs – historia eksportów
type FeedRun struct {
	ID        uint   `gorm:"primaryKey"`
	Directory string `gorm:"size:255"`
	Format    string `gorm:"size:16;index"`
	Path      string `gorm:"size:512"`
	Items     int
	Success   bool
	Message   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type KV struct {
	K string `gorm:"primaryKey;size:128"`
	V string
}
