package db

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate tworzy/aktualizuje schemat bazy.
func (h *Handle) Migrate() error {
	gdb := h.DB

	if err := gdb.AutoMigrate(
		&ImportFile{},
		&CatalogProduct{},
		&ProductAttribute{},
		&FeedRun{},
		&KV{},
	); err != nil {
		return fmt.Errorf("AutoMigrate error: %w", err)
	}

	// unikalność (product_id, code) – potrzebna do upsertu atrybutów
	if !gdb.Migrator().HasIndex(&ProductAttribute{}, "uniq_product_attr") {
		if err := gdb.Migrator().CreateIndex(&ProductAttribute{}, "uniq_product_attr"); err != nil {
			return fmt.Errorf("create index uniq_product_attr: %w", err)
		}
	}

	return nil
}

// GetKV / SetKV – drobny stan aplikacji (np. ostatni eksport)
func GetKV(gdb *gorm.DB, k string) (string, bool) {
	var kv KV
	if err := gdb.Where("k = ?", k).Take(&kv).Error; err != nil {
		return "", false
	}
	return kv.V, true
}

func SetKV(gdb *gorm.DB, k, v string) error {
	return gdb.Save(&KV{K: k, V: v}).Error
}
