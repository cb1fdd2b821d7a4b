package repository

import (
	"context"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"gorm.io/gorm"
)

// BOMRepository per-medicine RM/PM bill of materials store
type BOMRepository struct {
	db *gorm.DB
}

func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

// ListByMedicine returns the BOM entries of one medicine and category with
// the material (and its default vendor) and the override vendor attached,
// ordered by sort order.
func (r *BOMRepository) ListByMedicine(ctx context.Context, medicineID, category string) ([]entity.BOMEntry, error) {
	var items []entity.BOMEntry
	err := r.db.WithContext(ctx).
		Preload("Material").
		Preload("Material.DefaultVendor").
		Preload("Vendor").
		Where("medicine_id = ? AND category = ?", medicineID, category).
		Order("sort_order ASC").
		Find(&items).Error
	return items, err
}

// Replace swaps the whole BOM of one medicine+category in a transaction
func (r *BOMRepository) Replace(ctx context.Context, medicineID, category string, entries []entity.BOMEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("medicine_id = ? AND category = ?", medicineID, category).
			Delete(&entity.BOMEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}
