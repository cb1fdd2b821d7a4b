package repository

import (
	"context"
	"errors"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"gorm.io/gorm"
)

// VendorRepository vendor master store
type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// FindAll lists vendors with optional filters
func (r *VendorRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Vendor, int64, error) {
	var items []entity.Vendor
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Vendor{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if category := filters["category"]; category != "" {
		switch category {
		case entity.CategoryRM:
			query = query.Where("supplies_rm = true")
		case entity.CategoryPM:
			query = query.Where("supplies_pm = true")
		case entity.CategoryFG:
			query = query.Where("supplies_fg = true")
		}
	}
	if search := filters["search"]; search != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// ListActive returns all active vendors, used by the reference-list endpoint
func (r *VendorRepository) ListActive(ctx context.Context) ([]entity.Vendor, error) {
	var items []entity.Vendor
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.VendorStatusActive).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

func (r *VendorRepository) FindByID(ctx context.Context, id string) (*entity.Vendor, error) {
	var v entity.Vendor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// FindByCode looks a vendor up by its code, used by the BOM Excel import
func (r *VendorRepository) FindByCode(ctx context.Context, code string) (*entity.Vendor, error) {
	var v entity.Vendor
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *VendorRepository) Create(ctx context.Context, v *entity.Vendor) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VendorRepository) Update(ctx context.Context, v *entity.Vendor) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *VendorRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Vendor{}).Error
}
