package repository

import (
	"context"
	"errors"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"gorm.io/gorm"
)

// MaterialRepository material master store
type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Material, int64, error) {
	var items []entity.Material
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Material{})

	if category := filters["category"]; category != "" {
		query = query.Where("category = ?", category)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("DefaultVendor").
		Order("code ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

func (r *MaterialRepository) ListActive(ctx context.Context) ([]entity.Material, error) {
	var items []entity.Material
	err := r.db.WithContext(ctx).
		Where("status = ?", "active").
		Order("code ASC").
		Find(&items).Error
	return items, err
}

func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.WithContext(ctx).Preload("DefaultVendor").Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindByCode looks a material up by its code, used by the BOM Excel import
func (r *MaterialRepository) FindByCode(ctx context.Context, code string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MaterialRepository) Create(ctx context.Context, m *entity.Material) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MaterialRepository) Update(ctx context.Context, m *entity.Material) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Material{}).Error
}
