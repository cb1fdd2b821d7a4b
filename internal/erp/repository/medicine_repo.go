package repository

import (
	"context"
	"errors"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"gorm.io/gorm"
)

// MedicineRepository medicine master store
type MedicineRepository struct {
	db *gorm.DB
}

func NewMedicineRepository(db *gorm.DB) *MedicineRepository {
	return &MedicineRepository{db: db}
}

func (r *MedicineRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Medicine, int64, error) {
	var items []entity.Medicine
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Medicine{})

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
		Preload("RMVendor").
		Preload("PMVendor").
		Preload("ManufacturerVendor").
		Order("name ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

func (r *MedicineRepository) ListActive(ctx context.Context) ([]entity.Medicine, error) {
	var items []entity.Medicine
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.MedicineStatusActive).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

func (r *MedicineRepository) FindByID(ctx context.Context, id string) (*entity.Medicine, error) {
	var m entity.Medicine
	err := r.db.WithContext(ctx).
		Preload("RMVendor").
		Preload("PMVendor").
		Preload("ManufacturerVendor").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MedicineRepository) Create(ctx context.Context, m *entity.Medicine) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MedicineRepository) Update(ctx context.Context, m *entity.Medicine) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *MedicineRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Medicine{}).Error
}
