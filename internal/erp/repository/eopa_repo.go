package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"gorm.io/gorm"
)

// EOPARepository estimated order and price approval store
type EOPARepository struct {
	db *gorm.DB
}

func NewEOPARepository(db *gorm.DB) *EOPARepository {
	return &EOPARepository{db: db}
}

func (r *EOPARepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.EOPA, int64, error) {
	var items []entity.EOPA
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.EOPA{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if piID := filters["pi_id"]; piID != "" {
		query = query.Where("pi_id = ?", piID)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("eopa_code ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID loads an EOPA with its lines and each line's medicine (including
// the medicine's fallback vendors), which is everything the explosion engine
// needs from this document.
func (r *EOPARepository) FindByID(ctx context.Context, id string) (*entity.EOPA, error) {
	var e entity.EOPA
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Items.Medicine").
		Preload("Items.Medicine.RMVendor").
		Preload("Items.Medicine.PMVendor").
		Preload("Items.Medicine.ManufacturerVendor").
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EOPARepository) Create(ctx context.Context, e *entity.EOPA) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EOPARepository) Update(ctx context.Context, e *entity.EOPA) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *EOPARepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("eopa_id = ?", id).Delete(&entity.EOPAItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.EOPA{}).Error
	})
}

// GenerateCode produces the next EOPA code, EOPA-{year}-{4 digits}
func (r *EOPARepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("EOPA-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.EOPA{}).
		Select("COALESCE(MAX(eopa_code), '')").
		Where("eopa_code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "EOPA-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("EOPA-%s-%04d", year, seq), nil
}
