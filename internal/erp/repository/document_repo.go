package repository

import (
	"context"
	"errors"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"gorm.io/gorm"
)

// DocumentRepository attachment metadata store
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// ListByRelated returns the attachments of one ERP record
func (r *DocumentRepository) ListByRelated(ctx context.Context, relatedType, relatedID string) ([]entity.Document, error) {
	var docs []entity.Document
	err := r.db.WithContext(ctx).
		Where("related_type = ? AND related_id = ?", relatedType, relatedID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*entity.Document, error) {
	var doc entity.Document
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.Document{}, "id = ?", id).Error
}
