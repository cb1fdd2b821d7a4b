package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PORepository purchase order store
type PORepository struct {
	db *gorm.DB
}

func NewPORepository(db *gorm.DB) *PORepository {
	return &PORepository{db: db}
}

func (r *PORepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseOrder, int64, error) {
	var items []entity.PurchaseOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{})

	if vendorID := filters["vendor_id"]; vendorID != "" {
		query = query.Where("vendor_id = ?", vendorID)
	}
	if eopaID := filters["eopa_id"]; eopaID != "" {
		query = query.Where("eopa_id = ?", eopaID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if category := filters["category"]; category != "" {
		query = query.Where("category = ?", category)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("po_code ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Vendor").
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

func (r *PORepository) FindByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Vendor").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// FindByEOPAAndCategory returns existing POs for an EOPA+category, the
// duplicate guard for PO generation
func (r *PORepository) FindByEOPAAndCategory(ctx context.Context, eopaID, category string) ([]entity.PurchaseOrder, error) {
	var items []entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Where("eopa_id = ? AND category = ? AND status <> ?", eopaID, category, entity.POStatusCancelled).
		Find(&items).Error
	return items, err
}

func (r *PORepository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *PORepository) Update(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Save(po).Error
}

func (r *PORepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("po_id = ?", id).Delete(&entity.POItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.PurchaseOrder{}).Error
	})
}

// ReceiveItem books a receipt against a PO line, rolls the line status and
// writes the matching stock entry, all in one transaction.
func (r *PORepository) ReceiveItem(ctx context.Context, itemID string, receivedQty decimal.Decimal, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item entity.POItem
		if err := tx.Where("id = ?", itemID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		item.ReceivedQty = item.ReceivedQty.Add(receivedQty)
		if item.ReceivedQty.GreaterThanOrEqual(item.Quantity) {
			item.Status = entity.POItemStatusReceived
		} else if item.ReceivedQty.IsPositive() {
			item.Status = entity.POItemStatusPartial
		}
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		if item.MaterialID != nil {
			entry := &entity.StockEntry{
				ID:         newID(),
				MaterialID: *item.MaterialID,
				Type:       entity.StockEntryReceipt,
				Quantity:   receivedQty,
				POID:       &item.POID,
				POItemID:   &item.ID,
				CreatedBy:  userID,
			}
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		return r.rollupPOStatus(tx, item.POID)
	})
}

// rollupPOStatus derives the PO status from its item statuses
func (r *PORepository) rollupPOStatus(tx *gorm.DB, poID string) error {
	var items []entity.POItem
	if err := tx.Where("po_id = ?", poID).Find(&items).Error; err != nil {
		return err
	}

	received := 0
	touched := 0
	for _, it := range items {
		switch it.Status {
		case entity.POItemStatusReceived:
			received++
			touched++
		case entity.POItemStatusPartial:
			touched++
		}
	}

	status := ""
	if received == len(items) && len(items) > 0 {
		status = entity.POStatusReceived
	} else if touched > 0 {
		status = entity.POStatusPartial
	}
	if status == "" {
		return nil
	}
	return tx.Model(&entity.PurchaseOrder{}).Where("id = ?", poID).
		Update("status", status).Error
}

// GenerateCode produces the next PO code, PO-{year}-{4 digits}. Pass the
// transaction handle when creating several POs in one transaction so codes
// issued earlier in it are counted; nil uses the default session.
func (r *PORepository) GenerateCode(ctx context.Context, sess *gorm.DB) (string, error) {
	if sess == nil {
		sess = r.db
	}
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("PO-%s-", year)

	var maxCode string
	err := sess.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Select("COALESCE(MAX(po_code), '')").
		Where("po_code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "PO-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("PO-%s-%04d", year, seq), nil
}
