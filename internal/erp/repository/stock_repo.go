package repository

import (
	"context"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaterialBalance computed per-material position: received and issued from
// stock entries, on-order from open PO lines. Never persisted.
type MaterialBalance struct {
	MaterialID   string          `json:"material_id"`
	MaterialCode string          `json:"material_code"`
	MaterialName string          `json:"material_name"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	Received     decimal.Decimal `json:"received"`
	Issued       decimal.Decimal `json:"issued"`
	OnHand       decimal.Decimal `json:"on_hand"`
	OnOrder      decimal.Decimal `json:"on_order"`
}

// StockRepository stock entries and balance queries
type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) Create(ctx context.Context, e *entity.StockEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// ListByMaterial returns the movement history of one material
func (r *StockRepository) ListByMaterial(ctx context.Context, materialID string, page, pageSize int) ([]entity.StockEntry, int64, error) {
	var items []entity.StockEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.StockEntry{}).
		Where("material_id = ?", materialID)

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

// balanceRow scan target for the aggregate queries
type balanceRow struct {
	MaterialID string
	Qty        decimal.Decimal
}

// Balances computes the per-material balance across all materials of an
// optional category. On-order is the open (not yet received) quantity of
// non-cancelled PO lines.
func (r *StockRepository) Balances(ctx context.Context, category string) ([]MaterialBalance, error) {
	var materials []entity.Material
	query := r.db.WithContext(ctx).Where("status = ?", "active")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Order("code ASC").Find(&materials).Error; err != nil {
		return nil, err
	}

	received, err := r.sumEntries(ctx, entity.StockEntryReceipt)
	if err != nil {
		return nil, err
	}
	issued, err := r.sumEntries(ctx, entity.StockEntryIssue)
	if err != nil {
		return nil, err
	}
	onOrder, err := r.sumOnOrder(ctx)
	if err != nil {
		return nil, err
	}

	balances := make([]MaterialBalance, 0, len(materials))
	for _, m := range materials {
		b := MaterialBalance{
			MaterialID:   m.ID,
			MaterialCode: m.Code,
			MaterialName: m.Name,
			Category:     m.Category,
			Unit:         m.Unit,
			Received:     received[m.ID],
			Issued:       issued[m.ID],
			OnOrder:      onOrder[m.ID],
		}
		b.OnHand = b.Received.Sub(b.Issued)
		balances = append(balances, b)
	}
	return balances, nil
}

func (r *StockRepository) sumEntries(ctx context.Context, entryType string) (map[string]decimal.Decimal, error) {
	var rows []balanceRow
	err := r.db.WithContext(ctx).
		Model(&entity.StockEntry{}).
		Select("material_id, COALESCE(SUM(quantity), 0) AS qty").
		Where("type = ?", entryType).
		Group("material_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.MaterialID] = row.Qty
	}
	return out, nil
}

func (r *StockRepository) sumOnOrder(ctx context.Context) (map[string]decimal.Decimal, error) {
	var rows []balanceRow
	err := r.db.WithContext(ctx).
		Model(&entity.POItem{}).
		Select("po_items.material_id, COALESCE(SUM(po_items.quantity - po_items.received_qty), 0) AS qty").
		Joins("JOIN purchase_orders ON purchase_orders.id = po_items.po_id").
		Where("purchase_orders.status NOT IN ?", []string{entity.POStatusCancelled, entity.POStatusCompleted}).
		Where("po_items.material_id IS NOT NULL").
		Where("po_items.quantity > po_items.received_qty").
		Group("po_items.material_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.MaterialID] = row.Qty
	}
	return out, nil
}
