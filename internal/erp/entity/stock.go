package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockEntry receipt or issue of a material. Material balances are computed
// from these entries plus open PO quantities, never stored.
type StockEntry struct {
	ID         string          `json:"id" gorm:"primaryKey;size:32"`
	MaterialID string          `json:"material_id" gorm:"size:32;not null;index"`
	Type       string          `json:"type" gorm:"size:10;not null"` // receipt/issue
	Quantity   decimal.Decimal `json:"quantity" gorm:"type:decimal(18,6);not null"`
	POID       *string         `json:"po_id" gorm:"size:32"`
	POItemID   *string         `json:"po_item_id" gorm:"size:32"`
	Reference  string          `json:"reference" gorm:"size:200"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (StockEntry) TableName() string {
	return "stock_entries"
}

const (
	StockEntryReceipt = "receipt"
	StockEntryIssue   = "issue"
)
