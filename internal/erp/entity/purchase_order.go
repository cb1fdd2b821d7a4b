package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder per-vendor per-category order generated from an approved EOPA
type PurchaseOrder struct {
	ID       string  `json:"id" gorm:"primaryKey;size:32"`
	POCode   string  `json:"po_code" gorm:"size:32;uniqueIndex;not null"`
	VendorID string  `json:"vendor_id" gorm:"size:32;not null;index"`
	EOPAID   *string `json:"eopa_id" gorm:"size:32;index"`
	Category string  `json:"category" gorm:"size:10;not null;index"`   // rm/pm/fg
	Status   string  `json:"status" gorm:"size:20;default:draft"` // draft/approved/sent/partial/received/completed/cancelled

	TotalAmount *decimal.Decimal `json:"total_amount" gorm:"type:decimal(18,2)"`
	Currency    string           `json:"currency" gorm:"size:10;default:INR"`

	ExpectedDate *time.Time `json:"expected_date"`

	ShippingAddress string `json:"shipping_address" gorm:"size:500"`
	PaymentTerms    string `json:"payment_terms" gorm:"size:200"`

	CreatedBy  string     `json:"created_by" gorm:"size:32"`
	ApprovedBy *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt *time.Time `json:"approved_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Notes      string     `json:"notes" gorm:"type:text"`

	Items  []POItem `json:"items,omitempty" gorm:"foreignKey:POID"`
	Vendor *Vendor  `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

const (
	POStatusDraft     = "draft"
	POStatusApproved  = "approved"
	POStatusSent      = "sent"
	POStatusPartial   = "partial"
	POStatusReceived  = "received"
	POStatusCompleted = "completed"
	POStatusCancelled = "cancelled"
)

// POItem PO material line. Quantity is the exploded quantity for RM/PM lines
// and the EOPA quantity for FG lines.
type POItem struct {
	ID           string  `json:"id" gorm:"primaryKey;size:32"`
	POID         string  `json:"po_id" gorm:"size:32;not null;index"`
	MaterialID   *string `json:"material_id" gorm:"size:32"`
	MedicineID   *string `json:"medicine_id" gorm:"size:32"`
	MaterialCode string  `json:"material_code" gorm:"size:50"`
	MaterialName string  `json:"material_name" gorm:"size:200;not null"`

	Quantity  decimal.Decimal  `json:"quantity" gorm:"type:decimal(18,6);not null"`
	Unit      string           `json:"unit" gorm:"size:20;default:kg"`
	UnitPrice *decimal.Decimal `json:"unit_price" gorm:"type:decimal(14,4)"`

	// PM only
	Language       string `json:"language" gorm:"size:50"`
	ArtworkVersion string `json:"artwork_version" gorm:"size:50"`

	ReceivedQty decimal.Decimal `json:"received_qty" gorm:"type:decimal(18,6);default:0"`
	Status      string          `json:"status" gorm:"size:20;default:pending"` // pending/partial/received

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (POItem) TableName() string {
	return "po_items"
}

const (
	POItemStatusPending  = "pending"
	POItemStatusPartial  = "partial"
	POItemStatusReceived = "received"
)
