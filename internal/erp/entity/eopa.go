package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// EOPA estimated order and price approval, the procurement approval document
// listing medicines and quantities derived from a proforma invoice
type EOPA struct {
	ID       string  `json:"id" gorm:"primaryKey;size:32"`
	EOPACode string  `json:"eopa_code" gorm:"size:32;uniqueIndex;not null"`
	PIID     *string `json:"pi_id" gorm:"size:32;index"`
	Status   string  `json:"status" gorm:"size:20;default:draft"` // draft/approved/po_generated/cancelled

	CreatedBy  string     `json:"created_by" gorm:"size:32"`
	ApprovedBy *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt *time.Time `json:"approved_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Notes      string     `json:"notes" gorm:"type:text"`

	Items []EOPAItem       `json:"items,omitempty" gorm:"foreignKey:EOPAID"`
	PI    *ProformaInvoice `json:"pi,omitempty" gorm:"foreignKey:PIID"`
}

func (EOPA) TableName() string {
	return "eopas"
}

const (
	EOPAStatusDraft       = "draft"
	EOPAStatusApproved    = "approved"
	EOPAStatusPOGenerated = "po_generated"
	EOPAStatusCancelled   = "cancelled"
)

// EOPAItem one medicine+quantity line of an EOPA
type EOPAItem struct {
	ID         string          `json:"id" gorm:"primaryKey;size:32"`
	EOPAID     string          `json:"eopa_id" gorm:"size:32;not null;index"`
	MedicineID string          `json:"medicine_id" gorm:"size:32;not null"`
	Quantity   decimal.Decimal `json:"quantity" gorm:"type:decimal(18,4);not null"`
	SortOrder  int             `json:"sort_order" gorm:"default:0"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	Medicine *Medicine `json:"medicine,omitempty" gorm:"foreignKey:MedicineID"`
}

func (EOPAItem) TableName() string {
	return "eopa_items"
}
