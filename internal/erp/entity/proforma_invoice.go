package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProformaInvoice customer PI, the commercial document an EOPA is derived from
type ProformaInvoice struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	PICode       string     `json:"pi_code" gorm:"size:32;uniqueIndex;not null"`
	CustomerName string     `json:"customer_name" gorm:"size:200;not null"`
	Country      string     `json:"country" gorm:"size:100"`
	Currency     string     `json:"currency" gorm:"size:10;default:USD"`
	Status       string     `json:"status" gorm:"size:20;default:draft"` // draft/approved/cancelled
	PIDate       *time.Time `json:"pi_date"`
	DocumentURL  string     `json:"document_url" gorm:"size:512"`

	CreatedBy  string     `json:"created_by" gorm:"size:32"`
	ApprovedBy *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt *time.Time `json:"approved_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Notes      string     `json:"notes" gorm:"type:text"`

	Items []PIItem `json:"items,omitempty" gorm:"foreignKey:PIID"`
}

func (ProformaInvoice) TableName() string {
	return "proforma_invoices"
}

const (
	PIStatusDraft     = "draft"
	PIStatusApproved  = "approved"
	PIStatusCancelled = "cancelled"
)

// PIItem PI medicine line
type PIItem struct {
	ID         string          `json:"id" gorm:"primaryKey;size:32"`
	PIID       string          `json:"pi_id" gorm:"size:32;not null;index"`
	MedicineID string          `json:"medicine_id" gorm:"size:32;not null"`
	Quantity   decimal.Decimal `json:"quantity" gorm:"type:decimal(18,4);not null"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(14,4)"`
	SortOrder  int             `json:"sort_order" gorm:"default:0"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	Medicine *Medicine `json:"medicine,omitempty" gorm:"foreignKey:MedicineID"`
}

func (PIItem) TableName() string {
	return "pi_items"
}
