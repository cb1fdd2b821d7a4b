package entity

import "time"

// Vendor supplier of raw materials, packing materials or finished goods
type Vendor struct {
	ID      string `json:"id" gorm:"primaryKey;size:32"`
	Code    string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name    string `json:"name" gorm:"size:200;not null"`
	Status  string `json:"status" gorm:"size:20;default:active"` // active/blocked
	GSTIN   string `json:"gstin" gorm:"size:20"`
	Address string `json:"address" gorm:"size:500"`
	City    string `json:"city" gorm:"size:100"`
	Country string `json:"country" gorm:"size:100"`

	// Contact
	ContactName  string `json:"contact_name" gorm:"size:100"`
	ContactEmail string `json:"contact_email" gorm:"size:200"`
	ContactPhone string `json:"contact_phone" gorm:"size:30"`

	// Capabilities per procurement category
	SuppliesRM bool `json:"supplies_rm" gorm:"default:false"`
	SuppliesPM bool `json:"supplies_pm" gorm:"default:false"`
	SuppliesFG bool `json:"supplies_fg" gorm:"default:false"`

	// Commercial terms
	PaymentTerms  string `json:"payment_terms" gorm:"size:200"`
	DeliveryTerms string `json:"delivery_terms" gorm:"size:200"`
	Currency      string `json:"currency" gorm:"size:10;default:INR"`
	CreditDays    int    `json:"credit_days" gorm:"default:0"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`
}

func (Vendor) TableName() string {
	return "vendors"
}

// Vendor status values
const (
	VendorStatusActive  = "active"
	VendorStatusBlocked = "blocked"
)
