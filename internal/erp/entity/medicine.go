package entity

import "time"

// Medicine finished product master. Carries category fallback vendors used
// when neither the BOM entry nor the material master names a vendor.
type Medicine struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Code     string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name     string `json:"name" gorm:"size:200;not null"`
	Strength string `json:"strength" gorm:"size:50"` // e.g. 500mg
	Form     string `json:"form" gorm:"size:50"`     // tablet/capsule/syrup
	Unit     string `json:"unit" gorm:"size:20;default:pcs"`
	Status   string `json:"status" gorm:"size:20;default:active"`

	// Category fallback vendors
	RMVendorID           *string `json:"rm_vendor_id" gorm:"size:32"`
	PMVendorID           *string `json:"pm_vendor_id" gorm:"size:32"`
	ManufacturerVendorID *string `json:"manufacturer_vendor_id" gorm:"size:32"`

	RMVendor           *Vendor `json:"rm_vendor,omitempty" gorm:"foreignKey:RMVendorID"`
	PMVendor           *Vendor `json:"pm_vendor,omitempty" gorm:"foreignKey:PMVendorID"`
	ManufacturerVendor *Vendor `json:"manufacturer_vendor,omitempty" gorm:"foreignKey:ManufacturerVendorID"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`
}

func (Medicine) TableName() string {
	return "medicines"
}

const (
	MedicineStatusActive   = "active"
	MedicineStatusInactive = "inactive"
)
