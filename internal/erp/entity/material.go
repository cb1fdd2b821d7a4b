package entity

import "time"

// Procurement categories
const (
	CategoryRM = "rm" // raw material
	CategoryPM = "pm" // packing material
	CategoryFG = "fg" // finished goods
)

// Material raw/packing material master
type Material struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Code     string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name     string `json:"name" gorm:"size:200;not null"`
	Category string `json:"category" gorm:"size:10;not null;index"` // rm/pm
	Unit     string `json:"unit" gorm:"size:20;default:kg"`
	Status   string `json:"status" gorm:"size:20;default:active"`

	// Default vendor, second step of vendor resolution
	DefaultVendorID *string `json:"default_vendor_id" gorm:"size:32"`
	DefaultVendor   *Vendor `json:"default_vendor,omitempty" gorm:"foreignKey:DefaultVendorID"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`
}

func (Material) TableName() string {
	return "materials"
}
