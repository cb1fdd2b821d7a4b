package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMEntry one material line of a medicine's RM or PM bill of materials.
// QtyPerUnit is the quantity of the material consumed per unit of medicine.
type BOMEntry struct {
	ID         string          `json:"id" gorm:"primaryKey;size:32"`
	MedicineID string          `json:"medicine_id" gorm:"size:32;not null;index"`
	MaterialID string          `json:"material_id" gorm:"size:32;not null;index"`
	Category   string          `json:"category" gorm:"size:10;not null;index"` // rm/pm
	QtyPerUnit decimal.Decimal `json:"qty_per_unit" gorm:"type:decimal(18,6);not null"`
	Unit       string          `json:"unit" gorm:"size:20"`

	// Vendor override, first step of vendor resolution
	VendorID *string `json:"vendor_id" gorm:"size:32"`

	// PM only
	Language       string `json:"language" gorm:"size:50"`
	ArtworkVersion string `json:"artwork_version" gorm:"size:50"`

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
	Vendor   *Vendor   `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
}

func (BOMEntry) TableName() string {
	return "bom_entries"
}
