package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// newID generates a 32-char entity id
func newID() string {
	return uuid.New().String()[:32]
}

// Repositories ERP repository set
type Repositories struct {
	Vendor   *VendorRepository
	Material *MaterialRepository
	Medicine *MedicineRepository
	BOM      *BOMRepository
	PI       *PIRepository
	EOPA     *EOPARepository
	PO       *PORepository
	Stock    *StockRepository
	User     *UserRepository
	Document *DocumentRepository
}

// NewRepositories wires all repositories to one gorm handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Vendor:   NewVendorRepository(db),
		Material: NewMaterialRepository(db),
		Medicine: NewMedicineRepository(db),
		BOM:      NewBOMRepository(db),
		PI:       NewPIRepository(db),
		EOPA:     NewEOPARepository(db),
		PO:       NewPORepository(db),
		Stock:    NewStockRepository(db),
		User:     NewUserRepository(db),
		Document: NewDocumentRepository(db),
	}
}
