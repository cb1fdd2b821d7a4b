package explosion

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Source is the data-access capability the engine reads from. The production
// implementation is gorm-backed (service layer); tests use an in-memory fake.
type Source interface {
	EOPA(ctx context.Context, id string) (*EOPA, error)
	RawMaterialBOM(ctx context.Context, medicineID string) ([]BOMLine, error)
	PackingMaterialBOM(ctx context.Context, medicineID string) ([]BOMLine, error)
}

// EOPA input document: a set of medicine+quantity lines
type EOPA struct {
	ID    string
	Lines []Line
}

// Line one EOPA line. Medicine is nil when the reference did not resolve
// upstream; the engine skips such lines with a diagnostic.
type Line struct {
	MedicineID string
	Quantity   decimal.Decimal
	Medicine   *MedicineRef
}

// MedicineRef the slice of the medicine master the engine needs:
// display name plus the category fallback vendors.
type MedicineRef struct {
	ID                     string
	Name                   string
	RMVendorID             *string
	RMVendorName           string
	PMVendorID             *string
	PMVendorName           string
	ManufacturerVendorID   *string
	ManufacturerVendorName string
}

// BOMLine one entry of a medicine's RM or PM bill of materials as returned
// by the source, with the material's default vendor attached.
type BOMLine struct {
	MaterialID        string
	MaterialCode      string
	MaterialName      string
	QtyPerUnit        decimal.Decimal
	Unit              string
	VendorID          *string
	VendorName        string
	DefaultVendorID   *string
	DefaultVendorName string

	// PM only
	Language       string
	ArtworkVersion string
}

// MaterialLine engine output line. ExplodedQuantity is always
// EOPAQuantity * QtyPerUnit, never stored independently.
type MaterialLine struct {
	MaterialID       string          `json:"material_id"`
	MaterialCode     string          `json:"material_code"`
	MaterialName     string          `json:"material_name"`
	MedicineID       string          `json:"medicine_id"`
	MedicineName     string          `json:"medicine_name"`
	EOPAQuantity     decimal.Decimal `json:"eopa_quantity"`
	QtyPerUnit       decimal.Decimal `json:"qty_per_unit"`
	ExplodedQuantity decimal.Decimal `json:"exploded_quantity"`
	Unit             string          `json:"unit"`
	Selected         bool            `json:"selected"`
	Language         string          `json:"language,omitempty"`
	ArtworkVersion   string          `json:"artwork_version,omitempty"`
}

// VendorGroup one prospective purchase order: all lines of one category
// resolved to the same vendor. Groups keep first-insertion order.
type VendorGroup struct {
	VendorID   string         `json:"vendor_id"`
	VendorName string         `json:"vendor_name"`
	Selected   bool           `json:"selected"`
	Items      []MaterialLine `json:"items"`
}

// Diagnostic severities
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Diagnostic kinds
const (
	DiagMissingMedicine  = "missing_medicine"
	DiagBOMFetchFailed   = "bom_fetch_failed"
	DiagUnresolvedVendor = "unresolved_vendor"
	DiagNoManufacturer   = "no_manufacturer_vendor"
)

// Diagnostic a non-fatal condition absorbed during a run. Callers use these
// to tell an empty category from an all-failed one and to surface dropped
// unassigned material lines.
type Diagnostic struct {
	Severity   string `json:"severity"`
	Kind       string `json:"kind"`
	Category   string `json:"category,omitempty"` // rm/pm/fg
	MedicineID string `json:"medicine_id,omitempty"`
	MaterialID string `json:"material_id,omitempty"`
	Message    string `json:"message"`
}

// Result the full three-way explosion of one EOPA
type Result struct {
	RM          []VendorGroup `json:"rm"`
	PM          []VendorGroup `json:"pm"`
	FG          []VendorGroup `json:"fg"`
	Diagnostics []Diagnostic  `json:"diagnostics"`
}

// ParseQuantity parses a decimal quantity from free-form input (Excel cells,
// legacy imports). Non-numeric or empty input yields zero rather than an error.
func ParseQuantity(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
