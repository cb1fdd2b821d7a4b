package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"github.com/RatishMoondra/pharma-erp/internal/erp/explosion"
	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DuplicatePOError is returned when POs already exist for an EOPA+category.
// Callers surface the existing PO codes to the operator.
type DuplicatePOError struct {
	POCodes []string
}

func (e *DuplicatePOError) Error() string {
	return fmt.Sprintf("purchase orders already exist: %s", strings.Join(e.POCodes, ", "))
}

func duplicatePOError(existing []entity.PurchaseOrder) *DuplicatePOError {
	codes := make([]string, 0, len(existing))
	for _, po := range existing {
		codes = append(codes, po.POCode)
	}
	return &DuplicatePOError{POCodes: codes}
}

// ProcurementService turns explosion results into persisted purchase orders
type ProcurementService struct {
	poRepo     *repository.PORepository
	eopaRepo   *repository.EOPARepository
	vendorRepo *repository.VendorRepository
	engine     *explosion.Engine
	db         *gorm.DB
	logger     *zap.Logger
}

func NewProcurementService(poRepo *repository.PORepository, eopaRepo *repository.EOPARepository, vendorRepo *repository.VendorRepository, engine *explosion.Engine, db *gorm.DB, logger *zap.Logger) *ProcurementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcurementService{
		poRepo:     poRepo,
		eopaRepo:   eopaRepo,
		vendorRepo: vendorRepo,
		engine:     engine,
		db:         db,
		logger:     logger,
	}
}

func (s *ProcurementService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseOrder, int64, error) {
	return s.poRepo.FindAll(ctx, page, pageSize, filters)
}

func (s *ProcurementService) Get(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return s.poRepo.FindByID(ctx, id)
}

// GenerateResult POs created by one generation run plus the engine
// diagnostics accumulated while exploding.
type GenerateResult struct {
	POs         []*entity.PurchaseOrder `json:"pos"`
	Diagnostics []explosion.Diagnostic  `json:"diagnostics"`
}

// GenerateFromEOPA explodes an approved EOPA and creates one draft PO per
// vendor group of the requested category (rm or pm). An optional vendor id
// selection restricts which groups become POs. All POs are created in one
// transaction; existing POs for the same EOPA+category abort with
// DuplicatePOError.
func (s *ProcurementService) GenerateFromEOPA(ctx context.Context, eopaID, category, userID string, vendorIDs []string) (*GenerateResult, error) {
	if category != entity.CategoryRM && category != entity.CategoryPM {
		return nil, fmt.Errorf("unsupported category %q, want rm or pm", category)
	}

	eopa, err := s.eopaRepo.FindByID(ctx, eopaID)
	if err != nil {
		return nil, err
	}
	if eopa.Status != entity.EOPAStatusApproved && eopa.Status != entity.EOPAStatusPOGenerated {
		return nil, fmt.Errorf("eopa %s is %s, must be approved before generating POs", eopa.EOPACode, eopa.Status)
	}

	existing, err := s.poRepo.FindByEOPAAndCategory(ctx, eopaID, category)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, duplicatePOError(existing)
	}

	res, err := s.engine.Explode(ctx, eopaID)
	if err != nil {
		return nil, err
	}

	groups := res.RM
	if category == entity.CategoryPM {
		groups = res.PM
	}
	groups = filterGroups(groups, vendorIDs)
	if len(groups) == 0 {
		return &GenerateResult{Diagnostics: res.Diagnostics}, nil
	}

	var createdPOs []*entity.PurchaseOrder

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the EOPA row so concurrent generations for the same
		// EOPA+category serialize, then re-check for POs created since
		// the pre-check.
		var locked entity.EOPA
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", eopaID).First(&locked).Error; err != nil {
			return err
		}
		var dupes []entity.PurchaseOrder
		if err := tx.Where("eopa_id = ? AND category = ? AND status <> ?",
			eopaID, category, entity.POStatusCancelled).Find(&dupes).Error; err != nil {
			return err
		}
		if len(dupes) > 0 {
			return duplicatePOError(dupes)
		}

		for _, group := range groups {
			code, err := s.poRepo.GenerateCode(ctx, tx)
			if err != nil {
				return fmt.Errorf("generate po code: %w", err)
			}

			po := &entity.PurchaseOrder{
				ID:        newID(),
				POCode:    code,
				VendorID:  group.VendorID,
				EOPAID:    &eopaID,
				Category:  category,
				Status:    entity.POStatusDraft,
				Currency:  "INR",
				CreatedBy: userID,
			}

			// Carry the vendor's commercial terms onto the order.
			if vendor, err := s.vendorRepo.FindByID(ctx, group.VendorID); err == nil {
				po.PaymentTerms = vendor.PaymentTerms
				if vendor.Currency != "" {
					po.Currency = vendor.Currency
				}
			}

			for i, line := range group.Items {
				po.Items = append(po.Items, entity.POItem{
					ID:             newID(),
					POID:           po.ID,
					MaterialID:     strPtr(line.MaterialID),
					MedicineID:     strPtr(line.MedicineID),
					MaterialCode:   line.MaterialCode,
					MaterialName:   line.MaterialName,
					Quantity:       line.ExplodedQuantity,
					Unit:           line.Unit,
					Language:       line.Language,
					ArtworkVersion: line.ArtworkVersion,
					Status:         entity.POItemStatusPending,
					SortOrder:      i + 1,
				})
			}

			if err := tx.Create(po).Error; err != nil {
				return fmt.Errorf("create po for vendor %s: %w", group.VendorID, err)
			}
			createdPOs = append(createdPOs, po)
		}

		return tx.Model(&entity.EOPA{}).Where("id = ?", eopaID).
			Update("status", entity.EOPAStatusPOGenerated).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase orders generated",
		zap.String("eopa_id", eopaID),
		zap.String("category", category),
		zap.Int("po_count", len(createdPOs)))

	return &GenerateResult{POs: createdPOs, Diagnostics: res.Diagnostics}, nil
}

func filterGroups(groups []explosion.VendorGroup, vendorIDs []string) []explosion.VendorGroup {
	if len(vendorIDs) == 0 {
		return groups
	}
	want := make(map[string]bool, len(vendorIDs))
	for _, id := range vendorIDs {
		want[id] = true
	}
	out := make([]explosion.VendorGroup, 0, len(groups))
	for _, g := range groups {
		if want[g.VendorID] {
			out = append(out, g)
		}
	}
	return out
}

// CreatePORequest direct PO creation, the path FG orders take
type CreatePORequest struct {
	VendorID     string         `json:"vendor_id" binding:"required"`
	EOPAID       string         `json:"eopa_id"`
	Category     string         `json:"category" binding:"required"` // rm/pm/fg
	ExpectedDate *time.Time     `json:"expected_date"`
	Notes        string         `json:"notes"`
	Items        []CreatePOItem `json:"items" binding:"required"`
}

type CreatePOItem struct {
	MaterialID string          `json:"material_id"`
	MedicineID string          `json:"medicine_id"`
	Name       string          `json:"name" binding:"required"`
	Code       string          `json:"code"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	Unit       string          `json:"unit"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
}

// CreatePO creates a single purchase order for one vendor
func (s *ProcurementService) CreatePO(ctx context.Context, userID string, req *CreatePORequest) (*entity.PurchaseOrder, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, req.VendorID)
	if err != nil {
		return nil, fmt.Errorf("vendor not found")
	}

	code, err := s.poRepo.GenerateCode(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("generate po code: %w", err)
	}

	po := &entity.PurchaseOrder{
		ID:           newID(),
		POCode:       code,
		VendorID:     vendor.ID,
		EOPAID:       strPtr(req.EOPAID),
		Category:     req.Category,
		Status:       entity.POStatusDraft,
		Currency:     vendor.Currency,
		PaymentTerms: vendor.PaymentTerms,
		ExpectedDate: req.ExpectedDate,
		CreatedBy:    userID,
		Notes:        req.Notes,
	}
	if po.Currency == "" {
		po.Currency = "INR"
	}

	total := decimal.Zero
	priced := false
	for i, item := range req.Items {
		po.Items = append(po.Items, entity.POItem{
			ID:           newID(),
			POID:         po.ID,
			MaterialID:   strPtr(item.MaterialID),
			MedicineID:   strPtr(item.MedicineID),
			MaterialCode: item.Code,
			MaterialName: item.Name,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			UnitPrice:    item.UnitPrice,
			Status:       entity.POItemStatusPending,
			SortOrder:    i + 1,
		})
		if item.UnitPrice != nil {
			total = total.Add(item.UnitPrice.Mul(item.Quantity))
			priced = true
		}
	}
	if priced {
		po.TotalAmount = &total
	}

	if err := s.poRepo.Create(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

// Approve marks a PO approved
func (s *ProcurementService) Approve(ctx context.Context, id, userID string) (*entity.PurchaseOrder, error) {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	po.Status = entity.POStatusApproved
	po.ApprovedBy = &userID
	po.ApprovedAt = &now

	if err := s.poRepo.Update(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

// ReceiveItem books a goods receipt against one PO line and returns the
// refreshed order. The repository rolls the PO status up from its lines and
// writes the matching stock entry.
func (s *ProcurementService) ReceiveItem(ctx context.Context, poID, itemID string, quantity decimal.Decimal, userID string) (*entity.PurchaseOrder, error) {
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("received quantity must be positive")
	}

	po, err := s.poRepo.FindByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, item := range po.Items {
		if item.ID == itemID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("item %s does not belong to po %s", itemID, po.POCode)
	}

	if err := s.poRepo.ReceiveItem(ctx, itemID, quantity, userID); err != nil {
		return nil, err
	}
	return s.poRepo.FindByID(ctx, poID)
}

// Cancel voids a draft or approved PO
func (s *ProcurementService) Cancel(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch po.Status {
	case entity.POStatusDraft, entity.POStatusApproved:
		po.Status = entity.POStatusCancelled
	default:
		return nil, fmt.Errorf("po %s is %s and cannot be cancelled", po.POCode, po.Status)
	}

	if err := s.poRepo.Update(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

var poExportHeaders = []string{"#", "Code", "Material", "Medicine", "Quantity", "Unit", "Unit Price", "Language", "Artwork", "Received"}

// ExportPO renders one purchase order as an Excel workbook
func (s *ProcurementService) ExportPO(ctx context.Context, id string) (*excelize.File, string, error) {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("po not found: %w", err)
	}

	f := excelize.NewFile()
	sheet := "PO"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Order header block
	f.SetCellValue(sheet, "A1", "Purchase Order")
	f.SetCellValue(sheet, "B1", po.POCode)
	if po.Vendor != nil {
		f.SetCellValue(sheet, "A2", "Vendor")
		f.SetCellValue(sheet, "B2", po.Vendor.Name)
	}
	f.SetCellValue(sheet, "A3", "Category")
	f.SetCellValue(sheet, "B3", strings.ToUpper(po.Category))
	f.SetCellValue(sheet, "A4", "Status")
	f.SetCellValue(sheet, "B4", po.Status)

	headerRow := 6
	for i, h := range poExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s%d", col, headerRow)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, item := range po.Items {
		row := headerRow + 1 + rowIdx
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.SortOrder)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.MaterialCode)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.MaterialName)
		if item.MedicineID != nil {
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), *item.MedicineID)
		}
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Quantity.String())
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.Unit)
		if item.UnitPrice != nil {
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), item.UnitPrice.String())
		}
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), item.Language)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), item.ArtworkVersion)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), item.ReceivedQty.String())
	}

	colWidths := []float64{6, 14, 28, 28, 12, 8, 12, 10, 10, 12}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("%s.xlsx", po.POCode)
	return f, filename, nil
}
