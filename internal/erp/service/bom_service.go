package service

import (
	"context"
	"fmt"
	"time"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"github.com/RatishMoondra/pharma-erp/internal/erp/explosion"
	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// BOMService per-medicine RM/PM bill of materials maintenance
type BOMService struct {
	bomRepo      *repository.BOMRepository
	materialRepo *repository.MaterialRepository
	medicineRepo *repository.MedicineRepository
	vendorRepo   *repository.VendorRepository
}

func NewBOMService(bomRepo *repository.BOMRepository, materialRepo *repository.MaterialRepository, medicineRepo *repository.MedicineRepository, vendorRepo *repository.VendorRepository) *BOMService {
	return &BOMService{
		bomRepo:      bomRepo,
		materialRepo: materialRepo,
		medicineRepo: medicineRepo,
		vendorRepo:   vendorRepo,
	}
}

func (s *BOMService) Get(ctx context.Context, medicineID, category string) ([]entity.BOMEntry, error) {
	if category != entity.CategoryRM && category != entity.CategoryPM {
		return nil, fmt.Errorf("unsupported category %q, want rm or pm", category)
	}
	return s.bomRepo.ListByMedicine(ctx, medicineID, category)
}

// BOMEntryRequest one BOM line of a replace request
type BOMEntryRequest struct {
	MaterialID     string          `json:"material_id" binding:"required"`
	QtyPerUnit     decimal.Decimal `json:"qty_per_unit" binding:"required"`
	Unit           string          `json:"unit"`
	VendorID       string          `json:"vendor_id"`
	Language       string          `json:"language"`
	ArtworkVersion string          `json:"artwork_version"`
}

// Replace swaps the whole BOM of one medicine+category
func (s *BOMService) Replace(ctx context.Context, medicineID, category string, items []BOMEntryRequest) ([]entity.BOMEntry, error) {
	if category != entity.CategoryRM && category != entity.CategoryPM {
		return nil, fmt.Errorf("unsupported category %q, want rm or pm", category)
	}
	if _, err := s.medicineRepo.FindByID(ctx, medicineID); err != nil {
		return nil, fmt.Errorf("medicine not found: %w", err)
	}

	entries := make([]entity.BOMEntry, 0, len(items))
	for i, item := range items {
		if item.QtyPerUnit.IsNegative() {
			return nil, fmt.Errorf("line %d: qty per unit cannot be negative", i+1)
		}
		entries = append(entries, entity.BOMEntry{
			ID:             newID(),
			MedicineID:     medicineID,
			MaterialID:     item.MaterialID,
			Category:       category,
			QtyPerUnit:     item.QtyPerUnit,
			Unit:           item.Unit,
			VendorID:       strPtr(item.VendorID),
			Language:       item.Language,
			ArtworkVersion: item.ArtworkVersion,
			SortOrder:      i + 1,
		})
	}

	if err := s.bomRepo.Replace(ctx, medicineID, category, entries); err != nil {
		return nil, err
	}
	return s.bomRepo.ListByMedicine(ctx, medicineID, category)
}

var bomExportHeaders = []string{"#", "Material Code", "Material Name", "Qty Per Unit", "Unit", "Vendor Code", "Language", "Artwork Version"}

// Export renders one medicine's BOM as an Excel workbook
func (s *BOMService) Export(ctx context.Context, medicineID, category string) (*excelize.File, string, error) {
	med, err := s.medicineRepo.FindByID(ctx, medicineID)
	if err != nil {
		return nil, "", fmt.Errorf("medicine not found: %w", err)
	}
	entries, err := s.bomRepo.ListByMedicine(ctx, medicineID, category)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheet := "BOM"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range bomExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s1", col)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, e := range entries {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), rowIdx+1)
		if e.Material != nil {
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), e.Material.Code)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), e.Material.Name)
		}
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), e.QtyPerUnit.String())
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), e.Unit)
		if e.Vendor != nil {
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), e.Vendor.Code)
		}
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), e.Language)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), e.ArtworkVersion)
	}

	colWidths := []float64{6, 16, 30, 14, 8, 14, 12, 14}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("BOM_%s_%s.xlsx", med.Code, category)
	return f, filename, nil
}

// ImportResult counts of one BOM import run
type ImportResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Import replaces one medicine's BOM from an uploaded Excel workbook.
// Materials and vendor overrides are matched by code; unknown codes fail
// the line but not the import.
func (s *BOMService) Import(ctx context.Context, medicineID, category string, f *excelize.File) (*ImportResult, error) {
	if category != entity.CategoryRM && category != entity.CategoryPM {
		return nil, fmt.Errorf("unsupported category %q, want rm or pm", category)
	}
	if _, err := s.medicineRepo.FindByID(ctx, medicineID); err != nil {
		return nil, fmt.Errorf("medicine not found: %w", err)
	}

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read excel: %w", err)
	}

	result := &ImportResult{}
	if len(rows) < 2 {
		return result, nil
	}

	var entries []entity.BOMEntry
	for i, row := range rows[1:] { // skip header
		if len(row) < 2 || row[1] == "" {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing material code", i+2))
			continue
		}

		mat, err := s.materialRepo.FindByCode(ctx, row[1])
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: unknown material code %q", i+2, row[1]))
			continue
		}

		entry := entity.BOMEntry{
			ID:         newID(),
			MedicineID: medicineID,
			MaterialID: mat.ID,
			Category:   category,
			Unit:       mat.Unit,
			SortOrder:  len(entries) + 1,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		if len(row) > 3 {
			entry.QtyPerUnit = explosion.ParseQuantity(row[3])
		}
		if len(row) > 4 && row[4] != "" {
			entry.Unit = row[4]
		}
		if len(row) > 5 && row[5] != "" {
			vendor, err := s.vendorRepo.FindByCode(ctx, row[5])
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: unknown vendor code %q", i+2, row[5]))
				continue
			}
			entry.VendorID = &vendor.ID
		}
		if len(row) > 6 {
			entry.Language = row[6]
		}
		if len(row) > 7 {
			entry.ArtworkVersion = row[7]
		}

		entries = append(entries, entry)
		result.Success++
	}

	if err := s.bomRepo.Replace(ctx, medicineID, category, entries); err != nil {
		return nil, fmt.Errorf("replace bom: %w", err)
	}
	return result, nil
}

// GenerateTemplate builds the BOM import template workbook
func (s *BOMService) GenerateTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "BOM"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	for i, h := range bomExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s1", col)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	example := []interface{}{1, "RM-0001", "Paracetamol API", "0.5", "kg", "", "", ""}
	for j, v := range example {
		col, _ := excelize.ColumnNumberToName(j + 1)
		f.SetCellValue(sheet, fmt.Sprintf("%s2", col), v)
	}

	colWidths := []float64{6, 16, 30, 14, 8, 14, 12, 14}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return f, nil
}
