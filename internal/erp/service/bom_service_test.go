package service

import (
	"context"
	"testing"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/RatishMoondra/pharma-erp/internal/erp/testutil"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func setupBOM(t *testing.T) (*BOMService, func(t *testing.T)) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewBOMService(repos.BOM, repos.Material, repos.Medicine, repos.Vendor)

	seed := func(t *testing.T) {
		v := testutil.SeedVendor(t, db, "vendor-1", "V-001", "Acme Chemicals")
		testutil.SeedMaterial(t, db, "mat-1", "RM-001", "Paracetamol API", entity.CategoryRM, &v.ID)
		testutil.SeedMaterial(t, db, "mat-2", "RM-002", "Starch", entity.CategoryRM, nil)
		testutil.SeedMedicine(t, db, "med-1", "MED-001", "Paracetamol 500mg")
	}
	return svc, seed
}

func TestBOMReplaceAndGet(t *testing.T) {
	svc, seed := setupBOM(t)
	seed(t)
	ctx := context.Background()

	items := []BOMEntryRequest{
		{MaterialID: "mat-1", QtyPerUnit: decimal.RequireFromString("0.5"), Unit: "kg"},
		{MaterialID: "mat-2", QtyPerUnit: decimal.NewFromInt(2)},
	}
	entries, err := svc.Replace(ctx, "med-1", entity.CategoryRM, items)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].SortOrder != 1 || entries[1].SortOrder != 2 {
		t.Errorf("sort order not preserved: %d, %d", entries[0].SortOrder, entries[1].SortOrder)
	}

	// Replacing again swaps the whole BOM
	entries, err = svc.Replace(ctx, "med-1", entity.CategoryRM, items[:1])
	if err != nil {
		t.Fatalf("second Replace: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries after swap = %d, want 1", len(entries))
	}
}

func TestBOMReplaceRejectsNegativeQty(t *testing.T) {
	svc, seed := setupBOM(t)
	seed(t)

	items := []BOMEntryRequest{
		{MaterialID: "mat-1", QtyPerUnit: decimal.NewFromInt(-1)},
	}
	if _, err := svc.Replace(context.Background(), "med-1", entity.CategoryRM, items); err == nil {
		t.Fatal("expected error for negative qty per unit")
	}
}

func TestBOMReplaceRejectsFGCategory(t *testing.T) {
	svc, seed := setupBOM(t)
	seed(t)

	if _, err := svc.Replace(context.Background(), "med-1", entity.CategoryFG, nil); err == nil {
		t.Fatal("expected error for fg category")
	}
}

func importWorkbook(rows [][]interface{}) *excelize.File {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []interface{}{"#", "Material Code", "Material Name", "Qty Per Unit", "Unit", "Vendor Code", "Language", "Artwork Version"}
	for j, v := range header {
		col, _ := excelize.ColumnNumberToName(j + 1)
		f.SetCellValue(sheet, col+"1", v)
	}
	for i, row := range rows {
		for j, v := range row {
			col, _ := excelize.ColumnNumberToName(j + 1)
			cell, _ := excelize.JoinCellName(col, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	return f
}

func TestBOMImport(t *testing.T) {
	svc, seed := setupBOM(t)
	seed(t)
	ctx := context.Background()

	f := importWorkbook([][]interface{}{
		{1, "RM-001", "Paracetamol API", "0.5", "kg", "V-001"},
		{2, "RM-002", "Starch", "2"},
		{3, "RM-999", "Unknown", "1"}, // unknown code fails the line only
		{4, "RM-001", "Paracetamol API", "abc"}, // tolerant parse, qty 0
	})

	result, err := svc.Import(ctx, "med-1", entity.CategoryRM, f)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Success != 3 {
		t.Errorf("success = %d, want 3", result.Success)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}

	entries, err := svc.Get(ctx, "med-1", entity.CategoryRM)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if want := decimal.RequireFromString("0.5"); !entries[0].QtyPerUnit.Equal(want) {
		t.Errorf("qty = %s, want %s", entries[0].QtyPerUnit, want)
	}
	if entries[0].VendorID == nil || *entries[0].VendorID != "vendor-1" {
		t.Errorf("vendor override not resolved from code, got %v", entries[0].VendorID)
	}
	if entries[1].VendorID != nil {
		t.Errorf("blank vendor code should leave override nil, got %q", *entries[1].VendorID)
	}
	if !entries[2].QtyPerUnit.IsZero() {
		t.Errorf("non-numeric qty should parse to zero, got %s", entries[2].QtyPerUnit)
	}
}

func TestBOMImportRejectsUnknownVendorCode(t *testing.T) {
	svc, seed := setupBOM(t)
	seed(t)
	ctx := context.Background()

	f := importWorkbook([][]interface{}{
		{1, "RM-001", "Paracetamol API", "0.5", "kg", "V-999"},
	})

	result, err := svc.Import(ctx, "med-1", entity.CategoryRM, f)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Success != 0 || result.Failed != 1 {
		t.Fatalf("success/failed = %d/%d, want 0/1", result.Success, result.Failed)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(result.Errors))
	}
}

func TestBOMExportImportRoundTrip(t *testing.T) {
	svc, seed := setupBOM(t)
	seed(t)
	ctx := context.Background()

	items := []BOMEntryRequest{
		{MaterialID: "mat-1", QtyPerUnit: decimal.RequireFromString("0.5"), Unit: "kg", VendorID: "vendor-1"},
		{MaterialID: "mat-2", QtyPerUnit: decimal.NewFromInt(2)},
	}
	if _, err := svc.Replace(ctx, "med-1", entity.CategoryRM, items); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	f, _, err := svc.Export(ctx, "med-1", entity.CategoryRM)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	result, err := svc.Import(ctx, "med-1", entity.CategoryRM, f)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Failed != 0 {
		t.Fatalf("round trip failed lines: %v", result.Errors)
	}

	entries, err := svc.Get(ctx, "med-1", entity.CategoryRM)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].VendorID == nil || *entries[0].VendorID != "vendor-1" {
		t.Errorf("vendor override lost in round trip, got %v", entries[0].VendorID)
	}
}
