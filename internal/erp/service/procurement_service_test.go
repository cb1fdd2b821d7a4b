package service

import (
	"context"
	"errors"
	"testing"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/RatishMoondra/pharma-erp/internal/erp/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupProcurement(t *testing.T) (*gorm.DB, *repository.Repositories, *EOPAService, *ProcurementService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	eopaSvc := NewEOPAService(repos.EOPA, repos.PI, repos.BOM, zap.NewNop())
	procSvc := NewProcurementService(repos.PO, repos.EOPA, repos.Vendor, eopaSvc.Engine(), db, zap.NewNop())
	return db, repos, eopaSvc, procSvc
}

func seedExplodableEOPA(t *testing.T, db *gorm.DB) string {
	t.Helper()

	v1 := testutil.SeedVendor(t, db, "vendor-1", "V-001", "Acme Chemicals")
	v2 := testutil.SeedVendor(t, db, "vendor-2", "V-002", "Bharat Packaging")
	testutil.SeedMaterial(t, db, "mat-1", "RM-001", "Paracetamol API", entity.CategoryRM, &v1.ID)
	testutil.SeedMaterial(t, db, "mat-2", "RM-002", "Starch", entity.CategoryRM, &v2.ID)
	med := testutil.SeedMedicine(t, db, "med-1", "MED-001", "Paracetamol 500mg")

	entries := []entity.BOMEntry{
		{ID: "bom-1", MedicineID: med.ID, MaterialID: "mat-1", Category: entity.CategoryRM,
			QtyPerUnit: decimal.RequireFromString("0.5"), Unit: "kg", SortOrder: 1},
		{ID: "bom-2", MedicineID: med.ID, MaterialID: "mat-2", Category: entity.CategoryRM,
			QtyPerUnit: decimal.NewFromInt(2), Unit: "kg", SortOrder: 2},
	}
	if err := db.Create(&entries).Error; err != nil {
		t.Fatalf("seed bom: %v", err)
	}

	eopa := &entity.EOPA{
		ID:       "eopa-1",
		EOPACode: "EOPA-2026-0001",
		Status:   entity.EOPAStatusApproved,
		Items: []entity.EOPAItem{
			{ID: "ei-1", EOPAID: "eopa-1", MedicineID: med.ID, Quantity: decimal.NewFromInt(100), SortOrder: 1},
		},
	}
	if err := db.Create(eopa).Error; err != nil {
		t.Fatalf("seed eopa: %v", err)
	}
	return eopa.ID
}

func TestGenerateFromEOPA(t *testing.T) {
	db, repos, _, procSvc := setupProcurement(t)
	eopaID := seedExplodableEOPA(t, db)
	ctx := context.Background()

	result, err := procSvc.GenerateFromEOPA(ctx, eopaID, entity.CategoryRM, "user-1", nil)
	if err != nil {
		t.Fatalf("GenerateFromEOPA: %v", err)
	}
	if len(result.POs) != 2 {
		t.Fatalf("expected 2 POs (one per vendor), got %d", len(result.POs))
	}

	byVendor := map[string]*entity.PurchaseOrder{}
	for _, po := range result.POs {
		byVendor[po.VendorID] = po
		if po.Status != entity.POStatusDraft {
			t.Errorf("po %s status = %q, want draft", po.POCode, po.Status)
		}
		if po.Category != entity.CategoryRM {
			t.Errorf("po %s category = %q, want rm", po.POCode, po.Category)
		}
	}

	po1 := byVendor["vendor-1"]
	if po1 == nil {
		t.Fatal("no PO for vendor-1")
	}
	if len(po1.Items) != 1 {
		t.Fatalf("vendor-1 PO items = %d, want 1", len(po1.Items))
	}
	if want := decimal.NewFromInt(50); !po1.Items[0].Quantity.Equal(want) {
		t.Errorf("vendor-1 exploded qty = %s, want %s", po1.Items[0].Quantity, want)
	}

	po2 := byVendor["vendor-2"]
	if po2 == nil {
		t.Fatal("no PO for vendor-2")
	}
	if want := decimal.NewFromInt(200); !po2.Items[0].Quantity.Equal(want) {
		t.Errorf("vendor-2 exploded qty = %s, want %s", po2.Items[0].Quantity, want)
	}

	eopa, err := repos.EOPA.FindByID(ctx, eopaID)
	if err != nil {
		t.Fatalf("reload eopa: %v", err)
	}
	if eopa.Status != entity.EOPAStatusPOGenerated {
		t.Errorf("eopa status = %q, want po_generated", eopa.Status)
	}
}

func TestGenerateFromEOPADuplicateGuard(t *testing.T) {
	db, _, _, procSvc := setupProcurement(t)
	eopaID := seedExplodableEOPA(t, db)
	ctx := context.Background()

	if _, err := procSvc.GenerateFromEOPA(ctx, eopaID, entity.CategoryRM, "user-1", nil); err != nil {
		t.Fatalf("first generation: %v", err)
	}

	_, err := procSvc.GenerateFromEOPA(ctx, eopaID, entity.CategoryRM, "user-1", nil)
	var dup *DuplicatePOError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicatePOError, got %v", err)
	}
	if len(dup.POCodes) != 2 {
		t.Errorf("duplicate error codes = %v, want 2 existing PO codes", dup.POCodes)
	}
}

func TestGenerateFromEOPAConcurrentGuard(t *testing.T) {
	db, repos, _, procSvc := setupProcurement(t)
	eopaID := seedExplodableEOPA(t, db)
	ctx := context.Background()

	// Race two generations for the same EOPA+category. The row lock
	// inside the transaction must let exactly one through.
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := procSvc.GenerateFromEOPA(ctx, eopaID, entity.CategoryRM, "user-1", nil)
			errs <- err
		}()
	}

	var success, duplicate int
	for i := 0; i < 2; i++ {
		err := <-errs
		var dup *DuplicatePOError
		switch {
		case err == nil:
			success++
		case errors.As(err, &dup):
			duplicate++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 || duplicate != 1 {
		t.Fatalf("success/duplicate = %d/%d, want 1/1", success, duplicate)
	}

	pos, err := repos.PO.FindByEOPAAndCategory(ctx, eopaID, entity.CategoryRM)
	if err != nil {
		t.Fatalf("FindByEOPAAndCategory: %v", err)
	}
	if len(pos) != 2 {
		t.Fatalf("pos = %d, want 2 (one per vendor, not doubled)", len(pos))
	}
}

func TestGenerateFromEOPAVendorSelection(t *testing.T) {
	db, _, _, procSvc := setupProcurement(t)
	eopaID := seedExplodableEOPA(t, db)
	ctx := context.Background()

	result, err := procSvc.GenerateFromEOPA(ctx, eopaID, entity.CategoryRM, "user-1", []string{"vendor-2"})
	if err != nil {
		t.Fatalf("GenerateFromEOPA: %v", err)
	}
	if len(result.POs) != 1 {
		t.Fatalf("expected 1 PO for selected vendor, got %d", len(result.POs))
	}
	if result.POs[0].VendorID != "vendor-2" {
		t.Errorf("po vendor = %s, want vendor-2", result.POs[0].VendorID)
	}
}

func TestGenerateFromEOPARejectsDraft(t *testing.T) {
	db, _, _, procSvc := setupProcurement(t)
	eopaID := seedExplodableEOPA(t, db)
	db.Model(&entity.EOPA{}).Where("id = ?", eopaID).Update("status", entity.EOPAStatusDraft)

	if _, err := procSvc.GenerateFromEOPA(context.Background(), eopaID, entity.CategoryRM, "user-1", nil); err == nil {
		t.Fatal("expected error for draft eopa")
	}
}

func TestGenerateFromEOPARejectsFGCategory(t *testing.T) {
	_, _, _, procSvc := setupProcurement(t)

	if _, err := procSvc.GenerateFromEOPA(context.Background(), "eopa-x", entity.CategoryFG, "user-1", nil); err == nil {
		t.Fatal("expected error for fg category")
	}
}

func TestReceiveItemRollsUpStatus(t *testing.T) {
	db, repos, _, procSvc := setupProcurement(t)
	eopaID := seedExplodableEOPA(t, db)
	ctx := context.Background()

	result, err := procSvc.GenerateFromEOPA(ctx, eopaID, entity.CategoryRM, "user-1", []string{"vendor-1"})
	if err != nil {
		t.Fatalf("GenerateFromEOPA: %v", err)
	}
	po := result.POs[0]

	// Partial receipt
	updated, err := procSvc.ReceiveItem(ctx, po.ID, po.Items[0].ID, decimal.NewFromInt(20), "user-1")
	if err != nil {
		t.Fatalf("ReceiveItem: %v", err)
	}
	if updated.Status != entity.POStatusPartial {
		t.Errorf("po status after partial receipt = %q, want partial", updated.Status)
	}

	// Remainder
	updated, err = procSvc.ReceiveItem(ctx, po.ID, po.Items[0].ID, decimal.NewFromInt(30), "user-1")
	if err != nil {
		t.Fatalf("ReceiveItem remainder: %v", err)
	}
	if updated.Status != entity.POStatusReceived {
		t.Errorf("po status after full receipt = %q, want received", updated.Status)
	}

	balances, err := repos.Stock.Balances(ctx, entity.CategoryRM)
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	var found bool
	for _, b := range balances {
		if b.MaterialID == "mat-1" {
			found = true
			if want := decimal.NewFromInt(50); !b.Received.Equal(want) {
				t.Errorf("mat-1 received = %s, want %s", b.Received, want)
			}
		}
	}
	if !found {
		t.Error("no stock balance row for mat-1")
	}
}
