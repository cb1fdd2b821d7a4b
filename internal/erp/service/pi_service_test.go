package service

import (
	"context"
	"testing"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/RatishMoondra/pharma-erp/internal/erp/testutil"
	"github.com/shopspring/decimal"
)

func TestPIApproveDerivesEOPA(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewPIService(repos.PI, repos.EOPA)
	ctx := context.Background()

	testutil.SeedMedicine(t, db, "med-1", "MED-001", "Paracetamol 500mg")
	testutil.SeedMedicine(t, db, "med-2", "MED-002", "Ibuprofen 200mg")

	pi, err := svc.Create(ctx, "user-1", &CreatePIRequest{
		CustomerName: "Lagos Pharma Ltd",
		Country:      "Nigeria",
		Items: []CreatePIItem{
			{MedicineID: "med-1", Quantity: decimal.NewFromInt(1000), UnitPrice: decimal.RequireFromString("0.12")},
			{MedicineID: "med-2", Quantity: decimal.NewFromInt(500), UnitPrice: decimal.RequireFromString("0.30")},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if pi.Status != entity.PIStatusDraft {
		t.Fatalf("pi status = %q, want draft", pi.Status)
	}

	approved, eopa, err := svc.Approve(ctx, pi.ID, "user-2")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != entity.PIStatusApproved {
		t.Errorf("pi status = %q, want approved", approved.Status)
	}
	if eopa.Status != entity.EOPAStatusDraft {
		t.Errorf("eopa status = %q, want draft", eopa.Status)
	}
	if eopa.PIID == nil || *eopa.PIID != pi.ID {
		t.Errorf("eopa pi link = %v, want %s", eopa.PIID, pi.ID)
	}
	if len(eopa.Items) != 2 {
		t.Fatalf("eopa items = %d, want 2", len(eopa.Items))
	}
	if eopa.Items[0].MedicineID != "med-1" || !eopa.Items[0].Quantity.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("eopa line 1 = %s/%s, want med-1/1000", eopa.Items[0].MedicineID, eopa.Items[0].Quantity)
	}

	// A second approval is rejected
	if _, _, err := svc.Approve(ctx, pi.ID, "user-2"); err == nil {
		t.Fatal("expected error approving an already approved pi")
	}
}
