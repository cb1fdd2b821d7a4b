package handler

import (
	"testing"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/RatishMoondra/pharma-erp/internal/erp/service"
	"github.com/RatishMoondra/pharma-erp/internal/erp/testutil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupEOPARouter(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := service.NewServices(db, repos, nil, nil, "", zap.NewNop(), testutil.JWTSecret, 0)
	h := NewHandlers(svc)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")
	api.GET("/eopas/:id/explosion", h.EOPA.Explosion)
	api.POST("/eopas/:id/purchase-orders", h.PO.GenerateFromEOPA)
	return db, r
}

func seedEOPAFixture(t *testing.T, db *gorm.DB) {
	t.Helper()
	v := testutil.SeedVendor(t, db, "vendor-1", "V-001", "Acme Chemicals")
	testutil.SeedMaterial(t, db, "mat-1", "RM-001", "Paracetamol API", entity.CategoryRM, &v.ID)
	med := testutil.SeedMedicine(t, db, "med-1", "MED-001", "Paracetamol 500mg")

	entry := entity.BOMEntry{
		ID: "bom-1", MedicineID: med.ID, MaterialID: "mat-1", Category: entity.CategoryRM,
		QtyPerUnit: decimal.RequireFromString("0.5"), Unit: "kg", SortOrder: 1,
	}
	if err := db.Create(&entry).Error; err != nil {
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
}

func TestExplosionEndpoint(t *testing.T) {
	db, r := setupEOPARouter(t)
	seedEOPAFixture(t, db)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, "GET", "/api/v1/eopas/eopa-1/explosion", nil, token)
	if w.Code != 200 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing data in response: %v", resp)
	}
	rm, ok := data["rm"].([]interface{})
	if !ok || len(rm) != 1 {
		t.Fatalf("expected 1 rm vendor group, got %v", data["rm"])
	}
	group := rm[0].(map[string]interface{})
	if group["vendor_id"] != "vendor-1" {
		t.Errorf("group vendor = %v, want vendor-1", group["vendor_id"])
	}
	items := group["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 item in group, got %d", len(items))
	}
	item := items[0].(map[string]interface{})
	qty := decimal.RequireFromString(item["exploded_quantity"].(string))
	if !qty.Equal(decimal.NewFromInt(50)) {
		t.Errorf("exploded quantity = %s, want 50", qty)
	}
}

func TestExplosionEndpointNotFound(t *testing.T) {
	_, r := setupEOPARouter(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, "GET", "/api/v1/eopas/missing/explosion", nil, token)
	if w.Code != 404 {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestExplosionEndpointRequiresAuth(t *testing.T) {
	_, r := setupEOPARouter(t)

	w := testutil.DoRequest(r, "GET", "/api/v1/eopas/eopa-1/explosion", nil, "")
	if w.Code != 401 {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestGeneratePOEndpoint(t *testing.T) {
	db, r := setupEOPARouter(t)
	seedEOPAFixture(t, db)
	token := testutil.DefaultTestToken()

	body := map[string]interface{}{"category": "rm"}
	w := testutil.DoRequest(r, "POST", "/api/v1/eopas/eopa-1/purchase-orders", body, token)
	if w.Code != 201 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	// Same EOPA+category again conflicts with the existing POs
	w = testutil.DoRequest(r, "POST", "/api/v1/eopas/eopa-1/purchase-orders", body, token)
	if w.Code != 409 {
		t.Fatalf("duplicate status = %d, want 409, body = %s", w.Code, w.Body.String())
	}
}
