package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const refListTTL = 5 * time.Minute

// Services ERP service set
type Services struct {
	Auth        *AuthService
	Vendor      *VendorService
	Material    *MaterialService
	Medicine    *MedicineService
	BOM         *BOMService
	PI          *PIService
	EOPA        *EOPAService
	Procurement *ProcurementService
	Stock       *StockService
	Document    *DocumentService
}

// NewServices wires the service set
func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, minioClient *minio.Client, bucketName string, logger *zap.Logger, jwtSecret string, tokenExpire time.Duration) *Services {
	eopaSvc := NewEOPAService(repos.EOPA, repos.PI, repos.BOM, logger)
	return &Services{
		Auth:        NewAuthService(repos.User, rdb, jwtSecret, tokenExpire),
		Vendor:      NewVendorService(repos.Vendor, rdb),
		Material:    NewMaterialService(repos.Material, rdb),
		Medicine:    NewMedicineService(repos.Medicine, rdb),
		BOM:         NewBOMService(repos.BOM, repos.Material, repos.Medicine, repos.Vendor),
		PI:          NewPIService(repos.PI, repos.EOPA),
		EOPA:        eopaSvc,
		Procurement: NewProcurementService(repos.PO, repos.EOPA, repos.Vendor, eopaSvc.Engine(), db, logger),
		Stock:       NewStockService(repos.Stock),
		Document:    NewDocumentService(repos.Document, minioClient, bucketName),
	}
}

// newID generates a 32-char entity id
func newID() string {
	return uuid.New().String()[:32]
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// cachedList fetches a reference list through redis, falling back to the
// loader on any cache miss or error. Cache failures never fail the request.
func cachedList[T any](ctx context.Context, rdb *redis.Client, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if rdb != nil {
		if raw, err := rdb.Get(ctx, key).Result(); err == nil {
			var items []T
			if json.Unmarshal([]byte(raw), &items) == nil {
				return items, nil
			}
		}
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if rdb != nil {
		if raw, err := json.Marshal(items); err == nil {
			rdb.Set(ctx, key, raw, refListTTL)
		}
	}
	return items, nil
}

func invalidate(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb != nil {
		rdb.Del(ctx, keys...)
	}
}

// === Vendor ===

const vendorListKey = "ref:vendors"

// VendorService vendor master and terms
type VendorService struct {
	repo *repository.VendorRepository
	rdb  *redis.Client
}

func NewVendorService(repo *repository.VendorRepository, rdb *redis.Client) *VendorService {
	return &VendorService{repo: repo, rdb: rdb}
}

func (s *VendorService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Vendor, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// ListActive returns the cached active-vendor reference list
func (s *VendorService) ListActive(ctx context.Context) ([]entity.Vendor, error) {
	return cachedList(ctx, s.rdb, vendorListKey, s.repo.ListActive)
}

func (s *VendorService) Get(ctx context.Context, id string) (*entity.Vendor, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateVendorRequest new vendor payload
type CreateVendorRequest struct {
	Code          string `json:"code" binding:"required"`
	Name          string `json:"name" binding:"required"`
	GSTIN         string `json:"gstin"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Country       string `json:"country"`
	ContactName   string `json:"contact_name"`
	ContactEmail  string `json:"contact_email"`
	ContactPhone  string `json:"contact_phone"`
	SuppliesRM    bool   `json:"supplies_rm"`
	SuppliesPM    bool   `json:"supplies_pm"`
	SuppliesFG    bool   `json:"supplies_fg"`
	PaymentTerms  string `json:"payment_terms"`
	DeliveryTerms string `json:"delivery_terms"`
	Currency      string `json:"currency"`
	CreditDays    int    `json:"credit_days"`
	Notes         string `json:"notes"`
}

func (s *VendorService) Create(ctx context.Context, userID string, req *CreateVendorRequest) (*entity.Vendor, error) {
	v := &entity.Vendor{
		ID:            newID(),
		Code:          req.Code,
		Name:          req.Name,
		Status:        entity.VendorStatusActive,
		GSTIN:         req.GSTIN,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		ContactName:   req.ContactName,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		SuppliesRM:    req.SuppliesRM,
		SuppliesPM:    req.SuppliesPM,
		SuppliesFG:    req.SuppliesFG,
		PaymentTerms:  req.PaymentTerms,
		DeliveryTerms: req.DeliveryTerms,
		Currency:      req.Currency,
		CreditDays:    req.CreditDays,
		CreatedBy:     userID,
		Notes:         req.Notes,
	}
	if v.Currency == "" {
		v.Currency = "INR"
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	invalidate(ctx, s.rdb, vendorListKey)
	return v, nil
}

// UpdateVendorRequest partial vendor update
type UpdateVendorRequest struct {
	Name          *string `json:"name"`
	Status        *string `json:"status"`
	GSTIN         *string `json:"gstin"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	Country       *string `json:"country"`
	ContactName   *string `json:"contact_name"`
	ContactEmail  *string `json:"contact_email"`
	ContactPhone  *string `json:"contact_phone"`
	SuppliesRM    *bool   `json:"supplies_rm"`
	SuppliesPM    *bool   `json:"supplies_pm"`
	SuppliesFG    *bool   `json:"supplies_fg"`
	PaymentTerms  *string `json:"payment_terms"`
	DeliveryTerms *string `json:"delivery_terms"`
	Currency      *string `json:"currency"`
	CreditDays    *int    `json:"credit_days"`
	Notes         *string `json:"notes"`
}

func (s *VendorService) Update(ctx context.Context, id string, req *UpdateVendorRequest) (*entity.Vendor, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		v.Name = *req.Name
	}
	if req.Status != nil {
		v.Status = *req.Status
	}
	if req.GSTIN != nil {
		v.GSTIN = *req.GSTIN
	}
	if req.Address != nil {
		v.Address = *req.Address
	}
	if req.City != nil {
		v.City = *req.City
	}
	if req.Country != nil {
		v.Country = *req.Country
	}
	if req.ContactName != nil {
		v.ContactName = *req.ContactName
	}
	if req.ContactEmail != nil {
		v.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		v.ContactPhone = *req.ContactPhone
	}
	if req.SuppliesRM != nil {
		v.SuppliesRM = *req.SuppliesRM
	}
	if req.SuppliesPM != nil {
		v.SuppliesPM = *req.SuppliesPM
	}
	if req.SuppliesFG != nil {
		v.SuppliesFG = *req.SuppliesFG
	}
	if req.PaymentTerms != nil {
		v.PaymentTerms = *req.PaymentTerms
	}
	if req.DeliveryTerms != nil {
		v.DeliveryTerms = *req.DeliveryTerms
	}
	if req.Currency != nil {
		v.Currency = *req.Currency
	}
	if req.CreditDays != nil {
		v.CreditDays = *req.CreditDays
	}
	if req.Notes != nil {
		v.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	invalidate(ctx, s.rdb, vendorListKey)
	return v, nil
}

// === Material ===

const materialListKey = "ref:materials"

// MaterialService material master
type MaterialService struct {
	repo *repository.MaterialRepository
	rdb  *redis.Client
}

func NewMaterialService(repo *repository.MaterialRepository, rdb *redis.Client) *MaterialService {
	return &MaterialService{repo: repo, rdb: rdb}
}

func (s *MaterialService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Material, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *MaterialService) ListActive(ctx context.Context) ([]entity.Material, error) {
	return cachedList(ctx, s.rdb, materialListKey, s.repo.ListActive)
}

func (s *MaterialService) Get(ctx context.Context, id string) (*entity.Material, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateMaterialRequest new material payload
type CreateMaterialRequest struct {
	Code            string `json:"code" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Category        string `json:"category" binding:"required"` // rm/pm
	Unit            string `json:"unit"`
	DefaultVendorID string `json:"default_vendor_id"`
	Notes           string `json:"notes"`
}

func (s *MaterialService) Create(ctx context.Context, userID string, req *CreateMaterialRequest) (*entity.Material, error) {
	m := &entity.Material{
		ID:              newID(),
		Code:            req.Code,
		Name:            req.Name,
		Category:        req.Category,
		Unit:            req.Unit,
		Status:          "active",
		DefaultVendorID: strPtr(req.DefaultVendorID),
		CreatedBy:       userID,
		Notes:           req.Notes,
	}
	if m.Unit == "" {
		m.Unit = "kg"
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	invalidate(ctx, s.rdb, materialListKey)
	return m, nil
}

// UpdateMaterialRequest partial material update
type UpdateMaterialRequest struct {
	Name            *string `json:"name"`
	Unit            *string `json:"unit"`
	Status          *string `json:"status"`
	DefaultVendorID *string `json:"default_vendor_id"`
	Notes           *string `json:"notes"`
}

func (s *MaterialService) Update(ctx context.Context, id string, req *UpdateMaterialRequest) (*entity.Material, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Unit != nil {
		m.Unit = *req.Unit
	}
	if req.Status != nil {
		m.Status = *req.Status
	}
	if req.DefaultVendorID != nil {
		m.DefaultVendorID = strPtr(*req.DefaultVendorID)
	}
	if req.Notes != nil {
		m.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	invalidate(ctx, s.rdb, materialListKey)
	return m, nil
}

// === Medicine ===

const medicineListKey = "ref:medicines"

// MedicineService medicine master
type MedicineService struct {
	repo *repository.MedicineRepository
	rdb  *redis.Client
}

func NewMedicineService(repo *repository.MedicineRepository, rdb *redis.Client) *MedicineService {
	return &MedicineService{repo: repo, rdb: rdb}
}

func (s *MedicineService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Medicine, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *MedicineService) ListActive(ctx context.Context) ([]entity.Medicine, error) {
	return cachedList(ctx, s.rdb, medicineListKey, s.repo.ListActive)
}

func (s *MedicineService) Get(ctx context.Context, id string) (*entity.Medicine, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateMedicineRequest new medicine payload
type CreateMedicineRequest struct {
	Code                 string `json:"code" binding:"required"`
	Name                 string `json:"name" binding:"required"`
	Strength             string `json:"strength"`
	Form                 string `json:"form"`
	Unit                 string `json:"unit"`
	RMVendorID           string `json:"rm_vendor_id"`
	PMVendorID           string `json:"pm_vendor_id"`
	ManufacturerVendorID string `json:"manufacturer_vendor_id"`
	Notes                string `json:"notes"`
}

func (s *MedicineService) Create(ctx context.Context, userID string, req *CreateMedicineRequest) (*entity.Medicine, error) {
	m := &entity.Medicine{
		ID:                   newID(),
		Code:                 req.Code,
		Name:                 req.Name,
		Strength:             req.Strength,
		Form:                 req.Form,
		Unit:                 req.Unit,
		Status:               entity.MedicineStatusActive,
		RMVendorID:           strPtr(req.RMVendorID),
		PMVendorID:           strPtr(req.PMVendorID),
		ManufacturerVendorID: strPtr(req.ManufacturerVendorID),
		CreatedBy:            userID,
		Notes:                req.Notes,
	}
	if m.Unit == "" {
		m.Unit = "pcs"
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	invalidate(ctx, s.rdb, medicineListKey)
	return m, nil
}

// UpdateMedicineRequest partial medicine update
type UpdateMedicineRequest struct {
	Name                 *string `json:"name"`
	Strength             *string `json:"strength"`
	Form                 *string `json:"form"`
	Unit                 *string `json:"unit"`
	Status               *string `json:"status"`
	RMVendorID           *string `json:"rm_vendor_id"`
	PMVendorID           *string `json:"pm_vendor_id"`
	ManufacturerVendorID *string `json:"manufacturer_vendor_id"`
	Notes                *string `json:"notes"`
}

func (s *MedicineService) Update(ctx context.Context, id string, req *UpdateMedicineRequest) (*entity.Medicine, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Strength != nil {
		m.Strength = *req.Strength
	}
	if req.Form != nil {
		m.Form = *req.Form
	}
	if req.Unit != nil {
		m.Unit = *req.Unit
	}
	if req.Status != nil {
		m.Status = *req.Status
	}
	if req.RMVendorID != nil {
		m.RMVendorID = strPtr(*req.RMVendorID)
	}
	if req.PMVendorID != nil {
		m.PMVendorID = strPtr(*req.PMVendorID)
	}
	if req.ManufacturerVendorID != nil {
		m.ManufacturerVendorID = strPtr(*req.ManufacturerVendorID)
	}
	if req.Notes != nil {
		m.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	invalidate(ctx, s.rdb, medicineListKey)
	return m, nil
}

// === Stock ===

// StockService material balances and movements
type StockService struct {
	repo *repository.StockRepository
}

func NewStockService(repo *repository.StockRepository) *StockService {
	return &StockService{repo: repo}
}

func (s *StockService) Balances(ctx context.Context, category string) ([]repository.MaterialBalance, error) {
	return s.repo.Balances(ctx, category)
}

func (s *StockService) Movements(ctx context.Context, materialID string, page, pageSize int) ([]entity.StockEntry, int64, error) {
	return s.repo.ListByMaterial(ctx, materialID, page, pageSize)
}

// IssueRequest manual stock issue
type IssueRequest struct {
	MaterialID string          `json:"material_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	Reference  string          `json:"reference"`
}

// Issue books a manual issue entry against a material
func (s *StockService) Issue(ctx context.Context, userID string, req *IssueRequest) (*entity.StockEntry, error) {
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("issue quantity must be positive")
	}
	e := &entity.StockEntry{
		ID:         newID(),
		MaterialID: req.MaterialID,
		Type:       entity.StockEntryIssue,
		Quantity:   req.Quantity,
		Reference:  req.Reference,
		CreatedBy:  userID,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
