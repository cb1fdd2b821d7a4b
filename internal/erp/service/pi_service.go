package service

import (
	"context"
	"fmt"
	"time"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/shopspring/decimal"
)

// PIService proforma invoice lifecycle. Approving a PI spawns the draft
// EOPA that procurement works from.
type PIService struct {
	repo     *repository.PIRepository
	eopaRepo *repository.EOPARepository
}

func NewPIService(repo *repository.PIRepository, eopaRepo *repository.EOPARepository) *PIService {
	return &PIService{repo: repo, eopaRepo: eopaRepo}
}

func (s *PIService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.ProformaInvoice, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *PIService) Get(ctx context.Context, id string) (*entity.ProformaInvoice, error) {
	return s.repo.FindByID(ctx, id)
}

// CreatePIRequest new PI payload
type CreatePIRequest struct {
	CustomerName string         `json:"customer_name" binding:"required"`
	Country      string         `json:"country"`
	Currency     string         `json:"currency"`
	PIDate       *time.Time     `json:"pi_date"`
	DocumentURL  string         `json:"document_url"`
	Notes        string         `json:"notes"`
	Items        []CreatePIItem `json:"items"`
}

type CreatePIItem struct {
	MedicineID string          `json:"medicine_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

func (s *PIService) Create(ctx context.Context, userID string, req *CreatePIRequest) (*entity.ProformaInvoice, error) {
	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate pi code: %w", err)
	}

	pi := &entity.ProformaInvoice{
		ID:           newID(),
		PICode:       code,
		CustomerName: req.CustomerName,
		Country:      req.Country,
		Currency:     req.Currency,
		Status:       entity.PIStatusDraft,
		PIDate:       req.PIDate,
		DocumentURL:  req.DocumentURL,
		CreatedBy:    userID,
		Notes:        req.Notes,
	}
	if pi.Currency == "" {
		pi.Currency = "USD"
	}

	for i, item := range req.Items {
		pi.Items = append(pi.Items, entity.PIItem{
			ID:         newID(),
			PIID:       pi.ID,
			MedicineID: item.MedicineID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			SortOrder:  i + 1,
		})
	}

	if err := s.repo.Create(ctx, pi); err != nil {
		return nil, err
	}
	return pi, nil
}

// UpdatePIRequest partial PI update
type UpdatePIRequest struct {
	CustomerName *string    `json:"customer_name"`
	Country      *string    `json:"country"`
	Currency     *string    `json:"currency"`
	PIDate       *time.Time `json:"pi_date"`
	DocumentURL  *string    `json:"document_url"`
	Notes        *string    `json:"notes"`
}

func (s *PIService) Update(ctx context.Context, id string, req *UpdatePIRequest) (*entity.ProformaInvoice, error) {
	pi, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CustomerName != nil {
		pi.CustomerName = *req.CustomerName
	}
	if req.Country != nil {
		pi.Country = *req.Country
	}
	if req.Currency != nil {
		pi.Currency = *req.Currency
	}
	if req.PIDate != nil {
		pi.PIDate = req.PIDate
	}
	if req.DocumentURL != nil {
		pi.DocumentURL = *req.DocumentURL
	}
	if req.Notes != nil {
		pi.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, pi); err != nil {
		return nil, err
	}
	return pi, nil
}

// Approve marks the PI approved and creates a draft EOPA carrying the PI's
// medicine lines.
func (s *PIService) Approve(ctx context.Context, id, userID string) (*entity.ProformaInvoice, *entity.EOPA, error) {
	pi, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if pi.Status != entity.PIStatusDraft {
		return nil, nil, fmt.Errorf("pi %s is %s, only draft can be approved", pi.PICode, pi.Status)
	}

	now := time.Now()
	pi.Status = entity.PIStatusApproved
	pi.ApprovedBy = &userID
	pi.ApprovedAt = &now
	if err := s.repo.Update(ctx, pi); err != nil {
		return nil, nil, err
	}

	code, err := s.eopaRepo.GenerateCode(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("generate eopa code: %w", err)
	}

	eopa := &entity.EOPA{
		ID:        newID(),
		EOPACode:  code,
		PIID:      &pi.ID,
		Status:    entity.EOPAStatusDraft,
		CreatedBy: userID,
		Notes:     fmt.Sprintf("Derived from %s (%s)", pi.PICode, pi.CustomerName),
	}
	for i, item := range pi.Items {
		eopa.Items = append(eopa.Items, entity.EOPAItem{
			ID:         newID(),
			EOPAID:     eopa.ID,
			MedicineID: item.MedicineID,
			Quantity:   item.Quantity,
			SortOrder:  i + 1,
		})
	}

	if err := s.eopaRepo.Create(ctx, eopa); err != nil {
		return nil, nil, fmt.Errorf("create eopa from pi: %w", err)
	}
	return pi, eopa, nil
}
