package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"github.com/RatishMoondra/pharma-erp/internal/erp/explosion"
	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EOPAService EOPA lifecycle plus the explosion entry point
type EOPAService struct {
	repo   *repository.EOPARepository
	piRepo *repository.PIRepository
	engine *explosion.Engine
}

func NewEOPAService(repo *repository.EOPARepository, piRepo *repository.PIRepository, bomRepo *repository.BOMRepository, logger *zap.Logger) *EOPAService {
	src := &gormSource{eopaRepo: repo, bomRepo: bomRepo}
	return &EOPAService{
		repo:   repo,
		piRepo: piRepo,
		engine: explosion.NewEngine(src, logger),
	}
}

// Engine exposes the shared explosion engine to the procurement service
func (s *EOPAService) Engine() *explosion.Engine {
	return s.engine
}

func (s *EOPAService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.EOPA, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *EOPAService) Get(ctx context.Context, id string) (*entity.EOPA, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateEOPARequest new EOPA payload
type CreateEOPARequest struct {
	PIID  string           `json:"pi_id"`
	Notes string           `json:"notes"`
	Items []CreateEOPAItem `json:"items" binding:"required"`
}

type CreateEOPAItem struct {
	MedicineID string          `json:"medicine_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
}

func (s *EOPAService) Create(ctx context.Context, userID string, req *CreateEOPARequest) (*entity.EOPA, error) {
	if req.PIID != "" {
		if _, err := s.piRepo.FindByID(ctx, req.PIID); err != nil {
			return nil, fmt.Errorf("proforma invoice not found: %w", err)
		}
	}

	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate eopa code: %w", err)
	}

	e := &entity.EOPA{
		ID:        newID(),
		EOPACode:  code,
		PIID:      strPtr(req.PIID),
		Status:    entity.EOPAStatusDraft,
		CreatedBy: userID,
		Notes:     req.Notes,
	}

	for i, item := range req.Items {
		if item.Quantity.IsNegative() {
			return nil, fmt.Errorf("line %d: quantity must not be negative", i+1)
		}
		e.Items = append(e.Items, entity.EOPAItem{
			ID:         newID(),
			EOPAID:     e.ID,
			MedicineID: item.MedicineID,
			Quantity:   item.Quantity,
			SortOrder:  i + 1,
		})
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Approve marks an EOPA approved
func (s *EOPAService) Approve(ctx context.Context, id, userID string) (*entity.EOPA, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != entity.EOPAStatusDraft {
		return nil, fmt.Errorf("eopa %s is %s, only draft can be approved", e.EOPACode, e.Status)
	}

	now := time.Now()
	e.Status = entity.EOPAStatusApproved
	e.ApprovedBy = &userID
	e.ApprovedAt = &now

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Explode runs the BOM explosion for one EOPA and returns the per-vendor
// groups plus diagnostics, without persisting anything.
func (s *EOPAService) Explode(ctx context.Context, eopaID string) (*explosion.Result, error) {
	return s.engine.Explode(ctx, eopaID)
}

// === explosion.Source over gorm ===

// gormSource adapts the EOPA and BOM repositories to the engine's Source.
type gormSource struct {
	eopaRepo *repository.EOPARepository
	bomRepo  *repository.BOMRepository
}

func (g *gormSource) EOPA(ctx context.Context, id string) (*explosion.EOPA, error) {
	e, err := g.eopaRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, explosion.ErrEOPANotFound
		}
		return nil, err
	}

	out := &explosion.EOPA{ID: e.ID, Lines: make([]explosion.Line, 0, len(e.Items))}
	for _, item := range e.Items {
		line := explosion.Line{MedicineID: item.MedicineID, Quantity: item.Quantity}
		if m := item.Medicine; m != nil {
			ref := &explosion.MedicineRef{
				ID:                   m.ID,
				Name:                 m.Name,
				RMVendorID:           m.RMVendorID,
				PMVendorID:           m.PMVendorID,
				ManufacturerVendorID: m.ManufacturerVendorID,
			}
			if m.RMVendor != nil {
				ref.RMVendorName = m.RMVendor.Name
			}
			if m.PMVendor != nil {
				ref.PMVendorName = m.PMVendor.Name
			}
			if m.ManufacturerVendor != nil {
				ref.ManufacturerVendorName = m.ManufacturerVendor.Name
			}
			line.Medicine = ref
		}
		out.Lines = append(out.Lines, line)
	}
	return out, nil
}

func (g *gormSource) RawMaterialBOM(ctx context.Context, medicineID string) ([]explosion.BOMLine, error) {
	return g.bomLines(ctx, medicineID, entity.CategoryRM)
}

func (g *gormSource) PackingMaterialBOM(ctx context.Context, medicineID string) ([]explosion.BOMLine, error) {
	return g.bomLines(ctx, medicineID, entity.CategoryPM)
}

func (g *gormSource) bomLines(ctx context.Context, medicineID, category string) ([]explosion.BOMLine, error) {
	entries, err := g.bomRepo.ListByMedicine(ctx, medicineID, category)
	if err != nil {
		return nil, err
	}

	lines := make([]explosion.BOMLine, 0, len(entries))
	for _, be := range entries {
		line := explosion.BOMLine{
			MaterialID:     be.MaterialID,
			QtyPerUnit:     be.QtyPerUnit,
			Unit:           be.Unit,
			VendorID:       be.VendorID,
			Language:       be.Language,
			ArtworkVersion: be.ArtworkVersion,
		}
		if be.Vendor != nil {
			line.VendorName = be.Vendor.Name
		}
		if m := be.Material; m != nil {
			line.MaterialCode = m.Code
			line.MaterialName = m.Name
			line.DefaultVendorID = m.DefaultVendorID
			if m.DefaultVendor != nil {
				line.DefaultVendorName = m.DefaultVendor.Name
			}
			if line.Unit == "" {
				line.Unit = m.Unit
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}
