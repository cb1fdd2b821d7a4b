package explosion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var oneQty = decimal.NewFromInt(1)

// ErrEOPANotFound is returned when the EOPA itself cannot be retrieved.
// It is the only failure Explode surfaces; everything below the top-level
// fetch is absorbed into Result.Diagnostics.
var ErrEOPANotFound = errors.New("eopa not found")

const defaultFetchLimit = 4

// Engine explodes an EOPA's medicine quantities through the RM and PM bills
// of materials into per-vendor draft purchase order groups. It only reads;
// persisting the selection as purchase orders is the procurement service's job.
type Engine struct {
	src        Source
	logger     *zap.Logger
	fetchLimit int
}

func NewEngine(src Source, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{src: src, logger: logger, fetchLimit: defaultFetchLimit}
}

// bomFetch holds the per-line BOM fetch outcome for both categories
type bomFetch struct {
	rm    []BOMLine
	rmErr error
	pm    []BOMLine
	pmErr error
}

// Explode runs the full three-category explosion for one EOPA.
//
// Per-medicine RM and PM fetches fan out concurrently with a bounded limit,
// but aggregation replays them in EOPA line order, so group ordering is
// deterministic for identical upstream data: first vendor encountered, first
// group out.
func (e *Engine) Explode(ctx context.Context, eopaID string) (*Result, error) {
	eopa, err := e.src.EOPA(ctx, eopaID)
	if err != nil {
		return nil, fmt.Errorf("fetch eopa %s: %w", eopaID, err)
	}

	fetches := make([]bomFetch, len(eopa.Lines))
	sem := make(chan struct{}, e.fetchLimit)
	var wg sync.WaitGroup

	for i := range eopa.Lines {
		line := &eopa.Lines[i]
		if line.Medicine == nil {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(2)
		go func(i int, medicineID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			fetches[i].rm, fetches[i].rmErr = e.src.RawMaterialBOM(ctx, medicineID)
		}(i, line.MedicineID)
		go func(i int, medicineID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			fetches[i].pm, fetches[i].pmErr = e.src.PackingMaterialBOM(ctx, medicineID)
		}(i, line.MedicineID)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rm := newGrouper()
	pm := newGrouper()
	fg := newGrouper()
	var diags []Diagnostic

	for i, line := range eopa.Lines {
		if line.Medicine == nil {
			diags = append(diags, Diagnostic{
				Severity:   SeverityError,
				Kind:       DiagMissingMedicine,
				MedicineID: line.MedicineID,
				Message:    fmt.Sprintf("eopa line %d: medicine %s not found, line skipped", i+1, line.MedicineID),
			})
			e.logger.Warn("eopa line skipped, medicine not found",
				zap.String("eopa_id", eopaID),
				zap.String("medicine_id", line.MedicineID))
			continue
		}
		med := line.Medicine

		diags = e.aggregateCategory(rm, "rm", line, fetches[i].rm, fetches[i].rmErr,
			med.RMVendorID, med.RMVendorName, diags)
		diags = e.aggregateCategory(pm, "pm", line, fetches[i].pm, fetches[i].pmErr,
			med.PMVendorID, med.PMVendorName, diags)

		// FG bypasses explosion: one line per medicine at the EOPA quantity,
		// vendor is always the manufacturer.
		if med.ManufacturerVendorID == nil || *med.ManufacturerVendorID == "" {
			diags = append(diags, Diagnostic{
				Severity:   SeverityWarning,
				Kind:       DiagNoManufacturer,
				Category:   "fg",
				MedicineID: med.ID,
				Message:    fmt.Sprintf("medicine %s has no manufacturer vendor, no fg group created", med.ID),
			})
			continue
		}
		fg.add(*med.ManufacturerVendorID, med.ManufacturerVendorName, MaterialLine{
			MedicineID:       med.ID,
			MedicineName:     med.Name,
			MaterialName:     med.Name,
			EOPAQuantity:     line.Quantity,
			QtyPerUnit:       oneQty,
			ExplodedQuantity: line.Quantity,
			Selected:         true,
		})
	}

	return &Result{
		RM:          rm.groups,
		PM:          pm.groups,
		FG:          fg.groups,
		Diagnostics: diags,
	}, nil
}

// aggregateCategory folds one medicine's BOM fetch for one category into the
// grouper. A failed fetch skips that medicine for this category only.
func (e *Engine) aggregateCategory(g *grouper, category string, line Line, bom []BOMLine, fetchErr error, fallbackID *string, fallbackName string, diags []Diagnostic) []Diagnostic {
	med := line.Medicine
	if fetchErr != nil {
		e.logger.Warn("bom fetch failed, medicine skipped for category",
			zap.String("category", category),
			zap.String("medicine_id", med.ID),
			zap.Error(fetchErr))
		return append(diags, Diagnostic{
			Severity:   SeverityError,
			Kind:       DiagBOMFetchFailed,
			Category:   category,
			MedicineID: med.ID,
			Message:    fmt.Sprintf("%s bom fetch failed for medicine %s: %v", category, med.ID, fetchErr),
		})
	}

	for _, bl := range bom {
		vendorID, vendorName, ok := resolveVendor(bl, fallbackID, fallbackName)
		if !ok {
			e.logger.Warn("bom line dropped, no resolvable vendor",
				zap.String("category", category),
				zap.String("medicine_id", med.ID),
				zap.String("material_id", bl.MaterialID))
			diags = append(diags, Diagnostic{
				Severity:   SeverityWarning,
				Kind:       DiagUnresolvedVendor,
				Category:   category,
				MedicineID: med.ID,
				MaterialID: bl.MaterialID,
				Message:    fmt.Sprintf("material %s (%s) has no resolvable vendor, line dropped", bl.MaterialID, bl.MaterialCode),
			})
			continue
		}

		// Zero multiplier still produces a (zero-quantity) line.
		g.add(vendorID, vendorName, MaterialLine{
			MaterialID:       bl.MaterialID,
			MaterialCode:     bl.MaterialCode,
			MaterialName:     bl.MaterialName,
			MedicineID:       med.ID,
			MedicineName:     med.Name,
			EOPAQuantity:     line.Quantity,
			QtyPerUnit:       bl.QtyPerUnit,
			ExplodedQuantity: line.Quantity.Mul(bl.QtyPerUnit),
			Unit:             bl.Unit,
			Selected:         true,
			Language:         bl.Language,
			ArtworkVersion:   bl.ArtworkVersion,
		})
	}
	return diags
}

// resolveVendor applies the precedence chain: BOM entry override, then the
// material master default, then the medicine's category fallback.
func resolveVendor(bl BOMLine, fallbackID *string, fallbackName string) (string, string, bool) {
	if bl.VendorID != nil && *bl.VendorID != "" {
		return *bl.VendorID, bl.VendorName, true
	}
	if bl.DefaultVendorID != nil && *bl.DefaultVendorID != "" {
		return *bl.DefaultVendorID, bl.DefaultVendorName, true
	}
	if fallbackID != nil && *fallbackID != "" {
		return *fallbackID, fallbackName, true
	}
	return "", "", false
}

// grouper upserts vendor groups preserving first-insertion order
type grouper struct {
	groups []VendorGroup
	idx    map[string]int
}

func newGrouper() *grouper {
	return &grouper{idx: make(map[string]int)}
}

func (g *grouper) add(vendorID, vendorName string, item MaterialLine) {
	i, ok := g.idx[vendorID]
	if !ok {
		i = len(g.groups)
		g.idx[vendorID] = i
		g.groups = append(g.groups, VendorGroup{
			VendorID:   vendorID,
			VendorName: vendorName,
			Selected:   true,
		})
	}
	g.groups[i].Items = append(g.groups[i].Items, item)
}
