package explosion

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

// fakeSource serves canned data and can fail individual fetches
type fakeSource struct {
	eopa    *EOPA
	eopaErr error
	rm      map[string][]BOMLine
	rmErr   map[string]error
	pm      map[string][]BOMLine
	pmErr   map[string]error
}

func (f *fakeSource) EOPA(ctx context.Context, id string) (*EOPA, error) {
	if f.eopaErr != nil {
		return nil, f.eopaErr
	}
	if f.eopa == nil || f.eopa.ID != id {
		return nil, ErrEOPANotFound
	}
	return f.eopa, nil
}

func (f *fakeSource) RawMaterialBOM(ctx context.Context, medicineID string) ([]BOMLine, error) {
	if err := f.rmErr[medicineID]; err != nil {
		return nil, err
	}
	return f.rm[medicineID], nil
}

func (f *fakeSource) PackingMaterialBOM(ctx context.Context, medicineID string) ([]BOMLine, error) {
	if err := f.pmErr[medicineID]; err != nil {
		return nil, err
	}
	return f.pm[medicineID], nil
}

func strPtr(s string) *string { return &s }

func qty(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func medRef(id, name string, rmVendor, pmVendor, mfgVendor *string) *MedicineRef {
	return &MedicineRef{
		ID:                   id,
		Name:                 name,
		RMVendorID:           rmVendor,
		PMVendorID:           pmVendor,
		ManufacturerVendorID: mfgVendor,
	}
}

// findGroup returns the group for a vendor, nil if absent
func findGroup(groups []VendorGroup, vendorID string) *VendorGroup {
	for i := range groups {
		if groups[i].VendorID == vendorID {
			return &groups[i]
		}
	}
	return nil
}

// TestExplodeEndToEnd is the worked example: one line of 100 units, one RM
// BOM entry of 0.5 per unit with vendor 50, expecting a single group of 50.
func TestExplodeEndToEnd(t *testing.T) {
	src := &fakeSource{
		eopa: &EOPA{
			ID: "eopa-7",
			Lines: []Line{
				{MedicineID: "med-7", Quantity: qty("100"), Medicine: medRef("med-7", "Paracetamol 500", nil, nil, nil)},
			},
		},
		rm: map[string][]BOMLine{
			"med-7": {{MaterialID: "mat-1", MaterialCode: "RM-001", QtyPerUnit: qty("0.5"), VendorID: strPtr("vendor-50"), VendorName: "Acme Chem"}},
		},
	}

	res, err := NewEngine(src, nil).Explode(context.Background(), "eopa-7")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	if len(res.RM) != 1 {
		t.Fatalf("expected 1 rm group, got %d", len(res.RM))
	}
	g := res.RM[0]
	if g.VendorID != "vendor-50" || !g.Selected {
		t.Errorf("unexpected group: %+v", g)
	}
	if len(g.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(g.Items))
	}
	item := g.Items[0]
	if !item.ExplodedQuantity.Equal(qty("50")) {
		t.Errorf("exploded quantity = %s, want 50", item.ExplodedQuantity)
	}
	if !item.Selected {
		t.Errorf("item should default to selected")
	}
	if len(res.PM) != 0 {
		t.Errorf("no pm groups expected, got %d", len(res.PM))
	}
}

// TestMultiplicationInvariant checks exploded = eopaQty * qtyPerUnit over a
// grid of decimal fixtures.
func TestMultiplicationInvariant(t *testing.T) {
	cases := []struct {
		eopaQty, perUnit, want string
	}{
		{"100", "0.5", "50"},
		{"3", "0.333333", "0.999999"},
		{"1000000", "0.000001", "1"},
		{"7.25", "4", "29"},
		{"0", "12.5", "0"},
		{"100", "0", "0"},
	}

	for _, tc := range cases {
		src := &fakeSource{
			eopa: &EOPA{ID: "e1", Lines: []Line{
				{MedicineID: "m1", Quantity: qty(tc.eopaQty), Medicine: medRef("m1", "M1", nil, nil, nil)},
			}},
			rm: map[string][]BOMLine{
				"m1": {{MaterialID: "mat", QtyPerUnit: qty(tc.perUnit), VendorID: strPtr("v1")}},
			},
		}
		res, err := NewEngine(src, nil).Explode(context.Background(), "e1")
		if err != nil {
			t.Fatalf("%s*%s: %v", tc.eopaQty, tc.perUnit, err)
		}
		if len(res.RM) != 1 || len(res.RM[0].Items) != 1 {
			t.Fatalf("%s*%s: expected one group with one item", tc.eopaQty, tc.perUnit)
		}
		got := res.RM[0].Items[0].ExplodedQuantity
		if !got.Equal(qty(tc.want)) {
			t.Errorf("%s*%s = %s, want %s", tc.eopaQty, tc.perUnit, got, tc.want)
		}
	}
}

// TestZeroMultiplierKeepsLine: a zero qty-per-unit yields a zero line, not a
// dropped one.
func TestZeroMultiplierKeepsLine(t *testing.T) {
	src := &fakeSource{
		eopa: &EOPA{ID: "e1", Lines: []Line{
			{MedicineID: "m1", Quantity: qty("40"), Medicine: medRef("m1", "M1", nil, nil, nil)},
		}},
		rm: map[string][]BOMLine{
			"m1": {{MaterialID: "mat", QtyPerUnit: decimal.Zero, VendorID: strPtr("v1")}},
		},
	}
	res, err := NewEngine(src, nil).Explode(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(res.RM) != 1 || len(res.RM[0].Items) != 1 {
		t.Fatalf("zero-multiplier line must be kept")
	}
	if !res.RM[0].Items[0].ExplodedQuantity.IsZero() {
		t.Errorf("expected zero exploded quantity")
	}
}

// TestVendorResolutionPrecedence walks the chain bom override > material
// default > medicine fallback > dropped.
func TestVendorResolutionPrecedence(t *testing.T) {
	cases := []struct {
		name       string
		bomVendor  *string
		defVendor  *string
		medVendor  *string
		wantVendor string // "" = line dropped
	}{
		{"bom override wins", strPtr("v1"), strPtr("v2"), strPtr("v3"), "v1"},
		{"material default next", nil, strPtr("v2"), strPtr("v3"), "v2"},
		{"medicine fallback last", nil, nil, strPtr("v3"), "v3"},
		{"empty strings are absent", strPtr(""), strPtr(""), strPtr("v3"), "v3"},
		{"nothing resolves, dropped", nil, nil, nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeSource{
				eopa: &EOPA{ID: "e1", Lines: []Line{
					{MedicineID: "m1", Quantity: qty("10"), Medicine: medRef("m1", "M1", tc.medVendor, nil, nil)},
				}},
				rm: map[string][]BOMLine{
					"m1": {{MaterialID: "mat-9", QtyPerUnit: qty("1"), VendorID: tc.bomVendor, DefaultVendorID: tc.defVendor}},
				},
			}
			res, err := NewEngine(src, nil).Explode(context.Background(), "e1")
			if err != nil {
				t.Fatalf("Explode failed: %v", err)
			}

			if tc.wantVendor == "" {
				if len(res.RM) != 0 {
					t.Fatalf("expected dropped line, got groups %+v", res.RM)
				}
				// the drop must be visible in diagnostics
				found := false
				for _, d := range res.Diagnostics {
					if d.Kind == DiagUnresolvedVendor && d.MaterialID == "mat-9" {
						found = true
					}
				}
				if !found {
					t.Errorf("expected unresolved_vendor diagnostic")
				}
				return
			}

			if len(res.RM) != 1 || res.RM[0].VendorID != tc.wantVendor {
				t.Errorf("resolved to %v, want %s", res.RM, tc.wantVendor)
			}
		})
	}
}

// TestCategoryIndependence: RM-only medicine must not leak into PM groups.
func TestCategoryIndependence(t *testing.T) {
	src := &fakeSource{
		eopa: &EOPA{ID: "e1", Lines: []Line{
			{MedicineID: "m1", Quantity: qty("10"), Medicine: medRef("m1", "M1", nil, nil, nil)},
		}},
		rm: map[string][]BOMLine{
			"m1": {{MaterialID: "mat-rm", QtyPerUnit: qty("2"), VendorID: strPtr("v1")}},
		},
		// no pm bom at all
	}
	res, err := NewEngine(src, nil).Explode(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(res.RM) != 1 {
		t.Errorf("expected 1 rm group, got %d", len(res.RM))
	}
	if len(res.PM) != 0 {
		t.Errorf("expected no pm groups, got %d", len(res.PM))
	}
}

// TestFGBypass: FG line carries the EOPA quantity unmultiplied even when the
// medicine also has RM/PM BOMs, keyed by manufacturer vendor.
func TestFGBypass(t *testing.T) {
	src := &fakeSource{
		eopa: &EOPA{ID: "e1", Lines: []Line{
			{MedicineID: "m1", Quantity: qty("250"), Medicine: medRef("m1", "Amoxicillin", nil, nil, strPtr("mfg-1"))},
		}},
		rm: map[string][]BOMLine{
			"m1": {{MaterialID: "mat-rm", QtyPerUnit: qty("0.2"), VendorID: strPtr("v1")}},
		},
		pm: map[string][]BOMLine{
			"m1": {{MaterialID: "mat-pm", QtyPerUnit: qty("1"), VendorID: strPtr("v2")}},
		},
	}
	res, err := NewEngine(src, nil).Explode(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(res.FG) != 1 {
		t.Fatalf("expected 1 fg group, got %d", len(res.FG))
	}
	g := res.FG[0]
	if g.VendorID != "mfg-1" || len(g.Items) != 1 {
		t.Fatalf("unexpected fg group: %+v", g)
	}
	if !g.Items[0].ExplodedQuantity.Equal(qty("250")) {
		t.Errorf("fg quantity = %s, want 250 (no multiplier)", g.Items[0].ExplodedQuantity)
	}
	if len(res.RM) != 1 || len(res.PM) != 1 {
		t.Errorf("rm/pm groups must be unaffected by fg bypass")
	}
}

// TestFGSkippedWithoutManufacturer: absent manufacturer vendor means no FG
// group for that medicine, recorded as a diagnostic.
func TestFGSkippedWithoutManufacturer(t *testing.T) {
	src := &fakeSource{
		eopa: &EOPA{ID: "e1", Lines: []Line{
			{MedicineID: "m1", Quantity: qty("5"), Medicine: medRef("m1", "M1", nil, nil, nil)},
		}},
	}
	res, err := NewEngine(src, nil).Explode(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(res.FG) != 0 {
		t.Fatalf("expected no fg groups, got %d", len(res.FG))
	}
	found := false
	for _, d := range res.Diagnostics {
		if d.Kind == DiagNoManufacturer && d.MedicineID == "m1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected no_manufacturer_vendor diagnostic")
	}
}

// TestPartialFailure: a failed RM fetch for one medicine must not disturb the
// other medicine's RM groups nor the failed medicine's PM/FG output.
func TestPartialFailure(t *testing.T) {
	src := &fakeSource{
		eopa: &EOPA{ID: "e1", Lines: []Line{
			{MedicineID: "m1", Quantity: qty("10"), Medicine: medRef("m1", "M1", nil, nil, strPtr("mfg-1"))},
			{MedicineID: "m2", Quantity: qty("20"), Medicine: medRef("m2", "M2", nil, nil, strPtr("mfg-2"))},
		}},
		rm: map[string][]BOMLine{
			"m1": {{MaterialID: "mat-a", QtyPerUnit: qty("1"), VendorID: strPtr("v1")}},
		},
		rmErr: map[string]error{"m2": errors.New("upstream 500")},
		pm: map[string][]BOMLine{
			"m2": {{MaterialID: "mat-b", QtyPerUnit: qty("3"), VendorID: strPtr("v2")}},
		},
	}
	res, err := NewEngine(src, nil).Explode(context.Background(), "e1")
	if err != nil {
		t.Fatalf("partial failure must not abort the run: %v", err)
	}

	if g := findGroup(res.RM, "v1"); g == nil || len(g.Items) != 1 {
		t.Errorf("m1 rm contribution lost: %+v", res.RM)
	}
	if g := findGroup(res.PM, "v2"); g == nil || !g.Items[0].ExplodedQuantity.Equal(qty("60")) {
		t.Errorf("m2 pm contribution lost: %+v", res.PM)
	}
	if len(res.FG) != 2 {
		t.Errorf("fg output must be unaffected, got %d groups", len(res.FG))
	}

	found := false
	for _, d := range res.Diagnostics {
		if d.Kind == DiagBOMFetchFailed && d.Category == "rm" && d.MedicineID == "m2" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected bom_fetch_failed diagnostic for m2")
	}
}

// TestMissingMedicineSkipsLine: an unresolved medicine reference skips that
// line only.
func TestMissingMedicineSkipsLine(t *testing.T) {
	src := &fakeSource{
		eopa: &EOPA{ID: "e1", Lines: []Line{
			{MedicineID: "ghost", Quantity: qty("10"), Medicine: nil},
			{MedicineID: "m1", Quantity: qty("10"), Medicine: medRef("m1", "M1", nil, nil, nil)},
		}},
		rm: map[string][]BOMLine{
			"m1": {{MaterialID: "mat", QtyPerUnit: qty("1"), VendorID: strPtr("v1")}},
		},
	}
	res, err := NewEngine(src, nil).Explode(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(res.RM) != 1 {
		t.Fatalf("valid line must still be processed")
	}
	found := false
	for _, d := range res.Diagnostics {
		if d.Kind == DiagMissingMedicine && d.MedicineID == "ghost" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected missing_medicine diagnostic")
	}
}

// TestEOPAFetchFatal: the top-level fetch is the only fatal failure.
func TestEOPAFetchFatal(t *testing.T) {
	src := &fakeSource{}
	_, err := NewEngine(src, nil).Explode(context.Background(), "nope")
	if !errors.Is(err, ErrEOPANotFound) {
		t.Fatalf("expected ErrEOPANotFound, got %v", err)
	}
}

// TestGroupMergingAndOrder: the same vendor gets one group per category,
// groups come out in first-insertion order.
func TestGroupMergingAndOrder(t *testing.T) {
	src := &fakeSource{
		eopa: &EOPA{ID: "e1", Lines: []Line{
			{MedicineID: "m1", Quantity: qty("10"), Medicine: medRef("m1", "M1", nil, nil, nil)},
			{MedicineID: "m2", Quantity: qty("20"), Medicine: medRef("m2", "M2", nil, nil, nil)},
		}},
		rm: map[string][]BOMLine{
			"m1": {
				{MaterialID: "a", QtyPerUnit: qty("1"), VendorID: strPtr("vB")},
				{MaterialID: "b", QtyPerUnit: qty("1"), VendorID: strPtr("vA")},
			},
			"m2": {
				{MaterialID: "c", QtyPerUnit: qty("1"), VendorID: strPtr("vB")},
			},
		},
	}
	res, err := NewEngine(src, nil).Explode(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	if len(res.RM) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(res.RM))
	}
	if res.RM[0].VendorID != "vB" || res.RM[1].VendorID != "vA" {
		t.Errorf("groups out of first-insertion order: %s, %s", res.RM[0].VendorID, res.RM[1].VendorID)
	}
	if len(res.RM[0].Items) != 2 {
		t.Errorf("vB lines from both medicines must merge into one group, got %d items", len(res.RM[0].Items))
	}
}

// TestIdempotence: two runs over unchanged data yield equal results.
func TestIdempotence(t *testing.T) {
	src := &fakeSource{
		eopa: &EOPA{ID: "e1", Lines: []Line{
			{MedicineID: "m1", Quantity: qty("10"), Medicine: medRef("m1", "M1", strPtr("rv"), strPtr("pv"), strPtr("fv"))},
			{MedicineID: "m2", Quantity: qty("3.5"), Medicine: medRef("m2", "M2", nil, nil, nil)},
		}},
		rm: map[string][]BOMLine{
			"m1": {{MaterialID: "a", QtyPerUnit: qty("0.25")}},
			"m2": {{MaterialID: "b", QtyPerUnit: qty("2"), VendorID: strPtr("v9")}},
		},
		pm: map[string][]BOMLine{
			"m1": {{MaterialID: "c", QtyPerUnit: qty("1"), Language: "FR", ArtworkVersion: "v3"}},
		},
	}
	eng := NewEngine(src, nil)

	first, err := eng.Explode(context.Background(), "e1")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := eng.Explode(context.Background(), "e1")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ across runs over unchanged data:\n%+v\n%+v", first, second)
	}
}

// TestCancellation: a cancelled context aborts the run with ctx.Err.
func TestCancellation(t *testing.T) {
	lines := make([]Line, 20)
	rm := make(map[string][]BOMLine, 20)
	for i := range lines {
		id := fmt.Sprintf("m%d", i)
		lines[i] = Line{MedicineID: id, Quantity: qty("1"), Medicine: medRef(id, id, nil, nil, nil)}
		rm[id] = []BOMLine{{MaterialID: "mat", QtyPerUnit: qty("1"), VendorID: strPtr("v1")}}
	}
	src := &fakeSource{eopa: &EOPA{ID: "e1", Lines: lines}, rm: rm}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewEngine(src, nil).Explode(ctx, "e1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParseQuantity(t *testing.T) {
	cases := map[string]string{
		"12.5":  "12.5",
		" 3 ":   "3",
		"":      "0",
		"abc":   "0",
		"1e3":   "1000",
		"-4.25": "-4.25",
	}
	for in, want := range cases {
		if got := ParseQuantity(in); !got.Equal(qty(want)) {
			t.Errorf("ParseQuantity(%q) = %s, want %s", in, got, want)
		}
	}
}
