package pricing

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/tramitex/cotiza/internal/catalog/domain"
	"github.com/tramitex/cotiza/internal/quote/domain"
	"github.com/stretchr/testify/assert"
)

func testThresholds() map[string]catalogdomain.MarginThreshold {
	return map[string]catalogdomain.MarginThreshold{
		CategoryHonorarios: {Category: CategoryHonorarios, MinimumMargin: 20, TargetMargin: 40},
		"analisis":         {Category: "analisis", MinimumMargin: 15, TargetMargin: 30},
	}
}

func TestRecalculateDerivedFields(t *testing.T) {
	item := domain.QuoteItem{
		UnitCost:             1000,
		UnitPrice:            1800,
		Quantity:             3,
		ExternalProviderCost: 200,
	}
	Recalculate(&item)

	assert.Equal(t, 600.0, item.UnitMargin)
	assert.Equal(t, 50.0, item.MarginPercent)
	assert.Equal(t, 3600.0, item.SubtotalCost)
	assert.Equal(t, 5400.0, item.SubtotalPrice)
}

func TestRecalculateZeroCostSentinel(t *testing.T) {
	for _, price := range []float64{0, 1, 300, -50} {
		item := domain.QuoteItem{UnitPrice: price, Quantity: 1}
		Recalculate(&item)
		assert.Equal(t, 100.0, item.MarginPercent, "price %v", price)
	}
}

func TestNewItemFromProcedureType(t *testing.T) {
	tpl := catalogdomain.ProcedureType{
		ID:                 snowflake.ID(42),
		Name:               "Registro de producto",
		BaseHonorariosCost: 1000,
		BaseTasasCost:      500,
	}

	item := NewItemFromProcedureType(tpl, testThresholds())

	assert.Equal(t, 1500.0, item.UnitCost)
	assert.Equal(t, 2100.0, item.UnitPrice)
	assert.Equal(t, 600.0, item.UnitMargin)
	assert.Equal(t, 40.0, item.MarginPercent)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, CategoryHonorarios, item.Category)
	if assert.NotNil(t, item.ProcedureTypeID) {
		assert.Equal(t, tpl.ID, *item.ProcedureTypeID)
	}
	assert.Nil(t, item.CatalogServiceID)
}

func TestNewItemFromProcedureTypeDefaultMargin(t *testing.T) {
	tpl := catalogdomain.ProcedureType{ID: snowflake.ID(1), BaseHonorariosCost: 100}

	item := NewItemFromProcedureType(tpl, nil)

	assert.Equal(t, 140.0, item.UnitPrice)
	assert.InDelta(t, 40.0, item.MarginPercent, 1e-9)
}

func TestNewItemFromProcedureTypeDetachedFromTemplate(t *testing.T) {
	tpl := catalogdomain.ProcedureType{ID: snowflake.ID(7), Name: "Original", BaseHonorariosCost: 100}
	item := NewItemFromProcedureType(tpl, testThresholds())

	tpl.Name = "Mutated"
	tpl.BaseHonorariosCost = 999

	assert.Equal(t, "Original", item.Concept)
	assert.Equal(t, 100.0, item.UnitCost)
}

func TestNewItemFromCatalogService(t *testing.T) {
	tpl := catalogdomain.CatalogService{
		ID:                       snowflake.ID(9),
		Name:                     "Asesoria regulatoria",
		Category:                 "analisis",
		BaseCostSuggested:        0,
		PriceSuggestedStandard:   500,
		PriceSuggestedCorporate:  700,
		PriceSuggestedPyme:       300,
		RequiresExternalProvider: true,
	}

	t.Run("pyme tier with zero base cost", func(t *testing.T) {
		item := NewItemFromCatalogService(tpl, TierPyme)
		assert.Equal(t, 0.0, item.UnitCost)
		assert.Equal(t, 300.0, item.UnitPrice)
		assert.Equal(t, 100.0, item.MarginPercent)
		assert.Equal(t, 1, item.Quantity)
		assert.Equal(t, "analisis", item.Category)
		assert.True(t, item.RequiresExternalProvider)
	})

	t.Run("corporate tier", func(t *testing.T) {
		item := NewItemFromCatalogService(tpl, TierCorporate)
		assert.Equal(t, 700.0, item.UnitPrice)
	})

	t.Run("unknown tier falls back to standard", func(t *testing.T) {
		item := NewItemFromCatalogService(tpl, Tier("gold"))
		assert.Equal(t, 500.0, item.UnitPrice)
	})
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierPyme, ParseTier(" PYME "))
	assert.Equal(t, TierCorporate, ParseTier("corporate"))
	assert.Equal(t, TierStandard, ParseTier("standard"))
	assert.Equal(t, TierStandard, ParseTier(""))
	assert.Equal(t, TierStandard, ParseTier("whatever"))
}

func TestApplyUpdateNumericFields(t *testing.T) {
	item := domain.QuoteItem{UnitCost: 100, UnitPrice: 150, Quantity: 1}
	Recalculate(&item)

	ApplyUpdate(&item, FieldUnitPrice, "200")
	assert.Equal(t, 200.0, item.UnitPrice)
	assert.Equal(t, 100.0, item.UnitMargin)
	assert.Equal(t, 100.0, item.MarginPercent)

	ApplyUpdate(&item, FieldQuantity, "4")
	assert.Equal(t, 400.0, item.SubtotalCost)
	assert.Equal(t, 800.0, item.SubtotalPrice)

	ApplyUpdate(&item, FieldExternalProviderCost, "50")
	assert.Equal(t, 50.0, item.UnitMargin)
	assert.Equal(t, 600.0, item.SubtotalCost)

	ApplyUpdate(&item, FieldUnitCost, "0")
	ApplyUpdate(&item, FieldExternalProviderCost, "0")
	assert.Equal(t, 100.0, item.MarginPercent)
}

func TestApplyUpdateMalformedInput(t *testing.T) {
	item := domain.QuoteItem{UnitCost: 100, UnitPrice: 150, Quantity: 2}
	Recalculate(&item)

	for _, raw := range []string{"", "abc", "12,5", "NaN", "Inf"} {
		ApplyUpdate(&item, FieldUnitCost, raw)
		assert.Equal(t, 0.0, item.UnitCost, "raw %q", raw)
	}

	ApplyUpdate(&item, FieldQuantity, "x")
	assert.Equal(t, 0, item.Quantity)
	assert.Equal(t, 0.0, item.SubtotalPrice)
}

func TestApplyUpdateNegativeValuesUnclamped(t *testing.T) {
	item := domain.QuoteItem{Quantity: 1}

	ApplyUpdate(&item, FieldUnitCost, "-100")
	ApplyUpdate(&item, FieldUnitPrice, "-50")

	assert.Equal(t, -100.0, item.UnitCost)
	assert.Equal(t, -50.0, item.UnitPrice)
	assert.Equal(t, 50.0, item.UnitMargin)
	// Negative cost component takes the sentinel branch.
	assert.Equal(t, 100.0, item.MarginPercent)
}

func TestApplyUpdateStickyProviderFields(t *testing.T) {
	providerID := snowflake.ID(77)
	item := domain.QuoteItem{
		UnitCost:                 100,
		UnitPrice:                300,
		Quantity:                 1,
		RequiresExternalProvider: true,
		ExternalProviderID:       &providerID,
		ExternalProviderCost:     50,
	}
	Recalculate(&item)
	assert.Equal(t, 150.0, item.SubtotalCost)

	// Toggling the flag off keeps cost and reference in place.
	ApplyUpdate(&item, FieldRequiresExternalProvider, "false")
	assert.False(t, item.RequiresExternalProvider)
	assert.Equal(t, 50.0, item.ExternalProviderCost)
	assert.NotNil(t, item.ExternalProviderID)
	assert.Equal(t, 150.0, item.SubtotalCost)

	ApplyUpdate(&item, FieldRequiresExternalProvider, "true")
	assert.True(t, item.RequiresExternalProvider)
	assert.Equal(t, 50.0, item.ExternalProviderCost)
}

func TestApplyUpdatePassThroughFields(t *testing.T) {
	item := domain.QuoteItem{UnitCost: 100, UnitPrice: 150, Quantity: 1}
	Recalculate(&item)
	before := item

	ApplyUpdate(&item, FieldConcept, "Ensayo de estabilidad")
	ApplyUpdate(&item, FieldCostNotes, "incluye courier")
	ApplyUpdate(&item, FieldExternalProviderRef, snowflake.ID(12).String())

	assert.Equal(t, "Ensayo de estabilidad", item.Concept)
	assert.Equal(t, "incluye courier", item.CostNotes)
	if assert.NotNil(t, item.ExternalProviderID) {
		assert.Equal(t, snowflake.ID(12), *item.ExternalProviderID)
	}
	assert.Equal(t, before.UnitMargin, item.UnitMargin)
	assert.Equal(t, before.SubtotalPrice, item.SubtotalPrice)

	ApplyUpdate(&item, FieldExternalProviderRef, "")
	assert.Nil(t, item.ExternalProviderID)

	ApplyUpdate(&item, "no_such_field", "zzz")
	assert.Equal(t, before.UnitCost, item.UnitCost)
}

func TestRemoveItemPreservesOrder(t *testing.T) {
	a := domain.QuoteItem{Concept: "A", UnitCost: 1}
	b := domain.QuoteItem{Concept: "B", UnitCost: 2}
	c := domain.QuoteItem{Concept: "C", UnitCost: 3}
	items := []domain.QuoteItem{a, b, c}

	result := RemoveItem(items, 1)

	if assert.Len(t, result, 2) {
		assert.Equal(t, a, result[0])
		assert.Equal(t, c, result[1])
	}

	assert.Len(t, RemoveItem(result, -1), 2)
	assert.Len(t, RemoveItem(result, 2), 2)
}

func TestComputeTotals(t *testing.T) {
	items := []domain.QuoteItem{
		{UnitCost: 100, UnitPrice: 300, Quantity: 2},
		{UnitCost: 200, UnitPrice: 400, Quantity: 1},
	}
	for i := range items {
		Recalculate(&items[i])
	}

	totals := ComputeTotals(items, 0)
	assert.Equal(t, 400.0, totals.TotalCost)
	assert.Equal(t, 1000.0, totals.TotalPrice)
	assert.Equal(t, 0.0, totals.DiscountAmount)
	assert.Equal(t, 1000.0, totals.FinalPrice)
	assert.Equal(t, 600.0, totals.TotalMargin)
	assert.Equal(t, 150.0, totals.TotalMarginPercent)
}

func TestComputeTotalsDiscountArithmetic(t *testing.T) {
	items := []domain.QuoteItem{{UnitCost: 100, UnitPrice: 1000, Quantity: 1}}
	Recalculate(&items[0])

	totals := ComputeTotals(items, 20)
	assert.Equal(t, 200.0, totals.DiscountAmount)
	assert.Equal(t, 800.0, totals.FinalPrice)
	assert.Equal(t, 700.0, totals.TotalMargin)
}

func TestComputeTotalsEmptyQuote(t *testing.T) {
	totals := ComputeTotals(nil, 15)

	assert.Equal(t, 0.0, totals.TotalCost)
	assert.Equal(t, 0.0, totals.TotalPrice)
	assert.Equal(t, 0.0, totals.DiscountAmount)
	assert.Equal(t, 0.0, totals.FinalPrice)
	assert.Equal(t, 0.0, totals.TotalMargin)
	assert.Equal(t, 100.0, totals.TotalMarginPercent)
}

func TestComputeTotalsAdditivityUnderEdits(t *testing.T) {
	thresholds := testThresholds()
	items := []domain.QuoteItem{
		NewItemFromProcedureType(catalogdomain.ProcedureType{ID: 1, BaseHonorariosCost: 1000, BaseTasasCost: 500}, thresholds),
		NewItemFromCatalogService(catalogdomain.CatalogService{ID: 2, Category: "analisis", BaseCostSuggested: 200, PriceSuggestedStandard: 500}, TierStandard),
		NewItemFromCatalogService(catalogdomain.CatalogService{ID: 3, PriceSuggestedPyme: 300}, TierPyme),
	}

	ApplyUpdate(&items[0], FieldQuantity, "3")
	ApplyUpdate(&items[1], FieldExternalProviderCost, "75")
	items = RemoveItem(items, 2)
	ApplyUpdate(&items[1], FieldUnitPrice, "650")

	var wantCost, wantPrice float64
	for _, item := range items {
		wantCost += item.SubtotalCost
		wantPrice += item.SubtotalPrice
	}

	totals := ComputeTotals(items, 10)
	assert.Equal(t, wantCost, totals.TotalCost)
	assert.Equal(t, wantPrice, totals.TotalPrice)
	assert.Equal(t, wantPrice-totals.DiscountAmount, totals.FinalPrice)
}

func TestClassifyMarginBoundaries(t *testing.T) {
	thresholds := testThresholds()

	tests := []struct {
		name          string
		marginPercent float64
		category      string
		hasNoBaseCost bool
		want          Severity
	}{
		{"just below minimum", 19.9, CategoryHonorarios, false, SeverityBelowMinimum},
		{"at minimum", 20, CategoryHonorarios, false, SeverityOnTrack},
		{"just below target", 39.9, CategoryHonorarios, false, SeverityOnTrack},
		{"at target", 40, CategoryHonorarios, false, SeverityAtTarget},
		{"above target", 55, CategoryHonorarios, false, SeverityAtTarget},
		{"negative margin", -10, CategoryHonorarios, false, SeverityBelowMinimum},
		{"zero cost always neutral", 100, CategoryHonorarios, true, SeverityNeutral},
		{"unknown category", 40, "otros", false, SeverityNeutral},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyMargin(tc.marginPercent, tc.category, thresholds, tc.hasNoBaseCost)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 12.5, ParseAmount("12.5"))
	assert.Equal(t, -3.0, ParseAmount(" -3 "))
	assert.Equal(t, 0.0, ParseAmount(""))
	assert.Equal(t, 0.0, ParseAmount("abc"))
	assert.Equal(t, 0.0, ParseAmount("NaN"))
	assert.Equal(t, 0.0, ParseAmount("+Inf"))
}

func TestParseQuantity(t *testing.T) {
	assert.Equal(t, 3, ParseQuantity("3"))
	assert.Equal(t, 2, ParseQuantity("2.9"))
	assert.Equal(t, -1, ParseQuantity("-1"))
	assert.Equal(t, 0, ParseQuantity(""))
	assert.Equal(t, 0, ParseQuantity("x"))
}
