// Package pricing is the quote calculation engine. It is pure and
// synchronous: it owns no state, performs no I/O, and never fails —
// malformed input is coerced rather than rejected so a half-typed form
// value can never break a recalculation.
package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/tramitex/cotiza/internal/catalog/domain"
	"github.com/tramitex/cotiza/internal/quote/domain"
)

// CategoryHonorarios is the line-item category for professional fees. It is
// also the category convention used for the aggregate margin indicator.
const CategoryHonorarios = "honorarios"

// DefaultTargetMargin applies when no threshold entry exists for
// "honorarios" while instantiating a procedure-type template.
const DefaultTargetMargin = 40.0

// Tier selects which suggested price column is used when a catalog service
// is added to a quote.
type Tier string

const (
	TierStandard  Tier = "standard"
	TierCorporate Tier = "corporate"
	TierPyme      Tier = "pyme"
)

// ParseTier normalizes a raw tier value, defaulting to standard.
func ParseTier(raw string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierCorporate:
		return TierCorporate
	case TierPyme:
		return TierPyme
	default:
		return TierStandard
	}
}

// Recalculate rewrites the four derived fields from the item's independent
// inputs. Every mutation path must end here.
func Recalculate(item *domain.QuoteItem) {
	cost := item.UnitCost + item.ExternalProviderCost
	item.UnitMargin = item.UnitPrice - cost
	if cost > 0 {
		item.MarginPercent = item.UnitMargin / cost * 100
	} else {
		// Zero-cost items (pure advisory work) have no meaningful margin
		// ratio; 100 is the sentinel the UI renders as informational.
		item.MarginPercent = 100
	}
	item.SubtotalCost = cost * float64(item.Quantity)
	item.SubtotalPrice = item.UnitPrice * float64(item.Quantity)
}

// NewItemFromProcedureType builds a line item from a procedure-type
// template: cost is honorarios plus tasas, price is cost marked up by the
// "honorarios" target margin.
func NewItemFromProcedureType(tpl catalogdomain.ProcedureType, thresholds map[string]catalogdomain.MarginThreshold) domain.QuoteItem {
	unitCost := tpl.BaseHonorariosCost + tpl.BaseTasasCost

	targetMargin := DefaultTargetMargin
	if t, ok := thresholds[CategoryHonorarios]; ok {
		targetMargin = t.TargetMargin
	}

	ref := tpl.ID
	item := domain.QuoteItem{
		ProcedureTypeID: &ref,
		Concept:         tpl.Name,
		Category:        CategoryHonorarios,
		UnitCost:        unitCost,
		UnitPrice:       unitCost * (1 + targetMargin/100),
		Quantity:        1,
	}
	Recalculate(&item)
	return item
}

// NewItemFromCatalogService builds a line item from a catalog-service
// template using the suggested price for the selected tier. A zero
// suggested base cost means a no-base-cost service.
func NewItemFromCatalogService(tpl catalogdomain.CatalogService, tier Tier) domain.QuoteItem {
	var unitPrice float64
	switch tier {
	case TierCorporate:
		unitPrice = tpl.PriceSuggestedCorporate
	case TierPyme:
		unitPrice = tpl.PriceSuggestedPyme
	default:
		unitPrice = tpl.PriceSuggestedStandard
	}

	ref := tpl.ID
	item := domain.QuoteItem{
		CatalogServiceID:         &ref,
		Concept:                  tpl.Name,
		Category:                 tpl.Category,
		UnitCost:                 tpl.BaseCostSuggested,
		UnitPrice:                unitPrice,
		Quantity:                 1,
		RequiresExternalProvider: tpl.RequiresExternalProvider,
	}
	Recalculate(&item)
	return item
}

// Editable field names accepted by ApplyUpdate. They match the JSON field
// names of domain.QuoteItem.
const (
	FieldConcept                  = "concept"
	FieldCategory                 = "category"
	FieldUnitCost                 = "unit_cost"
	FieldUnitPrice                = "unit_price"
	FieldQuantity                 = "quantity"
	FieldRequiresExternalProvider = "requires_external_provider"
	FieldExternalProviderRef      = "external_provider_ref"
	FieldExternalProviderCost     = "external_provider_cost"
	FieldCostNotes                = "cost_notes"
)

// ApplyUpdate sets one field from a raw form value and recomputes the
// derived fields. Numeric values are coerced defensively (malformed input
// becomes 0, negatives pass through unclamped). Toggling
// requires_external_provider off intentionally leaves the provider cost and
// reference in place; see the test for both toggle paths.
func ApplyUpdate(item *domain.QuoteItem, field, raw string) {
	switch field {
	case FieldConcept:
		item.Concept = raw
	case FieldCategory:
		item.Category = raw
	case FieldCostNotes:
		item.CostNotes = raw
	case FieldUnitCost:
		item.UnitCost = ParseAmount(raw)
	case FieldUnitPrice:
		item.UnitPrice = ParseAmount(raw)
	case FieldExternalProviderCost:
		item.ExternalProviderCost = ParseAmount(raw)
	case FieldQuantity:
		item.Quantity = ParseQuantity(raw)
	case FieldRequiresExternalProvider:
		item.RequiresExternalProvider = parseBool(raw)
	case FieldExternalProviderRef:
		item.ExternalProviderID = parseRef(raw)
	default:
		// Unknown fields are ignored; the engine never fails on input.
		return
	}

	Recalculate(item)
}

// RemoveItem removes the item at index preserving the relative order of the
// rest. An out-of-range index leaves the list unchanged.
func RemoveItem(items []domain.QuoteItem, index int) []domain.QuoteItem {
	if index < 0 || index >= len(items) {
		return items
	}
	return append(items[:index:index], items[index+1:]...)
}

// Totals are the aggregate figures for a quote. They are a pure function of
// the current item list and discount percent, recomputed on demand.
type Totals struct {
	TotalCost          float64 `json:"total_cost"`
	TotalPrice         float64 `json:"total_price"`
	DiscountAmount     float64 `json:"discount_amount"`
	FinalPrice         float64 `json:"final_price"`
	TotalMargin        float64 `json:"total_margin"`
	TotalMarginPercent float64 `json:"total_margin_percent"`
}

func ComputeTotals(items []domain.QuoteItem, discountPercent float64) Totals {
	var t Totals
	for _, item := range items {
		t.TotalCost += item.SubtotalCost
		t.TotalPrice += item.SubtotalPrice
	}

	t.DiscountAmount = t.TotalPrice * (discountPercent / 100)
	t.FinalPrice = t.TotalPrice - t.DiscountAmount
	t.TotalMargin = t.FinalPrice - t.TotalCost
	if t.TotalCost > 0 {
		t.TotalMarginPercent = t.TotalMargin / t.TotalCost * 100
	} else {
		t.TotalMarginPercent = 100
	}

	return t
}

// Severity is the margin health classification driving the color coding.
type Severity string

const (
	SeverityNeutral      Severity = "neutral"
	SeverityBelowMinimum Severity = "below_minimum"
	SeverityOnTrack      Severity = "on_track"
	SeverityAtTarget     Severity = "at_target"
)

// ClassifyMargin grades a margin percentage against the category's
// thresholds. Zero-cost items and unconfigured categories are neutral.
func ClassifyMargin(marginPercent float64, category string, thresholds map[string]catalogdomain.MarginThreshold, hasNoBaseCost bool) Severity {
	if hasNoBaseCost {
		return SeverityNeutral
	}

	t, ok := thresholds[category]
	if !ok {
		return SeverityNeutral
	}

	switch {
	case marginPercent < t.MinimumMargin:
		return SeverityBelowMinimum
	case marginPercent >= t.TargetMargin:
		return SeverityAtTarget
	default:
		return SeverityOnTrack
	}
}

// ParseAmount coerces a raw monetary value. Malformed input and NaN map to
// 0; negative amounts pass through as corrective adjustments.
func ParseAmount(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// ParseQuantity coerces a raw quantity, truncating fractional input.
func ParseQuantity(raw string) int {
	trimmed := strings.TrimSpace(raw)
	if value, err := strconv.Atoi(trimmed); err == nil {
		return value
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0
	}
	return int(parsed)
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func parseRef(raw string) *snowflake.ID {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil {
		return nil
	}
	return &id
}
