package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/tramitex/cotiza/internal/catalog/domain"
	quotedomain "github.com/tramitex/cotiza/internal/quote/domain"
	"github.com/tramitex/cotiza/internal/quote/pricing"
)

// applyTotals recomputes the aggregate figures from the current item list
// and stores them on the header so the persisted row is save-ready.
func applyTotals(quote *quotedomain.Quote) {
	totals := pricing.ComputeTotals(quote.Items, quote.DiscountPercent)
	quote.TotalCost = totals.TotalCost
	quote.TotalPrice = totals.TotalPrice
	quote.DiscountAmount = totals.DiscountAmount
	quote.FinalPrice = totals.FinalPrice
	quote.TotalMargin = totals.TotalMargin
	quote.TotalMarginPercent = totals.TotalMarginPercent
}

func aggregateSeverity(totals pricing.Totals, thresholds map[string]catalogdomain.MarginThreshold) pricing.Severity {
	return pricing.ClassifyMargin(totals.TotalMarginPercent, pricing.CategoryHonorarios, thresholds, totals.TotalCost == 0)
}

func (s *Service) toResponse(ctx context.Context, quote *quotedomain.Quote) (*quotedomain.Response, error) {
	thresholds, err := s.catalogRepo.MarginThresholdsByCategory(ctx)
	if err != nil {
		return nil, err
	}
	return buildResponse(quote, thresholds), nil
}

func buildResponse(quote *quotedomain.Quote, thresholds map[string]catalogdomain.MarginThreshold) *quotedomain.Response {
	items := make([]quotedomain.ItemResponse, 0, len(quote.Items))
	for i := range quote.Items {
		items = append(items, itemResponse(&quote.Items[i], thresholds))
	}

	totals := pricing.Totals{
		TotalCost:          quote.TotalCost,
		TotalPrice:         quote.TotalPrice,
		DiscountAmount:     quote.DiscountAmount,
		FinalPrice:         quote.FinalPrice,
		TotalMargin:        quote.TotalMargin,
		TotalMarginPercent: quote.TotalMarginPercent,
	}

	return &quotedomain.Response{
		ID:                 quote.ID.String(),
		ClientID:           refString(quote.ClientID),
		ContactID:          refString(quote.ContactID),
		NewClientName:      quote.NewClientName,
		DiscountPercent:    quote.DiscountPercent,
		DiscountReason:     quote.DiscountReason,
		Observations:       quote.Observations,
		ExpirationDate:     quote.ExpirationDate,
		Items:              items,
		TotalCost:          quote.TotalCost,
		TotalPrice:         quote.TotalPrice,
		DiscountAmount:     quote.DiscountAmount,
		FinalPrice:         quote.FinalPrice,
		TotalMargin:        quote.TotalMargin,
		TotalMarginPercent: quote.TotalMarginPercent,
		MarginSeverity:     string(aggregateSeverity(totals, thresholds)),
		CreatedAt:          quote.CreatedAt,
		UpdatedAt:          quote.UpdatedAt,
	}
}

func itemResponse(item *quotedomain.QuoteItem, thresholds map[string]catalogdomain.MarginThreshold) quotedomain.ItemResponse {
	severity := pricing.ClassifyMargin(item.MarginPercent, item.Category, thresholds, item.TotalCostComponent() == 0)

	return quotedomain.ItemResponse{
		ID:                       item.ID.String(),
		Position:                 item.Position,
		ProcedureTypeID:          refString(item.ProcedureTypeID),
		CatalogServiceID:         refString(item.CatalogServiceID),
		Concept:                  item.Concept,
		Category:                 item.Category,
		UnitCost:                 item.UnitCost,
		UnitPrice:                item.UnitPrice,
		Quantity:                 item.Quantity,
		RequiresExternalProvider: item.RequiresExternalProvider,
		ExternalProviderID:       refString(item.ExternalProviderID),
		ExternalProviderCost:     item.ExternalProviderCost,
		CostNotes:                item.CostNotes,
		UnitMargin:               item.UnitMargin,
		MarginPercent:            item.MarginPercent,
		SubtotalCost:             item.SubtotalCost,
		SubtotalPrice:            item.SubtotalPrice,
		MarginSeverity:           string(severity),
	}
}

func refString(id *snowflake.ID) *string {
	if id == nil {
		return nil
	}
	value := id.String()
	return &value
}
