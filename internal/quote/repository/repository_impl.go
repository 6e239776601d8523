package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/tramitex/cotiza/internal/quote/domain"
	"github.com/tramitex/cotiza/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, quote *domain.Quote) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO quotes (id, client_id, contact_id, new_client_name, discount_percent, discount_reason,
		                     observations, expiration_date, total_cost, total_price, discount_amount,
		                     final_price, total_margin, total_margin_percent, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		quote.ID,
		quote.ClientID,
		quote.ContactID,
		quote.NewClientName,
		quote.DiscountPercent,
		quote.DiscountReason,
		quote.Observations,
		quote.ExpirationDate,
		quote.TotalCost,
		quote.TotalPrice,
		quote.DiscountAmount,
		quote.FinalPrice,
		quote.TotalMargin,
		quote.TotalMarginPercent,
		quote.Metadata,
		quote.CreatedAt,
		quote.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Quote, error) {
	var quote domain.Quote
	err := db.WithContext(ctx).
		Model(&domain.Quote{}).
		Where("id = ?", id).
		Limit(1).
		Find(&quote).Error
	if err != nil {
		return nil, err
	}
	if quote.ID == 0 {
		return nil, nil
	}
	return &quote, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, quoteID snowflake.ID) ([]domain.QuoteItem, error) {
	var items []domain.QuoteItem
	err := db.WithContext(ctx).
		Model(&domain.QuoteItem{}).
		Where("quote_id = ?", quoteID).
		Order("position asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Quote, error) {
	var quotes []*domain.Quote
	stmt := db.WithContext(ctx).Model(&domain.Quote{})
	if filter.ClientID != nil {
		stmt = stmt.Where("client_id = ?", *filter.ClientID)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err == nil && cursor.ID != "" {
			stmt = stmt.Where("id < ?", cursor.ID)
		}
	}
	err := stmt.
		Order("id desc").
		Limit(page.Limit() + 1).
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *repo) UpdateHeader(ctx context.Context, db *gorm.DB, quote *domain.Quote) error {
	return db.WithContext(ctx).Exec(
		`UPDATE quotes
		 SET client_id = ?, contact_id = ?, new_client_name = ?, discount_percent = ?, discount_reason = ?,
		     observations = ?, expiration_date = ?, total_cost = ?, total_price = ?, discount_amount = ?,
		     final_price = ?, total_margin = ?, total_margin_percent = ?, updated_at = ?
		 WHERE id = ?`,
		quote.ClientID,
		quote.ContactID,
		quote.NewClientName,
		quote.DiscountPercent,
		quote.DiscountReason,
		quote.Observations,
		quote.ExpirationDate,
		quote.TotalCost,
		quote.TotalPrice,
		quote.DiscountAmount,
		quote.FinalPrice,
		quote.TotalMargin,
		quote.TotalMarginPercent,
		quote.UpdatedAt,
		quote.ID,
	).Error
}

// ReplaceItems swaps the stored collection for the given list in one
// delete-then-insert pass. Callers run it inside a transaction so a partial
// failure never leaves a truncated quote behind.
func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, quoteID snowflake.ID, items []domain.QuoteItem) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM quote_items WHERE quote_id = ?`, quoteID).Error; err != nil {
		return err
	}

	for i := range items {
		item := &items[i]
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO quote_items (id, quote_id, position, procedure_type_id, catalog_service_id, concept,
			                          category, unit_cost, unit_price, quantity, requires_external_provider,
			                          external_provider_id, external_provider_cost, cost_notes, unit_margin,
			                          margin_percent, subtotal_cost, subtotal_price, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			quoteID,
			item.Position,
			item.ProcedureTypeID,
			item.CatalogServiceID,
			item.Concept,
			item.Category,
			item.UnitCost,
			item.UnitPrice,
			item.Quantity,
			item.RequiresExternalProvider,
			item.ExternalProviderID,
			item.ExternalProviderCost,
			item.CostNotes,
			item.UnitMargin,
			item.MarginPercent,
			item.SubtotalCost,
			item.SubtotalPrice,
			item.CreatedAt,
			item.UpdatedAt,
		).Error; err != nil {
			return err
		}
	}

	return nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM quote_items WHERE quote_id = ?`, id).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM quotes WHERE id = ?`, id).Error
}
