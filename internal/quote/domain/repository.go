package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/tramitex/cotiza/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	ClientID *snowflake.ID
}

// Repository persists quote headers and their item collections. Items are
// always written through ReplaceItems so the stored collection mirrors the
// in-memory list exactly.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, quote *Quote) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Quote, error)
	ListItems(ctx context.Context, db *gorm.DB, quoteID snowflake.ID) ([]QuoteItem, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Quote, error)
	UpdateHeader(ctx context.Context, db *gorm.DB, quote *Quote) error
	ReplaceItems(ctx context.Context, db *gorm.DB, quoteID snowflake.ID, items []QuoteItem) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
