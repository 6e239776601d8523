package domain

import (
	"context"
	"errors"
	"time"

	"github.com/tramitex/cotiza/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	ReplaceItems(ctx context.Context, id string, items []ItemInput) (*Response, error)
	AddItemFromTemplate(ctx context.Context, id string, req AddItemRequest) (*Response, error)
	UpdateItemField(ctx context.Context, id string, index int, req UpdateItemFieldRequest) (*Response, error)
	RemoveItem(ctx context.Context, id string, index int) (*Response, error)
	Totals(ctx context.Context, id string) (*TotalsResponse, error)
}

// ItemInput carries the independent fields of one line item. Derived fields
// are never accepted from the caller; they are recomputed before save.
type ItemInput struct {
	ProcedureTypeID          *string `json:"procedure_type_id"`
	CatalogServiceID         *string `json:"catalog_service_id"`
	Concept                  string  `json:"concept"`
	Category                 string  `json:"category"`
	UnitCost                 float64 `json:"unit_cost"`
	UnitPrice                float64 `json:"unit_price"`
	Quantity                 int     `json:"quantity"`
	RequiresExternalProvider bool    `json:"requires_external_provider"`
	ExternalProviderID       *string `json:"external_provider_id"`
	ExternalProviderCost     float64 `json:"external_provider_cost"`
	CostNotes                string  `json:"cost_notes"`
}

type CreateRequest struct {
	ClientID        *string        `json:"client_id"`
	ContactID       *string        `json:"contact_id"`
	NewClientName   *string        `json:"new_client_name"`
	DiscountPercent float64        `json:"discount_percent"`
	DiscountReason  string         `json:"discount_reason"`
	Observations    string         `json:"observations"`
	ExpirationDate  *time.Time     `json:"expiration_date"`
	Items           []ItemInput    `json:"items"`
	Metadata        map[string]any `json:"metadata"`
}

// UpdateRequest replaces the quote header and, when Items is non-nil, the
// full item collection.
type UpdateRequest struct {
	ClientID        *string      `json:"client_id"`
	ContactID       *string      `json:"contact_id"`
	NewClientName   *string      `json:"new_client_name"`
	DiscountPercent float64      `json:"discount_percent"`
	DiscountReason  string       `json:"discount_reason"`
	Observations    string       `json:"observations"`
	ExpirationDate  *time.Time   `json:"expiration_date"`
	Items           *[]ItemInput `json:"items"`
}

type AddItemRequest struct {
	ProcedureTypeID  *string `json:"procedure_type_id"`
	CatalogServiceID *string `json:"catalog_service_id"`
	Tier             string  `json:"tier"`
}

type UpdateItemFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type ListRequest struct {
	ClientID string `form:"client_id"`
	Page     pagination.Pagination
}

// ItemResponse is a save-ready line item: independent fields, derived
// fields and the margin health classification.
type ItemResponse struct {
	ID                       string  `json:"id,omitempty"`
	Position                 int     `json:"position"`
	ProcedureTypeID          *string `json:"procedure_type_id,omitempty"`
	CatalogServiceID         *string `json:"catalog_service_id,omitempty"`
	Concept                  string  `json:"concept"`
	Category                 string  `json:"category"`
	UnitCost                 float64 `json:"unit_cost"`
	UnitPrice                float64 `json:"unit_price"`
	Quantity                 int     `json:"quantity"`
	RequiresExternalProvider bool    `json:"requires_external_provider"`
	ExternalProviderID       *string `json:"external_provider_id,omitempty"`
	ExternalProviderCost     float64 `json:"external_provider_cost"`
	CostNotes                string  `json:"cost_notes,omitempty"`
	UnitMargin               float64 `json:"unit_margin"`
	MarginPercent            float64 `json:"margin_percent"`
	SubtotalCost             float64 `json:"subtotal_cost"`
	SubtotalPrice            float64 `json:"subtotal_price"`
	MarginSeverity           string  `json:"margin_severity"`
}

type Response struct {
	ID                 string         `json:"id"`
	ClientID           *string        `json:"client_id,omitempty"`
	ContactID          *string        `json:"contact_id,omitempty"`
	NewClientName      *string        `json:"new_client_name,omitempty"`
	DiscountPercent    float64        `json:"discount_percent"`
	DiscountReason     string         `json:"discount_reason,omitempty"`
	Observations       string         `json:"observations,omitempty"`
	ExpirationDate     *time.Time     `json:"expiration_date,omitempty"`
	Items              []ItemResponse `json:"items"`
	TotalCost          float64        `json:"total_cost"`
	TotalPrice         float64        `json:"total_price"`
	DiscountAmount     float64        `json:"discount_amount"`
	FinalPrice         float64        `json:"final_price"`
	TotalMargin        float64        `json:"total_margin"`
	TotalMarginPercent float64        `json:"total_margin_percent"`
	MarginSeverity     string         `json:"margin_severity"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

type ListResponse struct {
	Quotes   []Response           `json:"quotes"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

type TotalsResponse struct {
	TotalCost          float64 `json:"total_cost"`
	TotalPrice         float64 `json:"total_price"`
	DiscountAmount     float64 `json:"discount_amount"`
	FinalPrice         float64 `json:"final_price"`
	TotalMargin        float64 `json:"total_margin"`
	TotalMarginPercent float64 `json:"total_margin_percent"`
	MarginSeverity     string  `json:"margin_severity"`
}

var (
	ErrNotFound                = errors.New("not_found")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidClientReference  = errors.New("invalid_client_reference")
	ErrInvalidDiscount         = errors.New("invalid_discount")
	ErrNoItems                 = errors.New("no_items")
	ErrInvalidItemIndex        = errors.New("invalid_item_index")
	ErrInvalidTemplate         = errors.New("invalid_template")
	ErrInvalidTemplateRef      = errors.New("invalid_template_reference")
	ErrInvalidExternalProvider = errors.New("invalid_external_provider")
)
