package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Quote is an ordered collection of line items plus commercial terms. The
// aggregate totals persisted on the header are always recomputed from the
// item list before save; they are never edited independently.
type Quote struct {
	ID snowflake.ID `json:"id" gorm:"primaryKey"`

	// Exactly one of ClientID, ContactID, NewClientName is set.
	ClientID      *snowflake.ID `json:"client_id,omitempty" gorm:"column:client_id;index"`
	ContactID     *snowflake.ID `json:"contact_id,omitempty" gorm:"column:contact_id;index"`
	NewClientName *string       `json:"new_client_name,omitempty" gorm:"type:text"`

	DiscountPercent float64    `json:"discount_percent" gorm:"not null;default:0"`
	DiscountReason  string     `json:"discount_reason,omitempty" gorm:"type:text"`
	Observations    string     `json:"observations,omitempty" gorm:"type:text"`
	ExpirationDate  *time.Time `json:"expiration_date,omitempty" gorm:""`

	TotalCost          float64 `json:"total_cost" gorm:"not null;default:0"`
	TotalPrice         float64 `json:"total_price" gorm:"not null;default:0"`
	DiscountAmount     float64 `json:"discount_amount" gorm:"not null;default:0"`
	FinalPrice         float64 `json:"final_price" gorm:"not null;default:0"`
	TotalMargin        float64 `json:"total_margin" gorm:"not null;default:0"`
	TotalMarginPercent float64 `json:"total_margin_percent" gorm:"not null;default:0"`

	Metadata  datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	// Items are loaded and replaced explicitly by the repository, never
	// through gorm associations.
	Items []QuoteItem `json:"items" gorm:"-"`
}

func (Quote) TableName() string { return "quotes" }

// QuoteItem is one billable concept within a quote. UnitMargin,
// MarginPercent, SubtotalCost and SubtotalPrice are derived from the
// independent inputs and recomputed on every mutation.
type QuoteItem struct {
	ID       snowflake.ID `json:"id" gorm:"primaryKey"`
	QuoteID  snowflake.ID `json:"quote_id" gorm:"column:quote_id;not null;index"`
	Position int          `json:"position" gorm:"not null"`

	// At most one of the two template references is set; both absent means
	// a fully custom item.
	ProcedureTypeID  *snowflake.ID `json:"procedure_type_id,omitempty" gorm:"column:procedure_type_id"`
	CatalogServiceID *snowflake.ID `json:"catalog_service_id,omitempty" gorm:"column:catalog_service_id"`

	Concept  string `json:"concept" gorm:"type:text;not null"`
	Category string `json:"category" gorm:"type:text;not null"`

	UnitCost                 float64       `json:"unit_cost" gorm:"not null;default:0"`
	UnitPrice                float64       `json:"unit_price" gorm:"not null;default:0"`
	Quantity                 int           `json:"quantity" gorm:"not null;default:1"`
	RequiresExternalProvider bool          `json:"requires_external_provider" gorm:"not null;default:false"`
	ExternalProviderID       *snowflake.ID `json:"external_provider_id,omitempty" gorm:"column:external_provider_id"`
	ExternalProviderCost     float64       `json:"external_provider_cost" gorm:"not null;default:0"`
	CostNotes                string        `json:"cost_notes,omitempty" gorm:"type:text"`

	UnitMargin    float64 `json:"unit_margin" gorm:"not null;default:0"`
	MarginPercent float64 `json:"margin_percent" gorm:"not null;default:0"`
	SubtotalCost  float64 `json:"subtotal_cost" gorm:"not null;default:0"`
	SubtotalPrice float64 `json:"subtotal_price" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (QuoteItem) TableName() string { return "quote_items" }

// TotalCostComponent is the per-unit cost the margin is measured against.
func (i QuoteItem) TotalCostComponent() float64 {
	return i.UnitCost + i.ExternalProviderCost
}
