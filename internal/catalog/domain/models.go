package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ProcedureType is a reusable regulatory-procedure definition. Its two base
// costs (professional fees and agency fees) are combined when the procedure
// is added to a quote.
type ProcedureType struct {
	ID                 snowflake.ID `json:"id" gorm:"primaryKey"`
	Code               string       `json:"code" gorm:"type:text;uniqueIndex;not null"`
	Name               string       `json:"name" gorm:"type:text;not null"`
	BaseHonorariosCost float64      `json:"base_honorarios_cost" gorm:"not null;default:0"`
	BaseTasasCost      float64      `json:"base_tasas_cost" gorm:"not null;default:0"`
	Active             bool         `json:"is_active,omitempty" gorm:"not null;default:true"`
	CreatedAt          time.Time    `json:"created_at,omitempty" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProcedureType) TableName() string { return "procedure_types" }

// CatalogService is a reusable service definition with a suggested base cost
// and three tiered suggested prices.
type CatalogService struct {
	ID                       snowflake.ID `json:"id" gorm:"primaryKey"`
	Code                     string       `json:"code" gorm:"type:text;uniqueIndex;not null"`
	Name                     string       `json:"name" gorm:"type:text;not null"`
	Category                 string       `json:"category" gorm:"type:text;not null"`
	BaseCostSuggested        float64      `json:"base_cost_suggested" gorm:"not null;default:0"`
	PriceSuggestedStandard   float64      `json:"price_suggested_standard" gorm:"not null;default:0"`
	PriceSuggestedCorporate  float64      `json:"price_suggested_corporate" gorm:"not null;default:0"`
	PriceSuggestedPyme       float64      `json:"price_suggested_pyme" gorm:"not null;default:0"`
	RequiresExternalProvider bool         `json:"requires_external_provider" gorm:"not null;default:false"`
	Active                   bool         `json:"is_active,omitempty" gorm:"not null;default:true"`
	CreatedAt                time.Time    `json:"created_at,omitempty" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CatalogService) TableName() string { return "catalog_services" }

// ExternalProvider is a proveedor record. The quoting side only stores the
// selected reference; commercial details live here.
type ExternalProvider struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	TaxID     *string      `json:"tax_id,omitempty" gorm:"type:text"`
	Email     *string      `json:"email,omitempty" gorm:"type:text"`
	Phone     *string      `json:"phone,omitempty" gorm:"type:text"`
	Active    bool         `json:"is_active,omitempty" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at,omitempty" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ExternalProvider) TableName() string { return "external_providers" }

// MarginThreshold holds the per-category minimum and target margin
// percentages used for margin health classification.
type MarginThreshold struct {
	Category      string  `json:"category" gorm:"type:text;primaryKey;column:category"`
	MinimumMargin float64 `json:"minimum_margin" gorm:"not null"`
	TargetMargin  float64 `json:"target_margin" gorm:"not null"`
}

func (MarginThreshold) TableName() string { return "margin_thresholds" }
