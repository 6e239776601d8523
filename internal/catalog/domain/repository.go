package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	ListProcedureTypes(ctx context.Context) ([]ProcedureType, error)
	FindProcedureType(ctx context.Context, id snowflake.ID) (*ProcedureType, error)
	ListCatalogServices(ctx context.Context) ([]CatalogService, error)
	FindCatalogService(ctx context.Context, id snowflake.ID) (*CatalogService, error)
	ListExternalProviders(ctx context.Context) ([]ExternalProvider, error)
	ListMarginThresholds(ctx context.Context) ([]MarginThreshold, error)
	MarginThresholdsByCategory(ctx context.Context) (map[string]MarginThreshold, error)
}
