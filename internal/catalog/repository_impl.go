package catalog

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/tramitex/cotiza/internal/catalog/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) ListProcedureTypes(ctx context.Context) ([]domain.ProcedureType, error) {
	var types []domain.ProcedureType
	err := r.db.WithContext(ctx).
		Raw(`SELECT id, code, name, base_honorarios_cost, base_tasas_cost, active, created_at
		     FROM procedure_types WHERE active = true ORDER BY name`).
		Scan(&types).Error
	if err != nil {
		return nil, err
	}

	return types, nil
}

func (r *repository) FindProcedureType(ctx context.Context, id snowflake.ID) (*domain.ProcedureType, error) {
	var tpl domain.ProcedureType
	err := r.db.WithContext(ctx).
		Raw(`SELECT id, code, name, base_honorarios_cost, base_tasas_cost, active, created_at
		     FROM procedure_types WHERE id = ?`, id).
		Scan(&tpl).Error
	if err != nil {
		return nil, err
	}
	if tpl.ID == 0 {
		return nil, nil
	}

	return &tpl, nil
}

func (r *repository) ListCatalogServices(ctx context.Context) ([]domain.CatalogService, error) {
	var services []domain.CatalogService
	err := r.db.WithContext(ctx).
		Raw(`SELECT id, code, name, category, base_cost_suggested,
		            price_suggested_standard, price_suggested_corporate, price_suggested_pyme,
		            requires_external_provider, active, created_at
		     FROM catalog_services WHERE active = true ORDER BY category, name`).
		Scan(&services).Error
	if err != nil {
		return nil, err
	}

	return services, nil
}

func (r *repository) FindCatalogService(ctx context.Context, id snowflake.ID) (*domain.CatalogService, error) {
	var tpl domain.CatalogService
	err := r.db.WithContext(ctx).
		Raw(`SELECT id, code, name, category, base_cost_suggested,
		            price_suggested_standard, price_suggested_corporate, price_suggested_pyme,
		            requires_external_provider, active, created_at
		     FROM catalog_services WHERE id = ?`, id).
		Scan(&tpl).Error
	if err != nil {
		return nil, err
	}
	if tpl.ID == 0 {
		return nil, nil
	}

	return &tpl, nil
}

func (r *repository) ListExternalProviders(ctx context.Context) ([]domain.ExternalProvider, error) {
	var providers []domain.ExternalProvider
	err := r.db.WithContext(ctx).
		Raw(`SELECT id, name, tax_id, email, phone, active, created_at
		     FROM external_providers WHERE active = true ORDER BY name`).
		Scan(&providers).Error
	if err != nil {
		return nil, err
	}

	return providers, nil
}

func (r *repository) ListMarginThresholds(ctx context.Context) ([]domain.MarginThreshold, error) {
	var thresholds []domain.MarginThreshold
	err := r.db.WithContext(ctx).
		Raw(`SELECT category, minimum_margin, target_margin FROM margin_thresholds ORDER BY category`).
		Scan(&thresholds).Error
	if err != nil {
		return nil, err
	}

	return thresholds, nil
}

func (r *repository) MarginThresholdsByCategory(ctx context.Context) (map[string]domain.MarginThreshold, error) {
	thresholds, err := r.ListMarginThresholds(ctx)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]domain.MarginThreshold, len(thresholds))
	for _, t := range thresholds {
		byCategory[t.Category] = t
	}

	return byCategory, nil
}
