package seed

import (
	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/tramitex/cotiza/internal/catalog/domain"
	pkgdb "github.com/tramitex/cotiza/pkg/db"
	"gorm.io/gorm"
)

var defaultThresholds = []catalogdomain.MarginThreshold{
	{Category: "honorarios", MinimumMargin: 20, TargetMargin: 40},
	{Category: "analisis", MinimumMargin: 15, TargetMargin: 30},
	{Category: "traduccion", MinimumMargin: 10, TargetMargin: 25},
	{Category: "legalizacion", MinimumMargin: 10, TargetMargin: 25},
}

// EnsureMarginThresholds installs the default classification table when
// none has been configured. Existing rows are never touched.
func EnsureMarginThresholds(db *gorm.DB) error {
	var count int64
	if err := db.Model(&catalogdomain.MarginThreshold{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, t := range defaultThresholds {
		// Two instances can race here on startup; the duplicate loses.
		if err := db.Create(&t).Error; err != nil && !pkgdb.IsDuplicateKeyErr(err) {
			return err
		}
	}
	return nil
}

// EnsureDemoCatalogs loads a small starter catalog for non-production
// environments so the quoting flow works out of the box.
func EnsureDemoCatalogs(db *gorm.DB) error {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	var count int64
	if err := db.Model(&catalogdomain.ProcedureType{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		types := []catalogdomain.ProcedureType{
			{ID: node.Generate(), Code: "REG-MED", Name: "Registro sanitario de medicamento", BaseHonorariosCost: 2500, BaseTasasCost: 1200, Active: true},
			{ID: node.Generate(), Code: "REG-DM", Name: "Registro de dispositivo medico", BaseHonorariosCost: 1800, BaseTasasCost: 900, Active: true},
			{ID: node.Generate(), Code: "REN-MED", Name: "Renovacion de registro", BaseHonorariosCost: 1200, BaseTasasCost: 600, Active: true},
		}
		for _, t := range types {
			if err := db.Create(&t).Error; err != nil && !pkgdb.IsDuplicateKeyErr(err) {
				return err
			}
		}
	}

	if err := db.Model(&catalogdomain.CatalogService{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		services := []catalogdomain.CatalogService{
			{ID: node.Generate(), Code: "ASE-REG", Name: "Asesoria regulatoria", Category: "honorarios", PriceSuggestedStandard: 500, PriceSuggestedCorporate: 700, PriceSuggestedPyme: 300, Active: true},
			{ID: node.Generate(), Code: "ANL-EST", Name: "Ensayo de estabilidad", Category: "analisis", BaseCostSuggested: 800, PriceSuggestedStandard: 1200, PriceSuggestedCorporate: 1500, PriceSuggestedPyme: 1000, RequiresExternalProvider: true, Active: true},
			{ID: node.Generate(), Code: "TRD-TEC", Name: "Traduccion tecnica", Category: "traduccion", BaseCostSuggested: 150, PriceSuggestedStandard: 250, PriceSuggestedCorporate: 320, PriceSuggestedPyme: 200, RequiresExternalProvider: true, Active: true},
		}
		for _, s := range services {
			if err := db.Create(&s).Error; err != nil && !pkgdb.IsDuplicateKeyErr(err) {
				return err
			}
		}
	}

	if err := db.Model(&catalogdomain.ExternalProvider{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		providers := []catalogdomain.ExternalProvider{
			{ID: node.Generate(), Name: "Laboratorio Central SA", Active: true},
			{ID: node.Generate(), Name: "Traducciones Delta SRL", Active: true},
		}
		for _, p := range providers {
			if err := db.Create(&p).Error; err != nil && !pkgdb.IsDuplicateKeyErr(err) {
				return err
			}
		}
	}

	return nil
}
