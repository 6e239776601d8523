package migration

import (
	"github.com/tramitex/cotiza/internal/config"
	"github.com/tramitex/cotiza/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		if err := RunMigrations(sqlDB); err != nil {
			return err
		}

		if err := seed.EnsureMarginThresholds(conn); err != nil {
			return err
		}
		if cfg.SeedCatalogs {
			return seed.EnsureDemoCatalogs(conn)
		}
		return nil
	}),
)
