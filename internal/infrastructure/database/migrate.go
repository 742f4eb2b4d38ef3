package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
)

// Migrate brings the schema up to date. "drop" recreates every table
// first and is only meant for local development.
func Migrate(db *gorm.DB, mode string) error {
	all := models.AllModels()

	if mode == "drop" {
		Logger.Warning("DB_MIGRATION_MODE=drop, dropping all tables")
		if err := db.Migrator().DropTable(append(all, "citizen_flags", "vehicle_flags")...); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
	}

	if err := db.AutoMigrate(all...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	Logger.Info("database migrated (%d models, mode %s)", len(all), mode)
	return nil
}
