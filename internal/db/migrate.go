package db

import (
	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table in dependency order (parents before children).
func Models() []interface{} {
	return []interface{}{
		&model.Store{},
		&model.Product{},
		&model.User{},
		&model.AnnualTarget{},
		&model.MonthlyTarget{},
		&model.WeeklyTarget{},
		&model.DailyTarget{},
		&model.SalesRecord{},
	}
}

// Migrate runs database migrations
func Migrate(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
