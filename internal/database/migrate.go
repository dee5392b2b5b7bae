package database

import (
	"fbadmin/internal/models"
	"fbadmin/pkg/logger"

	"gorm.io/gorm"
)

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := db.AutoMigrate(
		&models.Dept{},
		&models.Permission{},
		&models.Role{},
		&models.User{},
		&models.LoginLog{},
		&models.CasbinRule{},
	)
	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}
