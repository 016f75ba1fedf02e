package database

import (
	"fmt"

	"github.com/sky366trade/backend/internal/logging"
	"github.com/sky366trade/backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	logging.Logger.Info("Database connection established successfully")
	return nil
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	// Account and team models first
	coreModels := []interface{}{
		&models.Account{},
		&models.Team{},
	}

	for _, model := range coreModels {
		if err := DB.AutoMigrate(model); err != nil {
			logging.Logger.Sugar().Warnf("migration issue for %T: %v", model, err)
		}
	}

	// Task models
	taskModels := []interface{}{
		&models.Task{},
		&models.UserTask{},
	}

	for _, model := range taskModels {
		if err := DB.AutoMigrate(model); err != nil {
			logging.Logger.Sugar().Warnf("migration issue for %T: %v", model, err)
		}
	}

	// Payment and withdrawal models
	moneyModels := []interface{}{
		&models.Payment{},
		&models.WithdrawalRequest{},
	}

	for _, model := range moneyModels {
		if err := DB.AutoMigrate(model); err != nil {
			logging.Logger.Sugar().Warnf("migration issue for %T: %v", model, err)
		}
	}

	logging.Logger.Info("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
