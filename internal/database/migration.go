package database

import (
	"fmt"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Account{},
		&models.Category{},
		&models.Payee{},
		&models.Transaction{},
		&models.ExportLog{},
		&models.Setting{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
