package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate migrates the schema for the given models.
func AutoMigrate(db *gorm.DB, models ...interface{}) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
