package config

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate runs gorm auto-migration for the tables a service owns.
func Migrate(db *gorm.DB, models ...interface{}) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
