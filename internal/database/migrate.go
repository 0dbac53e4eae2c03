package database

import (
	"updoot/internal/models"

	"gorm.io/gorm"
)

// Migrate runs schema auto-migration for all domain models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Vote{},
	)
}
