package models

import "gorm.io/gorm"

// Migrate creates or updates the tables for every model, parents first.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Post{},
		&Like{},
	)
}
