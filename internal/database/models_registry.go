package database

import "vellum/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Document{},
		&models.Tag{},
		&models.DocumentTag{},
		&models.DocumentStar{},
	}
}
