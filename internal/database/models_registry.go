package database

import "campusforum/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models
// in dependency order.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
		&models.Report{},
	}
}
