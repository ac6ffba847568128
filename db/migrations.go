package db

import (
	"fmt"

	"blog/models"

	"gorm.io/gorm"
)

// Migrate создает или обновляет таблицы всех сущностей
func Migrate(database *gorm.DB) error {
	err := database.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.AccessRequest{},
		&models.AccessGrant{},
		&models.Subscription{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
