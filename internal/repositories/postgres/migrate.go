package postgres

import (
	"gorm.io/gorm"

	"github.com/yoockh/yootravel/internal/models"
)

// AutoMigrate creates or updates the primary store schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.ConversationSession{},
		&models.ConversationMessage{},
		&models.UserSession{},
	)
}
