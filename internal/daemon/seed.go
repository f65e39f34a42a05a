package daemon

import (
	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/config"
	"github.com/AmatanHead/collective-blog/internal/db/models"
)

func seed(_ *config.Config, db *gorm.DB) {
	// Seed initial data if user table is empty

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count == 0 {
		// Create default staff user
		// change the password right after the first login

		admin := models.User{
			Username: "admin",
			Password: models.HashPassword("changeme"),
			Active:   true,
			Staff:    true,
		}

		db.Create(&admin)
		db.Create(&models.Profile{UserID: admin.ID})
	}
}
