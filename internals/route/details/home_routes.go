package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	notifRoute "sekolahku_backend/internals/features/home/notifications/route"
)

// HomeUserRoutes — notifikasi portal (semua role yang login)
func HomeUserRoutes(r fiber.Router, db *gorm.DB) {
	notifRoute.NotificationUserRoutes(r, db)
}
