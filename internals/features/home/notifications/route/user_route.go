package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sekolahku_backend/internals/features/home/notifications/controller"
)

// NotificationUserRoutes — mount di group /api/u (sudah lewat AuthJWT)
func NotificationUserRoutes(r fiber.Router, db *gorm.DB) {
	ctrl := controller.NewNotificationController(db)

	notif := r.Group("/notifications")
	notif.Get("/", ctrl.GetMyNotifications)
	notif.Post("/:id/read", ctrl.MarkRead)
}
