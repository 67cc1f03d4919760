package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sekolahku_backend/internals/features/audit/controller"
)

// AuditAdminRoutes — mount di group /api/a (AuthJWT + CapViewAudit)
func AuditAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctrl := controller.NewAuditLogController(db)

	r.Get("/audit-logs", ctrl.ListAuditLogs)
}
