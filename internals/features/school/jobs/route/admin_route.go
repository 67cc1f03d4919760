package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	notifSvc "sekolahku_backend/internals/features/home/notifications/service"
	"sekolahku_backend/internals/features/school/jobs/controller"
)

// BatchJobAdminRoutes — mount di group /api/a (AuthJWT + CapManageJobs)
func BatchJobAdminRoutes(r fiber.Router, db *gorm.DB, notifier notifSvc.MarksNotifier) {
	ctrl := controller.NewBatchJobController(db, notifier)

	jobs := r.Group("/jobs")
	jobs.Post("/report-cards", ctrl.StartReportCards)
	jobs.Get("/", ctrl.ListJobs)
	jobs.Get("/:id", ctrl.GetJob)
	jobs.Post("/:id/cancel", ctrl.CancelJob)
}
