package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	notifSvc "sekolahku_backend/internals/features/home/notifications/service"
	"sekolahku_backend/internals/features/school/marks/controller"
	"sekolahku_backend/internals/middlewares"
)

// MarksReviewRoutes — review marksheet (pending/approve/reject) + statistik.
// Mount di group /api/a yang sudah lewat AuthJWT + CapReviewMarks.
func MarksReviewRoutes(r fiber.Router, db *gorm.DB, notifier notifSvc.MarksNotifier) {
	ctrl := controller.NewMarksheetController(db, notifier)

	marks := r.Group("/marks")
	marks.Get("/pending", ctrl.PendingMarksheets)
	marks.Post("/approve/:marksheetId", middlewares.MarksWriteRateLimiter(), ctrl.ApproveMarksheet)
	marks.Post("/reject/:marksheetId", middlewares.MarksWriteRateLimiter(), ctrl.RejectMarksheet)
	marks.Get("/subjects/:subjectId/statistics", ctrl.SubjectStatistics)
}
