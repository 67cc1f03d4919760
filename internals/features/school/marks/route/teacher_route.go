package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	notifSvc "sekolahku_backend/internals/features/home/notifications/service"
	"sekolahku_backend/internals/features/school/marks/controller"
	"sekolahku_backend/internals/middlewares"
)

// MarksTeacherRoutes — entry & kelola marksheet milik guru.
// Mount di group /api/u yang sudah lewat AuthJWT + CapEnterMarks.
func MarksTeacherRoutes(r fiber.Router, db *gorm.DB, notifier notifSvc.MarksNotifier) {
	ctrl := controller.NewMarksheetController(db, notifier)

	marks := r.Group("/marks")
	marks.Post("/entry", middlewares.MarksWriteRateLimiter(), ctrl.EntryMarks)
	marks.Get("/marksheets", ctrl.ListMarksheets)
	marks.Get("/marksheets/:id", ctrl.GetMarksheet)
	marks.Put("/marksheets/:id", ctrl.UpdateMarksheet)
	marks.Post("/marksheets/:id/marks", middlewares.MarksWriteRateLimiter(), ctrl.BulkMarks)
	marks.Post("/marksheets/:id/submit", middlewares.MarksWriteRateLimiter(), ctrl.SubmitMarksheet)
	marks.Delete("/marksheets/:id", ctrl.DeleteMarksheet)
	marks.Get("/students/:enrollmentId/marksheets", ctrl.StudentMarksheets)
}
