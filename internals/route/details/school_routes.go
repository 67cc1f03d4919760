package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sekolahku_backend/internals/constants"
	auditRoute "sekolahku_backend/internals/features/audit/route"
	notifSvc "sekolahku_backend/internals/features/home/notifications/service"
	jobsRoute "sekolahku_backend/internals/features/school/jobs/route"
	marksRoute "sekolahku_backend/internals/features/school/marks/route"
	authMw "sekolahku_backend/internals/middlewares/auth"
)

// SchoolUserRoutes — sisi guru: entry & kelola marksheet
func SchoolUserRoutes(r fiber.Router, db *gorm.DB, notifier notifSvc.MarksNotifier) {
	entry := r.Group("", authMw.RequireCapability(constants.CapEnterMarks, "Marks Entry"))
	marksRoute.MarksTeacherRoutes(entry, db, notifier)
}

// SchoolAdminRoutes — sisi reviewer: approve/reject, statistik, batch job, audit
func SchoolAdminRoutes(r fiber.Router, db *gorm.DB, notifier notifSvc.MarksNotifier) {
	review := r.Group("", authMw.RequireCapability(constants.CapReviewMarks, "Marks Review"))
	marksRoute.MarksReviewRoutes(review, db, notifier)

	jobs := r.Group("", authMw.RequireCapability(constants.CapManageJobs, "Batch Jobs"))
	jobsRoute.BatchJobAdminRoutes(jobs, db, notifier)

	audit := r.Group("", authMw.RequireCapability(constants.CapViewAudit, "Audit Logs"))
	auditRoute.AuditAdminRoutes(audit, db)
}
