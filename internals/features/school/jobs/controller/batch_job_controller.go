package controller

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	notifSvc "sekolahku_backend/internals/features/home/notifications/service"
	"sekolahku_backend/internals/features/school/jobs/dto"
	"sekolahku_backend/internals/features/school/jobs/model"
	"sekolahku_backend/internals/features/school/jobs/service"
	helper "sekolahku_backend/internals/helpers"
	helperAuth "sekolahku_backend/internals/helpers/auth"
)

type BatchJobController struct {
	DB       *gorm.DB
	Service  *service.BatchJobService
	validate *validator.Validate
}

func NewBatchJobController(db *gorm.DB, notifier notifSvc.MarksNotifier) *BatchJobController {
	return &BatchJobController{
		DB:       db,
		Service:  service.NewBatchJobService(db, notifier),
		validate: validator.New(),
	}
}

func writeJobError(c *fiber.Ctx, err error) error {
	var tErr *service.JobTransitionError
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Batch job tidak ditemukan")
	case errors.Is(err, service.ErrNotInitiator):
		return helper.JsonError(c, fiber.StatusForbidden, "Hanya pembuat job yang boleh membatalkan")
	case errors.As(err, &tErr):
		return helper.JsonError(c, fiber.StatusBadRequest, tErr.Message)
	default:
		log.Printf("[ERROR] batch job service: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Terjadi kesalahan server")
	}
}

// 🟢 POST /api/a/jobs/report-cards — mulai generate report card massal
func (ctrl *BatchJobController) StartReportCards(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}

	var req dto.StartReportCardsRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	req.Normalize()
	if err := ctrl.validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	job, err := ctrl.Service.StartReportCardGeneration(schoolID, userID, req.ToFilter())
	if err != nil {
		return writeJobError(c, err)
	}
	return helper.JsonCreated(c, "Batch job dibuat", job)
}

// 🟢 GET /api/a/jobs
func (ctrl *BatchJobController) ListJobs(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctrl.DB.Model(&model.BatchJobModel{}).
		Where("batch_job_school_id = ?", schoolID)
	if v := c.Query("status"); v != "" {
		q = q.Where("batch_job_status = ?", v)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		log.Printf("[ERROR] Count jobs: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung data")
	}

	var rows []model.BatchJobModel
	if err := q.Session(&gorm.Session{}).
		Order("batch_job_created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		log.Printf("[ERROR] List jobs: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(paging.Page, paging.PerPage, total))
}

// 🟢 GET /api/a/jobs/:id — polling progres
func (ctrl *BatchJobController) GetJob(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID job tidak valid")
	}

	var job model.BatchJobModel
	err = ctrl.DB.Where("batch_job_id = ? AND batch_job_school_id = ?", id, schoolID).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Batch job tidak ditemukan")
	}
	if err != nil {
		log.Printf("[ERROR] Get job: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}
	return helper.JsonOK(c, "ok", job)
}

// 🟢 POST /api/a/jobs/:id/cancel — hanya initiator
func (ctrl *BatchJobController) CancelJob(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID job tidak valid")
	}

	if err := ctrl.Service.Cancel(userID, schoolID, id, c.IP()); err != nil {
		return writeJobError(c, err)
	}
	return helper.JsonOK(c, "Batch job dibatalkan", fiber.Map{"batch_job_id": id})
}
