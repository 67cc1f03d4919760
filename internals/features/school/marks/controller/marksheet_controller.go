package controller

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	notifSvc "sekolahku_backend/internals/features/home/notifications/service"
	"sekolahku_backend/internals/features/school/marks/dto"
	"sekolahku_backend/internals/features/school/marks/model"
	"sekolahku_backend/internals/features/school/marks/service"
	helper "sekolahku_backend/internals/helpers"
	helperAuth "sekolahku_backend/internals/helpers/auth"
)

type MarksheetController struct {
	DB       *gorm.DB
	Service  *service.MarksheetService
	validate *validator.Validate
}

func NewMarksheetController(db *gorm.DB, notifier notifSvc.MarksNotifier) *MarksheetController {
	return &MarksheetController{
		DB:       db,
		Service:  service.NewMarksheetService(db, notifier),
		validate: validator.New(),
	}
}

// actorFromCtx membangun identitas pelaku dari Locals hasil AuthJWT.
func actorFromCtx(c *fiber.Ctx) (service.Actor, error) {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return service.Actor{}, err
	}
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{
		UserID:   userID,
		SchoolID: schoolID,
		Name:     helperAuth.GetUserNameFromToken(c),
		IP:       c.IP(),
	}, nil
}

// writeServiceError memetakan error domain → envelope HTTP.
func writeServiceError(c *fiber.Ctx, err error) error {
	var (
		vErr *service.ValidationError
		tErr *service.TransitionError
		fErr *fiber.Error
	)
	switch {
	case errors.Is(err, service.ErrMarksheetNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Marksheet tidak ditemukan")
	case errors.As(err, &vErr):
		return helper.JsonError(c, fiber.StatusBadRequest, vErr.Message)
	case errors.As(err, &tErr):
		return helper.JsonError(c, fiber.StatusBadRequest, tErr.Message)
	case errors.As(err, &fErr):
		return err
	default:
		log.Printf("[ERROR] marksheet service: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Terjadi kesalahan server")
	}
}

// 🟢 POST /api/u/marks/entry
// Entry nilai: pakai marksheet Draft/rejected yang sudah ada untuk kombinasi
// (subject, year, enrollment, term), atau buat Draft baru, lalu bulk upsert nilai.
func (ctrl *MarksheetController) EntryMarks(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}

	var req dto.MarksEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	req.Normalize()
	if err := ctrl.validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	var m *model.MarksheetModel
	var existing model.MarksheetModel
	err = ctrl.DB.
		Where(`marksheet_school_id = ? AND marksheet_subject_id = ?
			AND marksheet_academic_year_id = ? AND marksheet_enrollment_id = ?
			AND marksheet_term = ?`,
			actor.SchoolID, req.SubjectID, req.AcademicYearID, req.EnrollmentID, req.Term).
		First(&existing).Error
	switch {
	case err == nil:
		m = &existing
	case errors.Is(err, gorm.ErrRecordNotFound):
		m, err = ctrl.Service.Create(actor, req.ToCreateInput())
		if err != nil {
			return writeServiceError(c, err)
		}
	default:
		log.Printf("[ERROR] lookup marksheet: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mencari marksheet")
	}

	result := &service.BulkEntryResult{Created: []uuid.UUID{}, Updated: []uuid.UUID{}, Failed: []service.BulkEntryFailure{}}
	if len(req.Marks) > 0 {
		result, err = ctrl.Service.BulkUpsertMarks(actor, m.MarksheetID, req.ToBulkItems())
		if err != nil {
			return writeServiceError(c, err)
		}
		if err := ctrl.DB.Preload("Marks").First(m, "marksheet_id = ?", m.MarksheetID).Error; err != nil {
			log.Printf("[ERROR] reload marksheet: %v", err)
			return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal memuat marksheet")
		}
	}

	return helper.JsonCreated(c, "Nilai tersimpan", fiber.Map{
		"marksheet": m,
		"result":    result,
	})
}

// 🟢 POST /api/u/marks/marksheets/:id/marks — bulk upsert ke marksheet yang ada
func (ctrl *MarksheetController) BulkMarks(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID marksheet tidak valid")
	}

	var req dto.BulkMarksRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	req.Normalize()
	if err := ctrl.validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	result, err := ctrl.Service.BulkUpsertMarks(actor, id, req.ToBulkItems())
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonOK(c, "Nilai tersimpan", result)
}

// 🟢 GET /api/u/marks/marksheets?status=&subject_id=&academic_year_id=
func (ctrl *MarksheetController) ListMarksheets(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctrl.DB.Model(&model.MarksheetModel{}).
		Where("marksheet_school_id = ?", actor.SchoolID)
	if v := c.Query("status"); v != "" {
		q = q.Where("marksheet_status = ?", v)
	}
	if v := c.Query("subject_id"); v != "" {
		sid, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "subject_id tidak valid")
		}
		q = q.Where("marksheet_subject_id = ?", sid)
	}
	if v := c.Query("academic_year_id"); v != "" {
		yid, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "academic_year_id tidak valid")
		}
		q = q.Where("marksheet_academic_year_id = ?", yid)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		log.Printf("[ERROR] Count marksheets: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung data")
	}

	var rows []model.MarksheetModel
	if err := q.Session(&gorm.Session{}).
		Order("marksheet_created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		log.Printf("[ERROR] List marksheets: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	return helper.JsonList(c, "ok", rows, helper.BuildPagination(paging.Page, paging.PerPage, total))
}

// 🟢 GET /api/u/marks/marksheets/:id — detail + child marks
func (ctrl *MarksheetController) GetMarksheet(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID marksheet tidak valid")
	}

	var m model.MarksheetModel
	err = ctrl.DB.Preload("Marks").
		Where("marksheet_id = ? AND marksheet_school_id = ?", id, actor.SchoolID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Marksheet tidak ditemukan")
	}
	if err != nil {
		log.Printf("[ERROR] Get marksheet: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}
	return helper.JsonOK(c, "ok", m)
}

// 🟢 PUT /api/u/marks/marksheets/:id — edit selama Draft/rejected
func (ctrl *MarksheetController) UpdateMarksheet(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID marksheet tidak valid")
	}

	var req dto.UpdateMarksheetRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctrl.validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := ctrl.Service.Update(actor, id, req.ToUpdateInput())
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonUpdated(c, "Marksheet diperbarui", m)
}

// 🟢 POST /api/u/marks/marksheets/:id/submit
func (ctrl *MarksheetController) SubmitMarksheet(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID marksheet tidak valid")
	}

	m, err := ctrl.Service.Submit(actor, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonOK(c, "Marksheet diajukan untuk review", m)
}

// 🟢 DELETE /api/u/marks/marksheets/:id — hanya Draft/rejected
func (ctrl *MarksheetController) DeleteMarksheet(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID marksheet tidak valid")
	}

	if err := ctrl.Service.Delete(actor, id); err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonDeleted(c, "Marksheet dihapus", fiber.Map{"marksheet_id": id})
}

// 🟢 GET /api/u/marks/students/:enrollmentId/marksheets
func (ctrl *MarksheetController) StudentMarksheets(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	enrollmentID, err := uuid.Parse(c.Params("enrollmentId"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID enrollment tidak valid")
	}

	var rows []model.MarksheetModel
	if err := ctrl.DB.Preload("Marks").
		Where("marksheet_school_id = ? AND marksheet_enrollment_id = ?", actor.SchoolID, enrollmentID).
		Order("marksheet_created_at DESC").
		Find(&rows).Error; err != nil {
		log.Printf("[ERROR] Student marksheets: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}
	return helper.JsonOK(c, "ok", rows)
}
