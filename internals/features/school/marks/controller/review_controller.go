package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"sekolahku_backend/internals/features/school/marks/dto"
	"sekolahku_backend/internals/features/school/marks/model"
	helper "sekolahku_backend/internals/helpers"
)

// Review side (principal/admin): pending list, approve, reject, statistik.
// Controller yang sama dengan entry side, route group yang beda capability.

// 🟢 GET /api/a/marks/pending
func (ctrl *MarksheetController) PendingMarksheets(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctrl.DB.Model(&model.MarksheetModel{}).
		Where("marksheet_school_id = ? AND marksheet_status = ?",
			actor.SchoolID, model.MarksheetStatusSubmitted)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		log.Printf("[ERROR] Count pending: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung data")
	}

	var rows []model.MarksheetModel
	if err := q.Session(&gorm.Session{}).
		Order("marksheet_submitted_at ASC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		log.Printf("[ERROR] List pending: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	return helper.JsonList(c, "ok", rows, helper.BuildPagination(paging.Page, paging.PerPage, total))
}

// 🟢 POST /api/a/marks/approve/:marksheetId
func (ctrl *MarksheetController) ApproveMarksheet(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("marksheetId"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID marksheet tidak valid")
	}

	m, err := ctrl.Service.Approve(actor, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonOK(c, "Marksheet disetujui", m)
}

// 🟢 POST /api/a/marks/reject/:marksheetId  body: {"reason": "..."} (≥10 karakter)
func (ctrl *MarksheetController) RejectMarksheet(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("marksheetId"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID marksheet tidak valid")
	}

	var req dto.RejectMarksheetRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctrl.validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := ctrl.Service.Reject(actor, id, req.Reason)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonOK(c, "Marksheet ditolak", m)
}

// 🟢 GET /api/a/marks/subjects/:subjectId/statistics
func (ctrl *MarksheetController) SubjectStatistics(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	subjectID, err := uuid.Parse(c.Params("subjectId"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID subject tidak valid")
	}

	st, err := ctrl.Service.SubjectStatistics(actor, subjectID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonOK(c, "ok", st)
}
