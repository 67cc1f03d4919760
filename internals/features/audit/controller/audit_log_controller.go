package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"sekolahku_backend/internals/features/audit/model"
	helper "sekolahku_backend/internals/helpers"
	helperAuth "sekolahku_backend/internals/helpers/auth"
)

type AuditLogController struct {
	DB *gorm.DB
}

func NewAuditLogController(db *gorm.DB) *AuditLogController {
	return &AuditLogController{DB: db}
}

// 🟢 GET /api/a/audit-logs?entity_type=&entity_id=&action=&user_id=
// Read-only: baris audit tidak punya endpoint tulis/hapus.
func (ctrl *AuditLogController) ListAuditLogs(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctrl.DB.Model(&model.AuditLogModel{}).
		Where("audit_log_school_id = ?", schoolID)
	if v := c.Query("entity_type"); v != "" {
		q = q.Where("audit_log_entity_type = ?", v)
	}
	if v := c.Query("action"); v != "" {
		q = q.Where("audit_log_action = ?", v)
	}
	if v := c.Query("entity_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "entity_id tidak valid")
		}
		q = q.Where("audit_log_entity_id = ?", id)
	}
	if v := c.Query("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "user_id tidak valid")
		}
		q = q.Where("audit_log_user_id = ?", id)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		log.Printf("[ERROR] Count audit logs: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung data")
	}

	var rows []model.AuditLogModel
	if err := q.Session(&gorm.Session{}).
		Order("audit_log_created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		log.Printf("[ERROR] List audit logs: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	return helper.JsonList(c, "ok", rows, helper.BuildPagination(paging.Page, paging.PerPage, total))
}
