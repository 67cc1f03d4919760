package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"sekolahku_backend/internals/features/home/notifications/model"
	helper "sekolahku_backend/internals/helpers"
	helperAuth "sekolahku_backend/internals/helpers/auth"
)

type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// 🟢 GET /api/u/notifications — notifikasi sekolah saya (broadcast + personal)
func (ctrl *NotificationController) GetMyNotifications(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	paging := helper.ResolvePaging(c, 20, 100)

	base := ctrl.DB.Model(&model.NotificationModel{}).
		Where("notification_school_id = ?", schoolID).
		Where("notification_user_id IS NULL OR notification_user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		log.Printf("[ERROR] Count notifikasi: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung data")
	}

	var notifs []model.NotificationModel
	if err := base.Session(&gorm.Session{}).
		Order("notification_created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&notifs).Error; err != nil {
		log.Printf("[ERROR] Gagal mengambil notifikasi: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	return helper.JsonList(c, "ok", notifs, helper.BuildPagination(paging.Page, paging.PerPage, total))
}

// 🟢 POST /api/u/notifications/:id/read
func (ctrl *NotificationController) MarkRead(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID notifikasi tidak valid")
	}

	res := ctrl.DB.Model(&model.NotificationModel{}).
		Where("notification_id = ?", id).
		Where("notification_user_id IS NULL OR notification_user_id = ?", userID).
		Update("notification_is_read", true)
	if res.Error != nil {
		log.Printf("[ERROR] Gagal update notifikasi: %v", res.Error)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal memperbarui notifikasi")
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "Notifikasi tidak ditemukan")
	}

	return helper.JsonUpdated(c, "Notifikasi ditandai terbaca", fiber.Map{"notification_id": id})
}
