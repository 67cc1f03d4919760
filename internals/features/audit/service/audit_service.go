package service

import (
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"sekolahku_backend/internals/features/audit/model"
)

// Entry: satu catatan audit. Before/After boleh nil (CREATE tanpa Before,
// DELETE tanpa After).
type Entry struct {
	SchoolID   uuid.UUID
	UserID     uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Before     any
	After      any
	IPAddress  string
}

// Log menulis baris audit lewat tx pemanggil — ikut commit/rollback transaksi
// mutasinya.
func Log(tx *gorm.DB, e Entry) error {
	row := model.AuditLogModel{
		AuditLogSchoolID:   e.SchoolID,
		AuditLogUserID:     e.UserID,
		AuditLogAction:     e.Action,
		AuditLogEntityType: e.EntityType,
		AuditLogEntityID:   e.EntityID,
	}
	if e.Before != nil {
		b, err := sonic.Marshal(e.Before)
		if err != nil {
			return err
		}
		row.AuditLogBefore = datatypes.JSON(b)
	}
	if e.After != nil {
		b, err := sonic.Marshal(e.After)
		if err != nil {
			return err
		}
		row.AuditLogAfter = datatypes.JSON(b)
	}
	if e.IPAddress != "" {
		row.AuditLogIPAddress = &e.IPAddress
	}
	return tx.Create(&row).Error
}
