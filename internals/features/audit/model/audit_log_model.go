package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Aksi yang diaudit. Satu baris per mutasi, ditulis dalam transaksi yang sama
// dengan mutasinya — gagal audit = mutasi ikut rollback.
const (
	AuditActionCreate  = "CREATE"
	AuditActionUpdate  = "UPDATE"
	AuditActionSubmit  = "SUBMIT"
	AuditActionApprove = "APPROVE"
	AuditActionReject  = "REJECT"
	AuditActionDelete  = "DELETE"
	AuditActionCancel  = "CANCEL"
)

type AuditLogModel struct {
	AuditLogID       uuid.UUID `gorm:"column:audit_log_id;type:uuid;primaryKey" json:"audit_log_id"`
	AuditLogSchoolID uuid.UUID `gorm:"column:audit_log_school_id;type:uuid;not null;index" json:"audit_log_school_id"`
	AuditLogUserID   uuid.UUID `gorm:"column:audit_log_user_id;type:uuid;not null;index" json:"audit_log_user_id"`

	AuditLogAction     string    `gorm:"column:audit_log_action;type:varchar(20);not null;index" json:"audit_log_action"`
	AuditLogEntityType string    `gorm:"column:audit_log_entity_type;type:varchar(40);not null;index" json:"audit_log_entity_type"`
	AuditLogEntityID   uuid.UUID `gorm:"column:audit_log_entity_id;type:uuid;not null;index" json:"audit_log_entity_id"`

	// snapshot sebelum/sesudah, apa adanya
	AuditLogBefore datatypes.JSON `gorm:"column:audit_log_before" json:"audit_log_before,omitempty"`
	AuditLogAfter  datatypes.JSON `gorm:"column:audit_log_after" json:"audit_log_after,omitempty"`

	AuditLogIPAddress *string   `gorm:"column:audit_log_ip_address;type:varchar(45)" json:"audit_log_ip_address,omitempty"`
	AuditLogCreatedAt time.Time `gorm:"column:audit_log_created_at;not null;autoCreateTime" json:"audit_log_created_at"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }

func (m *AuditLogModel) BeforeCreate(tx *gorm.DB) error {
	if m.AuditLogID == uuid.Nil {
		m.AuditLogID = uuid.New()
	}
	return nil
}
