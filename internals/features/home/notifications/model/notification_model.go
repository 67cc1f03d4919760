package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Tipe notifikasi — di-handle enum di sisi kode
const (
	NotificationTypeMarksheetSubmitted = 1
	NotificationTypeMarksheetApproved  = 2
	NotificationTypeMarksheetRejected  = 3
	NotificationTypeBatchJobFinished   = 4
)

type NotificationModel struct {
	NotificationID          uuid.UUID      `gorm:"column:notification_id;primaryKey;type:uuid" json:"notification_id"`
	NotificationTitle       string         `gorm:"column:notification_title;type:varchar(255);not null" json:"notification_title"`
	NotificationDescription string         `gorm:"column:notification_description;type:text" json:"notification_description"`
	NotificationType        int            `gorm:"column:notification_type;not null" json:"notification_type"`
	NotificationSchoolID    uuid.UUID      `gorm:"column:notification_school_id;type:uuid;not null;index" json:"notification_school_id"`
	NotificationUserID      *uuid.UUID     `gorm:"column:notification_user_id;type:uuid;index" json:"notification_user_id,omitempty"` // nullable → broadcast satu sekolah
	NotificationTags        pq.StringArray `gorm:"column:notification_tags;type:text[]" json:"notification_tags"`
	NotificationIsRead      bool           `gorm:"column:notification_is_read;not null;default:false" json:"notification_is_read"`
	NotificationCreatedAt   time.Time      `gorm:"column:notification_created_at;autoCreateTime" json:"notification_created_at"`
	NotificationUpdatedAt   time.Time      `gorm:"column:notification_updated_at;autoUpdateTime" json:"notification_updated_at"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

func (m *NotificationModel) BeforeCreate(tx *gorm.DB) error {
	if m.NotificationID == uuid.Nil {
		m.NotificationID = uuid.New()
	}
	return nil
}
