package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"sekolahku_backend/internals/features/home/notifications/model"
)

// MarksNotifier dipanggil SETELAH commit transaksi lifecycle.
// Kontrak best-effort: error cukup di-log pemanggil, tidak pernah membatalkan
// transisi yang sudah commit.
type MarksNotifier interface {
	NotifySubmitted(schoolID uuid.UUID, teacherName, subjectLabel string, marksheetID uuid.UUID) error
	NotifyApproved(schoolID uuid.UUID, submitterID uuid.UUID, subjectLabel string, marksheetID uuid.UUID) error
	NotifyRejected(schoolID uuid.UUID, submitterID uuid.UUID, subjectLabel string, marksheetID uuid.UUID, comments string) error
	NotifyJobFinished(schoolID uuid.UUID, initiatorID uuid.UUID, jobType, outcome string, jobID uuid.UUID) error
}

// DBNotifier menulis baris notifications — portal membacanya lewat endpoint user.
type DBNotifier struct {
	DB *gorm.DB
}

func NewDBNotifier(db *gorm.DB) *DBNotifier {
	return &DBNotifier{DB: db}
}

func (n *DBNotifier) NotifySubmitted(schoolID uuid.UUID, teacherName, subjectLabel string, marksheetID uuid.UUID) error {
	if teacherName == "" {
		teacherName = "Seorang guru"
	}
	row := model.NotificationModel{
		NotificationTitle:       "Marksheet menunggu review",
		NotificationDescription: fmt.Sprintf("%s mengajukan marksheet %s (%s) untuk direview.", teacherName, subjectLabel, marksheetID),
		NotificationType:        model.NotificationTypeMarksheetSubmitted,
		NotificationSchoolID:    schoolID,
		NotificationTags:        pq.StringArray{"marks", "review", marksheetID.String()},
	}
	return n.DB.Create(&row).Error
}

func (n *DBNotifier) NotifyApproved(schoolID uuid.UUID, submitterID uuid.UUID, subjectLabel string, marksheetID uuid.UUID) error {
	row := model.NotificationModel{
		NotificationTitle:       "Marksheet disetujui",
		NotificationDescription: fmt.Sprintf("Marksheet %s (%s) telah disetujui.", subjectLabel, marksheetID),
		NotificationType:        model.NotificationTypeMarksheetApproved,
		NotificationSchoolID:    schoolID,
		NotificationUserID:      &submitterID,
		NotificationTags:        pq.StringArray{"marks", "approved", marksheetID.String()},
	}
	return n.DB.Create(&row).Error
}

func (n *DBNotifier) NotifyRejected(schoolID uuid.UUID, submitterID uuid.UUID, subjectLabel string, marksheetID uuid.UUID, comments string) error {
	row := model.NotificationModel{
		NotificationTitle:       "Marksheet ditolak",
		NotificationDescription: fmt.Sprintf("Marksheet %s (%s) ditolak: %s", subjectLabel, marksheetID, comments),
		NotificationType:        model.NotificationTypeMarksheetRejected,
		NotificationSchoolID:    schoolID,
		NotificationUserID:      &submitterID,
		NotificationTags:        pq.StringArray{"marks", "rejected", marksheetID.String()},
	}
	return n.DB.Create(&row).Error
}

func (n *DBNotifier) NotifyJobFinished(schoolID uuid.UUID, initiatorID uuid.UUID, jobType, outcome string, jobID uuid.UUID) error {
	row := model.NotificationModel{
		NotificationTitle:       fmt.Sprintf("Batch job %s", outcome),
		NotificationDescription: fmt.Sprintf("Job %s (%s) berakhir dengan status %s.", jobType, jobID, outcome),
		NotificationType:        model.NotificationTypeBatchJobFinished,
		NotificationSchoolID:    schoolID,
		NotificationUserID:      &initiatorID,
		NotificationTags:        pq.StringArray{"jobs", outcome, jobID.String()},
	}
	return n.DB.Create(&row).Error
}
