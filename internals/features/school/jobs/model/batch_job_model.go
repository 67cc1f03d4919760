package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status batch job. pending → in_progress → completed/failed/cancelled.
// Cancel hanya legal dari pending/in_progress.
const (
	BatchJobStatusPending    = "pending"
	BatchJobStatusInProgress = "in_progress"
	BatchJobStatusCompleted  = "completed"
	BatchJobStatusFailed     = "failed"
	BatchJobStatusCancelled  = "cancelled"
)

const BatchJobTypeReportCards = "report_card_generation"

type BatchJobModel struct {
	BatchJobID       uuid.UUID `gorm:"column:batch_job_id;type:uuid;primaryKey" json:"batch_job_id"`
	BatchJobSchoolID uuid.UUID `gorm:"column:batch_job_school_id;type:uuid;not null;index" json:"batch_job_school_id"`
	BatchJobType     string    `gorm:"column:batch_job_type;type:varchar(40);not null" json:"batch_job_type"`
	BatchJobStatus   string    `gorm:"column:batch_job_status;type:varchar(20);not null;default:'pending';index" json:"batch_job_status"`

	// counter monoton — tidak pernah turun
	BatchJobTotalItems      int     `gorm:"column:batch_job_total_items;not null;default:0" json:"batch_job_total_items"`
	BatchJobProcessedItems  int     `gorm:"column:batch_job_processed_items;not null;default:0" json:"batch_job_processed_items"`
	BatchJobSuccessfulItems int     `gorm:"column:batch_job_successful_items;not null;default:0" json:"batch_job_successful_items"`
	BatchJobFailedItems     int     `gorm:"column:batch_job_failed_items;not null;default:0" json:"batch_job_failed_items"`
	BatchJobPercent         float64 `gorm:"column:batch_job_percent;not null;default:0" json:"batch_job_percent"`

	BatchJobResultSummary datatypes.JSON `gorm:"column:batch_job_result_summary" json:"batch_job_result_summary,omitempty"`
	BatchJobErrorMessage  *string        `gorm:"column:batch_job_error_message;type:text" json:"batch_job_error_message,omitempty"`

	BatchJobInitiatorID uuid.UUID  `gorm:"column:batch_job_initiator_id;type:uuid;not null;index" json:"batch_job_initiator_id"`
	BatchJobStartedAt   *time.Time `gorm:"column:batch_job_started_at" json:"batch_job_started_at,omitempty"`
	BatchJobCompletedAt *time.Time `gorm:"column:batch_job_completed_at" json:"batch_job_completed_at,omitempty"`

	BatchJobCreatedAt time.Time `gorm:"column:batch_job_created_at;not null;autoCreateTime" json:"batch_job_created_at"`
	BatchJobUpdatedAt time.Time `gorm:"column:batch_job_updated_at;not null;autoUpdateTime" json:"batch_job_updated_at"`
}

func (BatchJobModel) TableName() string { return "batch_jobs" }

func (m *BatchJobModel) BeforeCreate(tx *gorm.DB) error {
	if m.BatchJobID == uuid.Nil {
		m.BatchJobID = uuid.New()
	}
	return nil
}

// IsTerminal: completed/failed/cancelled tidak bisa berubah lagi.
func (m *BatchJobModel) IsTerminal() bool {
	switch m.BatchJobStatus {
	case BatchJobStatusCompleted, BatchJobStatusFailed, BatchJobStatusCancelled:
		return true
	}
	return false
}
