package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditModel "sekolahku_backend/internals/features/audit/model"
	auditSvc "sekolahku_backend/internals/features/audit/service"
	notifSvc "sekolahku_backend/internals/features/home/notifications/service"
	"sekolahku_backend/internals/features/school/jobs/model"
)

const auditEntityBatchJob = "batch_job"

// Retensi job terminal sebelum disapu cleanup.
const JobRetention = 30 * 24 * time.Hour

var ErrJobNotFound = errors.New("Batch job not found")

// JobTransitionError: transisi status job ilegal
// (mis. cancel job yang sudah completed).
type JobTransitionError struct {
	Action  string
	Status  string
	Message string
}

func (e *JobTransitionError) Error() string { return e.Message }

// ErrNotInitiator: hanya pembuat job yang boleh membatalkan.
var ErrNotInitiator = errors.New("Only the job initiator may cancel it")

// BatchJobService melacak progres operasi multi-item yang memanggil lifecycle
// engine berulang (mis. generate report card massal). Counter monoton, persen
// dihitung ulang tiap update.
type BatchJobService struct {
	DB       *gorm.DB
	Notifier notifSvc.MarksNotifier
}

func NewBatchJobService(db *gorm.DB, notifier notifSvc.MarksNotifier) *BatchJobService {
	return &BatchJobService{DB: db, Notifier: notifier}
}

// CreateJob membuat job pending.
func (s *BatchJobService) CreateJob(schoolID, initiatorID uuid.UUID, jobType string, totalItems int) (*model.BatchJobModel, error) {
	if totalItems < 0 {
		totalItems = 0
	}
	job := model.BatchJobModel{
		BatchJobSchoolID:    schoolID,
		BatchJobType:        jobType,
		BatchJobStatus:      model.BatchJobStatusPending,
		BatchJobTotalItems:  totalItems,
		BatchJobInitiatorID: initiatorID,
	}
	if err := s.DB.Create(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// Start: pending → in_progress.
func (s *BatchJobService) Start(jobID uuid.UUID) error {
	now := time.Now()
	res := s.DB.Model(&model.BatchJobModel{}).
		Where("batch_job_id = ? AND batch_job_status = ?", jobID, model.BatchJobStatusPending).
		Updates(map[string]any{
			"batch_job_status":     model.BatchJobStatusInProgress,
			"batch_job_started_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.transitionErr(jobID, "start")
	}
	return nil
}

// UpdateProgress menambah counter (delta ≥ 0) dan menghitung ulang persen.
func (s *BatchJobService) UpdateProgress(jobID uuid.UUID, successDelta, failDelta int) error {
	if successDelta < 0 || failDelta < 0 {
		return fmt.Errorf("progress delta cannot be negative")
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.BatchJobModel{}).
			Where("batch_job_id = ? AND batch_job_status = ?", jobID, model.BatchJobStatusInProgress).
			Updates(map[string]any{
				"batch_job_processed_items":  gorm.Expr("batch_job_processed_items + ?", successDelta+failDelta),
				"batch_job_successful_items": gorm.Expr("batch_job_successful_items + ?", successDelta),
				"batch_job_failed_items":     gorm.Expr("batch_job_failed_items + ?", failDelta),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return s.transitionErrTx(tx, jobID, "update progress")
		}

		var job model.BatchJobModel
		if err := tx.First(&job, "batch_job_id = ?", jobID).Error; err != nil {
			return err
		}
		percent := 0.0
		if job.BatchJobTotalItems > 0 {
			percent = float64(job.BatchJobProcessedItems) / float64(job.BatchJobTotalItems) * 100
			if percent > 100 {
				percent = 100
			}
		}
		return tx.Model(&model.BatchJobModel{}).
			Where("batch_job_id = ?", jobID).
			Update("batch_job_percent", percent).Error
	})
}

// Complete: in_progress → completed + simpan ringkasan; notify initiator best-effort.
func (s *BatchJobService) Complete(jobID uuid.UUID, summary any) error {
	updates := map[string]any{
		"batch_job_status":       model.BatchJobStatusCompleted,
		"batch_job_completed_at": time.Now(),
	}
	if summary != nil {
		b, err := json.Marshal(summary)
		if err != nil {
			return err
		}
		updates["batch_job_result_summary"] = datatypes.JSON(b)
	}
	res := s.DB.Model(&model.BatchJobModel{}).
		Where("batch_job_id = ? AND batch_job_status = ?", jobID, model.BatchJobStatusInProgress).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.transitionErr(jobID, "complete")
	}
	s.notifyFinished(jobID, model.BatchJobStatusCompleted)
	return nil
}

// Fail: pending/in_progress → failed; notify initiator best-effort.
func (s *BatchJobService) Fail(jobID uuid.UUID, message string) error {
	res := s.DB.Model(&model.BatchJobModel{}).
		Where("batch_job_id = ? AND batch_job_status IN ?", jobID,
			[]string{model.BatchJobStatusPending, model.BatchJobStatusInProgress}).
		Updates(map[string]any{
			"batch_job_status":        model.BatchJobStatusFailed,
			"batch_job_error_message": message,
			"batch_job_completed_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.transitionErr(jobID, "fail")
	}
	s.notifyFinished(jobID, model.BatchJobStatusFailed)
	return nil
}

// Cancel: hanya pending/in_progress, dan hanya oleh initiator.
func (s *BatchJobService) Cancel(userID, schoolID, jobID uuid.UUID, ip string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var job model.BatchJobModel
		err := tx.Where("batch_job_id = ? AND batch_job_school_id = ?", jobID, schoolID).
			First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJobNotFound
		}
		if err != nil {
			return err
		}
		if job.BatchJobInitiatorID != userID {
			return ErrNotInitiator
		}
		if job.IsTerminal() {
			return &JobTransitionError{
				Action:  "cancel",
				Status:  job.BatchJobStatus,
				Message: fmt.Sprintf("Cannot cancel batch job with status: %s", job.BatchJobStatus),
			}
		}

		before := job
		res := tx.Model(&model.BatchJobModel{}).
			Where("batch_job_id = ? AND batch_job_status IN ?", jobID,
				[]string{model.BatchJobStatusPending, model.BatchJobStatusInProgress}).
			Updates(map[string]any{
				"batch_job_status":       model.BatchJobStatusCancelled,
				"batch_job_completed_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &JobTransitionError{
				Action:  "cancel",
				Status:  job.BatchJobStatus,
				Message: fmt.Sprintf("Cannot cancel batch job with status: %s", job.BatchJobStatus),
			}
		}

		if err := tx.First(&job, "batch_job_id = ?", jobID).Error; err != nil {
			return err
		}
		return auditSvc.Log(tx, auditSvc.Entry{
			SchoolID:   schoolID,
			UserID:     userID,
			Action:     auditModel.AuditActionCancel,
			EntityType: auditEntityBatchJob,
			EntityID:   jobID,
			Before:     before,
			After:      job,
			IPAddress:  ip,
		})
	})
}

// CleanupExpired menghapus job terminal yang lebih tua dari retensi.
func (s *BatchJobService) CleanupExpired() (int64, error) {
	cutoff := time.Now().Add(-JobRetention)
	res := s.DB.Where("batch_job_status IN ? AND batch_job_completed_at < ?",
		[]string{model.BatchJobStatusCompleted, model.BatchJobStatusFailed, model.BatchJobStatusCancelled},
		cutoff).
		Delete(&model.BatchJobModel{})
	return res.RowsAffected, res.Error
}

func (s *BatchJobService) notifyFinished(jobID uuid.UUID, outcome string) {
	if s.Notifier == nil {
		return
	}
	var job model.BatchJobModel
	if err := s.DB.First(&job, "batch_job_id = ?", jobID).Error; err != nil {
		log.Printf("[NOTIFY] load job %s: %v", jobID, err)
		return
	}
	if err := s.Notifier.NotifyJobFinished(job.BatchJobSchoolID, job.BatchJobInitiatorID,
		job.BatchJobType, outcome, job.BatchJobID); err != nil {
		log.Printf("[NOTIFY] job %s %s: %v", jobID, outcome, err)
	}
}

func (s *BatchJobService) transitionErr(jobID uuid.UUID, action string) error {
	return s.transitionErrTx(s.DB, jobID, action)
}

func (s *BatchJobService) transitionErrTx(tx *gorm.DB, jobID uuid.UUID, action string) error {
	var job model.BatchJobModel
	err := tx.First(&job, "batch_job_id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrJobNotFound
	}
	if err != nil {
		return err
	}
	return &JobTransitionError{
		Action:  action,
		Status:  job.BatchJobStatus,
		Message: fmt.Sprintf("Cannot %s batch job with status: %s", action, job.BatchJobStatus),
	}
}
