package service_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	auditModel "sekolahku_backend/internals/features/audit/model"
	"sekolahku_backend/internals/features/school/jobs/model"
	"sekolahku_backend/internals/features/school/jobs/service"
	marksModel "sekolahku_backend/internals/features/school/marks/model"
)

type fakeNotifier struct {
	finished []uuid.UUID
	outcomes []string
	failAll  bool
}

func (n *fakeNotifier) NotifySubmitted(schoolID uuid.UUID, teacherName, subjectLabel string, marksheetID uuid.UUID) error {
	return nil
}

func (n *fakeNotifier) NotifyApproved(schoolID uuid.UUID, submitterID uuid.UUID, subjectLabel string, marksheetID uuid.UUID) error {
	return nil
}

func (n *fakeNotifier) NotifyRejected(schoolID uuid.UUID, submitterID uuid.UUID, subjectLabel string, marksheetID uuid.UUID, comments string) error {
	return nil
}

func (n *fakeNotifier) NotifyJobFinished(schoolID uuid.UUID, initiatorID uuid.UUID, jobType, outcome string, jobID uuid.UUID) error {
	n.finished = append(n.finished, jobID)
	n.outcomes = append(n.outcomes, outcome)
	if n.failAll {
		return errors.New("notification channel down")
	}
	return nil
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.BatchJobModel{},
		&auditModel.AuditLogModel{},
		&marksModel.MarksheetModel{},
		&marksModel.MarkModel{},
	))
	return db
}

func TestJobLifecycleToCompleted(t *testing.T) {
	db := setupDB(t)
	notifier := &fakeNotifier{}
	svc := service.NewBatchJobService(db, notifier)
	schoolID, initiatorID := uuid.New(), uuid.New()

	job, err := svc.CreateJob(schoolID, initiatorID, model.BatchJobTypeReportCards, 4)
	require.NoError(t, err)
	assert.Equal(t, model.BatchJobStatusPending, job.BatchJobStatus)
	assert.Equal(t, 4, job.BatchJobTotalItems)

	require.NoError(t, svc.Start(job.BatchJobID))

	var got model.BatchJobModel
	require.NoError(t, db.First(&got, "batch_job_id = ?", job.BatchJobID).Error)
	assert.Equal(t, model.BatchJobStatusInProgress, got.BatchJobStatus)
	assert.NotNil(t, got.BatchJobStartedAt)

	require.NoError(t, svc.UpdateProgress(job.BatchJobID, 2, 0))
	require.NoError(t, svc.UpdateProgress(job.BatchJobID, 0, 1))

	require.NoError(t, db.First(&got, "batch_job_id = ?", job.BatchJobID).Error)
	assert.Equal(t, 3, got.BatchJobProcessedItems)
	assert.Equal(t, 2, got.BatchJobSuccessfulItems)
	assert.Equal(t, 1, got.BatchJobFailedItems)
	assert.InDelta(t, 75.0, got.BatchJobPercent, 0.001)

	require.NoError(t, svc.Complete(job.BatchJobID, map[string]any{"generated": 2}))
	require.NoError(t, db.First(&got, "batch_job_id = ?", job.BatchJobID).Error)
	assert.Equal(t, model.BatchJobStatusCompleted, got.BatchJobStatus)
	assert.NotNil(t, got.BatchJobCompletedAt)
	assert.NotEmpty(t, got.BatchJobResultSummary)
	assert.True(t, got.IsTerminal())

	assert.Equal(t, []uuid.UUID{job.BatchJobID}, notifier.finished)
	assert.Equal(t, []string{model.BatchJobStatusCompleted}, notifier.outcomes)
}

func TestStartOnlyFromPending(t *testing.T) {
	db := setupDB(t)
	svc := service.NewBatchJobService(db, &fakeNotifier{})
	job, err := svc.CreateJob(uuid.New(), uuid.New(), model.BatchJobTypeReportCards, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Start(job.BatchJobID))

	var tErr *service.JobTransitionError
	err = svc.Start(job.BatchJobID)
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "Cannot start batch job with status: in_progress", tErr.Message)

	require.ErrorIs(t, svc.Start(uuid.New()), service.ErrJobNotFound)
}

func TestUpdateProgressGuards(t *testing.T) {
	db := setupDB(t)
	svc := service.NewBatchJobService(db, &fakeNotifier{})
	job, err := svc.CreateJob(uuid.New(), uuid.New(), model.BatchJobTypeReportCards, 2)
	require.NoError(t, err)

	// delta negatif ditolak
	require.Error(t, svc.UpdateProgress(job.BatchJobID, -1, 0))

	// job belum in_progress
	var tErr *service.JobTransitionError
	require.ErrorAs(t, svc.UpdateProgress(job.BatchJobID, 1, 0), &tErr)

	// persen di-clamp 100 walau counter melebihi total
	require.NoError(t, svc.Start(job.BatchJobID))
	require.NoError(t, svc.UpdateProgress(job.BatchJobID, 3, 0))

	var got model.BatchJobModel
	require.NoError(t, db.First(&got, "batch_job_id = ?", job.BatchJobID).Error)
	assert.Equal(t, 100.0, got.BatchJobPercent)
}

func TestFailStoresErrorMessage(t *testing.T) {
	db := setupDB(t)
	notifier := &fakeNotifier{}
	svc := service.NewBatchJobService(db, notifier)
	job, err := svc.CreateJob(uuid.New(), uuid.New(), model.BatchJobTypeReportCards, 1)
	require.NoError(t, err)

	// pending langsung fail (mis. panic sebelum start)
	require.NoError(t, svc.Fail(job.BatchJobID, "boom"))

	var got model.BatchJobModel
	require.NoError(t, db.First(&got, "batch_job_id = ?", job.BatchJobID).Error)
	assert.Equal(t, model.BatchJobStatusFailed, got.BatchJobStatus)
	require.NotNil(t, got.BatchJobErrorMessage)
	assert.Equal(t, "boom", *got.BatchJobErrorMessage)
	assert.Equal(t, []string{model.BatchJobStatusFailed}, notifier.outcomes)

	// terminal tidak bisa fail lagi
	var tErr *service.JobTransitionError
	require.ErrorAs(t, svc.Fail(job.BatchJobID, "again"), &tErr)
}

func TestCancelRules(t *testing.T) {
	db := setupDB(t)
	svc := service.NewBatchJobService(db, &fakeNotifier{})
	schoolID, initiatorID := uuid.New(), uuid.New()

	job, err := svc.CreateJob(schoolID, initiatorID, model.BatchJobTypeReportCards, 5)
	require.NoError(t, err)

	// bukan initiator
	require.ErrorIs(t, svc.Cancel(uuid.New(), schoolID, job.BatchJobID, "10.0.0.1"), service.ErrNotInitiator)

	// sekolah lain tidak melihat job ini
	require.ErrorIs(t, svc.Cancel(initiatorID, uuid.New(), job.BatchJobID, "10.0.0.1"), service.ErrJobNotFound)

	// initiator boleh cancel dari pending
	require.NoError(t, svc.Cancel(initiatorID, schoolID, job.BatchJobID, "10.0.0.1"))

	var got model.BatchJobModel
	require.NoError(t, db.First(&got, "batch_job_id = ?", job.BatchJobID).Error)
	assert.Equal(t, model.BatchJobStatusCancelled, got.BatchJobStatus)
	assert.NotNil(t, got.BatchJobCompletedAt)

	// audit CANCEL tertulis
	var logs []auditModel.AuditLogModel
	require.NoError(t, db.Where("audit_log_action = ?", auditModel.AuditActionCancel).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, job.BatchJobID, logs[0].AuditLogEntityID)
	assert.Equal(t, initiatorID, logs[0].AuditLogUserID)

	// cancel ulang: sudah terminal
	var tErr *service.JobTransitionError
	require.ErrorAs(t, svc.Cancel(initiatorID, schoolID, job.BatchJobID, "10.0.0.1"), &tErr)
	assert.Equal(t, "Cannot cancel batch job with status: cancelled", tErr.Message)
}

func TestCleanupExpiredKeepsRecentAndRunning(t *testing.T) {
	db := setupDB(t)
	svc := service.NewBatchJobService(db, &fakeNotifier{})
	schoolID, initiatorID := uuid.New(), uuid.New()

	mkJob := func(status string, completedAgo time.Duration) uuid.UUID {
		job, err := svc.CreateJob(schoolID, initiatorID, model.BatchJobTypeReportCards, 1)
		require.NoError(t, err)
		updates := map[string]any{"batch_job_status": status}
		if completedAgo > 0 {
			updates["batch_job_completed_at"] = time.Now().Add(-completedAgo)
		}
		require.NoError(t, db.Model(&model.BatchJobModel{}).
			Where("batch_job_id = ?", job.BatchJobID).
			Updates(updates).Error)
		return job.BatchJobID
	}

	expired := mkJob(model.BatchJobStatusCompleted, service.JobRetention+time.Hour)
	expiredFailed := mkJob(model.BatchJobStatusFailed, service.JobRetention+time.Hour)
	recent := mkJob(model.BatchJobStatusCompleted, time.Hour)
	running := mkJob(model.BatchJobStatusInProgress, 0)

	removed, err := svc.CleanupExpired()
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	var ids []uuid.UUID
	require.NoError(t, db.Model(&model.BatchJobModel{}).Pluck("batch_job_id", &ids).Error)
	assert.ElementsMatch(t, []uuid.UUID{recent, running}, ids)
	assert.NotContains(t, ids, expired)
	assert.NotContains(t, ids, expiredFailed)
}

func seedApprovedMarksheet(t *testing.T, db *gorm.DB, schoolID uuid.UUID, obtained, max float64) *marksModel.MarksheetModel {
	t.Helper()
	m := marksModel.MarksheetModel{
		MarksheetSchoolID:       schoolID,
		MarksheetSubjectID:      uuid.New(),
		MarksheetAcademicYearID: uuid.New(),
		MarksheetEnrollmentID:   uuid.New(),
		MarksheetTerm:           "term-1",
		MarksheetMarksObtained:  obtained,
		MarksheetMaxMarks:       max,
		MarksheetStatus:         marksModel.MarksheetStatusApproved,
		MarksheetIsLocked:       true,
		MarksheetCreatedBy:      uuid.New(),
	}
	require.NoError(t, db.Create(&m).Error)
	return &m
}

func TestReportCardGenerationEndToEnd(t *testing.T) {
	db := setupDB(t)
	notifier := &fakeNotifier{}
	svc := service.NewBatchJobService(db, notifier)
	schoolID, initiatorID := uuid.New(), uuid.New()

	seedApprovedMarksheet(t, db, schoolID, 72, 100)
	seedApprovedMarksheet(t, db, schoolID, 85, 100)
	seedApprovedMarksheet(t, db, schoolID, 0, 0) // cache kosong → gagal per-item

	// Draft tidak ikut ter-generate
	draft := marksModel.MarksheetModel{
		MarksheetSchoolID:       schoolID,
		MarksheetSubjectID:      uuid.New(),
		MarksheetAcademicYearID: uuid.New(),
		MarksheetEnrollmentID:   uuid.New(),
		MarksheetTerm:           "term-1",
		MarksheetStatus:         marksModel.MarksheetStatusDraft,
		MarksheetCreatedBy:      uuid.New(),
	}
	require.NoError(t, db.Create(&draft).Error)

	job, err := svc.StartReportCardGeneration(schoolID, initiatorID, service.ReportCardFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, job.BatchJobTotalItems)

	var got model.BatchJobModel
	require.Eventually(t, func() bool {
		if err := db.First(&got, "batch_job_id = ?", job.BatchJobID).Error; err != nil {
			return false
		}
		return got.IsTerminal()
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, model.BatchJobStatusCompleted, got.BatchJobStatus)
	assert.Equal(t, 3, got.BatchJobProcessedItems)
	assert.Equal(t, 2, got.BatchJobSuccessfulItems)
	assert.Equal(t, 1, got.BatchJobFailedItems)
	assert.InDelta(t, 100.0, got.BatchJobPercent, 0.001)
	assert.Contains(t, string(got.BatchJobResultSummary), `"generated":2`)

	assert.Equal(t, []uuid.UUID{job.BatchJobID}, notifier.finished)
}
