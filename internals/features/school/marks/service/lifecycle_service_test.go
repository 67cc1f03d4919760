package service_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	auditModel "sekolahku_backend/internals/features/audit/model"
	"sekolahku_backend/internals/features/school/marks/model"
	"sekolahku_backend/internals/features/school/marks/service"
)

// recordingNotifier: pengganti dispatcher asli di test — merekam panggilan,
// bisa dipaksa gagal untuk membuktikan kontrak best-effort.
type recordingNotifier struct {
	submitted []uuid.UUID
	approved  []uuid.UUID
	rejected  []uuid.UUID
	jobs      []uuid.UUID
	failAll   bool
}

func (n *recordingNotifier) err() error {
	if n.failAll {
		return errors.New("notification channel down")
	}
	return nil
}

func (n *recordingNotifier) NotifySubmitted(schoolID uuid.UUID, teacherName, subjectLabel string, marksheetID uuid.UUID) error {
	n.submitted = append(n.submitted, marksheetID)
	return n.err()
}

func (n *recordingNotifier) NotifyApproved(schoolID uuid.UUID, submitterID uuid.UUID, subjectLabel string, marksheetID uuid.UUID) error {
	n.approved = append(n.approved, marksheetID)
	return n.err()
}

func (n *recordingNotifier) NotifyRejected(schoolID uuid.UUID, submitterID uuid.UUID, subjectLabel string, marksheetID uuid.UUID, comments string) error {
	n.rejected = append(n.rejected, marksheetID)
	return n.err()
}

func (n *recordingNotifier) NotifyJobFinished(schoolID uuid.UUID, initiatorID uuid.UUID, jobType, outcome string, jobID uuid.UUID) error {
	n.jobs = append(n.jobs, jobID)
	return n.err()
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
		&model.MarksheetModel{},
		&model.MarkModel{},
		&auditModel.AuditLogModel{},
	))
	return db
}

func newActor() service.Actor {
	return service.Actor{
		UserID:   uuid.New(),
		SchoolID: uuid.New(),
		Name:     "Bu Ratna",
		IP:       "10.0.0.1",
	}
}

func newCreateInput() service.CreateInput {
	return service.CreateInput{
		SubjectID:      uuid.New(),
		AcademicYearID: uuid.New(),
		EnrollmentID:   uuid.New(),
		Term:           "term-1",
	}
}

func mustCreate(t *testing.T, svc *service.MarksheetService, actor service.Actor) *model.MarksheetModel {
	t.Helper()
	m, err := svc.Create(actor, newCreateInput())
	require.NoError(t, err)
	require.Equal(t, model.MarksheetStatusDraft, m.MarksheetStatus)
	return m
}

func addMark(t *testing.T, svc *service.MarksheetService, actor service.Actor, marksheetID uuid.UUID, obtained, max float64) {
	t.Helper()
	res, err := svc.BulkUpsertMarks(actor, marksheetID, []service.BulkEntryItem{
		{SubjectID: uuid.New(), MarksObtained: obtained, MaxMarks: max},
	})
	require.NoError(t, err)
	require.Empty(t, res.Failed)
}

func TestCreateStartsAsDraftWithAudit(t *testing.T) {
	db := setupDB(t)
	svc := service.NewMarksheetService(db, &recordingNotifier{})
	actor := newActor()

	m := mustCreate(t, svc, actor)
	assert.False(t, m.MarksheetIsLocked)
	assert.Equal(t, actor.UserID, m.MarksheetCreatedBy)

	var logs []auditModel.AuditLogModel
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, auditModel.AuditActionCreate, logs[0].AuditLogAction)
	assert.Equal(t, m.MarksheetID, logs[0].AuditLogEntityID)
	assert.Equal(t, actor.UserID, logs[0].AuditLogUserID)
	assert.NotEmpty(t, logs[0].AuditLogAfter)
}

func TestSubmitWithoutMarksFails(t *testing.T) {
	db := setupDB(t)
	notifier := &recordingNotifier{}
	svc := service.NewMarksheetService(db, notifier)
	actor := newActor()

	m := mustCreate(t, svc, actor)

	_, err := svc.Submit(actor, m.MarksheetID)
	var vErr *service.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Cannot submit marksheet without any marks", vErr.Message)

	// status tidak berubah, tidak ada notifikasi
	var got model.MarksheetModel
	require.NoError(t, db.First(&got, "marksheet_id = ?", m.MarksheetID).Error)
	assert.Equal(t, model.MarksheetStatusDraft, got.MarksheetStatus)
	assert.Empty(t, notifier.submitted)
}

func TestSubmitThenApproveLocksMarksheet(t *testing.T) {
	db := setupDB(t)
	notifier := &recordingNotifier{}
	svc := service.NewMarksheetService(db, notifier)
	teacher := newActor()

	m := mustCreate(t, svc, teacher)
	addMark(t, svc, teacher, m.MarksheetID, 72, 100)

	submitted, err := svc.Submit(teacher, m.MarksheetID)
	require.NoError(t, err)
	assert.Equal(t, model.MarksheetStatusSubmitted, submitted.MarksheetStatus)
	require.NotNil(t, submitted.MarksheetSubmittedBy)
	assert.Equal(t, teacher.UserID, *submitted.MarksheetSubmittedBy)
	assert.NotNil(t, submitted.MarksheetSubmittedAt)
	assert.Equal(t, []uuid.UUID{m.MarksheetID}, notifier.submitted)

	reviewer := service.Actor{UserID: uuid.New(), SchoolID: teacher.SchoolID, Name: "Pak Kepala"}
	approved, err := svc.Approve(reviewer, m.MarksheetID)
	require.NoError(t, err)
	assert.Equal(t, model.MarksheetStatusApproved, approved.MarksheetStatus)
	assert.True(t, approved.MarksheetIsLocked)
	require.NotNil(t, approved.MarksheetApprovedBy)
	assert.Equal(t, reviewer.UserID, *approved.MarksheetApprovedBy)
	assert.NotNil(t, approved.MarksheetApprovedAt)
	assert.Equal(t, []uuid.UUID{m.MarksheetID}, notifier.approved)

	// approved = terminal: edit, submit, delete semua ditolak
	var tErr *service.TransitionError

	_, err = svc.Update(reviewer, m.MarksheetID, service.UpdateInput{})
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "Cannot edit marksheet with status: approved", tErr.Message)

	_, err = svc.Submit(teacher, m.MarksheetID)
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "Cannot submit marksheet with status: approved", tErr.Message)

	err = svc.Delete(teacher, m.MarksheetID)
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "Cannot delete marksheet with status: approved", tErr.Message)

	// audit: CREATE, UPDATE (bulk), SUBMIT, APPROVE
	var actions []string
	require.NoError(t, db.Model(&auditModel.AuditLogModel{}).
		Order("audit_log_created_at ASC").
		Pluck("audit_log_action", &actions).Error)
	assert.Equal(t, []string{
		auditModel.AuditActionCreate,
		auditModel.AuditActionUpdate,
		auditModel.AuditActionSubmit,
		auditModel.AuditActionApprove,
	}, actions)
}

func TestApproveRequiresSubmittedStatus(t *testing.T) {
	db := setupDB(t)
	svc := service.NewMarksheetService(db, &recordingNotifier{})
	actor := newActor()

	m := mustCreate(t, svc, actor)

	var tErr *service.TransitionError
	_, err := svc.Approve(actor, m.MarksheetID)
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "Cannot approve marksheet with status: Draft", tErr.Message)

	// rejected juga bukan submitted
	addMark(t, svc, actor, m.MarksheetID, 40, 100)
	_, err = svc.Submit(actor, m.MarksheetID)
	require.NoError(t, err)
	_, err = svc.Reject(actor, m.MarksheetID, "Marks inconsistent with attendance")
	require.NoError(t, err)

	_, err = svc.Approve(actor, m.MarksheetID)
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "Cannot approve marksheet with status: rejected", tErr.Message)
}

func TestRejectValidatesReasonLength(t *testing.T) {
	db := setupDB(t)
	svc := service.NewMarksheetService(db, &recordingNotifier{})
	actor := newActor()

	m := mustCreate(t, svc, actor)
	addMark(t, svc, actor, m.MarksheetID, 55, 100)
	_, err := svc.Submit(actor, m.MarksheetID)
	require.NoError(t, err)

	var vErr *service.ValidationError
	_, err = svc.Reject(actor, m.MarksheetID, "too short")
	require.ErrorAs(t, err, &vErr)

	// trim dihitung: spasi tidak menyelamatkan alasan pendek
	_, err = svc.Reject(actor, m.MarksheetID, "   short    ")
	require.ErrorAs(t, err, &vErr)

	// masih submitted — alasan valid diterima
	got, err := svc.Reject(actor, m.MarksheetID, "Marks inconsistent with attendance")
	require.NoError(t, err)
	assert.Equal(t, model.MarksheetStatusRejected, got.MarksheetStatus)
	require.NotNil(t, got.MarksheetRejectionComments)
	assert.Equal(t, "Marks inconsistent with attendance", *got.MarksheetRejectionComments)
	assert.NotNil(t, got.MarksheetApprovedAt)
	assert.NotNil(t, got.MarksheetApprovedBy)
}

func TestRejectedMarksheetCanBeResubmitted(t *testing.T) {
	db := setupDB(t)
	notifier := &recordingNotifier{}
	svc := service.NewMarksheetService(db, notifier)
	actor := newActor()

	m := mustCreate(t, svc, actor)
	addMark(t, svc, actor, m.MarksheetID, 30, 100)
	_, err := svc.Submit(actor, m.MarksheetID)
	require.NoError(t, err)
	_, err = svc.Reject(actor, m.MarksheetID, "Marks inconsistent with attendance")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{m.MarksheetID}, notifier.rejected)

	// guru revisi nilai lalu submit ulang
	_, err = svc.Update(actor, m.MarksheetID, service.UpdateInput{})
	require.NoError(t, err)
	addMark(t, svc, actor, m.MarksheetID, 65, 100)

	again, err := svc.Submit(actor, m.MarksheetID)
	require.NoError(t, err)
	assert.Equal(t, model.MarksheetStatusSubmitted, again.MarksheetStatus)

	// siklus review baru: approve sekarang legal
	_, err = svc.Approve(actor, m.MarksheetID)
	require.NoError(t, err)
}

func TestNotifierFailureDoesNotRollBackTransition(t *testing.T) {
	db := setupDB(t)
	notifier := &recordingNotifier{failAll: true}
	svc := service.NewMarksheetService(db, notifier)
	actor := newActor()

	m := mustCreate(t, svc, actor)
	addMark(t, svc, actor, m.MarksheetID, 90, 100)

	got, err := svc.Submit(actor, m.MarksheetID)
	require.NoError(t, err)
	assert.Equal(t, model.MarksheetStatusSubmitted, got.MarksheetStatus)

	// transisi tetap commit meski channel notifikasi mati
	var fromDB model.MarksheetModel
	require.NoError(t, db.First(&fromDB, "marksheet_id = ?", m.MarksheetID).Error)
	assert.Equal(t, model.MarksheetStatusSubmitted, fromDB.MarksheetStatus)
}

func TestDeleteDraftCascadesMarksAndAudits(t *testing.T) {
	db := setupDB(t)
	svc := service.NewMarksheetService(db, &recordingNotifier{})
	actor := newActor()

	m := mustCreate(t, svc, actor)
	addMark(t, svc, actor, m.MarksheetID, 10, 100)
	addMark(t, svc, actor, m.MarksheetID, 20, 100)

	require.NoError(t, svc.Delete(actor, m.MarksheetID))

	var count int64
	require.NoError(t, db.Model(&model.MarksheetModel{}).
		Where("marksheet_id = ?", m.MarksheetID).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, db.Model(&model.MarkModel{}).
		Where("mark_marksheet_id = ?", m.MarksheetID).Count(&count).Error)
	assert.Zero(t, count)

	// audit DELETE tertulis sebelum baris hilang
	var logs []auditModel.AuditLogModel
	require.NoError(t, db.Where("audit_log_action = ?", auditModel.AuditActionDelete).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, m.MarksheetID, logs[0].AuditLogEntityID)
	assert.NotEmpty(t, logs[0].AuditLogBefore)
}

func TestLookupScopedToSchool(t *testing.T) {
	db := setupDB(t)
	svc := service.NewMarksheetService(db, &recordingNotifier{})
	actor := newActor()

	m := mustCreate(t, svc, actor)

	_, err := svc.Submit(actor, uuid.New())
	require.ErrorIs(t, err, service.ErrMarksheetNotFound)

	// sekolah lain tidak melihat marksheet ini
	stranger := newActor()
	_, err = svc.Submit(stranger, m.MarksheetID)
	require.ErrorIs(t, err, service.ErrMarksheetNotFound)
}
