package service

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"sekolahku_backend/internals/features/school/jobs/model"
	marksModel "sekolahku_backend/internals/features/school/marks/model"
)

// ReportCardFilter membatasi marksheet mana yang di-generate.
type ReportCardFilter struct {
	AcademicYearID uuid.UUID
	Term           string // kosong = semua term
}

// ReportCardLine: ringkasan satu marksheet approved — hasil job, bukan dokumen.
type ReportCardLine struct {
	MarksheetID  uuid.UUID `json:"marksheet_id"`
	EnrollmentID uuid.UUID `json:"enrollment_id"`
	SubjectID    uuid.UUID `json:"subject_id"`
	Term         string    `json:"term"`
	Obtained     float64   `json:"obtained"`
	MaxMarks     float64   `json:"max_marks"`
	Grade        string    `json:"grade"`
}

// StartReportCardGeneration membuat job pending lalu menjalankan runner di
// goroutine. Job row adalah satu-satunya permukaan progres; pemanggil cukup
// polling GET /jobs/:id.
func (s *BatchJobService) StartReportCardGeneration(schoolID, initiatorID uuid.UUID, f ReportCardFilter) (*model.BatchJobModel, error) {
	q := s.DB.Model(&marksModel.MarksheetModel{}).
		Where("marksheet_school_id = ? AND marksheet_status = ?", schoolID, marksModel.MarksheetStatusApproved)
	if f.AcademicYearID != uuid.Nil {
		q = q.Where("marksheet_academic_year_id = ?", f.AcademicYearID)
	}
	if f.Term != "" {
		q = q.Where("marksheet_term = ?", f.Term)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	job, err := s.CreateJob(schoolID, initiatorID, model.BatchJobTypeReportCards, int(total))
	if err != nil {
		return nil, err
	}

	go s.runReportCards(job.BatchJobID, schoolID, f)
	return job, nil
}

func (s *BatchJobService) runReportCards(jobID, schoolID uuid.UUID, f ReportCardFilter) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[JOB] report cards %s panic: %v", jobID, r)
			_ = s.Fail(jobID, fmt.Sprintf("panic: %v", r))
		}
	}()

	if err := s.Start(jobID); err != nil {
		// kemungkinan besar sudah di-cancel sebelum mulai
		log.Printf("[JOB] report cards %s tidak bisa start: %v", jobID, err)
		return
	}

	q := s.DB.
		Where("marksheet_school_id = ? AND marksheet_status = ?", schoolID, marksModel.MarksheetStatusApproved)
	if f.AcademicYearID != uuid.Nil {
		q = q.Where("marksheet_academic_year_id = ?", f.AcademicYearID)
	}
	if f.Term != "" {
		q = q.Where("marksheet_term = ?", f.Term)
	}

	var sheets []marksModel.MarksheetModel
	if err := q.Order("marksheet_created_at ASC").Find(&sheets).Error; err != nil {
		_ = s.Fail(jobID, err.Error())
		return
	}

	lines := make([]ReportCardLine, 0, len(sheets))
	for _, sheet := range sheets {
		// cek cancel di tengah jalan
		if cancelled, err := s.isCancelled(jobID); err == nil && cancelled {
			log.Printf("[JOB] report cards %s dibatalkan di tengah jalan", jobID)
			return
		}

		if sheet.MarksheetMaxMarks <= 0 {
			_ = s.UpdateProgress(jobID, 0, 1)
			continue
		}
		lines = append(lines, ReportCardLine{
			MarksheetID:  sheet.MarksheetID,
			EnrollmentID: sheet.MarksheetEnrollmentID,
			SubjectID:    sheet.MarksheetSubjectID,
			Term:         sheet.MarksheetTerm,
			Obtained:     sheet.MarksheetMarksObtained,
			MaxMarks:     sheet.MarksheetMaxMarks,
			Grade:        marksModel.GradeFor(sheet.MarksheetMarksObtained, sheet.MarksheetMaxMarks),
		})
		if err := s.UpdateProgress(jobID, 1, 0); err != nil {
			log.Printf("[JOB] report cards %s progress: %v", jobID, err)
			return
		}
	}

	if err := s.Complete(jobID, map[string]any{
		"generated": len(lines),
		"lines":     lines,
	}); err != nil {
		log.Printf("[JOB] report cards %s complete: %v", jobID, err)
	}
}

func (s *BatchJobService) isCancelled(jobID uuid.UUID) (bool, error) {
	var job model.BatchJobModel
	err := s.DB.Select("batch_job_status").
		First(&job, "batch_job_id = ?", jobID).Error
	return job.BatchJobStatus == model.BatchJobStatusCancelled, err
}
