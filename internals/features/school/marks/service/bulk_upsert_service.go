package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	auditModel "sekolahku_backend/internals/features/audit/model"
	auditSvc "sekolahku_backend/internals/features/audit/service"
	"sekolahku_backend/internals/features/school/marks/model"
)

// BulkEntryItem: satu baris input nilai per subject.
type BulkEntryItem struct {
	SubjectID     uuid.UUID `json:"subject_id"`
	MarksObtained float64   `json:"marks_obtained"`
	MaxMarks      float64   `json:"max_marks"`
	Remarks       *string   `json:"remarks,omitempty"`
}

// BulkEntryFailure: item yang ditolak, batch tetap lanjut.
type BulkEntryFailure struct {
	SubjectID uuid.UUID `json:"subject_id"`
	Reason    string    `json:"reason"`
}

// BulkEntryResult: kontrak batch best-effort yang eksplisit —
// len(Created)+len(Updated)+len(Failed) selalu == jumlah input.
type BulkEntryResult struct {
	Created []uuid.UUID        `json:"created"`
	Updated []uuid.UUID        `json:"updated"`
	Failed  []BulkEntryFailure `json:"failed"`
}

func (r BulkEntryResult) Counts() (created, updated, failed int) {
	return len(r.Created), len(r.Updated), len(r.Failed)
}

// BulkUpsertMarks: insert bila belum ada baris (marksheet, subject), else update
// in place. Item cacat (nilai negatif, melebihi max, max ≤ 0) masuk Failed tanpa
// membatalkan batch; error persistence membatalkan seluruh transaksi.
// Cache total marksheet dihitung ulang dari child rows (mark_max_marks kanonik).
func (s *MarksheetService) BulkUpsertMarks(actor Actor, marksheetID uuid.UUID, items []BulkEntryItem) (*BulkEntryResult, error) {
	result := &BulkEntryResult{
		Created: []uuid.UUID{},
		Updated: []uuid.UUID{},
		Failed:  []BulkEntryFailure{},
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var m model.MarksheetModel
		if err := s.findForUpdate(tx, actor, marksheetID, &m); err != nil {
			return err
		}
		if !m.IsEditable() {
			return &TransitionError{
				Action:  "edit",
				Status:  m.MarksheetStatus,
				Message: fmt.Sprintf("Cannot edit marksheet with status: %s", m.MarksheetStatus),
			}
		}

		for _, item := range items {
			if reason, ok := validateEntry(item); !ok {
				result.Failed = append(result.Failed, BulkEntryFailure{SubjectID: item.SubjectID, Reason: reason})
				continue
			}

			grade := model.GradeFor(item.MarksObtained, item.MaxMarks)

			var existing model.MarkModel
			err := tx.Where("mark_marksheet_id = ? AND mark_subject_id = ?", marksheetID, item.SubjectID).
				First(&existing).Error
			switch {
			case err == nil:
				updates := map[string]any{
					"mark_marks_obtained": item.MarksObtained,
					"mark_max_marks":      item.MaxMarks,
					"mark_grade":          grade,
				}
				if item.Remarks != nil {
					updates["mark_remarks"] = *item.Remarks
				}
				if err := tx.Model(&model.MarkModel{}).
					Where("mark_id = ?", existing.MarkID).
					Updates(updates).Error; err != nil {
					return err
				}
				result.Updated = append(result.Updated, item.SubjectID)
			case errors.Is(err, gorm.ErrRecordNotFound):
				row := model.MarkModel{
					MarkMarksheetID:   marksheetID,
					MarkSubjectID:     item.SubjectID,
					MarkMarksObtained: item.MarksObtained,
					MarkMaxMarks:      item.MaxMarks,
					MarkGrade:         &grade,
					MarkRemarks:       item.Remarks,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				result.Created = append(result.Created, item.SubjectID)
			default:
				return err
			}
		}

		// recompute cache total dari child rows
		type totals struct {
			Obtained float64
			Max      float64
		}
		var t totals
		if err := tx.Model(&model.MarkModel{}).
			Select("COALESCE(SUM(mark_marks_obtained),0) AS obtained, COALESCE(SUM(mark_max_marks),0) AS max").
			Where("mark_marksheet_id = ?", marksheetID).
			Scan(&t).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.MarksheetModel{}).
			Where("marksheet_id = ?", marksheetID).
			Updates(map[string]any{
				"marksheet_marks_obtained": t.Obtained,
				"marksheet_max_marks":      t.Max,
			}).Error; err != nil {
			return err
		}

		return auditSvc.Log(tx, auditSvc.Entry{
			SchoolID:   actor.SchoolID,
			UserID:     actor.UserID,
			Action:     auditModel.AuditActionUpdate,
			EntityType: auditEntityMarksheet,
			EntityID:   marksheetID,
			After:      result,
			IPAddress:  actor.IP,
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validateEntry(item BulkEntryItem) (string, bool) {
	if item.SubjectID == uuid.Nil {
		return "subject_id is required", false
	}
	if item.MaxMarks <= 0 {
		return "max_marks must be positive", false
	}
	if item.MarksObtained < 0 {
		return "marks_obtained cannot be negative", false
	}
	if item.MarksObtained > item.MaxMarks {
		return "marks_obtained cannot exceed max_marks", false
	}
	return "", true
}
