package dto

import (
	"strings"

	"github.com/google/uuid"

	"sekolahku_backend/internals/features/school/marks/service"
)

/* =========================================================
   ENTRY (create marksheet + nilai sekaligus)
   ========================================================= */

type MarkEntryItemRequest struct {
	SubjectID     uuid.UUID `json:"subject_id" validate:"required"`
	MarksObtained float64   `json:"marks_obtained"`
	MaxMarks      float64   `json:"max_marks"`
	Remarks       *string   `json:"remarks"`
}

type MarksEntryRequest struct {
	SubjectID      uuid.UUID `json:"subject_id" validate:"required"`
	AcademicYearID uuid.UUID `json:"academic_year_id" validate:"required"`
	EnrollmentID   uuid.UUID `json:"enrollment_id" validate:"required"`
	Term           string    `json:"term" validate:"required,min=1,max=40"`
	Remarks        *string   `json:"remarks"`

	Marks []MarkEntryItemRequest `json:"marks" validate:"dive"`
}

func (r *MarksEntryRequest) Normalize() {
	r.Term = strings.TrimSpace(r.Term)
	if r.Remarks != nil {
		v := strings.TrimSpace(*r.Remarks)
		if v == "" {
			r.Remarks = nil
		} else {
			r.Remarks = &v
		}
	}
	for i := range r.Marks {
		if r.Marks[i].MaxMarks == 0 {
			// default lama dari sistem sebelumnya; max kanonik tetap per-mark
			r.Marks[i].MaxMarks = 100
		}
	}
}

func (r *MarksEntryRequest) ToCreateInput() service.CreateInput {
	return service.CreateInput{
		SubjectID:      r.SubjectID,
		AcademicYearID: r.AcademicYearID,
		EnrollmentID:   r.EnrollmentID,
		Term:           r.Term,
		Remarks:        r.Remarks,
	}
}

func (r *MarksEntryRequest) ToBulkItems() []service.BulkEntryItem {
	items := make([]service.BulkEntryItem, 0, len(r.Marks))
	for _, m := range r.Marks {
		items = append(items, service.BulkEntryItem{
			SubjectID:     m.SubjectID,
			MarksObtained: m.MarksObtained,
			MaxMarks:      m.MaxMarks,
			Remarks:       m.Remarks,
		})
	}
	return items
}

/* =========================================================
   BULK ENTRY ke marksheet yang sudah ada
   ========================================================= */

type BulkMarksRequest struct {
	Marks []MarkEntryItemRequest `json:"marks" validate:"required,min=1,dive"`
}

func (r *BulkMarksRequest) Normalize() {
	for i := range r.Marks {
		if r.Marks[i].MaxMarks == 0 {
			r.Marks[i].MaxMarks = 100
		}
	}
}

func (r *BulkMarksRequest) ToBulkItems() []service.BulkEntryItem {
	items := make([]service.BulkEntryItem, 0, len(r.Marks))
	for _, m := range r.Marks {
		items = append(items, service.BulkEntryItem{
			SubjectID:     m.SubjectID,
			MarksObtained: m.MarksObtained,
			MaxMarks:      m.MaxMarks,
			Remarks:       m.Remarks,
		})
	}
	return items
}

/* =========================================================
   UPDATE / REJECT
   ========================================================= */

type UpdateMarksheetRequest struct {
	Term    *string `json:"term" validate:"omitempty,min=1,max=40"`
	Remarks *string `json:"remarks"`
}

func (r *UpdateMarksheetRequest) ToUpdateInput() service.UpdateInput {
	return service.UpdateInput{
		Term:    r.Term,
		Remarks: r.Remarks,
	}
}

type RejectMarksheetRequest struct {
	Reason string `json:"reason" validate:"required"`
}
