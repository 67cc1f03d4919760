package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MarkModel: satu nilai per (marksheet, subject). Unik supaya upsert
// idempotent — entry ulang subject yang sama update in place.
type MarkModel struct {
	MarkID          uuid.UUID `gorm:"column:mark_id;type:uuid;primaryKey" json:"mark_id"`
	MarkMarksheetID uuid.UUID `gorm:"column:mark_marksheet_id;type:uuid;not null;uniqueIndex:uq_marks_marksheet_subject" json:"mark_marksheet_id"`
	MarkSubjectID   uuid.UUID `gorm:"column:mark_subject_id;type:uuid;not null;uniqueIndex:uq_marks_marksheet_subject" json:"mark_subject_id"`

	MarkMarksObtained float64 `gorm:"column:mark_marks_obtained;not null;default:0" json:"mark_marks_obtained"`
	MarkMaxMarks      float64 `gorm:"column:mark_max_marks;not null;default:100" json:"mark_max_marks"`
	MarkGrade         *string `gorm:"column:mark_grade;type:varchar(2)" json:"mark_grade,omitempty"`
	MarkRemarks       *string `gorm:"column:mark_remarks;type:text" json:"mark_remarks,omitempty"`

	MarkCreatedAt time.Time `gorm:"column:mark_created_at;not null;autoCreateTime" json:"mark_created_at"`
	MarkUpdatedAt time.Time `gorm:"column:mark_updated_at;not null;autoUpdateTime" json:"mark_updated_at"`
}

func (MarkModel) TableName() string { return "marks" }

func (m *MarkModel) BeforeCreate(tx *gorm.DB) error {
	if m.MarkID == uuid.Nil {
		m.MarkID = uuid.New()
	}
	return nil
}

// GradeFor: skala persentase A/B/C/D/F (≥80/≥60/≥50/≥40/sisanya).
func GradeFor(obtained, max float64) string {
	if max <= 0 {
		return "F"
	}
	pct := obtained / max * 100
	switch {
	case pct >= 80:
		return "A"
	case pct >= 60:
		return "B"
	case pct >= 50:
		return "C"
	case pct >= 40:
		return "D"
	default:
		return "F"
	}
}
