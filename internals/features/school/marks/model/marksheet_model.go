package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status marksheet. Draft → submitted → approved/rejected.
// rejected boleh diedit & diajukan ulang; approved terminal & terkunci.
// Literal status dipertahankan apa adanya (Draft kapital, sisanya lowercase)
// karena sudah terlanjur dipakai klien & data lama.
const (
	MarksheetStatusDraft     = "Draft"
	MarksheetStatusSubmitted = "submitted"
	MarksheetStatusApproved  = "approved"
	MarksheetStatusRejected  = "rejected"
)

type MarksheetModel struct {
	MarksheetID uuid.UUID `gorm:"column:marksheet_id;type:uuid;primaryKey" json:"marksheet_id"`

	MarksheetSchoolID       uuid.UUID `gorm:"column:marksheet_school_id;type:uuid;not null;index" json:"marksheet_school_id"`
	MarksheetSubjectID      uuid.UUID `gorm:"column:marksheet_subject_id;type:uuid;not null;index" json:"marksheet_subject_id"`
	MarksheetAcademicYearID uuid.UUID `gorm:"column:marksheet_academic_year_id;type:uuid;not null;index" json:"marksheet_academic_year_id"`
	MarksheetEnrollmentID   uuid.UUID `gorm:"column:marksheet_enrollment_id;type:uuid;not null;index" json:"marksheet_enrollment_id"`
	MarksheetTerm           string    `gorm:"column:marksheet_term;type:varchar(20);not null" json:"marksheet_term"`

	// cache total dari child marks — dihitung ulang tiap bulk upsert,
	// sumber kebenaran tetap mark_max_marks per baris
	MarksheetMarksObtained float64 `gorm:"column:marksheet_marks_obtained;not null;default:0" json:"marksheet_marks_obtained"`
	MarksheetMaxMarks      float64 `gorm:"column:marksheet_max_marks;not null;default:0" json:"marksheet_max_marks"`

	MarksheetStatus  string  `gorm:"column:marksheet_status;type:varchar(20);not null;default:'Draft';index" json:"marksheet_status"`
	MarksheetRemarks *string `gorm:"column:marksheet_remarks;type:text" json:"marksheet_remarks,omitempty"`

	// diisi saat reject; dibiarkan apa adanya saat resubmit sebagai jejak revisi
	MarksheetRejectionComments *string `gorm:"column:marksheet_rejection_comments;type:text" json:"marksheet_rejection_comments,omitempty"`

	MarksheetSubmittedBy *uuid.UUID `gorm:"column:marksheet_submitted_by;type:uuid" json:"marksheet_submitted_by,omitempty"`
	MarksheetSubmittedAt *time.Time `gorm:"column:marksheet_submitted_at" json:"marksheet_submitted_at,omitempty"`
	MarksheetApprovedBy  *uuid.UUID `gorm:"column:marksheet_approved_by;type:uuid" json:"marksheet_approved_by,omitempty"`
	MarksheetApprovedAt  *time.Time `gorm:"column:marksheet_approved_at" json:"marksheet_approved_at,omitempty"`

	MarksheetIsLocked     bool       `gorm:"column:marksheet_is_locked;not null;default:false" json:"marksheet_is_locked"`
	MarksheetLastAutosave *time.Time `gorm:"column:marksheet_last_autosave" json:"marksheet_last_autosave,omitempty"`

	MarksheetCreatedBy uuid.UUID      `gorm:"column:marksheet_created_by;type:uuid;not null" json:"marksheet_created_by"`
	MarksheetCreatedAt time.Time      `gorm:"column:marksheet_created_at;not null;autoCreateTime" json:"marksheet_created_at"`
	MarksheetUpdatedAt time.Time      `gorm:"column:marksheet_updated_at;not null;autoUpdateTime" json:"marksheet_updated_at"`
	MarksheetDeletedAt gorm.DeletedAt `gorm:"column:marksheet_deleted_at;index" json:"-"`

	Marks []MarkModel `gorm:"foreignKey:MarkMarksheetID;references:MarksheetID" json:"marks,omitempty"`
}

func (MarksheetModel) TableName() string { return "marksheets" }

func (m *MarksheetModel) BeforeCreate(tx *gorm.DB) error {
	if m.MarksheetID == uuid.Nil {
		m.MarksheetID = uuid.New()
	}
	return nil
}

// IsEditable: edit/delete/submit hanya legal dari Draft atau rejected.
func (m *MarksheetModel) IsEditable() bool {
	return m.MarksheetStatus == MarksheetStatusDraft || m.MarksheetStatus == MarksheetStatusRejected
}
