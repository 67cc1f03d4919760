package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	auditModel "sekolahku_backend/internals/features/audit/model"
	auditSvc "sekolahku_backend/internals/features/audit/service"
	notifSvc "sekolahku_backend/internals/features/home/notifications/service"
	"sekolahku_backend/internals/features/school/marks/model"
)

const auditEntityMarksheet = "marksheet"

// Actor: identitas pelaku dari klaim token, dibawa masuk ke service.
type Actor struct {
	UserID   uuid.UUID
	SchoolID uuid.UUID
	Name     string
	IP       string
}

// MarksheetService memegang state machine marksheet:
// Draft → submitted → approved/rejected; rejected boleh diedit & submit ulang,
// approved terminal & terkunci.
//
// Semua mutasi: satu transaksi per operasi — load, cek guard, UPDATE kondisional
// (WHERE status lama), satu insert audit, commit. Guard dievaluasi ulang oleh
// UPDATE kondisional, jadi dua transisi beruntun pada baris yang sama: yang
// kalah melihat status hasil commit lawannya dan gagal guard (RowsAffected 0).
// Notifikasi dikirim SETELAH commit dan best-effort: gagal cuma di-log.
type MarksheetService struct {
	DB       *gorm.DB
	Notifier notifSvc.MarksNotifier
}

func NewMarksheetService(db *gorm.DB, notifier notifSvc.MarksNotifier) *MarksheetService {
	return &MarksheetService{DB: db, Notifier: notifier}
}

// CreateInput — referensi wajib untuk satu marksheet baru.
type CreateInput struct {
	SubjectID      uuid.UUID
	AcademicYearID uuid.UUID
	EnrollmentID   uuid.UUID
	Term           string
	Remarks        *string
}

// Create membuat marksheet baru berstatus Draft.
func (s *MarksheetService) Create(actor Actor, in CreateInput) (*model.MarksheetModel, error) {
	if in.SubjectID == uuid.Nil || in.AcademicYearID == uuid.Nil || in.EnrollmentID == uuid.Nil {
		return nil, &ValidationError{Field: "refs", Message: "Subject, academic year, and enrollment references are required"}
	}
	in.Term = strings.TrimSpace(in.Term)
	if in.Term == "" {
		return nil, &ValidationError{Field: "term", Message: "Term is required"}
	}

	m := model.MarksheetModel{
		MarksheetSchoolID:       actor.SchoolID,
		MarksheetSubjectID:      in.SubjectID,
		MarksheetAcademicYearID: in.AcademicYearID,
		MarksheetEnrollmentID:   in.EnrollmentID,
		MarksheetTerm:           in.Term,
		MarksheetStatus:         model.MarksheetStatusDraft,
		MarksheetRemarks:        in.Remarks,
		MarksheetCreatedBy:      actor.UserID,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		return auditSvc.Log(tx, auditSvc.Entry{
			SchoolID:   actor.SchoolID,
			UserID:     actor.UserID,
			Action:     auditModel.AuditActionCreate,
			EntityType: auditEntityMarksheet,
			EntityID:   m.MarksheetID,
			After:      m,
			IPAddress:  actor.IP,
		})
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateInput — field yang boleh diubah selama Draft/rejected.
type UpdateInput struct {
	Term    *string
	Remarks *string
}

// Update mengedit marksheet; hanya legal selama Draft atau rejected.
func (s *MarksheetService) Update(actor Actor, id uuid.UUID, in UpdateInput) (*model.MarksheetModel, error) {
	var m model.MarksheetModel
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.findForUpdate(tx, actor, id, &m); err != nil {
			return err
		}
		if !m.IsEditable() {
			return &TransitionError{
				Action:  "edit",
				Status:  m.MarksheetStatus,
				Message: fmt.Sprintf("Cannot edit marksheet with status: %s", m.MarksheetStatus),
			}
		}
		before := m

		updates := map[string]any{"marksheet_last_autosave": time.Now()}
		if in.Term != nil {
			t := strings.TrimSpace(*in.Term)
			if t == "" {
				return &ValidationError{Field: "term", Message: "Term is required"}
			}
			updates["marksheet_term"] = t
		}
		if in.Remarks != nil {
			updates["marksheet_remarks"] = *in.Remarks
		}

		res := tx.Model(&model.MarksheetModel{}).
			Where("marksheet_id = ? AND marksheet_status IN ?", id,
				[]string{model.MarksheetStatusDraft, model.MarksheetStatusRejected}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &TransitionError{
				Action:  "edit",
				Status:  m.MarksheetStatus,
				Message: fmt.Sprintf("Cannot edit marksheet with status: %s", m.MarksheetStatus),
			}
		}

		if err := tx.First(&m, "marksheet_id = ?", id).Error; err != nil {
			return err
		}
		return auditSvc.Log(tx, auditSvc.Entry{
			SchoolID:   actor.SchoolID,
			UserID:     actor.UserID,
			Action:     auditModel.AuditActionUpdate,
			EntityType: auditEntityMarksheet,
			EntityID:   id,
			Before:     before,
			After:      m,
			IPAddress:  actor.IP,
		})
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Submit: Draft/rejected → submitted. Wajib punya minimal satu Mark.
func (s *MarksheetService) Submit(actor Actor, id uuid.UUID) (*model.MarksheetModel, error) {
	var m model.MarksheetModel
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.findForUpdate(tx, actor, id, &m); err != nil {
			return err
		}
		if !m.IsEditable() {
			return &TransitionError{
				Action:  "submit",
				Status:  m.MarksheetStatus,
				Message: fmt.Sprintf("Cannot submit marksheet with status: %s", m.MarksheetStatus),
			}
		}

		var markCount int64
		if err := tx.Model(&model.MarkModel{}).
			Where("mark_marksheet_id = ?", id).
			Count(&markCount).Error; err != nil {
			return err
		}
		if markCount == 0 {
			return &ValidationError{Field: "marks", Message: "Cannot submit marksheet without any marks"}
		}

		before := m
		now := time.Now()
		res := tx.Model(&model.MarksheetModel{}).
			Where("marksheet_id = ? AND marksheet_status IN ?", id,
				[]string{model.MarksheetStatusDraft, model.MarksheetStatusRejected}).
			Updates(map[string]any{
				"marksheet_status":       model.MarksheetStatusSubmitted,
				"marksheet_submitted_by": actor.UserID,
				"marksheet_submitted_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &TransitionError{
				Action:  "submit",
				Status:  m.MarksheetStatus,
				Message: fmt.Sprintf("Cannot submit marksheet with status: %s", m.MarksheetStatus),
			}
		}

		if err := tx.First(&m, "marksheet_id = ?", id).Error; err != nil {
			return err
		}
		return auditSvc.Log(tx, auditSvc.Entry{
			SchoolID:   actor.SchoolID,
			UserID:     actor.UserID,
			Action:     auditModel.AuditActionSubmit,
			EntityType: auditEntityMarksheet,
			EntityID:   id,
			Before:     before,
			After:      m,
			IPAddress:  actor.IP,
		})
	})
	if err != nil {
		return nil, err
	}

	// best-effort, sesudah commit
	if nerr := s.Notifier.NotifySubmitted(actor.SchoolID, actor.Name, m.MarksheetSubjectID.String(), m.MarksheetID); nerr != nil {
		log.Printf("[NOTIFY] submit marksheet %s: %v", m.MarksheetID, nerr)
	}
	return &m, nil
}

// Approve: submitted → approved (terminal, terkunci).
func (s *MarksheetService) Approve(actor Actor, id uuid.UUID) (*model.MarksheetModel, error) {
	var m model.MarksheetModel
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.findForUpdate(tx, actor, id, &m); err != nil {
			return err
		}
		if m.MarksheetStatus != model.MarksheetStatusSubmitted {
			return &TransitionError{
				Action:  "approve",
				Status:  m.MarksheetStatus,
				Message: fmt.Sprintf("Cannot approve marksheet with status: %s", m.MarksheetStatus),
			}
		}

		before := m
		now := time.Now()
		res := tx.Model(&model.MarksheetModel{}).
			Where("marksheet_id = ? AND marksheet_status = ?", id, model.MarksheetStatusSubmitted).
			Updates(map[string]any{
				"marksheet_status":      model.MarksheetStatusApproved,
				"marksheet_approved_by": actor.UserID,
				"marksheet_approved_at": now,
				"marksheet_is_locked":   true,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &TransitionError{
				Action:  "approve",
				Status:  m.MarksheetStatus,
				Message: fmt.Sprintf("Cannot approve marksheet with status: %s", m.MarksheetStatus),
			}
		}

		if err := tx.First(&m, "marksheet_id = ?", id).Error; err != nil {
			return err
		}
		return auditSvc.Log(tx, auditSvc.Entry{
			SchoolID:   actor.SchoolID,
			UserID:     actor.UserID,
			Action:     auditModel.AuditActionApprove,
			EntityType: auditEntityMarksheet,
			EntityID:   id,
			Before:     before,
			After:      m,
			IPAddress:  actor.IP,
		})
	})
	if err != nil {
		return nil, err
	}

	if m.MarksheetSubmittedBy != nil {
		if nerr := s.Notifier.NotifyApproved(actor.SchoolID, *m.MarksheetSubmittedBy, m.MarksheetSubjectID.String(), m.MarksheetID); nerr != nil {
			log.Printf("[NOTIFY] approve marksheet %s: %v", m.MarksheetID, nerr)
		}
	}
	return &m, nil
}

// Reject: submitted → rejected. Alasan wajib, minimal 10 karakter setelah trim.
// Marksheet rejected boleh diedit dan diajukan ulang.
func (s *MarksheetService) Reject(actor Actor, id uuid.UUID, reason string) (*model.MarksheetModel, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) < 10 {
		return nil, &ValidationError{Field: "reason", Message: "Rejection reason must be at least 10 characters"}
	}

	var m model.MarksheetModel
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.findForUpdate(tx, actor, id, &m); err != nil {
			return err
		}
		if m.MarksheetStatus != model.MarksheetStatusSubmitted {
			return &TransitionError{
				Action:  "reject",
				Status:  m.MarksheetStatus,
				Message: fmt.Sprintf("Cannot reject marksheet with status: %s", m.MarksheetStatus),
			}
		}

		before := m
		now := time.Now()
		res := tx.Model(&model.MarksheetModel{}).
			Where("marksheet_id = ? AND marksheet_status = ?", id, model.MarksheetStatusSubmitted).
			Updates(map[string]any{
				"marksheet_status":             model.MarksheetStatusRejected,
				"marksheet_rejection_comments": reason,
				"marksheet_approved_by":        actor.UserID,
				"marksheet_approved_at":        now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &TransitionError{
				Action:  "reject",
				Status:  m.MarksheetStatus,
				Message: fmt.Sprintf("Cannot reject marksheet with status: %s", m.MarksheetStatus),
			}
		}

		if err := tx.First(&m, "marksheet_id = ?", id).Error; err != nil {
			return err
		}
		return auditSvc.Log(tx, auditSvc.Entry{
			SchoolID:   actor.SchoolID,
			UserID:     actor.UserID,
			Action:     auditModel.AuditActionReject,
			EntityType: auditEntityMarksheet,
			EntityID:   id,
			Before:     before,
			After:      m,
			IPAddress:  actor.IP,
		})
	})
	if err != nil {
		return nil, err
	}

	if m.MarksheetSubmittedBy != nil {
		if nerr := s.Notifier.NotifyRejected(actor.SchoolID, *m.MarksheetSubmittedBy, m.MarksheetSubjectID.String(), m.MarksheetID, reason); nerr != nil {
			log.Printf("[NOTIFY] reject marksheet %s: %v", m.MarksheetID, nerr)
		}
	}
	return &m, nil
}

// Delete menghapus marksheet Draft/rejected beserta child marks (cascade).
// Audit DELETE ditulis sebelum baris hilang, satu transaksi.
func (s *MarksheetService) Delete(actor Actor, id uuid.UUID) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var m model.MarksheetModel
		if err := s.findForUpdate(tx, actor, id, &m); err != nil {
			return err
		}
		if !m.IsEditable() {
			return &TransitionError{
				Action:  "delete",
				Status:  m.MarksheetStatus,
				Message: fmt.Sprintf("Cannot delete marksheet with status: %s", m.MarksheetStatus),
			}
		}

		if err := auditSvc.Log(tx, auditSvc.Entry{
			SchoolID:   actor.SchoolID,
			UserID:     actor.UserID,
			Action:     auditModel.AuditActionDelete,
			EntityType: auditEntityMarksheet,
			EntityID:   id,
			Before:     m,
			IPAddress:  actor.IP,
		}); err != nil {
			return err
		}

		if err := tx.Where("mark_marksheet_id = ?", id).
			Delete(&model.MarkModel{}).Error; err != nil {
			return err
		}

		res := tx.Where("marksheet_id = ? AND marksheet_status IN ?", id,
			[]string{model.MarksheetStatusDraft, model.MarksheetStatusRejected}).
			Delete(&model.MarksheetModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &TransitionError{
				Action:  "delete",
				Status:  m.MarksheetStatus,
				Message: fmt.Sprintf("Cannot delete marksheet with status: %s", m.MarksheetStatus),
			}
		}
		return nil
	})
}

// findForUpdate: lookup dalam transaksi, scoped ke sekolah actor.
func (s *MarksheetService) findForUpdate(tx *gorm.DB, actor Actor, id uuid.UUID, out *model.MarksheetModel) error {
	err := tx.
		Where("marksheet_id = ? AND marksheet_school_id = ?", id, actor.SchoolID).
		First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMarksheetNotFound
	}
	return err
}
