package constants

import (
	"fmt"
	"strings"
)

// Role adalah tipe tertutup — jangan bandingkan string mentah dari token.
// Semua pengecekan hak akses lewat capability set di bawah.
type Role string

const (
	RoleStudent    Role = "student"
	RoleSponsor    Role = "sponsor"
	RoleTeacher    Role = "teacher"
	RolePrincipal  Role = "principal"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// ParseRole menormalkan string klaim token ke Role yang dikenal.
// Role asing → ("", false), biar typo di token gagal cepat, bukan lolos diam-diam.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleSponsor:
		return RoleSponsor, true
	case RoleTeacher:
		return RoleTeacher, true
	case RolePrincipal:
		return RolePrincipal, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleSuperAdmin:
		return RoleSuperAdmin, true
	}
	return "", false
}

// Capability adalah satu kemampuan fungsional, bukan nama role.
type Capability int

const (
	CapEnterMarks Capability = iota + 1 // entry & edit nilai, submit, hapus draft
	CapReviewMarks                      // approve / reject marksheet
	CapManageJobs                       // mulai & pantau batch job
	CapViewAudit                        // baca audit log
)

// capabilitySet per role — satu-satunya sumber kebenaran otorisasi.
var capabilitySet = map[Role]map[Capability]bool{
	RoleTeacher: {
		CapEnterMarks: true,
	},
	RolePrincipal: {
		CapReviewMarks: true,
		CapManageJobs:  true,
	},
	RoleAdmin: {
		CapEnterMarks:  true,
		CapReviewMarks: true,
		CapManageJobs:  true,
		CapViewAudit:   true,
	},
	RoleSuperAdmin: {
		CapEnterMarks:  true,
		CapReviewMarks: true,
		CapManageJobs:  true,
		CapViewAudit:   true,
	},
}

// Can mengecek satu role punya capability tertentu.
func (r Role) Can(cap Capability) bool {
	return capabilitySet[r][cap]
}

// RoleSet adalah kumpulan role milik satu user (dari klaim token).
type RoleSet []Role

// Has: salah satu role di set punya capability tsb.
func (rs RoleSet) Has(cap Capability) bool {
	for _, r := range rs {
		if r.Can(cap) {
			return true
		}
	}
	return false
}

// ==========================
// Template pesan error akses
// ==========================
const (
	ErrOnlyMarkEntryCanAccess = "Hanya teacher atau admin yang boleh mengakses fitur %s."
	ErrOnlyReviewerCanAccess  = "Hanya admin, super_admin, atau principal yang boleh mengakses fitur %s."
)

func RoleErrorMarkEntry(feature string) string {
	return fmt.Sprintf(ErrOnlyMarkEntryCanAccess, feature)
}

func RoleErrorReviewer(feature string) string {
	return fmt.Sprintf(ErrOnlyReviewerCanAccess, feature)
}
