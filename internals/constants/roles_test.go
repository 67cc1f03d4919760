package constants_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sekolahku_backend/internals/constants"
)

func TestParseRoleNormalizesAndRejectsUnknown(t *testing.T) {
	r, ok := constants.ParseRole("  Teacher ")
	assert.True(t, ok)
	assert.Equal(t, constants.RoleTeacher, r)

	r, ok = constants.ParseRole("SUPER_ADMIN")
	assert.True(t, ok)
	assert.Equal(t, constants.RoleSuperAdmin, r)

	// role asing gagal cepat, tidak diam-diam jadi role kosong yang "valid"
	_, ok = constants.ParseRole("guru")
	assert.False(t, ok)
	_, ok = constants.ParseRole("")
	assert.False(t, ok)
}

func TestCapabilityMatrix(t *testing.T) {
	// teacher: entry saja
	assert.True(t, constants.RoleTeacher.Can(constants.CapEnterMarks))
	assert.False(t, constants.RoleTeacher.Can(constants.CapReviewMarks))
	assert.False(t, constants.RoleTeacher.Can(constants.CapViewAudit))

	// principal: review + jobs, tanpa entry
	assert.True(t, constants.RolePrincipal.Can(constants.CapReviewMarks))
	assert.True(t, constants.RolePrincipal.Can(constants.CapManageJobs))
	assert.False(t, constants.RolePrincipal.Can(constants.CapEnterMarks))

	// student & sponsor: read-only portal, tanpa capability marks
	for _, r := range []constants.Role{constants.RoleStudent, constants.RoleSponsor} {
		for _, c := range []constants.Capability{
			constants.CapEnterMarks, constants.CapReviewMarks,
			constants.CapManageJobs, constants.CapViewAudit,
		} {
			assert.False(t, r.Can(c), "role=%s cap=%d", r, c)
		}
	}
}

func TestRoleSetHasAnyMatch(t *testing.T) {
	rs := constants.RoleSet{constants.RoleSponsor, constants.RoleTeacher}
	assert.True(t, rs.Has(constants.CapEnterMarks))
	assert.False(t, rs.Has(constants.CapReviewMarks))
	assert.False(t, constants.RoleSet{}.Has(constants.CapEnterMarks))
}
