package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"student", RoleStudent, true},
		{"faculty", RoleFaculty, true},
		{"admin", RoleAdmin, true},
		{"", "", false},
		{"Admin", "", false},
		{"teacher", "", false},
		{" admin", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseRole(tc.raw)
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestJoinRoles(t *testing.T) {
	assert.Equal(t, "faculty or admin", JoinRoles([]Role{RoleFaculty, RoleAdmin}))
	assert.Equal(t, "", JoinRoles(nil))
}

func TestUserSubjectMasksAdminVerifiedForNonAdmins(t *testing.T) {
	u := &User{ID: "u1", Role: RoleFaculty, AdminVerified: true, EmailVerified: true}
	s := u.Subject()
	assert.False(t, s.AdminVerified)
	assert.True(t, s.EmailVerified)
	assert.False(t, s.IsAdmin())

	u.Role = RoleAdmin
	assert.True(t, u.Subject().AdminVerified)
}
