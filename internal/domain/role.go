package domain

import "strings"

// Role is the closed set of roles a subject may hold.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleStudent, RoleFaculty, RoleAdmin}

// ParseRole maps a raw claim onto the closed role set.
// Matching is exact; "Admin" or " admin" are not roles.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return Role(raw), true
	default:
		return "", false
	}
}

// Valid reports whether r belongs to the role set.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

func (r Role) String() string {
	return string(r)
}

// JoinRoles renders roles for user-facing messages, e.g. "faculty or admin".
func JoinRoles(roles []Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, " or ")
}
