package access

import "github.com/spec-kit/edushare/internal/domain"

// Requirement is the set of roles a route permits.
// A nil *Requirement means any authenticated subject may pass.
// A non-nil Requirement with no roles is satisfied by admins only.
type Requirement struct {
	roles []domain.Role
}

// Roles builds a requirement from the given roles, dropping duplicates.
func Roles(roles ...domain.Role) *Requirement {
	seen := make(map[domain.Role]struct{}, len(roles))
	out := make([]domain.Role, 0, len(roles))
	for _, r := range roles {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return &Requirement{roles: out}
}

// Allowed returns a copy of the allowed roles.
func (r *Requirement) Allowed() []domain.Role {
	if r == nil {
		return nil
	}
	out := make([]domain.Role, len(r.roles))
	copy(out, r.roles)
	return out
}

// Permits reports whether role is listed. The admin super-role is applied by Authorize, not here.
func (r *Requirement) Permits(role domain.Role) bool {
	if r == nil {
		return true
	}
	for _, allowed := range r.roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// AdminOnly reports whether the requirement admits admins and nobody else,
// which includes the empty requirement.
func (r *Requirement) AdminOnly() bool {
	if r == nil {
		return false
	}
	for _, role := range r.roles {
		if role != domain.RoleAdmin {
			return false
		}
	}
	return true
}
