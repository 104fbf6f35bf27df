package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/edushare/internal/config"
	"github.com/spec-kit/edushare/internal/domain"
)

func TestRouteTableResolve(t *testing.T) {
	table := DefaultRouteTable()

	r, ok := table.Resolve("/auth/login")
	assert.True(t, ok)
	assert.True(t, r.Public)

	r, ok = table.Resolve("/auth")
	assert.True(t, ok)
	assert.True(t, r.Public)

	r, ok = table.Resolve("/admin/dashboard/?tab=users")
	assert.True(t, ok)
	assert.True(t, r.Requirement.AdminOnly())

	r, ok = table.Resolve("/profile")
	assert.True(t, ok)
	assert.False(t, r.Public)
	assert.Nil(t, r.Requirement)

	r, ok = table.Resolve("")
	assert.True(t, ok)
	assert.Equal(t, "/", r.Pattern)

	_, ok = table.Resolve("/authors")
	assert.False(t, ok)
	_, ok = table.Resolve("/does-not-exist")
	assert.False(t, ok)
	assert.Equal(t, "/", table.Fallback())
}

func TestHomeRoutesFromConfig(t *testing.T) {
	homes := HomeRoutesFromConfig(config.AccessConfig{FacultyHome: "/staff"})
	assert.Equal(t, "/staff", homes.For(domain.RoleFaculty))
	assert.Equal(t, "/dashboard", homes.For(domain.RoleStudent))
	assert.Equal(t, "/auth/login", homes.For(domain.RoleAdmin))
}
