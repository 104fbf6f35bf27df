package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/edushare/internal/access"
	"github.com/spec-kit/edushare/internal/domain"
)

func TestRoutesCommandPrintsTable(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"routes"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	text := out.String()
	assert.Contains(t, text, "PATH")
	assert.Contains(t, text, "/faculty/dashboard")
	assert.Contains(t, text, "any authenticated")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "public", describe(access.Route{Pattern: "/", Public: true}))
	assert.Equal(t, "any authenticated", describe(access.Route{Pattern: "/profile"}))
	assert.Equal(t, "faculty, student", describe(access.Route{
		Pattern:     "/x",
		Requirement: access.Roles(domain.RoleFaculty, domain.RoleStudent),
	}))
	assert.Equal(t, "admin", describe(access.Route{Pattern: "/y", Requirement: access.Roles()}))
}
