package access

import (
	"github.com/spec-kit/edushare/internal/config"
	"github.com/spec-kit/edushare/internal/domain"
)

// HomeRoutes maps a subject to the page it is sent to after a role rejection.
type HomeRoutes struct {
	Student   string
	Faculty   string
	AuthEntry string
}

// DefaultHomeRoutes returns the stock client routes.
func DefaultHomeRoutes() HomeRoutes {
	return HomeRoutes{
		Student:   "/dashboard",
		Faculty:   "/faculty/dashboard",
		AuthEntry: "/auth/login",
	}
}

// HomeRoutesFromConfig applies configured overrides on top of the defaults.
func HomeRoutesFromConfig(cfg config.AccessConfig) HomeRoutes {
	homes := DefaultHomeRoutes()
	if cfg.StudentHome != "" {
		homes.Student = cfg.StudentHome
	}
	if cfg.FacultyHome != "" {
		homes.Faculty = cfg.FacultyHome
	}
	if cfg.AuthEntry != "" {
		homes.AuthEntry = cfg.AuthEntry
	}
	return homes
}

// For returns the home route for role.
func (h HomeRoutes) For(role domain.Role) string {
	switch role {
	case domain.RoleFaculty:
		return h.Faculty
	case domain.RoleStudent:
		return h.Student
	default:
		return h.AuthEntry
	}
}
