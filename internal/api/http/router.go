package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/edushare/internal/api/http/handlers"
	"github.com/spec-kit/edushare/internal/auth"
	"github.com/spec-kit/edushare/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Access         *handlers.AccessHandler
	AdminUsers     *handlers.AdminUsersHandler
	EligibleUSNs   *handlers.EligibleUSNHandler
	Overview       *handlers.OverviewHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	mw := cfg.AuthMiddleware

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Get("/me", mw.Handle, cfg.Auth.Me)
	authGroup.Get("/debug-token", mw.Handle, cfg.Auth.DebugToken)
	authGroup.Post("/logout", mw.Handle, cfg.Auth.Logout)
	authGroup.Get("/admin-check", mw.Handle, mw.RequireRoles(domain.RoleAdmin), cfg.Auth.AdminCheck)

	accessGroup := app.Group("/access")
	accessGroup.Get("/routes", cfg.Access.Routes)
	accessGroup.Post("/check", cfg.Access.Check)

	api := app.Group("/api", mw.Handle)

	admin := api.Group("/admin", mw.RequireRoles(domain.RoleAdmin))
	admin.Get("/users", cfg.AdminUsers.List)
	admin.Patch("/users/:id", cfg.AdminUsers.Update)
	admin.Post("/users/:id/approve", cfg.AdminUsers.Approve)
	admin.Get("/eligible-usns", cfg.EligibleUSNs.List)
	admin.Post("/eligible-usns", cfg.EligibleUSNs.Create)
	admin.Delete("/eligible-usns", cfg.EligibleUSNs.Clear)

	api.Get("/faculty/overview", mw.RequireRoles(domain.RoleFaculty), cfg.Overview.Show)
	api.Get("/student/overview", mw.RequireRoles(domain.RoleStudent), cfg.Overview.Show)
}
