package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/edushare/internal/api/dto"
	"github.com/spec-kit/edushare/internal/domain"
	"github.com/spec-kit/edushare/internal/repository"
	"github.com/spec-kit/edushare/internal/service"
)

// AdminUsersHandler exposes user management to admins.
type AdminUsersHandler struct {
	users *service.UserAdminService
}

// NewAdminUsersHandler constructs handler.
func NewAdminUsersHandler(users *service.UserAdminService) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

// List handles GET /api/admin/users.
func (h *AdminUsersHandler) List(c *fiber.Ctx) error {
	filter := repository.UserFilter{
		Role:                 domain.Role(c.Query("role")),
		PendingAdminApproval: c.QueryBool("pending", false),
		Limit:                c.QueryInt("limit", 50),
		Offset:               c.QueryInt("offset", 0),
	}
	users, err := h.users.List(c.UserContext(), filter)
	if err != nil {
		return err
	}

	resp := dto.UserListResponse{Users: make([]dto.UserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, dto.NewUserResponse(u))
		if u.Role == domain.RoleAdmin && !u.AdminVerified {
			resp.PendingApprovals++
		}
	}
	return c.JSON(dto.Envelope[dto.UserListResponse]{Data: resp})
}

// Update handles PATCH /api/admin/users/:id.
func (h *AdminUsersHandler) Update(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	upd := service.UserUpdate{
		AdminVerified: req.IsAdminVerified,
		EmailVerified: req.IsEmailVerified,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		upd.Role = &role
	}

	user, err := h.users.Update(c.UserContext(), principal.Subject, c.Params("id"), upd)
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope[dto.UserResponse]{Data: dto.NewUserResponse(user)})
}

// Approve handles POST /api/admin/users/:id/approve.
func (h *AdminUsersHandler) Approve(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.users.ApproveAdmin(c.UserContext(), principal.Subject, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope[dto.UserResponse]{Data: dto.NewUserResponse(user)})
}
