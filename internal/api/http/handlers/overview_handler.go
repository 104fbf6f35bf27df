package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/edushare/internal/access"
	"github.com/spec-kit/edushare/internal/api/dto"
)

// OverviewHandler serves the role dashboards.
type OverviewHandler struct {
	homes access.HomeRoutes
}

// NewOverviewHandler constructs handler.
func NewOverviewHandler(homes access.HomeRoutes) *OverviewHandler {
	return &OverviewHandler{homes: homes}
}

// Show handles GET /api/{faculty,student}/overview.
func (h *OverviewHandler) Show(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope[dto.OverviewResponse]{Data: dto.OverviewResponse{
		User: dto.NewUserResponse(principal.User),
		Home: h.homes.For(principal.Subject.Role),
	}})
}
