package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/edushare/internal/api/dto"
	"github.com/spec-kit/edushare/internal/repository"
	"github.com/spec-kit/edushare/internal/service"
	apperrors "github.com/spec-kit/edushare/pkg/util/errorutil"
)

// EligibleUSNHandler exposes the eligible USN registry to admins.
type EligibleUSNHandler struct {
	usns *service.EligibleUSNService
}

// NewEligibleUSNHandler constructs handler.
func NewEligibleUSNHandler(usns *service.EligibleUSNService) *EligibleUSNHandler {
	return &EligibleUSNHandler{usns: usns}
}

// List handles GET /api/admin/eligible-usns?department=&semester=&isUsed=.
func (h *EligibleUSNHandler) List(c *fiber.Ctx) error {
	filter := repository.EligibleUSNFilter{Department: c.Query("department")}
	if raw := c.Query("semester"); raw != "" {
		semester, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.NewValidationError("semester must be a number", map[string]any{"semester": raw})
		}
		filter.Semester = &semester
	}
	if raw := c.Query("isUsed"); raw != "" {
		used := raw == "true"
		filter.IsUsed = &used
	}

	entries, err := h.usns.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	resp := dto.EligibleUSNListResponse{EligibleUSNs: make([]dto.EligibleUSNResponse, 0, len(entries))}
	for _, e := range entries {
		resp.EligibleUSNs = append(resp.EligibleUSNs, dto.NewEligibleUSNResponse(e))
	}
	return c.JSON(dto.Envelope[dto.EligibleUSNListResponse]{Data: resp})
}

// Create handles POST /api/admin/eligible-usns.
func (h *EligibleUSNHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.EligibleUSNRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	entry, err := h.usns.Add(c.UserContext(), principal.Subject, service.EligibleUSNInput{
		USN:        req.USN,
		Department: req.Department,
		Semester:   req.Semester,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.Envelope[dto.EligibleUSNResponse]{Data: dto.NewEligibleUSNResponse(entry)})
}

// Clear handles DELETE /api/admin/eligible-usns?all=true.
func (h *EligibleUSNHandler) Clear(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	n, err := h.usns.Clear(c.UserContext(), principal.Subject, c.QueryBool("all", false))
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope[dto.DeletedResponse]{Data: dto.DeletedResponse{Deleted: n}})
}
