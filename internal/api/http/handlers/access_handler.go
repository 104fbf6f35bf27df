package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/edushare/internal/access"
	"github.com/spec-kit/edushare/internal/api/dto"
	"github.com/spec-kit/edushare/internal/auth"
	"github.com/spec-kit/edushare/internal/observability"
)

// AccessHandler evaluates the client route table on behalf of a caller.
type AccessHandler struct {
	decider *access.Decider
	routes  *access.RouteTable
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAccessHandler constructs handler.
func NewAccessHandler(decider *access.Decider, routes *access.RouteTable, metrics *observability.Metrics, logger *zap.Logger) *AccessHandler {
	if routes == nil {
		routes = access.DefaultRouteTable()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessHandler{decider: decider, routes: routes, metrics: metrics, logger: logger}
}

// Routes handles GET /access/routes.
func (h *AccessHandler) Routes(c *fiber.Ctx) error {
	routes := h.routes.Routes()
	resp := make([]dto.RouteResponse, 0, len(routes))
	for _, r := range routes {
		resp = append(resp, dto.NewRouteResponse(r))
	}
	return c.JSON(dto.Envelope[[]dto.RouteResponse]{Data: resp})
}

// Check handles POST /access/check. The verdict is the response body; a
// denial is a normal outcome and is returned with 200.
func (h *AccessHandler) Check(c *fiber.Ctx) error {
	var req dto.AccessCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Path == "" {
		return fiber.NewError(http.StatusBadRequest, "path required")
	}

	verdict := h.evaluate(c, req.Path)
	h.metrics.RecordVerdict(string(verdict.Outcome), string(verdict.Reason))
	if !verdict.Allowed() {
		h.logger.Info("access check denied",
			zap.String("path", req.Path),
			zap.String("verdict", string(verdict.Outcome)),
			zap.String("reason", string(verdict.Reason)))
	}
	return c.JSON(dto.Envelope[dto.AccessCheckResponse]{Data: dto.NewAccessCheckResponse(req.Path, verdict)})
}

func (h *AccessHandler) evaluate(c *fiber.Ctx, path string) access.Verdict {
	route, ok := h.routes.Resolve(path)
	if !ok {
		return access.DenyRedirect(h.routes.Fallback(), access.ReasonUnknownRoute, nil)
	}
	if route.Public {
		return access.Allow()
	}
	token, err := auth.BearerToken(c)
	if err != nil {
		return access.DenyUnauthenticated(access.ReasonMalformedCredential)
	}
	return h.decider.Decide(c.UserContext(), token, route.Requirement).Verdict
}
