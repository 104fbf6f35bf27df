package auth

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/edushare/internal/access"
	"github.com/spec-kit/edushare/internal/domain"
	"github.com/spec-kit/edushare/internal/events"
	apperrors "github.com/spec-kit/edushare/pkg/util/errorutil"
)

// RequireRoles admits principals whose role is listed; admins always pass.
// It must run after Handle.
func (m *AuthMiddleware) RequireRoles(roles ...domain.Role) fiber.Handler {
	req := access.Roles(roles...)

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}

		verdict := access.Authorize(principal.Subject, req, m.decider.Homes())
		m.metrics.RecordVerdict(string(verdict.Outcome), string(verdict.Reason))
		if verdict.Allowed() {
			return c.Next()
		}

		m.logger.Info("request denied",
			zap.String("path", c.Path()),
			zap.String("subject_id", principal.Subject.ID),
			zap.String("role", principal.Subject.Role.String()),
			zap.String("redirect", verdict.Target))
		m.publishDenied(c.UserContext(), principal, c.Path(), verdict)

		required := make([]string, 0, len(verdict.Required))
		for _, r := range verdict.Required {
			required = append(required, string(r))
		}
		return apperrors.NewForbidden(access.RejectionMessage(verdict.Required), map[string]any{
			"redirect": verdict.Target,
			"required": required,
		})
	}
}

func (m *AuthMiddleware) publishDenied(ctx context.Context, principal *Principal, path string, verdict access.Verdict) {
	if m.dispatcher == nil {
		return
	}
	subjectID := principal.Subject.ID
	if err := m.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAccessDenied,
		Actor:     events.Actor{SubjectID: &subjectID, Role: principal.Subject.Role},
		Timestamp: time.Now().UTC(),
		Payload: events.AccessDeniedPayload{
			Path:     path,
			Reason:   string(verdict.Reason),
			Redirect: verdict.Target,
			Required: verdict.Required,
		},
	}); err != nil {
		m.logger.Warn("event handler failed",
			zap.String("event_type", string(events.EventAccessDenied)), zap.Error(err))
	}
}
