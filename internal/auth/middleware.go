package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/edushare/internal/access"
	"github.com/spec-kit/edushare/internal/domain"
	"github.com/spec-kit/edushare/internal/events"
	"github.com/spec-kit/edushare/internal/observability"
	"github.com/spec-kit/edushare/internal/repository"
	apperrors "github.com/spec-kit/edushare/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
// Subject.Role always comes from the credential; the profile flags come from the user store.
type Principal struct {
	Subject domain.Subject
	Claims  *domain.CredentialClaims
	User    *domain.User
	Token   string
}

// AuthMiddleware is the server-side route guard.
type AuthMiddleware struct {
	decider    *access.Decider
	users      repository.UserRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// MiddlewareDeps bundles AuthMiddleware collaborators. Dispatcher, Metrics and Logger are optional.
type MiddlewareDeps struct {
	Decider    *access.Decider
	Users      repository.UserRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(deps MiddlewareDeps) *AuthMiddleware {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		decider:    deps.Decider,
		users:      deps.Users,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Handle authenticates the caller: the decision procedure with no role requirement.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := BearerToken(c)
	if err != nil {
		m.metrics.RecordVerdict(string(access.OutcomeDenyUnauthenticated), string(access.ReasonMalformedCredential))
		return apperrors.NewUnauthorized(err.Error())
	}

	decision := m.decider.Decide(c.UserContext(), token, nil)
	m.metrics.RecordVerdict(string(decision.Verdict.Outcome), string(decision.Verdict.Reason))
	if !decision.Verdict.Allowed() {
		m.logger.Info("request unauthenticated",
			zap.String("path", c.Path()), zap.String("reason", string(decision.Verdict.Reason)))
		return unauthenticated(decision.Verdict.Reason)
	}

	user, err := m.users.GetByID(c.UserContext(), decision.Subject.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}

	subject := user.Subject()
	subject.Role = decision.Subject.Role
	subject.AdminVerified = subject.IsAdmin() && user.AdminVerified

	c.Locals(principalKey, &Principal{
		Subject: subject,
		Claims:  decision.Claims,
		User:    user,
		Token:   token,
	})
	return c.Next()
}

// BearerToken extracts the credential from the Authorization header.
// A missing header yields an empty token and no error.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

func unauthenticated(reason access.Reason) error {
	switch reason {
	case access.ReasonMissingCredential:
		return apperrors.NewUnauthorized("authentication required")
	case access.ReasonExpiredCredential:
		return apperrors.NewUnauthorized("credential expired")
	case access.ReasonRevokedCredential:
		return apperrors.NewUnauthorized("credential revoked")
	default:
		return apperrors.NewUnauthorized("invalid credential")
	}
}
