package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/edushare/internal/access"
	"github.com/spec-kit/edushare/internal/domain"
	"github.com/spec-kit/edushare/internal/events"
	"github.com/spec-kit/edushare/internal/repository"
	apperrors "github.com/spec-kit/edushare/pkg/util/errorutil"
)

type middlewareFixture struct {
	app    *fiber.App
	tokens *TokenManager
	users  *repository.MemoryUserRepository
	denied []events.Event
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()
	fx := &middlewareFixture{
		tokens: NewTokenManager("secret", 60),
		users:  repository.NewMemoryUserRepository(),
	}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventAccessDenied, func(_ context.Context, e events.Event) error {
		fx.denied = append(fx.denied, e)
		return nil
	})

	mw := NewAuthMiddleware(MiddlewareDeps{
		Decider:    access.NewDecider(NewVerifier(fx.tokens, nil), access.DefaultHomeRoutes()),
		Users:      fx.users,
		Dispatcher: dispatcher,
	})

	fx.app = fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code, "message": de.Message, "details": de.Details})
		},
	})
	whoami := func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"id": p.Subject.ID, "role": p.Subject.Role})
	}
	fx.app.Get("/any", mw.Handle, whoami)
	fx.app.Get("/faculty", mw.Handle, mw.RequireRoles(domain.RoleFaculty), whoami)
	fx.app.Get("/staff", mw.Handle, mw.RequireRoles(domain.RoleFaculty, domain.RoleStudent), whoami)
	return fx
}

func (fx *middlewareFixture) user(t *testing.T, role domain.Role) (*domain.User, string) {
	t.Helper()
	u := &domain.User{FullName: "U", Email: string(role) + "@example.edu", Role: role, AdminVerified: role == domain.RoleAdmin}
	require.NoError(t, fx.users.Create(context.Background(), u))
	token, _, err := fx.tokens.GenerateToken(u.ID, role)
	require.NoError(t, err)
	return u, token
}

func (fx *middlewareFixture) get(t *testing.T, path, authHeader string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}
	resp, err := fx.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHandleRejectsMissingAndMalformedCredentials(t *testing.T) {
	fx := newMiddlewareFixture(t)

	status, body := fx.get(t, "/any", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "authentication required", body["message"])

	status, _ = fx.get(t, "/any", "Token abc")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = fx.get(t, "/any", "Bearer nonsense")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "invalid credential", body["message"])
}

func TestHandleRejectsUnknownUser(t *testing.T) {
	fx := newMiddlewareFixture(t)
	token, _, err := fx.tokens.GenerateToken("ghost", domain.RoleStudent)
	require.NoError(t, err)

	status, _ := fx.get(t, "/any", "Bearer "+token)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestPrincipalRoleComesFromCredential(t *testing.T) {
	fx := newMiddlewareFixture(t)
	u, token := fx.user(t, domain.RoleStudent)

	u.Role = domain.RoleFaculty
	require.NoError(t, fx.users.Update(context.Background(), u))

	status, body := fx.get(t, "/any", "Bearer "+token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "student", body["role"])

	status, _ = fx.get(t, "/faculty", "Bearer "+token)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestRequireRolesRedirectsToRoleHome(t *testing.T) {
	fx := newMiddlewareFixture(t)
	_, token := fx.user(t, domain.RoleStudent)

	status, body := fx.get(t, "/faculty", "Bearer "+token)
	require.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "This section requires faculty access", body["message"])
	details := body["details"].(map[string]any)
	assert.Equal(t, "/dashboard", details["redirect"])
	assert.Equal(t, []any{"faculty"}, details["required"])

	require.Len(t, fx.denied, 1)
	payload := fx.denied[0].Payload.(events.AccessDeniedPayload)
	assert.Equal(t, "/faculty", payload.Path)
	assert.Equal(t, "/dashboard", payload.Redirect)
}

func TestRequireRolesAllowsListedAndAdmin(t *testing.T) {
	fx := newMiddlewareFixture(t)
	_, student := fx.user(t, domain.RoleStudent)
	_, admin := fx.user(t, domain.RoleAdmin)

	status, _ := fx.get(t, "/staff", "Bearer "+student)
	assert.Equal(t, fiber.StatusOK, status)

	for _, path := range []string{"/faculty", "/staff", "/any"} {
		status, _ = fx.get(t, path, "Bearer "+admin)
		assert.Equal(t, fiber.StatusOK, status, path)
	}
	assert.Empty(t, fx.denied)
}

func TestRequireRolesLogsFailingDeniedHandler(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tokens := NewTokenManager("secret", 60)
	users := repository.NewMemoryUserRepository()
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventAccessDenied, func(context.Context, events.Event) error {
		return errors.New("audit sink unavailable")
	})
	mw := NewAuthMiddleware(MiddlewareDeps{
		Decider:    access.NewDecider(NewVerifier(tokens, nil), access.DefaultHomeRoutes()),
		Users:      users,
		Dispatcher: dispatcher,
		Logger:     zap.New(core),
	})
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Get("/faculty", mw.Handle, mw.RequireRoles(domain.RoleFaculty), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	u := &domain.User{FullName: "S", Email: "s@example.edu", Role: domain.RoleStudent}
	require.NoError(t, users.Create(context.Background(), u))
	token, _, err := tokens.GenerateToken(u.ID, domain.RoleStudent)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/faculty", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	warned := logs.FilterMessage("event handler failed").All()
	require.Len(t, warned, 1)
	fields := warned[0].ContextMap()
	assert.Equal(t, string(events.EventAccessDenied), fields["event_type"])
	assert.Equal(t, "audit sink unavailable", fields["error"])
}
