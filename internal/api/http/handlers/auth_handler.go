package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/edushare/internal/api/dto"
	"github.com/spec-kit/edushare/internal/auth"
	"github.com/spec-kit/edushare/internal/domain"
	"github.com/spec-kit/edushare/internal/service"
	apperrors "github.com/spec-kit/edushare/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and credential endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	role, ok := domain.ParseRole(strings.TrimSpace(req.Role))
	if !ok {
		return apperrors.NewValidationError("role must be one of student, faculty, admin", map[string]any{"role": req.Role})
	}

	res, err := h.auth.Signup(c.UserContext(), service.SignupInput{
		FullName:    req.FullName,
		Email:       req.Email,
		Password:    req.Password,
		Role:        role,
		USN:         req.USN,
		Department:  req.Department,
		Semester:    req.Semester,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.Envelope[dto.SessionResponse]{Data: sessionResponse(res)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope[dto.SessionResponse]{Data: sessionResponse(res)})
}

// Me handles GET /auth/me, the verification endpoint.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.auth.CurrentUser(c.UserContext(), principal.Subject.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope[dto.MeResponse]{Data: dto.MeResponse{
		User:      dto.NewUserResponse(user),
		Subject:   subjectClaims(principal),
		Timestamp: time.Now().UTC(),
	}})
}

// DebugToken handles GET /auth/debug-token.
func (h *AuthHandler) DebugToken(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	role := principal.Subject.Role
	return c.JSON(dto.Envelope[dto.DebugTokenResponse]{Data: dto.DebugTokenResponse{
		Subject:   subjectClaims(principal),
		IsAdmin:   role == domain.RoleAdmin,
		IsFaculty: role == domain.RoleFaculty,
		IsStudent: role == domain.RoleStudent,
		Timestamp: time.Now().UTC(),
	}})
}

// AdminCheck handles GET /auth/admin-check, the admin re-check endpoint.
func (h *AuthHandler) AdminCheck(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	status, user, err := h.auth.CheckAdmin(c.UserContext(), principal)
	if err != nil {
		return err
	}
	resp := dto.AdminCheckResponse{
		Confirmed:      status.Confirmed,
		ReloginAdvised: status.ReloginAdvised,
		Timestamp:      time.Now().UTC(),
	}
	if user != nil {
		u := dto.NewUserResponse(user)
		resp.User = &u
	}
	return c.JSON(dto.Envelope[dto.AdminCheckResponse]{Data: resp})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), principal); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RequestPasswordReset handles POST /auth/password/reset/request.
// The response is the same whether or not the email is registered.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	token, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	data := fiber.Map{"status": "requested"}
	if token != nil {
		data["reset_token"] = token.Token
		data["expires_at"] = token.ExpiresAt
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": data})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Token == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "token and new password required")
	}
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password updated"}})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func sessionResponse(res *service.AuthResult) dto.SessionResponse {
	resp := dto.SessionResponse{User: dto.NewUserResponse(res.User)}
	if res.Token == "" {
		resp.Pending = true
		return resp
	}
	resp.Auth = &dto.AuthResponse{Token: res.Token, ExpiresAt: res.ExpiresAt}
	return resp
}

func subjectClaims(p *auth.Principal) dto.SubjectClaims {
	claims := dto.SubjectClaims{
		ID:            p.Subject.ID,
		Role:          string(p.Subject.Role),
		EmailVerified: p.Subject.EmailVerified,
		AdminVerified: p.Subject.AdminVerified,
	}
	if p.Claims != nil {
		claims.IssuedAt = p.Claims.IssuedAt
		claims.ExpiresAt = p.Claims.ExpiresAt
	}
	return claims
}
