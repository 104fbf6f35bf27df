// Package client talks to the access service on behalf of the accessctl CLI:
// login, the verification endpoint and the admin re-check endpoint.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/edushare/internal/access"
	"github.com/spec-kit/edushare/internal/api/dto"
	"github.com/spec-kit/edushare/internal/domain"
	"github.com/spec-kit/edushare/internal/session"
)

// APIError is a non-2xx response carrying the service error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Client calls the access service.
type Client struct {
	baseURL string
	timeout time.Duration
}

// LoginResult is a credential plus the subject it was issued to.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Subject   domain.Subject
	Pending   bool
}

// New returns a client for baseURL. timeout bounds calls whose context has no deadline.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

// Login exchanges email and password for a credential.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var resp dto.Envelope[dto.SessionResponse]
	err := c.call(ctx, fiber.MethodPost, "/auth/login", "", dto.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	res := &LoginResult{Subject: subjectOf(resp.Data.User), Pending: resp.Data.Pending}
	if resp.Data.Auth != nil {
		res.Token = resp.Data.Auth.Token
		res.ExpiresAt = resp.Data.Auth.ExpiresAt
	}
	return res, nil
}

// FetchSubject calls the verification endpoint and returns the stored profile.
// A 401 is reported as session.ErrCredentialRejected.
func (c *Client) FetchSubject(ctx context.Context, token string) (domain.Subject, error) {
	var resp dto.Envelope[dto.MeResponse]
	if err := c.call(ctx, fiber.MethodGet, "/auth/me", token, nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == fiber.StatusUnauthorized {
			return domain.Subject{}, fmt.Errorf("%w: %s", session.ErrCredentialRejected, apiErr.Message)
		}
		return domain.Subject{}, err
	}
	return subjectOf(resp.Data.User), nil
}

// CheckAdmin calls the admin re-check endpoint. A 401 or 403 means the
// server no longer honours the admin claim and is not an error.
func (c *Client) CheckAdmin(ctx context.Context, token string) (access.AdminStatus, error) {
	var resp dto.Envelope[dto.AdminCheckResponse]
	if err := c.call(ctx, fiber.MethodGet, "/auth/admin-check", token, nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) &&
			(apiErr.Status == fiber.StatusUnauthorized || apiErr.Status == fiber.StatusForbidden) {
			return access.AdminStatus{ReloginAdvised: true}, nil
		}
		return access.AdminStatus{}, err
	}
	return access.AdminStatus{
		Confirmed:      resp.Data.Confirmed,
		ReloginAdvised: resp.Data.ReloginAdvised,
	}, nil
}

// Logout revokes token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.call(ctx, fiber.MethodPost, "/auth/logout", token, nil, nil)
}

func (c *Client) call(ctx context.Context, method, path, token string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("build request: %w", err)
	}
	agent.Timeout(timeout)
	if token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		agent.JSON(body)
	}

	status, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if status < 200 || status > 299 {
		return decodeError(status, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	apiErr := &APIError{Status: status, Code: "REQUEST_FAILED", Message: fiber.ErrInternalServerError.Message}
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Details = envelope.Error.Details
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

func subjectOf(u dto.UserResponse) domain.Subject {
	return domain.Subject{
		ID:            u.ID,
		Role:          domain.Role(u.Role),
		EmailVerified: u.EmailVerified,
		AdminVerified: u.AdminVerified,
	}
}
