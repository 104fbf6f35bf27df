package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/edushare/internal/access"
	"github.com/spec-kit/edushare/internal/auth"
	"github.com/spec-kit/edushare/internal/config"
	"github.com/spec-kit/edushare/internal/domain"
	"github.com/spec-kit/edushare/internal/events"
	"github.com/spec-kit/edushare/internal/repository"
	apperrors "github.com/spec-kit/edushare/pkg/util/errorutil"
)

var errInvalidCredentials = apperrors.NewUnauthorized("invalid email or password")

// SignupInput carries the fields accepted at registration.
type SignupInput struct {
	FullName    string
	Email       string
	Password    string
	Role        domain.Role
	USN         *string
	Department  *string
	Semester    *int
	PhoneNumber *string
}

// AuthResult is a user plus a freshly issued credential. Token is empty when
// the account exists but may not log in yet.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration, login and credential checks.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	verifier   *auth.Verifier
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Tokens            *auth.TokenManager
	Verifier          *auth.Verifier
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	verifier := deps.Verifier
	if verifier == nil {
		verifier = auth.NewVerifier(deps.Tokens, nil)
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   deps.Tokens,
		verifier:   verifier,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		resetTTL:   time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute,
		now:        time.Now,
	}
}

// Signup creates an account. Students get a credential immediately; the first
// admin is approved automatically, later admins wait for approval and get no credential.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateSignup(in); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		USN:          in.USN,
		Department:   in.Department,
		Semester:     in.Semester,
		PhoneNumber:  in.PhoneNumber,
	}
	create := s.users.Create
	if in.Role == domain.RoleAdmin {
		create = s.users.CreateAdmin
	}
	if err := create(ctx, user); err != nil {
		return nil, err
	}

	pending := user.Role == domain.RoleAdmin && !user.AdminVerified
	s.publish(ctx, events.EventUserSignedUp, user.ID, user.Role, events.UserSignedUpPayload{
		UserID: user.ID, Role: user.Role, PendingReview: pending,
	})
	s.logger.Info("user signed up", zap.String("user_id", user.ID),
		zap.String("role", user.Role.String()), zap.Bool("pending_review", pending))

	if pending {
		return &AuthResult{User: user}, nil
	}
	return s.issue(user)
}

// Login authenticates a user and issues a credential bound to the stored role.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, errInvalidCredentials
	}
	if user.Role == domain.RoleAdmin && !user.AdminVerified {
		return nil, apperrors.NewForbidden("admin account awaiting approval", map[string]any{
			"pending": true,
		})
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

// CurrentUser backs the verification endpoint.
func (s *AuthService) CurrentUser(ctx context.Context, subjectID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, err
	}
	return user, nil
}

// CheckAdmin reports whether the store still honours the principal's admin claim.
func (s *AuthService) CheckAdmin(ctx context.Context, principal *auth.Principal) (access.AdminStatus, *domain.User, error) {
	user, err := s.users.GetByID(ctx, principal.Subject.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return access.AdminStatus{ReloginAdvised: true}, nil, nil
		}
		return access.AdminStatus{}, nil, err
	}
	confirmed := principal.Subject.IsAdmin() && user.Role == domain.RoleAdmin && user.AdminVerified
	return access.AdminStatus{Confirmed: confirmed, ReloginAdvised: !confirmed}, user, nil
}

// Logout revokes the credential until it expires.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) error {
	if err := s.verifier.Revoke(ctx, principal.Claims); err != nil {
		return apperrors.NewInternalError(err)
	}
	if principal.Claims != nil {
		s.publish(ctx, events.EventCredentialRevoked, principal.Subject.ID, principal.Subject.Role,
			events.CredentialRevokedPayload{TokenID: principal.Claims.ID, ExpiresAt: principal.Claims.ExpiresAt})
	}
	return nil
}

// RequestPasswordReset persists a reset token for the account behind email.
// Unknown emails yield (nil, nil) so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordResetToken, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	token := &domain.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("invalid reset token", nil)
		}
		return err
	}
	if token.UsedAt != nil || s.now().After(token.ExpiresAt) {
		return apperrors.NewValidationError("reset token expired or used", nil)
	}

	if _, err := s.users.GetByID(ctx, token.UserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("invalid reset token", nil)
		}
		return err
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.resets.Redeem(ctx, token.ID, hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("reset token expired or used", nil)
		}
		return err
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, typ events.EventType, subjectID string, role domain.Role, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Actor:     events.Actor{SubjectID: &subjectID, Role: role},
		Timestamp: s.now().UTC(),
		Payload:   payload,
	}); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(typ)), zap.Error(err))
	}
}

const minPasswordLength = 8

func validateSignup(in SignupInput) error {
	details := map[string]any{}
	if in.FullName == "" {
		details["fullName"] = "required"
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		details["email"] = "valid email required"
	}
	if len(in.Password) < minPasswordLength {
		details["password"] = "at least 8 characters"
	}
	if !in.Role.Valid() {
		details["role"] = "must be student, faculty or admin"
	}
	if in.Role == domain.RoleStudent && (in.USN == nil || strings.TrimSpace(*in.USN) == "") {
		details["usn"] = "required for students"
	}
	if in.Semester != nil && (*in.Semester < 1 || *in.Semester > 8) {
		details["semester"] = "must be between 1 and 8"
	}
	if len(details) > 0 {
		return apperrors.NewDomainError("VALIDATION_FAILED", "invalid signup", http.StatusBadRequest, details)
	}
	return nil
}
