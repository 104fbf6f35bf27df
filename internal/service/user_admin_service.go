package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/edushare/internal/domain"
	"github.com/spec-kit/edushare/internal/events"
	"github.com/spec-kit/edushare/internal/repository"
	apperrors "github.com/spec-kit/edushare/pkg/util/errorutil"
)

// UserUpdate lists the fields an admin may change. Nil fields are left alone.
type UserUpdate struct {
	Role          *domain.Role
	AdminVerified *bool
	EmailVerified *bool
}

// UserAdminService backs the admin user-management endpoints.
type UserAdminService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewUserAdminService constructs the service.
func NewUserAdminService(users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *UserAdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserAdminService{users: users, dispatcher: dispatcher, logger: logger}
}

// List returns users matching filter.
func (s *UserAdminService) List(ctx context.Context, filter repository.UserFilter) ([]*domain.User, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(filter.Role)})
	}
	return s.users.List(ctx, filter)
}

// Update applies changes to a user. Admins cannot change their own role.
// Role changes take effect on the target's next login; existing credentials keep
// their role until then and the admin re-check reports them as unconfirmed.
func (s *UserAdminService) Update(ctx context.Context, actor domain.Subject, id string, upd UserUpdate) (*domain.User, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldRole := user.Role
	if upd.Role != nil {
		if !upd.Role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(*upd.Role)})
		}
		if user.ID == actor.ID && *upd.Role != user.Role {
			return nil, apperrors.NewForbidden("admins cannot change their own role", nil)
		}
		user.Role = *upd.Role
	}
	if upd.AdminVerified != nil {
		if user.ID == actor.ID && !*upd.AdminVerified {
			return nil, apperrors.NewForbidden("admins cannot revoke their own approval", nil)
		}
		user.AdminVerified = *upd.AdminVerified
	}
	if upd.EmailVerified != nil {
		user.EmailVerified = *upd.EmailVerified
	}
	if user.Role != domain.RoleAdmin {
		user.AdminVerified = false
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if oldRole != user.Role {
		s.publish(ctx, actor, events.EventRoleChanged, events.RoleChangedPayload{
			UserID: user.ID, OldRole: oldRole, NewRole: user.Role,
		})
	}
	return user, nil
}

// ApproveAdmin marks a pending admin as verified.
func (s *UserAdminService) ApproveAdmin(ctx context.Context, actor domain.Subject, id string) (*domain.User, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleAdmin {
		return nil, apperrors.NewValidationError("user is not an admin", map[string]any{"role": string(user.Role)})
	}
	if user.AdminVerified {
		return user, nil
	}

	user.AdminVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, actor, events.EventAdminApproved, events.AdminApprovedPayload{UserID: user.ID})
	return user, nil
}

func (s *UserAdminService) get(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, err
	}
	return user, nil
}

func (s *UserAdminService) publish(ctx context.Context, actor domain.Subject, typ events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	actorID := actor.ID
	if err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Actor:     events.Actor{SubjectID: &actorID, Role: actor.Role},
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(typ)), zap.Error(err))
	}
}
