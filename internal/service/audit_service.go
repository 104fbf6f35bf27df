package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/edushare/internal/events"
	"github.com/spec-kit/edushare/internal/observability"
)

// AuditService writes access and account events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventAccessDenied, a.handleAccessDenied)
	a.dispatcher.Subscribe(events.EventCredentialRevoked, a.handleGeneric)
	a.dispatcher.Subscribe(events.EventUserSignedUp, a.handleGeneric)
	a.dispatcher.Subscribe(events.EventAdminApproved, a.handleGeneric)
	a.dispatcher.Subscribe(events.EventRoleChanged, a.handleGeneric)
}

func (a *AuditService) handleAccessDenied(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.AccessDeniedPayload)
	a.logger.Info("access_denied",
		zap.String("event_id", event.ID),
		zap.Stringp("subject_id", event.Actor.SubjectID),
		zap.String("role", string(event.Actor.Role)),
		zap.String("path", payload.Path),
		zap.String("reason", payload.Reason),
		zap.String("redirect", payload.Redirect))
	a.metrics.RecordError(payload.Path, "ACCESS", payload.Reason)
	return nil
}

func (a *AuditService) handleGeneric(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Stringp("subject_id", event.Actor.SubjectID),
		zap.String("role", string(event.Actor.Role)),
		zap.Any("payload", event.Payload))
	return nil
}
