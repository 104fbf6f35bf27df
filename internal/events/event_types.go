package events

import (
	"time"

	"github.com/spec-kit/edushare/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccessDenied      EventType = "access_denied"
	EventCredentialRevoked EventType = "credential_revoked"
	EventUserSignedUp      EventType = "user_signed_up"
	EventAdminApproved     EventType = "admin_approved"
	EventRoleChanged       EventType = "role_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	SubjectID *string     `json:"subject_id,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services and guards.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AccessDeniedPayload payload.
type AccessDeniedPayload struct {
	Path     string        `json:"path"`
	Reason   string        `json:"reason"`
	Redirect string        `json:"redirect,omitempty"`
	Required []domain.Role `json:"required,omitempty"`
}

// CredentialRevokedPayload payload.
type CredentialRevokedPayload struct {
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserSignedUpPayload payload.
type UserSignedUpPayload struct {
	UserID        string      `json:"user_id"`
	Role          domain.Role `json:"role"`
	PendingReview bool        `json:"pending_review"`
}

// AdminApprovedPayload payload.
type AdminApprovedPayload struct {
	UserID string `json:"user_id"`
}

// RoleChangedPayload payload.
type RoleChangedPayload struct {
	UserID  string      `json:"user_id"`
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}
