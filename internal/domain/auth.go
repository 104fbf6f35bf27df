package domain

import (
	"errors"
	"time"
)

var (
	// ErrMalformedCredential covers decode, signature and shape failures.
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrExpiredCredential is returned for credentials past their expiry.
	ErrExpiredCredential = errors.New("expired credential")
	// ErrRevokedCredential is returned for credentials invalidated by logout.
	ErrRevokedCredential = errors.New("revoked credential")
)

// Subject is the authenticated principal.
// AdminVerified is meaningful only when Role is RoleAdmin.
type Subject struct {
	ID            string `json:"id"`
	Role          Role   `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
	AdminVerified bool   `json:"adminVerified"`
}

// IsAdmin reports whether the subject holds the admin super-role.
func (s Subject) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// CredentialClaims is the verified but not yet role-checked payload of a credential.
// RawRole is kept as issued so that a missing or unknown role stays observable.
type CredentialClaims struct {
	ID        string
	SubjectID string
	RawRole   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
