package access

import "github.com/spec-kit/edushare/internal/domain"

// Outcome is the kind of verdict reached for a single check.
type Outcome string

const (
	OutcomeAllow               Outcome = "allow"
	OutcomeDenyRedirect        Outcome = "deny_redirect"
	OutcomeDenyUnauthenticated Outcome = "deny_unauthenticated"
)

// Reason records why a verdict was not Allow.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonMissingCredential   Reason = "missing_credential"
	ReasonMalformedCredential Reason = "malformed_credential"
	ReasonExpiredCredential   Reason = "expired_credential"
	ReasonRevokedCredential   Reason = "revoked_credential"
	ReasonInsufficientRole    Reason = "insufficient_role"
	ReasonUnknownRoute        Reason = "unknown_route"
)

// Verdict is the only thing callers of the decision procedure receive.
// Denial is a normal outcome, not an error.
type Verdict struct {
	Outcome  Outcome       `json:"verdict"`
	Target   string        `json:"target,omitempty"`
	Reason   Reason        `json:"reason,omitempty"`
	Required []domain.Role `json:"required,omitempty"`
}

// Allow grants access.
func Allow() Verdict {
	return Verdict{Outcome: OutcomeAllow}
}

// DenyRedirect sends the subject to target.
func DenyRedirect(target string, reason Reason, required []domain.Role) Verdict {
	return Verdict{Outcome: OutcomeDenyRedirect, Target: target, Reason: reason, Required: required}
}

// DenyUnauthenticated rejects a missing or invalid credential.
func DenyUnauthenticated(reason Reason) Verdict {
	return Verdict{Outcome: OutcomeDenyUnauthenticated, Reason: reason}
}

// Allowed reports whether the verdict grants access.
func (v Verdict) Allowed() bool {
	return v.Outcome == OutcomeAllow
}

// ClearsCredential reports whether the stored credential must be dropped.
func (v Verdict) ClearsCredential() bool {
	if v.Outcome != OutcomeDenyUnauthenticated {
		return false
	}
	switch v.Reason {
	case ReasonMalformedCredential, ReasonExpiredCredential, ReasonRevokedCredential:
		return true
	default:
		return false
	}
}
