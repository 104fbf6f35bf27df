// Package access decides whether a credential may reach a route.
//
// The procedure is the same on the server (Fiber route guards) and on the
// client (Guard): verify the credential, check its role against the route's
// requirement, and answer with a Verdict. Verification failures never escape
// as errors; they become DenyUnauthenticated verdicts.
package access

import (
	"context"
	"errors"

	"github.com/spec-kit/edushare/internal/domain"
)

// CredentialVerifier checks a credential's signature and expiry.
// It returns domain.ErrExpiredCredential, domain.ErrRevokedCredential or
// domain.ErrMalformedCredential (possibly wrapped) on failure.
type CredentialVerifier interface {
	VerifyCredential(ctx context.Context, token string) (*domain.CredentialClaims, error)
}

// Decision is a verdict plus whatever was learned about the subject on the way.
type Decision struct {
	Verdict Verdict
	Subject *domain.Subject
	Claims  *domain.CredentialClaims
}

// Decider runs the access decision procedure.
type Decider struct {
	verifier CredentialVerifier
	homes    HomeRoutes
}

// NewDecider constructs a Decider.
func NewDecider(verifier CredentialVerifier, homes HomeRoutes) *Decider {
	return &Decider{verifier: verifier, homes: homes}
}

// Homes returns the role home routes used for redirects.
func (d *Decider) Homes() HomeRoutes {
	return d.homes
}

// Decide evaluates token against req. An empty token is an absent credential.
// It holds no state between calls.
func (d *Decider) Decide(ctx context.Context, token string, req *Requirement) Decision {
	if token == "" {
		return Decision{Verdict: DenyUnauthenticated(ReasonMissingCredential)}
	}

	claims, err := d.verifier.VerifyCredential(ctx, token)
	if err != nil {
		return Decision{Verdict: DenyUnauthenticated(reasonFor(err))}
	}
	if claims == nil || claims.SubjectID == "" {
		return Decision{Verdict: DenyUnauthenticated(ReasonMalformedCredential)}
	}

	role, ok := domain.ParseRole(claims.RawRole)
	if !ok {
		return Decision{Verdict: DenyUnauthenticated(ReasonMalformedCredential), Claims: claims}
	}

	subject := domain.Subject{ID: claims.SubjectID, Role: role}
	return Decision{
		Verdict: Authorize(subject, req, d.homes),
		Subject: &subject,
		Claims:  claims,
	}
}

// Authorize applies the role checks to an already authenticated subject.
func Authorize(subject domain.Subject, req *Requirement, homes HomeRoutes) Verdict {
	if req == nil {
		return Allow()
	}
	if subject.IsAdmin() {
		return Allow()
	}
	if req.Permits(subject.Role) {
		return Allow()
	}
	return DenyRedirect(homes.For(subject.Role), ReasonInsufficientRole, req.Allowed())
}

func reasonFor(err error) Reason {
	switch {
	case errors.Is(err, domain.ErrExpiredCredential):
		return ReasonExpiredCredential
	case errors.Is(err, domain.ErrRevokedCredential):
		return ReasonRevokedCredential
	default:
		return ReasonMalformedCredential
	}
}
