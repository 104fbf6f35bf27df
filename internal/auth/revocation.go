package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/edushare/internal/domain"
)

const revokedKeyPrefix = "edushare:revoked:"

// RevocationList remembers credentials invalidated by logout until they expire.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevocationList stores revoked token IDs as expiring Redis keys.
type RedisRevocationList struct {
	client *redis.Client
}

// NewRedisRevocationList wraps a client.
func NewRedisRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{client: client}
}

func (l *RedisRevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return l.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

func (l *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Verifier checks signature, expiry and revocation.
type Verifier struct {
	tokens  *TokenManager
	revoked RevocationList
}

// NewVerifier constructs a Verifier. A nil revocation list skips the revocation check.
func NewVerifier(tokens *TokenManager, revoked RevocationList) *Verifier {
	return &Verifier{tokens: tokens, revoked: revoked}
}

// VerifyCredential implements access.CredentialVerifier.
// A revocation lookup failure rejects the credential.
func (v *Verifier) VerifyCredential(ctx context.Context, token string) (*domain.CredentialClaims, error) {
	claims, err := v.tokens.VerifyCredential(ctx, token)
	if err != nil {
		return nil, err
	}
	if v.revoked == nil {
		return claims, nil
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", domain.ErrMalformedCredential)
	}
	revoked, err := v.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, errors.Join(domain.ErrMalformedCredential, fmt.Errorf("revocation lookup: %w", err))
	}
	if revoked {
		return nil, domain.ErrRevokedCredential
	}
	return claims, nil
}

// Revoke invalidates a credential until its expiry.
func (v *Verifier) Revoke(ctx context.Context, claims *domain.CredentialClaims) error {
	if v.revoked == nil || claims == nil || claims.ID == "" {
		return nil
	}
	return v.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt)
}
