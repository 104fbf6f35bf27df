package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/edushare/internal/domain"
)

type fakeRevocations struct {
	revoked map[string]time.Time
	err     error
}

func (f *fakeRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	if f.revoked == nil {
		f.revoked = map[string]time.Time{}
	}
	f.revoked[id] = until
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.revoked[id]
	return ok, nil
}

func TestVerifierRevocation(t *testing.T) {
	ctx := context.Background()
	tm := NewTokenManager("secret", 60)
	list := &fakeRevocations{}
	v := NewVerifier(tm, list)

	token, exp, err := tm.GenerateToken("user-1", domain.RoleStudent)
	require.NoError(t, err)

	claims, err := v.VerifyCredential(ctx, token)
	require.NoError(t, err)

	require.NoError(t, v.Revoke(ctx, claims))
	assert.Equal(t, exp.Unix(), list.revoked[claims.ID].Unix())

	_, err = v.VerifyCredential(ctx, token)
	assert.ErrorIs(t, err, domain.ErrRevokedCredential)
}

func TestVerifierFailsClosedOnLookupError(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	v := NewVerifier(tm, &fakeRevocations{err: errors.New("redis down")})

	token, _, err := tm.GenerateToken("user-1", domain.RoleStudent)
	require.NoError(t, err)

	_, err = v.VerifyCredential(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrMalformedCredential)
}

func TestVerifierWithoutListSkipsRevocation(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	v := NewVerifier(tm, nil)

	token, _, err := tm.GenerateToken("user-1", domain.RoleStudent)
	require.NoError(t, err)

	claims, err := v.VerifyCredential(context.Background(), token)
	require.NoError(t, err)
	assert.NoError(t, v.Revoke(context.Background(), claims))
}
