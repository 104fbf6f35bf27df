package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/edushare/internal/domain"
)

type fetcherFunc func(ctx context.Context, token string) (domain.Subject, error)

func (f fetcherFunc) FetchSubject(ctx context.Context, token string) (domain.Subject, error) {
	return f(ctx, token)
}

func TestLoginPersistsAndOpenRestores(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := New("tab-1", store, nil)

	subject := domain.Subject{ID: "u1", Role: domain.RoleFaculty, EmailVerified: true}
	require.NoError(t, s.Login(ctx, "tok-1", subject, time.Now().Add(time.Hour)))

	restored, err := Open(ctx, "tab-1", store, nil)
	require.NoError(t, err)
	snap := restored.Snapshot()
	assert.Equal(t, "tok-1", snap.Token)
	require.NotNil(t, snap.Subject)
	assert.Equal(t, subject, *snap.Subject)
}

func TestOpenClearsCorruptProfile(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "tab:token", "tok", 0))
	require.NoError(t, store.Set(ctx, "tab:user", "{not json", 0))

	s, err := Open(ctx, "tab", store, nil)
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot().Token)

	_, ok, err := store.Get(ctx, "tab:token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogoutCancelsContextAndBumpsGeneration(t *testing.T) {
	ctx := context.Background()
	s := New("tab", NewMemoryStore(), nil)
	require.NoError(t, s.Login(ctx, "tok", domain.Subject{ID: "u1", Role: domain.RoleAdmin}, time.Time{}))

	sessCtx := s.Context()
	gen := s.Snapshot().Generation
	assert.True(t, s.IsCurrent(gen))

	require.NoError(t, s.Logout(ctx))

	assert.Error(t, sessCtx.Err())
	assert.False(t, s.IsCurrent(gen))
	assert.Empty(t, s.Snapshot().Token)
	assert.Nil(t, s.Snapshot().Subject)
}

func TestReloginInvalidatesOldGeneration(t *testing.T) {
	ctx := context.Background()
	s := New("tab", NewMemoryStore(), nil)
	require.NoError(t, s.Login(ctx, "tok-a", domain.Subject{ID: "a", Role: domain.RoleAdmin}, time.Time{}))
	gen := s.Snapshot().Generation

	require.NoError(t, s.Login(ctx, "tok-b", domain.Subject{ID: "b", Role: domain.RoleStudent}, time.Time{}))
	assert.False(t, s.IsCurrent(gen))
}

func TestRefreshUpdatesFlagsButKeepsCredentialRole(t *testing.T) {
	ctx := context.Background()
	s := New("tab", NewMemoryStore(), nil)
	require.NoError(t, s.Login(ctx, "tok", domain.Subject{ID: "u1", Role: domain.RoleStudent}, time.Now().Add(time.Hour)))

	res, err := s.Refresh(ctx, fetcherFunc(func(_ context.Context, token string) (domain.Subject, error) {
		assert.Equal(t, "tok", token)
		return domain.Subject{ID: "u1", Role: domain.RoleFaculty, EmailVerified: true}, nil
	}))
	require.NoError(t, err)

	assert.True(t, res.RoleMismatch)
	assert.False(t, res.Stale)
	assert.Equal(t, domain.RoleStudent, res.Subject.Role)
	assert.True(t, res.Subject.EmailVerified)
	assert.True(t, s.Snapshot().Subject.EmailVerified)
}

func TestRefreshRejectedCredentialClearsSession(t *testing.T) {
	ctx := context.Background()
	s := New("tab", NewMemoryStore(), nil)
	require.NoError(t, s.Login(ctx, "tok", domain.Subject{ID: "u1", Role: domain.RoleStudent}, time.Time{}))

	_, err := s.Refresh(ctx, fetcherFunc(func(context.Context, string) (domain.Subject, error) {
		return domain.Subject{}, ErrCredentialRejected
	}))
	assert.ErrorIs(t, err, ErrCredentialRejected)
	assert.Empty(t, s.Snapshot().Token)
}

func TestRefreshNetworkErrorKeepsSession(t *testing.T) {
	ctx := context.Background()
	s := New("tab", NewMemoryStore(), nil)
	require.NoError(t, s.Login(ctx, "tok", domain.Subject{ID: "u1", Role: domain.RoleStudent}, time.Time{}))

	_, err := s.Refresh(ctx, fetcherFunc(func(context.Context, string) (domain.Subject, error) {
		return domain.Subject{}, errors.New("connection refused")
	}))
	assert.Error(t, err)
	assert.Equal(t, "tok", s.Snapshot().Token)
}

func TestRefreshAfterLogoutIsStale(t *testing.T) {
	ctx := context.Background()
	s := New("tab", NewMemoryStore(), nil)
	require.NoError(t, s.Login(ctx, "tok", domain.Subject{ID: "u1", Role: domain.RoleStudent}, time.Time{}))

	res, err := s.Refresh(ctx, fetcherFunc(func(context.Context, string) (domain.Subject, error) {
		require.NoError(t, s.Logout(ctx))
		return domain.Subject{ID: "u1", Role: domain.RoleStudent, EmailVerified: true}, nil
	}))
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Nil(t, s.Snapshot().Subject)
}

func TestRefreshWithoutLogin(t *testing.T) {
	s := New("tab", NewMemoryStore(), nil)
	_, err := s.Refresh(context.Background(), fetcherFunc(func(context.Context, string) (domain.Subject, error) {
		t.Fatal("fetcher must not be called")
		return domain.Subject{}, nil
	}))
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
