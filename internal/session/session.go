// Package session holds the authentication state of one client: the stored
// credential and subject profile, created on login, refreshed against the
// verification endpoint and destroyed on logout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/edushare/internal/domain"
)

var (
	// ErrNotLoggedIn is returned by operations that need a stored credential.
	ErrNotLoggedIn = errors.New("no active session")
	// ErrCredentialRejected is returned by a SubjectFetcher when the server refuses the credential.
	ErrCredentialRejected = errors.New("credential rejected by server")
)

// SubjectFetcher calls the verification endpoint.
type SubjectFetcher interface {
	FetchSubject(ctx context.Context, token string) (domain.Subject, error)
}

// Snapshot is a consistent read of the session at one generation.
type Snapshot struct {
	Token      string
	Subject    *domain.Subject
	ExpiresAt  time.Time
	Generation uint64
}

// RefreshResult reports what the verification endpoint said.
type RefreshResult struct {
	Subject      domain.Subject
	RoleMismatch bool
	Stale        bool
}

type storedProfile struct {
	Subject   domain.Subject `json:"subject"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// Session is safe for concurrent use.
type Session struct {
	id     string
	store  Store
	logger *zap.Logger

	mu         sync.RWMutex
	token      string
	subject    *domain.Subject
	expiresAt  time.Time
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
}

// New returns an empty session bound to id within store.
func New(id string, store Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{id: id, store: store, logger: logger.With(zap.String("session_id", id))}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Open returns a session restored from whatever store holds for id.
// A corrupt stored profile is cleared rather than reported.
func Open(ctx context.Context, id string, store Store, logger *zap.Logger) (*Session, error) {
	s := New(id, store, logger)
	if err := s.restore(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) tokenKey() string { return s.id + ":token" }
func (s *Session) userKey() string  { return s.id + ":user" }

func (s *Session) restore(ctx context.Context) error {
	token, ok, err := s.store.Get(ctx, s.tokenKey())
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	if !ok {
		return nil
	}
	raw, ok, err := s.store.Get(ctx, s.userKey())
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	var profile storedProfile
	if !ok || json.Unmarshal([]byte(raw), &profile) != nil {
		s.logger.Warn("stored profile unreadable; clearing session")
		return s.store.Delete(ctx, s.tokenKey(), s.userKey())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	subject := profile.Subject
	s.subject = &subject
	s.expiresAt = profile.ExpiresAt
	s.generation++
	return nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Login stores a freshly issued credential, replacing any previous one.
// Work bound to the previous login's context is cancelled.
func (s *Session) Login(ctx context.Context, token string, subject domain.Subject, expiresAt time.Time) error {
	if token == "" {
		return errors.New("empty credential")
	}
	raw, err := json.Marshal(storedProfile{Subject: subject, ExpiresAt: expiresAt})
	if err != nil {
		return err
	}

	ttl := time.Until(expiresAt)
	if expiresAt.IsZero() || ttl < 0 {
		ttl = 0
	}
	if err := s.store.Set(ctx, s.tokenKey(), token, ttl); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	if err := s.store.Set(ctx, s.userKey(), string(raw), ttl); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.token = token
	s.subject = &subject
	s.expiresAt = expiresAt
	s.generation++
	s.logger.Info("session started", zap.String("subject_id", subject.ID), zap.String("role", subject.Role.String()))
	return nil
}

// Logout destroys the session and cancels any pending work bound to it.
func (s *Session) Logout(ctx context.Context) error {
	s.drop()
	s.logger.Info("session ended")
	return s.store.Delete(ctx, s.tokenKey(), s.userKey())
}

// Clear drops a credential found to be invalid or expired.
func (s *Session) Clear(ctx context.Context, reason string) error {
	s.drop()
	s.logger.Warn("session cleared", zap.String("reason", reason))
	return s.store.Delete(ctx, s.tokenKey(), s.userKey())
}

// ClearIfCurrent clears the session only if no login or logout happened since generation.
func (s *Session) ClearIfCurrent(ctx context.Context, generation uint64, reason string) error {
	if !s.IsCurrent(generation) {
		return nil
	}
	return s.Clear(ctx, reason)
}

func (s *Session) drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.token = ""
	s.subject = nil
	s.expiresAt = time.Time{}
	s.generation++
}

// Snapshot returns the current credential and profile.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Token: s.token, ExpiresAt: s.expiresAt, Generation: s.generation}
	if s.subject != nil {
		subject := *s.subject
		snap.Subject = &subject
	}
	return snap
}

// IsCurrent reports whether the session is still at generation and holds a credential.
func (s *Session) IsCurrent(generation uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation == generation && s.token != ""
}

// Context is cancelled on the next login, logout or clear.
func (s *Session) Context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// Refresh asks the verification endpoint for current subject data.
// Profile flags are updated from the server; the role stays the credential's,
// and a disagreement is reported through RoleMismatch.
func (s *Session) Refresh(ctx context.Context, fetcher SubjectFetcher) (RefreshResult, error) {
	snap := s.Snapshot()
	if snap.Token == "" {
		return RefreshResult{}, ErrNotLoggedIn
	}

	fetched, err := fetcher.FetchSubject(ctx, snap.Token)
	if err != nil {
		if errors.Is(err, ErrCredentialRejected) {
			if clearErr := s.ClearIfCurrent(ctx, snap.Generation, "verification endpoint rejected credential"); clearErr != nil {
				s.logger.Warn("failed to clear session", zap.Error(clearErr))
			}
		}
		return RefreshResult{}, err
	}

	result := RefreshResult{Subject: fetched}
	if snap.Subject != nil && snap.Subject.Role != fetched.Role {
		result.RoleMismatch = true
		s.logger.Warn("credential role differs from server role",
			zap.String("credential_role", snap.Subject.Role.String()),
			zap.String("server_role", fetched.Role.String()))
	}

	s.mu.Lock()
	if s.generation != snap.Generation || s.subject == nil {
		s.mu.Unlock()
		result.Stale = true
		return result, nil
	}
	updated := *s.subject
	updated.EmailVerified = fetched.EmailVerified
	updated.AdminVerified = updated.Role == domain.RoleAdmin && fetched.AdminVerified
	s.subject = &updated
	expiresAt := s.expiresAt
	s.mu.Unlock()

	result.Subject = updated
	raw, err := json.Marshal(storedProfile{Subject: updated, ExpiresAt: expiresAt})
	if err != nil {
		return result, err
	}
	ttl := time.Until(expiresAt)
	if expiresAt.IsZero() || ttl < 0 {
		ttl = 0
	}
	if err := s.store.Set(ctx, s.userKey(), string(raw), ttl); err != nil {
		return result, fmt.Errorf("store profile: %w", err)
	}
	return result, nil
}
