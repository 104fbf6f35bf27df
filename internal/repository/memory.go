package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/edushare/internal/domain"
)

var errDuplicateEmail = errors.New("email already exists")

// MemoryUserRepository is used when no database is configured.
// It reports missing rows with pgx.ErrNoRows, like the Postgres implementation.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository returns an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(user)
}

func (r *MemoryUserRepository) CreateAdmin(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.AdminVerified = !r.hasVerifiedAdminLocked()
	return r.insertLocked(user)
}

func (r *MemoryUserRepository) HasVerifiedAdmin(_ context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasVerifiedAdminLocked(), nil
}

func (r *MemoryUserRepository) setPasswordHash(id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}

func (r *MemoryUserRepository) hasVerifiedAdminLocked() bool {
	for _, u := range r.users {
		if u.Role == domain.RoleAdmin && u.AdminVerified {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepository) insertLocked(user *domain.User) error {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return errDuplicateEmail
		}
	}
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryUserRepository) List(_ context.Context, filter UserFilter) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.PendingAdminApproval && (u.Role != domain.RoleAdmin || u.AdminVerified) {
			continue
		}
		found := u
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryPasswordResetRepository is the in-memory counterpart of the Postgres
// repository. Redeem writes password hashes into users.
type MemoryPasswordResetRepository struct {
	mu     sync.Mutex
	tokens map[string]domain.PasswordResetToken
	users  *MemoryUserRepository
}

// NewMemoryPasswordResetRepository returns an empty repository bound to users.
func NewMemoryPasswordResetRepository(users *MemoryUserRepository) *MemoryPasswordResetRepository {
	return &MemoryPasswordResetRepository{tokens: make(map[string]domain.PasswordResetToken), users: users}
}

func (r *MemoryPasswordResetRepository) Create(_ context.Context, token *domain.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = uuid.NewString()
	token.CreatedAt = time.Now().UTC()
	r.tokens[token.ID] = *token
	return nil
}

func (r *MemoryPasswordResetRepository) GetByToken(_ context.Context, tokenStr string) (*domain.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Token == tokenStr {
			found := t
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryPasswordResetRepository) Redeem(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok || t.UsedAt != nil {
		return pgx.ErrNoRows
	}
	if err := r.users.setPasswordHash(t.UserID, passwordHash); err != nil {
		return err
	}
	now := time.Now().UTC()
	t.UsedAt = &now
	r.tokens[id] = t
	return nil
}

// MemoryEligibleUSNRepository is the in-memory counterpart of the Postgres repository.
type MemoryEligibleUSNRepository struct {
	mu   sync.RWMutex
	usns map[string]domain.EligibleUSN
}

// NewMemoryEligibleUSNRepository returns an empty repository.
func NewMemoryEligibleUSNRepository() *MemoryEligibleUSNRepository {
	return &MemoryEligibleUSNRepository{usns: make(map[string]domain.EligibleUSN)}
}

func (r *MemoryEligibleUSNRepository) Create(_ context.Context, usn *domain.EligibleUSN) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.usns[usn.USN]; dup {
		return ErrDuplicateUSN
	}
	usn.ID = uuid.NewString()
	usn.CreatedAt = time.Now().UTC()
	r.usns[usn.USN] = *usn
	return nil
}

func (r *MemoryEligibleUSNRepository) List(_ context.Context, filter EligibleUSNFilter) ([]*domain.EligibleUSN, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.EligibleUSN, 0, len(r.usns))
	for _, e := range r.usns {
		if filter.Department != "" && e.Department != filter.Department {
			continue
		}
		if filter.Semester != nil && e.Semester != *filter.Semester {
			continue
		}
		if filter.IsUsed != nil && e.IsUsed != *filter.IsUsed {
			continue
		}
		found := e
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryEligibleUSNRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.usns))
	r.usns = make(map[string]domain.EligibleUSN)
	return n, nil
}
