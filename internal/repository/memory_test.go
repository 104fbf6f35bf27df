package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/edushare/internal/domain"
)

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	admin := &domain.User{FullName: "Ada", Email: "ada@uni.edu", Role: domain.RoleAdmin}
	require.NoError(t, repo.Create(ctx, admin))
	require.NotEmpty(t, admin.ID)
	require.Error(t, repo.Create(ctx, &domain.User{Email: "ADA@uni.edu", Role: domain.RoleStudent}))

	student := &domain.User{FullName: "Sam", Email: "sam@uni.edu", Role: domain.RoleStudent}
	require.NoError(t, repo.Create(ctx, student))

	got, err := repo.GetByEmail(ctx, "Sam@Uni.edu")
	require.NoError(t, err)
	assert.Equal(t, student.ID, got.ID)

	pending, err := repo.List(ctx, UserFilter{PendingAdminApproval: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, admin.ID, pending[0].ID)

	admin.AdminVerified = true
	require.NoError(t, repo.Update(ctx, admin))
	pending, err = repo.List(ctx, UserFilter{PendingAdminApproval: true})
	require.NoError(t, err)
	assert.Empty(t, pending)

	students, err := repo.List(ctx, UserFilter{Role: domain.RoleStudent})
	require.NoError(t, err)
	assert.Len(t, students, 1)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.ErrorIs(t, repo.Update(ctx, &domain.User{ID: "missing"}), pgx.ErrNoRows)
}

func TestMemoryPasswordResetRepositoryRedeemOnce(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUserRepository()
	user := &domain.User{FullName: "Fay", Email: "fay@uni.edu", PasswordHash: "old", Role: domain.RoleFaculty}
	require.NoError(t, users.Create(ctx, user))
	repo := NewMemoryPasswordResetRepository(users)

	tok := &domain.PasswordResetToken{UserID: user.ID, Token: "abc"}
	require.NoError(t, repo.Create(ctx, tok))

	got, err := repo.GetByToken(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got.UsedAt)

	require.NoError(t, repo.Redeem(ctx, tok.ID, "new"))
	assert.ErrorIs(t, repo.Redeem(ctx, tok.ID, "newer"), pgx.ErrNoRows)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.PasswordHash)
}

func TestMemoryPasswordResetRepositoryRedeemMissingUserKeepsToken(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPasswordResetRepository(NewMemoryUserRepository())

	tok := &domain.PasswordResetToken{UserID: "ghost", Token: "abc"}
	require.NoError(t, repo.Create(ctx, tok))

	assert.ErrorIs(t, repo.Redeem(ctx, tok.ID, "new"), pgx.ErrNoRows)
	got, err := repo.GetByToken(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got.UsedAt)
}

func TestMemoryCreateAdminApprovesOnlyFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	has, err := repo.HasVerifiedAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	pending := &domain.User{FullName: "Pat", Email: "pat@uni.edu", Role: domain.RoleAdmin}
	require.NoError(t, repo.Create(ctx, pending))
	has, err = repo.HasVerifiedAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	const n = 16
	var wg sync.WaitGroup
	admins := make([]*domain.User, n)
	for i := 0; i < n; i++ {
		admins[i] = &domain.User{FullName: "Admin", Email: fmt.Sprintf("admin%d@uni.edu", i), Role: domain.RoleAdmin}
		wg.Add(1)
		go func(u *domain.User) {
			defer wg.Done()
			assert.NoError(t, repo.CreateAdmin(ctx, u))
		}(admins[i])
	}
	wg.Wait()

	verified := 0
	for _, u := range admins {
		if u.AdminVerified {
			verified++
		}
	}
	assert.Equal(t, 1, verified)

	has, err = repo.HasVerifiedAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMemoryEligibleUSNRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryEligibleUSNRepository()

	require.NoError(t, repo.Create(ctx, &domain.EligibleUSN{USN: "1RV21CS001", Department: "CSE", Semester: 5}))
	require.NoError(t, repo.Create(ctx, &domain.EligibleUSN{USN: "1RV21EC002", Department: "ECE", Semester: 3, IsUsed: true}))
	assert.ErrorIs(t, repo.Create(ctx, &domain.EligibleUSN{USN: "1RV21CS001", Department: "CSE", Semester: 5}), ErrDuplicateUSN)

	semester := 5
	got, err := repo.List(ctx, EligibleUSNFilter{Semester: &semester})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CSE", got[0].Department)

	used := true
	got, err = repo.List(ctx, EligibleUSNFilter{IsUsed: &used})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1RV21EC002", got[0].USN)

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	got, err = repo.List(ctx, EligibleUSNFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
