package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/edushare/internal/domain"
)

// UserRepository defines persistence access for users of every role.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	// CreateAdmin inserts an admin account, approving it only when no
	// verified admin exists yet. Concurrent calls approve at most one account.
	CreateAdmin(ctx context.Context, user *domain.User) error
	HasVerifiedAdmin(ctx context.Context) (bool, error)
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]*domain.User, error)
}

// UserFilter narrows List results. Zero values match everything.
type UserFilter struct {
	Role                 domain.Role
	PendingAdminApproval bool
	Limit                int
	Offset               int
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, full_name, email, password_hash, role, usn, department, semester,
        phone_number, email_verified, admin_verified, created_at, updated_at`

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// adminBootstrapLock keys the transaction-scoped advisory lock that
// serialises admin signups.
const adminBootstrapLock int64 = 0x65647573

const hasVerifiedAdminQuery = `SELECT EXISTS(SELECT 1 FROM users WHERE role='admin' AND admin_verified)`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return insertUser(ctx, r.pool, user)
}

func (r *userRepository) CreateAdmin(ctx context.Context, user *domain.User) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, adminBootstrapLock); err != nil {
			return err
		}
		var exists bool
		if err := tx.QueryRow(ctx, hasVerifiedAdminQuery).Scan(&exists); err != nil {
			return err
		}
		user.AdminVerified = !exists
		return insertUser(ctx, tx, user)
	})
}

func (r *userRepository) HasVerifiedAdmin(ctx context.Context) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, hasVerifiedAdminQuery).Scan(&exists)
	return exists, err
}

func insertUser(ctx context.Context, q rowQuerier, user *domain.User) error {
	const query = `
        INSERT INTO users (full_name, email, password_hash, role, usn, department, semester,
            phone_number, email_verified, admin_verified)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at, updated_at`

	return q.QueryRow(ctx, query,
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.USN,
		user.Department,
		user.Semester,
		user.PhoneNumber,
		user.EmailVerified,
		user.AdminVerified,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET full_name=$1, email=$2, password_hash=$3, role=$4, usn=$5,
            department=$6, semester=$7, phone_number=$8, email_verified=$9,
            admin_verified=$10, updated_at=NOW()
        WHERE id=$11`

	cmd, err := r.pool.Exec(ctx, query,
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.USN,
		user.Department,
		user.Semester,
		user.PhoneNumber,
		user.EmailVerified,
		user.AdminVerified,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email)=lower($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]*domain.User, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var role *string
	if filter.Role != "" {
		s := string(filter.Role)
		role = &s
	}

	query := `SELECT ` + userColumns + ` FROM users
        WHERE ($1::text IS NULL OR role=$1)
          AND (NOT $2 OR (role='admin' AND NOT admin_verified))
        ORDER BY created_at DESC
        LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, role, filter.PendingAdminApproval, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.USN,
		&user.Department,
		&user.Semester,
		&user.PhoneNumber,
		&user.EmailVerified,
		&user.AdminVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
