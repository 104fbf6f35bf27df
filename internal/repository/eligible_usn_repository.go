package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/edushare/internal/domain"
)

// ErrDuplicateUSN is returned by Create when the USN is already registered.
var ErrDuplicateUSN = errors.New("usn already registered")

// EligibleUSNRepository stores the USNs cleared for student signup.
type EligibleUSNRepository interface {
	Create(ctx context.Context, usn *domain.EligibleUSN) error
	List(ctx context.Context, filter EligibleUSNFilter) ([]*domain.EligibleUSN, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// EligibleUSNFilter narrows List results. Empty or nil fields match everything.
type EligibleUSNFilter struct {
	Department string
	Semester   *int
	IsUsed     *bool
}

type eligibleUSNRepository struct {
	pool *pgxpool.Pool
}

// NewEligibleUSNRepository returns a Postgres-backed implementation.
func NewEligibleUSNRepository(pool *pgxpool.Pool) EligibleUSNRepository {
	return &eligibleUSNRepository{pool: pool}
}

func (r *eligibleUSNRepository) Create(ctx context.Context, usn *domain.EligibleUSN) error {
	const query = `
        INSERT INTO eligible_usns (usn, department, semester, is_used, created_by)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (usn) DO NOTHING
        RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		usn.USN,
		usn.Department,
		usn.Semester,
		usn.IsUsed,
		usn.CreatedBy,
	).Scan(&usn.ID, &usn.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicateUSN
	}
	return err
}

func (r *eligibleUSNRepository) List(ctx context.Context, filter EligibleUSNFilter) ([]*domain.EligibleUSN, error) {
	var department *string
	if filter.Department != "" {
		department = &filter.Department
	}

	const query = `
        SELECT id, usn, department, semester, is_used, created_by, created_at
        FROM eligible_usns
        WHERE ($1::text IS NULL OR department=$1)
          AND ($2::int IS NULL OR semester=$2)
          AND ($3::boolean IS NULL OR is_used=$3)
        ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, department, filter.Semester, filter.IsUsed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.EligibleUSN
	for rows.Next() {
		var e domain.EligibleUSN
		if err := rows.Scan(&e.ID, &e.USN, &e.Department, &e.Semester, &e.IsUsed, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *eligibleUSNRepository) DeleteAll(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM eligible_usns`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
