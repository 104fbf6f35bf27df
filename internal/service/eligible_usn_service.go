package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/edushare/internal/domain"
	"github.com/spec-kit/edushare/internal/repository"
	apperrors "github.com/spec-kit/edushare/pkg/util/errorutil"
)

// EligibleUSNInput carries the fields of a new registry entry.
type EligibleUSNInput struct {
	USN        string
	Department string
	Semester   int
}

// EligibleUSNService manages the registry of USNs cleared for student signup.
type EligibleUSNService struct {
	usns   repository.EligibleUSNRepository
	logger *zap.Logger
}

// NewEligibleUSNService constructs the service.
func NewEligibleUSNService(usns repository.EligibleUSNRepository, logger *zap.Logger) *EligibleUSNService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibleUSNService{usns: usns, logger: logger}
}

// List returns entries matching filter, newest first.
func (s *EligibleUSNService) List(ctx context.Context, filter repository.EligibleUSNFilter) ([]*domain.EligibleUSN, error) {
	return s.usns.List(ctx, filter)
}

// Add registers a USN. USNs are stored trimmed and upper-cased, so lookups
// are case-insensitive.
func (s *EligibleUSNService) Add(ctx context.Context, actor domain.Subject, in EligibleUSNInput) (*domain.EligibleUSN, error) {
	in.USN = strings.ToUpper(strings.TrimSpace(in.USN))
	in.Department = strings.TrimSpace(in.Department)

	details := map[string]any{}
	if in.USN == "" {
		details["usn"] = "required"
	}
	if in.Department == "" {
		details["department"] = "required"
	}
	if in.Semester < 1 || in.Semester > 8 {
		details["semester"] = "must be between 1 and 8"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("usn, department and semester are required", details)
	}

	actorID := actor.ID
	entry := &domain.EligibleUSN{
		USN:        in.USN,
		Department: in.Department,
		Semester:   in.Semester,
		CreatedBy:  &actorID,
	}
	if err := s.usns.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateUSN) {
			return nil, apperrors.NewConflict("usn already exists", map[string]any{"usn": in.USN})
		}
		return nil, err
	}
	s.logger.Info("eligible usn added", zap.String("usn", entry.USN), zap.String("admin_id", actor.ID))
	return entry, nil
}

// Clear removes every entry. all must be true; it guards against an
// accidental bare DELETE.
func (s *EligibleUSNService) Clear(ctx context.Context, actor domain.Subject, all bool) (int64, error) {
	if !all {
		return 0, apperrors.NewValidationError("specify ?all=true to delete all eligible usns", nil)
	}
	n, err := s.usns.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("eligible usns cleared", zap.Int64("deleted", n), zap.String("admin_id", actor.ID))
	return n, nil
}
