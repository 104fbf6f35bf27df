package dto

import (
	"time"

	"github.com/spec-kit/edushare/internal/domain"
)

// EligibleUSNRequest registers a USN for student signup.
type EligibleUSNRequest struct {
	USN        string `json:"usn"`
	Department string `json:"department"`
	Semester   int    `json:"semester"`
}

// EligibleUSNResponse is one registry entry.
type EligibleUSNResponse struct {
	ID         string    `json:"id"`
	USN        string    `json:"usn"`
	Department string    `json:"department"`
	Semester   int       `json:"semester"`
	IsUsed     bool      `json:"isUsed"`
	CreatedBy  *string   `json:"createdBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewEligibleUSNResponse maps the domain entry.
func NewEligibleUSNResponse(e *domain.EligibleUSN) EligibleUSNResponse {
	return EligibleUSNResponse{
		ID:         e.ID,
		USN:        e.USN,
		Department: e.Department,
		Semester:   e.Semester,
		IsUsed:     e.IsUsed,
		CreatedBy:  e.CreatedBy,
		CreatedAt:  e.CreatedAt,
	}
}

// EligibleUSNListResponse wraps the filtered registry.
type EligibleUSNListResponse struct {
	EligibleUSNs []EligibleUSNResponse `json:"eligibleUsns"`
}

// DeletedResponse reports how many entries a bulk delete removed.
type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}
