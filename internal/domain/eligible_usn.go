package domain

import "time"

// EligibleUSN is a university serial number an admin has cleared for student signup.
type EligibleUSN struct {
	ID         string
	USN        string
	Department string
	Semester   int
	IsUsed     bool
	CreatedBy  *string
	CreatedAt  time.Time
}
