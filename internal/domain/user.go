package domain

import "time"

// User is a registered student, faculty member or administrator.
type User struct {
	ID            string
	FullName      string
	Email         string
	PasswordHash  string
	Role          Role
	USN           *string
	Department    *string
	Semester      *int
	PhoneNumber   *string
	EmailVerified bool
	AdminVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Subject returns the principal view of the user.
func (u *User) Subject() Subject {
	return Subject{
		ID:            u.ID,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		AdminVerified: u.Role == RoleAdmin && u.AdminVerified,
	}
}

// PasswordResetToken represents stored reset tokens.
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
