package dto

import (
	"time"

	"github.com/spec-kit/edushare/internal/domain"
)

// Envelope is the success wrapper of every JSON response.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// SignupRequest payload for new users.
type SignupRequest struct {
	FullName    string  `json:"fullName"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Role        string  `json:"role"`
	USN         *string `json:"usn,omitempty"`
	Department  *string `json:"department,omitempty"`
	Semester    *int    `json:"semester,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries an issued credential.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionResponse is returned by signup and login.
// Auth is absent when the account awaits admin approval.
type SessionResponse struct {
	User    UserResponse  `json:"user"`
	Auth    *AuthResponse `json:"auth,omitempty"`
	Pending bool          `json:"pending,omitempty"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID            string    `json:"id"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	USN           *string   `json:"usn,omitempty"`
	Department    *string   `json:"department,omitempty"`
	Semester      *int      `json:"semester,omitempty"`
	EmailVerified bool      `json:"isEmailVerified"`
	AdminVerified bool      `json:"isAdminVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		FullName:      u.FullName,
		Email:         u.Email,
		Role:          string(u.Role),
		USN:           u.USN,
		Department:    u.Department,
		Semester:      u.Semester,
		EmailVerified: u.EmailVerified,
		AdminVerified: u.Role == domain.RoleAdmin && u.AdminVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// MeResponse is the verification endpoint payload.
type MeResponse struct {
	User      UserResponse  `json:"user"`
	Subject   SubjectClaims `json:"subject"`
	Timestamp time.Time     `json:"timestamp"`
}

// SubjectClaims are the decoded claims of the presented credential.
type SubjectClaims struct {
	ID            string    `json:"id"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	AdminVerified bool      `json:"adminVerified"`
	IssuedAt      time.Time `json:"issuedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// AdminCheckResponse is the admin re-check endpoint payload.
type AdminCheckResponse struct {
	Confirmed      bool          `json:"confirmed"`
	ReloginAdvised bool          `json:"reloginAdvised"`
	User           *UserResponse `json:"user,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// DebugTokenResponse describes the presented credential.
type DebugTokenResponse struct {
	Subject   SubjectClaims `json:"subject"`
	IsAdmin   bool          `json:"isAdmin"`
	IsFaculty bool          `json:"isFaculty"`
	IsStudent bool          `json:"isStudent"`
	Timestamp time.Time     `json:"timestamp"`
}

// PasswordResetRequest payload for initiating reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}
