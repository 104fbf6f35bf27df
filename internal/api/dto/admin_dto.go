package dto

// UpdateUserRequest lists the fields an admin may change.
type UpdateUserRequest struct {
	Role            *string `json:"role,omitempty"`
	IsAdminVerified *bool   `json:"isAdminVerified,omitempty"`
	IsEmailVerified *bool   `json:"isEmailVerified,omitempty"`
}

// UserListResponse wraps a page of users.
type UserListResponse struct {
	Users            []UserResponse `json:"users"`
	PendingApprovals int            `json:"pendingApprovals"`
}

// OverviewResponse is the role dashboard payload.
type OverviewResponse struct {
	User UserResponse `json:"user"`
	Home string       `json:"home"`
}
