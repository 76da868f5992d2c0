package handler

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Username    string   `json:"username" binding:"required,min=3,max=150"`
	Password    string   `json:"password" binding:"required,min=8,max=128"`
	FirstName   string   `json:"first_name" binding:"max=150"`
	LastName    string   `json:"last_name" binding:"max=150"`
	Email       string   `json:"email" binding:"omitempty,email"`
	Groups      []string `json:"groups" binding:"dive,oneof=Admin Comptable Gestionnaire"`
	IsSuperuser bool     `json:"is_superuser"`
}

// SetActiveRequest enables or disables a user
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetGroupsRequest replaces the groups of a user
type SetGroupsRequest struct {
	Groups []string `json:"groups" binding:"dive,oneof=Admin Comptable Gestionnaire"`
}

// MessageResponse is a plain confirmation
type MessageResponse struct {
	Message string `json:"message"`
}
