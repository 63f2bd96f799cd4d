package dto

import "github.com/osworks/servicedesk-api/internal/models"

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a new console account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	RoleID   string `json:"roleId" validate:"required"`
}

// AuthResponse carries the issued token and the authenticated profile.
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// UserProfile is the safe view of an account, never exposing the hash.
type UserProfile struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	RoleID      string             `json:"roleId"`
	RoleName    string             `json:"roleName"`
	Permissions models.Permissions `json:"permissions"`
}
