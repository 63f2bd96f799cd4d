package dto

import "github.com/osworks/servicedesk-api/internal/models"

// CreateUserRequest provisions an account from the admin screen.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	RoleID   string `json:"roleId" validate:"required"`
}

// UpdateUserRequest edits an account. Password is optional; empty means
// keep the current one.
type UpdateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	RoleID   string `json:"roleId" validate:"required"`
}

// CreateRoleRequest defines a role and its permission grants.
type CreateRoleRequest struct {
	Name        string             `json:"name" validate:"required,min=2,max=80"`
	Permissions models.Permissions `json:"permissions" validate:"required"`
}

// UpdateRoleRequest replaces a role definition.
type UpdateRoleRequest struct {
	Name        string             `json:"name" validate:"required,min=2,max=80"`
	Permissions models.Permissions `json:"permissions" validate:"required"`
}
