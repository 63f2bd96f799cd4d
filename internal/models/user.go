package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	RoleID       string    `db:"role_id" json:"roleId"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Role groups a named permission map.
type Role struct {
	ID          string      `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Permissions Permissions `db:"permissions" json:"permissions"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// JWTClaims are the custom claims embedded in access tokens.
type JWTClaims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID string `json:"roleId"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}
