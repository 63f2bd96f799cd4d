package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/osworks/servicedesk-api/internal/models"
)

// RoleRepository provides database access for roles and their
// permission maps.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository creates a new instance of RoleRepository.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// List returns all roles ordered by name.
func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	const query = `SELECT id, name, permissions, created_at, updated_at FROM roles ORDER BY name ASC`
	var roles []models.Role
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// FindByID returns a role by identifier.
func (r *RoleRepository) FindByID(ctx context.Context, id string) (*models.Role, error) {
	const query = `SELECT id, name, permissions, created_at, updated_at FROM roles WHERE id = $1 LIMIT 1`
	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find role by id: %w", err)
	}
	return &role, nil
}

// Create inserts a new role.
func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if role.CreatedAt.IsZero() {
		role.CreatedAt = now
	}
	role.UpdatedAt = now

	const query = `INSERT INTO roles (id, name, permissions, created_at, updated_at) VALUES (:id, :name, :permissions, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, role); err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

// Update replaces a role definition.
func (r *RoleRepository) Update(ctx context.Context, role *models.Role) error {
	role.UpdatedAt = time.Now().UTC()
	const query = `UPDATE roles SET name = :name, permissions = :permissions, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, role); err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return nil
}

// Delete removes a role.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM roles WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

// CountUsers returns how many accounts reference the role. Used to
// refuse deleting a role that is still assigned.
func (r *RoleRepository) CountUsers(ctx context.Context, roleID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, roleID); err != nil {
		return 0, fmt.Errorf("count role users: %w", err)
	}
	return count, nil
}
