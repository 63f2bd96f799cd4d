package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/models"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
)

type roleRepository interface {
	List(ctx context.Context) ([]models.Role, error)
	FindByID(ctx context.Context, id string) (*models.Role, error)
	Create(ctx context.Context, role *models.Role) error
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id string) error
	CountUsers(ctx context.Context, roleID string) (int, error)
}

// RoleService manages roles and derives capability sets from their
// permission maps.
type RoleService struct {
	repo      roleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoleService constructs a RoleService.
func NewRoleService(repo roleRepository, validate *validator.Validate, logger *zap.Logger) *RoleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{repo: repo, validator: validate, logger: logger}
}

// List returns all roles.
func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roles")
	}
	return roles, nil
}

// Get returns a role by id.
func (s *RoleService) Get(ctx context.Context, id string) (*models.Role, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}
	return role, nil
}

// Create defines a new role. Unknown resources or actions in the
// permission map are dropped rather than stored.
func (s *RoleService) Create(ctx context.Context, req dto.CreateRoleRequest) (*models.Role, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}

	role := &models.Role{
		Name:        req.Name,
		Permissions: normalizePermissions(req.Permissions),
	}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create role")
	}
	return role, nil
}

// Update replaces a role definition.
func (s *RoleService) Update(ctx context.Context, id string, req dto.UpdateRoleRequest) (*models.Role, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}

	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	role.Name = req.Name
	role.Permissions = normalizePermissions(req.Permissions)
	if err := s.repo.Update(ctx, role); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}
	return role, nil
}

// Delete removes a role, refusing while accounts still reference it.
func (s *RoleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count role users")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "role is still assigned to users")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete role")
	}
	return nil
}

// CapabilitiesFor derives the capability set for a role id. A missing
// role yields an empty set, denying everything.
func (s *RoleService) CapabilitiesFor(ctx context.Context, roleID string) (models.CapabilitySet, error) {
	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CapabilitySet{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}
	return models.NewCapabilitySet(role.Permissions), nil
}

// normalizePermissions re-derives the permission map through the closed
// capability enumeration, discarding unknown entries.
func normalizePermissions(perms models.Permissions) models.Permissions {
	set := models.NewCapabilitySet(perms)
	normalized := make(models.Permissions)
	for capability := range set {
		normalized[capability.Resource] = append(normalized[capability.Resource], capability.Action)
	}
	return normalized
}
