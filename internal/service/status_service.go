package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/models"
	"github.com/osworks/servicedesk-api/internal/workflow"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
)

const (
	statusCacheKey     = "statuses:registry"
	statusCachePattern = "statuses:*"
)

type statusRepository interface {
	List(ctx context.Context) ([]models.Status, error)
	FindByID(ctx context.Context, id string) (*models.Status, error)
	Create(ctx context.Context, status *models.Status) error
	Update(ctx context.Context, status *models.Status) error
	Delete(ctx context.Context, id string) error
	CountOrders(ctx context.Context, statusID string) (int, error)
}

// StatusService manages the workflow status configuration and hydrates
// the in-memory registry the transition engine runs against.
type StatusService struct {
	repo      statusRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStatusService constructs a StatusService.
func NewStatusService(repo statusRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *StatusService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// Registry returns a registry snapshot, served from cache when warm.
func (s *StatusService) Registry(ctx context.Context) (*workflow.Registry, error) {
	var statuses []models.Status
	if hit, err := s.cache.Get(ctx, statusCacheKey, &statuses); err == nil && hit {
		return workflow.NewRegistry(statuses), nil
	}

	statuses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load statuses")
	}

	if err := s.cache.Set(ctx, statusCacheKey, statuses, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache status registry", zap.Error(err))
	}

	return workflow.NewRegistry(statuses), nil
}

// List returns all statuses sorted by their order key.
func (s *StatusService) List(ctx context.Context) ([]models.Status, error) {
	reg, err := s.Registry(ctx)
	if err != nil {
		return nil, err
	}
	return reg.List(), nil
}

// Get returns a status by id.
func (s *StatusService) Get(ctx context.Context, id string) (*models.Status, error) {
	status, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "status not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status")
	}
	return status, nil
}

// Create adds a workflow status. At most one status may carry the
// initial flag; everything downstream relies on that.
func (s *StatusService) Create(ctx context.Context, req dto.CreateStatusRequest) (*models.Status, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	if req.IsInitial {
		if err := s.ensureNoOtherInitial(ctx, ""); err != nil {
			return nil, err
		}
	}

	status := &models.Status{
		Name:                req.Name,
		Order:               req.Order,
		Color:               req.Color,
		Icon:                req.Icon,
		IsInitial:           req.IsInitial,
		IsFinal:             req.IsFinal,
		IsPickupStatus:      req.IsPickupStatus,
		TriggersEmail:       req.TriggersEmail,
		EmailBody:           req.EmailBody,
		AllowedNextStatuses: req.AllowedNextStatuses,
	}
	if err := s.repo.Create(ctx, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create status")
	}

	s.invalidate(ctx)
	return status, nil
}

// Update replaces a status definition.
func (s *StatusService) Update(ctx context.Context, id string, req dto.UpdateStatusRequest) (*models.Status, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	status, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.IsInitial {
		if err := s.ensureNoOtherInitial(ctx, id); err != nil {
			return nil, err
		}
	}

	status.Name = req.Name
	status.Order = req.Order
	status.Color = req.Color
	status.Icon = req.Icon
	status.IsInitial = req.IsInitial
	status.IsFinal = req.IsFinal
	status.IsPickupStatus = req.IsPickupStatus
	status.TriggersEmail = req.TriggersEmail
	status.EmailBody = req.EmailBody
	status.AllowedNextStatuses = req.AllowedNextStatuses

	if err := s.repo.Update(ctx, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}

	s.invalidate(ctx)
	return status, nil
}

// Delete removes a status, refusing while orders still sit in it.
// References from other statuses' allowed-next lists become dangling
// and are dropped at resolution time.
func (s *StatusService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count status orders")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "status is in use by service orders")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete status")
	}

	s.invalidate(ctx)
	return nil
}

func (s *StatusService) ensureNoOtherInitial(ctx context.Context, excludeID string) error {
	statuses, err := s.repo.List(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load statuses")
	}
	for _, status := range statuses {
		if status.IsInitial && status.ID != excludeID {
			return appErrors.Clone(appErrors.ErrConflict, "another status is already flagged as initial")
		}
	}
	return nil
}

func (s *StatusService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, statusCachePattern); err != nil {
		s.logger.Warn("failed to invalidate status cache", zap.Error(err))
	}
}
