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

type serviceRepository interface {
	List(ctx context.Context) ([]models.ProvidedService, error)
	FindByID(ctx context.Context, id string) (*models.ProvidedService, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.ProvidedService, error)
	Create(ctx context.Context, service *models.ProvidedService) error
	Update(ctx context.Context, service *models.ProvidedService) error
	Delete(ctx context.Context, id string) error
}

// CatalogService manages the provided-services catalog.
type CatalogService struct {
	repo      serviceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(repo serviceRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, validator: validate, logger: logger}
}

// List returns all catalog entries.
func (s *CatalogService) List(ctx context.Context) ([]models.ProvidedService, error) {
	services, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list services")
	}
	return services, nil
}

// Get returns a catalog entry by id.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.ProvidedService, error) {
	service, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "service not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load service")
	}
	return service, nil
}

// Create adds a catalog entry.
func (s *CatalogService) Create(ctx context.Context, req dto.CreateServiceRequest) (*models.ProvidedService, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid service payload")
	}

	service := &models.ProvidedService{Name: req.Name, Description: req.Description}
	if err := s.repo.Create(ctx, service); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create service")
	}
	return service, nil
}

// Update replaces a catalog entry. Order snapshots are unaffected.
func (s *CatalogService) Update(ctx context.Context, id string, req dto.UpdateServiceRequest) (*models.ProvidedService, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid service payload")
	}

	service, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	service.Name = req.Name
	service.Description = req.Description
	if err := s.repo.Update(ctx, service); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update service")
	}
	return service, nil
}

// Delete removes a catalog entry.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete service")
	}
	return nil
}
