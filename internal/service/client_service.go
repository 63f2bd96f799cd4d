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

type clientRepository interface {
	List(ctx context.Context, search string) ([]models.Client, error)
	FindByID(ctx context.Context, id string) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, id string) error
	CountOrders(ctx context.Context, clientID string) (int, error)
}

type serviceCatalogReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.ProvidedService, error)
}

// ClientService manages the client register.
type ClientService struct {
	repo      clientRepository
	catalog   serviceCatalogReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClientService constructs a ClientService.
func NewClientService(repo clientRepository, catalog serviceCatalogReader, validate *validator.Validate, logger *zap.Logger) *ClientService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{repo: repo, catalog: catalog, validator: validate, logger: logger}
}

// List returns clients, optionally filtered by a name/cnpj search.
func (s *ClientService) List(ctx context.Context, search string) ([]models.Client, error) {
	clients, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clients")
	}
	return clients, nil
}

// Get returns a client by id.
func (s *ClientService) Get(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}
	return client, nil
}

// Create registers a client. Contracted service ids are checked against
// the catalog so the register never references ghosts.
func (s *ClientService) Create(ctx context.Context, req dto.CreateClientRequest) (*models.Client, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid client payload")
	}

	serviceIDs, err := s.verifyServiceIDs(ctx, req.ContractedServiceIDs)
	if err != nil {
		return nil, err
	}

	client := &models.Client{
		Name:                 req.Name,
		Email:                req.Email,
		CNPJ:                 req.CNPJ,
		Address:              req.Address,
		Phone:                req.Phone,
		ContractedServiceIDs: serviceIDs,
		WebProtection:        req.WebProtection,
		Backup:               req.Backup,
		EDR:                  req.EDR,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create client")
	}
	return client, nil
}

// Update replaces a client record. Existing orders keep their snapshot.
func (s *ClientService) Update(ctx context.Context, id string, req dto.UpdateClientRequest) (*models.Client, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid client payload")
	}

	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	serviceIDs, err := s.verifyServiceIDs(ctx, req.ContractedServiceIDs)
	if err != nil {
		return nil, err
	}

	client.Name = req.Name
	client.Email = req.Email
	client.CNPJ = req.CNPJ
	client.Address = req.Address
	client.Phone = req.Phone
	client.ContractedServiceIDs = serviceIDs
	client.WebProtection = req.WebProtection
	client.Backup = req.Backup
	client.EDR = req.EDR

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update client")
	}
	return client, nil
}

// Delete removes a client, refusing while orders still reference it.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count client orders")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "client has service orders and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete client")
	}
	return nil
}

func (s *ClientService) verifyServiceIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	services, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify services")
	}
	if len(services) != len(dedupeStrings(ids)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown service id in contracted services")
	}
	result := make([]string, 0, len(services))
	for _, svc := range services {
		result = append(result, svc.ID)
	}
	return result, nil
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
