package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/osworks/servicedesk-api/internal/models"
)

// ServiceRepository provides database access for the provided-services
// catalog.
type ServiceRepository struct {
	db *sqlx.DB
}

// NewServiceRepository creates a new instance of ServiceRepository.
func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// List returns all catalog entries ordered by name.
func (r *ServiceRepository) List(ctx context.Context) ([]models.ProvidedService, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM provided_services ORDER BY name ASC`
	var services []models.ProvidedService
	if err := r.db.SelectContext(ctx, &services, query); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// FindByID returns a catalog entry by identifier.
func (r *ServiceRepository) FindByID(ctx context.Context, id string) (*models.ProvidedService, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM provided_services WHERE id = $1 LIMIT 1`
	var service models.ProvidedService
	if err := r.db.GetContext(ctx, &service, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find service by id: %w", err)
	}
	return &service, nil
}

// FindByIDs returns the catalog entries matching the given identifiers.
// Unknown ids are silently absent from the result.
func (r *ServiceRepository) FindByIDs(ctx context.Context, ids []string) ([]models.ProvidedService, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, name, description, created_at, updated_at FROM provided_services WHERE id = ANY($1) ORDER BY name ASC`
	var services []models.ProvidedService
	if err := r.db.SelectContext(ctx, &services, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find services by ids: %w", err)
	}
	return services, nil
}

// Create inserts a new catalog entry.
func (r *ServiceRepository) Create(ctx context.Context, service *models.ProvidedService) error {
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if service.CreatedAt.IsZero() {
		service.CreatedAt = now
	}
	service.UpdatedAt = now

	const query = `INSERT INTO provided_services (id, name, description, created_at, updated_at) VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, service); err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

// Update replaces a catalog entry.
func (r *ServiceRepository) Update(ctx context.Context, service *models.ProvidedService) error {
	service.UpdatedAt = time.Now().UTC()
	const query = `UPDATE provided_services SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, service); err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	return nil
}

// Delete removes a catalog entry.
func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM provided_services WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	return nil
}
