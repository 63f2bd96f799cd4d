package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/osworks/servicedesk-api/internal/models"
)

const clientColumns = `id, name, email, cnpj, address, phone, contracted_service_ids, web_protection, backup, edr, created_at, updated_at`

// ClientRepository provides database access for clients.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// List returns clients ordered by name, optionally filtered by a
// case-insensitive name/cnpj search.
func (r *ClientRepository) List(ctx context.Context, search string) ([]models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	var args []interface{}
	if search != "" {
		query += ` WHERE LOWER(name) LIKE $1 OR LOWER(COALESCE(cnpj, '')) LIKE $1`
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += ` ORDER BY name ASC`

	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// FindByID returns a client by identifier.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*models.Client, error) {
	const query = `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 LIMIT 1`
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find client by id: %w", err)
	}
	return &client, nil
}

// Create inserts a new client.
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now

	const query = `INSERT INTO clients (id, name, email, cnpj, address, phone, contracted_service_ids, web_protection, backup, edr, created_at, updated_at) VALUES (:id, :name, :email, :cnpj, :address, :phone, :contracted_service_ids, :web_protection, :backup, :edr, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, client); err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// Update replaces a client record.
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	client.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clients SET name = :name, email = :email, cnpj = :cnpj, address = :address, phone = :phone, contracted_service_ids = :contracted_service_ids, web_protection = :web_protection, backup = :backup, edr = :edr, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, client); err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return nil
}

// Delete removes a client.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM clients WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

// CountOrders returns how many orders reference the client.
func (r *ClientRepository) CountOrders(ctx context.Context, clientID string) (int, error) {
	const query = `SELECT COUNT(*) FROM service_orders WHERE client_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, clientID); err != nil {
		return 0, fmt.Errorf("count client orders: %w", err)
	}
	return count, nil
}
