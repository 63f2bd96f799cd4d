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

const statusColumns = `id, name, sort_order, color, icon, is_initial, is_final, is_pickup_status, triggers_email, email_body, allowed_next_statuses, created_at, updated_at`

// StatusRepository provides database access for workflow statuses.
type StatusRepository struct {
	db *sqlx.DB
}

// NewStatusRepository creates a new instance of StatusRepository.
func NewStatusRepository(db *sqlx.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// List returns all statuses ordered by their sort key.
func (r *StatusRepository) List(ctx context.Context) ([]models.Status, error) {
	const query = `SELECT ` + statusColumns + ` FROM statuses ORDER BY sort_order ASC`
	var statuses []models.Status
	if err := r.db.SelectContext(ctx, &statuses, query); err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}

// FindByID returns a status by identifier.
func (r *StatusRepository) FindByID(ctx context.Context, id string) (*models.Status, error) {
	const query = `SELECT ` + statusColumns + ` FROM statuses WHERE id = $1 LIMIT 1`
	var status models.Status
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find status by id: %w", err)
	}
	return &status, nil
}

// Create inserts a new status.
func (r *StatusRepository) Create(ctx context.Context, status *models.Status) error {
	if status.ID == "" {
		status.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if status.CreatedAt.IsZero() {
		status.CreatedAt = now
	}
	status.UpdatedAt = now

	const query = `INSERT INTO statuses (id, name, sort_order, color, icon, is_initial, is_final, is_pickup_status, triggers_email, email_body, allowed_next_statuses, created_at, updated_at) VALUES (:id, :name, :sort_order, :color, :icon, :is_initial, :is_final, :is_pickup_status, :triggers_email, :email_body, :allowed_next_statuses, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, status); err != nil {
		return fmt.Errorf("create status: %w", err)
	}
	return nil
}

// Update replaces a status definition.
func (r *StatusRepository) Update(ctx context.Context, status *models.Status) error {
	status.UpdatedAt = time.Now().UTC()
	const query = `UPDATE statuses SET name = :name, sort_order = :sort_order, color = :color, icon = :icon, is_initial = :is_initial, is_final = :is_final, is_pickup_status = :is_pickup_status, triggers_email = :triggers_email, email_body = :email_body, allowed_next_statuses = :allowed_next_statuses, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, status); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// Delete removes a status.
func (r *StatusRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM statuses WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete status: %w", err)
	}
	return nil
}

// CountOrders returns how many orders currently sit in the status. Used
// to refuse deleting a status that is still in use.
func (r *StatusRepository) CountOrders(ctx context.Context, statusID string) (int, error) {
	const query = `SELECT COUNT(*) FROM service_orders WHERE status_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, statusID); err != nil {
		return 0, fmt.Errorf("count status orders: %w", err)
	}
	return count, nil
}
