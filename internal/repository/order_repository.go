package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/models"
)

const orderColumns = `id, order_number, client_id, client_snapshot, collaborator, equipment, reported_problem, analyst, status_id, technical_solution, contracted_services, confirmed_service_ids, attachments, created_at, updated_at`

// OrderRepository provides database access for service orders and their
// append-only log ledgers.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// NextOrderNumber allocates the next human-facing order number.
func (r *OrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	const query = `SELECT nextval('service_order_number_seq')`
	var seq int64
	if err := r.db.GetContext(ctx, &seq, query); err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}
	return fmt.Sprintf("OS-%06d", seq), nil
}

// Create inserts a new order and its opening log entry in one
// transaction.
func (r *OrderRepository) Create(ctx context.Context, order *models.ServiceOrder, openingLog *models.LogEntry) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO service_orders (id, order_number, client_id, client_snapshot, collaborator, equipment, reported_problem, analyst, status_id, technical_solution, contracted_services, confirmed_service_ids, attachments, created_at, updated_at) VALUES (:id, :order_number, :client_id, :client_snapshot, :collaborator, :equipment, :reported_problem, :analyst, :status_id, :technical_solution, :contracted_services, :confirmed_service_ids, :attachments, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	if openingLog != nil {
		openingLog.OrderID = order.ID
		if err := insertLog(ctx, tx, openingLog); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}
	return nil
}

// List returns orders matching the query filters, newest first, with
// the total count for pagination.
func (r *OrderRepository) List(ctx context.Context, query dto.OrderQuery) ([]models.ServiceOrder, int, error) {
	baseQuery := `FROM service_orders WHERE 1=1`
	var conditions []string
	var args []interface{}

	if query.StatusID != "" {
		conditions = append(conditions, fmt.Sprintf("status_id = $%d", len(args)+1))
		args = append(args, query.StatusID)
	}
	if query.ClientID != "" {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)+1))
		args = append(args, query.ClientID)
	}
	if query.Analyst != "" {
		conditions = append(conditions, fmt.Sprintf("analyst = $%d", len(args)+1))
		args = append(args, query.Analyst)
	}
	if query.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(order_number) LIKE $%d OR LOWER(client_snapshot->>'name') LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(query.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", orderColumns, baseQuery, limit, offset)

	var orders []models.ServiceOrder
	if err := r.db.SelectContext(ctx, &orders, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	return orders, total, nil
}

// ListAll returns every order with its transition logs attached. Used
// by the dashboard aggregation and the CSV export.
func (r *OrderRepository) ListAll(ctx context.Context) ([]models.ServiceOrder, error) {
	const query = `SELECT ` + orderColumns + ` FROM service_orders ORDER BY created_at DESC`
	var orders []models.ServiceOrder
	if err := r.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	const logQuery = `SELECT id, order_id, ts, responsible, from_status_id, to_status_id, observation FROM order_logs ORDER BY ts ASC`
	var logs []models.LogEntry
	if err := r.db.SelectContext(ctx, &logs, logQuery); err != nil {
		return nil, fmt.Errorf("list order logs: %w", err)
	}

	byOrder := make(map[string][]models.LogEntry, len(orders))
	for _, entry := range logs {
		byOrder[entry.OrderID] = append(byOrder[entry.OrderID], entry)
	}
	for i := range orders {
		orders[i].Logs = byOrder[orders[i].ID]
	}
	return orders, nil
}

// FindByID returns an order with both ledgers attached.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.ServiceOrder, error) {
	const query = `SELECT ` + orderColumns + ` FROM service_orders WHERE id = $1 LIMIT 1`
	var order models.ServiceOrder
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find order by id: %w", err)
	}

	logs, err := r.ListLogs(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Logs = logs

	editLogs, err := r.ListEditLogs(ctx, id)
	if err != nil {
		return nil, err
	}
	order.EditLogs = editLogs

	return &order, nil
}

// ListLogs returns the transition ledger in chronological order.
func (r *OrderRepository) ListLogs(ctx context.Context, orderID string) ([]models.LogEntry, error) {
	const query = `SELECT id, order_id, ts, responsible, from_status_id, to_status_id, observation FROM order_logs WHERE order_id = $1 ORDER BY ts ASC`
	var logs []models.LogEntry
	if err := r.db.SelectContext(ctx, &logs, query, orderID); err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return logs, nil
}

// ListEditLogs returns the edit ledger in chronological order.
func (r *OrderRepository) ListEditLogs(ctx context.Context, orderID string) ([]models.EditLogEntry, error) {
	const query = `SELECT id, order_id, ts, responsible, changes, observation FROM order_edit_logs WHERE order_id = $1 ORDER BY ts ASC`
	var logs []models.EditLogEntry
	if err := r.db.SelectContext(ctx, &logs, query, orderID); err != nil {
		return nil, fmt.Errorf("list edit logs: %w", err)
	}
	return logs, nil
}

// UpdateStatus persists a validated transition: the new status, the
// technical fields and exactly one new ledger entry, atomically.
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *models.ServiceOrder, log *models.LogEntry) error {
	order.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update status: %w", err)
	}
	defer tx.Rollback()

	const query = `UPDATE service_orders SET status_id = :status_id, technical_solution = :technical_solution, confirmed_service_ids = :confirmed_service_ids, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, order); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if err := insertLog(ctx, tx, log); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update status: %w", err)
	}
	return nil
}

// UpdateTechnicalDetails persists a same-status submit: technical
// solution and confirmed services change, no ledger entry is written.
func (r *OrderRepository) UpdateTechnicalDetails(ctx context.Context, orderID string, solution *string, confirmed []string) error {
	const query = `UPDATE service_orders SET technical_solution = $2, confirmed_service_ids = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, orderID, solution, pq.StringArray(confirmed), time.Now().UTC()); err != nil {
		return fmt.Errorf("update technical details: %w", err)
	}
	return nil
}

// UpdateDetails persists an order edit together with its edit-log
// entry, atomically.
func (r *OrderRepository) UpdateDetails(ctx context.Context, order *models.ServiceOrder, editLog *models.EditLogEntry) error {
	order.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update details: %w", err)
	}
	defer tx.Rollback()

	const query = `UPDATE service_orders SET client_id = :client_id, client_snapshot = :client_snapshot, collaborator = :collaborator, equipment = :equipment, reported_problem = :reported_problem, attachments = :attachments, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, order); err != nil {
		return fmt.Errorf("update order details: %w", err)
	}

	if editLog != nil {
		if editLog.ID == "" {
			editLog.ID = uuid.NewString()
		}
		const logQuery = `INSERT INTO order_edit_logs (id, order_id, ts, responsible, changes, observation) VALUES (:id, :order_id, :ts, :responsible, :changes, :observation)`
		if _, err := tx.NamedExecContext(ctx, logQuery, editLog); err != nil {
			return fmt.Errorf("append edit log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update details: %w", err)
	}
	return nil
}

func insertLog(ctx context.Context, tx *sqlx.Tx, log *models.LogEntry) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	const query = `INSERT INTO order_logs (id, order_id, ts, responsible, from_status_id, to_status_id, observation) VALUES (:id, :order_id, :ts, :responsible, :from_status_id, :to_status_id, :observation)`
	if _, err := tx.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}
