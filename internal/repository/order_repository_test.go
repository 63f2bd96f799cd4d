package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func orderRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "order_number", "client_id", "client_snapshot", "collaborator", "equipment",
		"reported_problem", "analyst", "status_id", "technical_solution", "contracted_services",
		"confirmed_service_ids", "attachments", "created_at", "updated_at",
	}).AddRow(
		"os-1", "OS-000001", "cl-1", []byte(`{"name":"Acme"}`), []byte(`{"name":"Joana"}`),
		[]byte(`{"type":"notebook","brand":"Dell","model":"XPS","serialNumber":"SN1"}`),
		"does not boot", "Alice", "open", nil, []byte(`[{"id":"svc-1","name":"Cleaning"}]`),
		"{}", "{}", now, now,
	)
}

func TestOrderCreateWritesOrderAndOpeningLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO service_orders").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO order_logs").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	order := &models.ServiceOrder{
		OrderNumber:     "OS-000001",
		ClientID:        "cl-1",
		ClientSnapshot:  models.ClientSnapshot{Name: "Acme"},
		Collaborator:    models.Collaborator{Name: "Joana"},
		Equipment:       models.Equipment{Type: "notebook", Brand: "Dell", Model: "XPS", SerialNumber: "SN1"},
		ReportedProblem: "does not boot",
		StatusID:        "open",
	}
	openingLog := &models.LogEntry{
		Timestamp:   time.Now(),
		Responsible: "Alice",
		ToStatusID:  "open",
	}

	err := repo.Create(context.Background(), order, openingLog)
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, order.ID, openingLog.OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM service_orders WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0").
		WillReturnRows(orderRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM service_orders WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	orders, total, err := repo.List(context.Background(), dto.OrderQuery{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Acme", orders[0].ClientSnapshot.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM service_orders WHERE 1=1 AND status_id = \\$1").
		WithArgs("open").
		WillReturnRows(orderRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM service_orders WHERE 1=1 AND status_id = $1")).
		WithArgs("open").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	orders, total, err := repo.List(context.Background(), dto.OrderQuery{StatusID: "open"})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderFindByIDAttachesLedgers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM service_orders WHERE id = \\$1 LIMIT 1").
		WithArgs("os-1").
		WillReturnRows(orderRows(now))
	mock.ExpectQuery("SELECT (.+) FROM order_logs WHERE order_id = \\$1 ORDER BY ts ASC").
		WithArgs("os-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "ts", "responsible", "from_status_id", "to_status_id", "observation"}).
			AddRow("log-1", "os-1", now, "Alice", "", "open", nil))
	mock.ExpectQuery("SELECT (.+) FROM order_edit_logs WHERE order_id = \\$1 ORDER BY ts ASC").
		WithArgs("os-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "ts", "responsible", "changes", "observation"}).
			AddRow("edit-1", "os-1", now, "Alice", []byte(`[{"field":"reportedProblem","oldValue":"a","newValue":"b"}]`), nil))

	order, err := repo.FindByID(context.Background(), "os-1")
	require.NoError(t, err)
	require.Len(t, order.Logs, 1)
	assert.Equal(t, "open", order.Logs[0].ToStatusID)
	require.Len(t, order.EditLogs, 1)
	require.Len(t, order.EditLogs[0].Changes, 1)
	assert.Equal(t, "reportedProblem", order.EditLogs[0].Changes[0].Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderUpdateStatusIsTransactional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE service_orders SET status_id").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_logs").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	order := &models.ServiceOrder{ID: "os-1", StatusID: "repairing"}
	log := &models.LogEntry{OrderID: "os-1", Timestamp: time.Now(), Responsible: "Alice", FromStatusID: "open", ToStatusID: "repairing"}

	err := repo.UpdateStatus(context.Background(), order, log)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderUpdateStatusRollsBackOnLogFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE service_orders SET status_id").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_logs").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	order := &models.ServiceOrder{ID: "os-1", StatusID: "repairing"}
	log := &models.LogEntry{OrderID: "os-1", Timestamp: time.Now(), ToStatusID: "repairing"}

	err := repo.UpdateStatus(context.Background(), order, log)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderUpdateTechnicalDetails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	solution := "reseated memory"
	mock.ExpectExec("UPDATE service_orders SET technical_solution").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateTechnicalDetails(context.Background(), "os-1", &solution, []string{"svc-1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
