package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osworks/servicedesk-api/internal/models"
)

func clientRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "cnpj", "address", "phone", "contracted_service_ids",
		"web_protection", "backup", "edr", "created_at", "updated_at",
	}).AddRow("cl-1", "Acme", nil, nil, nil, nil, `{"svc-1","svc-2"}`, true, false, false, now, now)
}

func TestClientListWithSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM clients WHERE LOWER\\(name\\) LIKE \\$1").
		WithArgs("%acme%").
		WillReturnRows(clientRows(time.Now()))

	clients, err := repo.List(context.Background(), "Acme")
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, []string{"svc-1", "svc-2"}, []string(clients[0].ContractedServiceIDs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectExec("INSERT INTO clients").WillReturnResult(sqlmock.NewResult(1, 1))

	client := &models.Client{Name: "Acme", ContractedServiceIDs: []string{"svc-1"}}
	err := repo.Create(context.Background(), client)
	require.NoError(t, err)
	assert.NotEmpty(t, client.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
