package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/models"
	"github.com/osworks/servicedesk-api/internal/workflow"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
)

type orderRepoStub struct {
	orders        map[string]*models.ServiceOrder
	statusUpdates int
	detailUpdates int
	techUpdates   int
	lastLog       *models.LogEntry
	lastEditLog   *models.EditLogEntry
	err           error
}

func (s *orderRepoStub) NextOrderNumber(ctx context.Context) (string, error) {
	return "OS-000042", s.err
}

func (s *orderRepoStub) Create(ctx context.Context, order *models.ServiceOrder, openingLog *models.LogEntry) error {
	if s.err != nil {
		return s.err
	}
	if order.ID == "" {
		order.ID = "os-new"
	}
	if openingLog != nil {
		openingLog.OrderID = order.ID
	}
	s.lastLog = openingLog
	if s.orders == nil {
		s.orders = make(map[string]*models.ServiceOrder)
	}
	s.orders[order.ID] = order
	return nil
}

func (s *orderRepoStub) List(ctx context.Context, query dto.OrderQuery) ([]models.ServiceOrder, int, error) {
	return nil, 0, s.err
}

func (s *orderRepoStub) ListAll(ctx context.Context) ([]models.ServiceOrder, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.ServiceOrder, 0, len(s.orders))
	for _, order := range s.orders {
		out = append(out, *order)
	}
	return out, nil
}

func (s *orderRepoStub) FindByID(ctx context.Context, id string) (*models.ServiceOrder, error) {
	if s.err != nil {
		return nil, s.err
	}
	order, ok := s.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *order
	return &copied, nil
}

func (s *orderRepoStub) UpdateStatus(ctx context.Context, order *models.ServiceOrder, log *models.LogEntry) error {
	if s.err != nil {
		return s.err
	}
	s.statusUpdates++
	s.lastLog = log
	s.orders[order.ID] = order
	return nil
}

func (s *orderRepoStub) UpdateTechnicalDetails(ctx context.Context, orderID string, solution *string, confirmed []string) error {
	s.techUpdates++
	return s.err
}

func (s *orderRepoStub) UpdateDetails(ctx context.Context, order *models.ServiceOrder, editLog *models.EditLogEntry) error {
	if s.err != nil {
		return s.err
	}
	s.detailUpdates++
	s.lastEditLog = editLog
	s.orders[order.ID] = order
	return nil
}

type clientReaderStub struct {
	clients map[string]*models.Client
}

func (s clientReaderStub) FindByID(ctx context.Context, id string) (*models.Client, error) {
	client, ok := s.clients[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return client, nil
}

type catalogReaderStub struct {
	services map[string]models.ProvidedService
}

func (s catalogReaderStub) FindByIDs(ctx context.Context, ids []string) ([]models.ProvidedService, error) {
	seen := make(map[string]struct{})
	var out []models.ProvidedService
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if svc, ok := s.services[id]; ok {
			out = append(out, svc)
		}
	}
	return out, nil
}

type registryStub struct {
	statuses []models.Status
	err      error
}

func (s registryStub) Registry(ctx context.Context) (*workflow.Registry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return workflow.NewRegistry(s.statuses), nil
}

type notifierStub struct {
	notified int
	lastTo   string
}

func (s *notifierStub) NotifyStatusReached(order *models.ServiceOrder, target models.Status) {
	s.notified++
	s.lastTo = target.ID
}

type invalidatorStub struct {
	calls int
}

func (s *invalidatorStub) Invalidate(ctx context.Context) { s.calls++ }

func workflowStatuses() []models.Status {
	return []models.Status{
		{ID: "open", Name: "Open", Order: 1, IsInitial: true, AllowedNextStatuses: []string{"repairing"}},
		{ID: "repairing", Name: "Repairing", Order: 2, AllowedNextStatuses: []string{"awaiting-pickup"}},
		{ID: "awaiting-pickup", Name: "Awaiting Pickup", Order: 3, IsPickupStatus: true, TriggersEmail: true, AllowedNextStatuses: []string{"delivered"}},
		{ID: "delivered", Name: "Delivered", Order: 4, IsFinal: true},
	}
}

func testClient() *models.Client {
	email := "contact@acme.example"
	return &models.Client{ID: "cl-1", Name: "Acme", Email: &email}
}

func testOrderService(repo *orderRepoStub, statuses registryStub, notifier *notifierStub, invalidator *invalidatorStub) *OrderService {
	clients := clientReaderStub{clients: map[string]*models.Client{"cl-1": testClient()}}
	catalog := catalogReaderStub{services: map[string]models.ProvidedService{
		"svc-1": {ID: "svc-1", Name: "Cleaning"},
		"svc-2": {ID: "svc-2", Name: "Board repair"},
	}}
	return NewOrderService(repo, clients, catalog, statuses, notifier, invalidator, nil, nil, nil)
}

func updateCaps() models.CapabilitySet {
	return models.NewCapabilitySet(models.Permissions{
		models.ResourceOrders: {models.ActionUpdate},
	})
}

func TestOrderCreateSnapshotsClientAndServices(t *testing.T) {
	repo := &orderRepoStub{}
	invalidator := &invalidatorStub{}
	svc := testOrderService(repo, registryStub{statuses: workflowStatuses()}, &notifierStub{}, invalidator)

	order, err := svc.Create(context.Background(), dto.CreateOrderRequest{
		ClientID:             "cl-1",
		Collaborator:         dto.CollaboratorInput{Name: "Joana"},
		Equipment:            dto.EquipmentInput{Type: "notebook", Brand: "Dell", Model: "XPS", SerialNumber: "SN1"},
		ReportedProblem:      "does not boot",
		ContractedServiceIDs: []string{"svc-1", "svc-2"},
	}, &models.JWTClaims{UserID: "u1", Name: "Alice"})

	require.NoError(t, err)
	assert.Equal(t, "OS-000042", order.OrderNumber)
	assert.Equal(t, "open", order.StatusID)
	assert.Equal(t, "Acme", order.ClientSnapshot.Name)
	assert.Equal(t, "Alice", order.Analyst)
	require.Len(t, order.ContractedServices, 2)
	assert.Empty(t, order.ConfirmedServiceIDs)

	require.NotNil(t, repo.lastLog)
	assert.Equal(t, "", repo.lastLog.FromStatusID)
	assert.Equal(t, "open", repo.lastLog.ToStatusID)
	assert.Equal(t, 1, invalidator.calls)
}

func TestOrderCreateFailsWithoutInitialStatus(t *testing.T) {
	statuses := []models.Status{{ID: "a", Order: 1}, {ID: "b", Order: 2}}
	svc := testOrderService(&orderRepoStub{}, registryStub{statuses: statuses}, &notifierStub{}, &invalidatorStub{})

	_, err := svc.Create(context.Background(), dto.CreateOrderRequest{
		ClientID:        "cl-1",
		Collaborator:    dto.CollaboratorInput{Name: "Joana"},
		Equipment:       dto.EquipmentInput{Type: "notebook", Brand: "Dell", Model: "XPS", SerialNumber: "SN1"},
		ReportedProblem: "does not boot",
	}, nil)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConfiguration.Code, appErrors.FromError(err).Code)
}

func TestOrderCreateRejectsUnknownService(t *testing.T) {
	svc := testOrderService(&orderRepoStub{}, registryStub{statuses: workflowStatuses()}, &notifierStub{}, &invalidatorStub{})

	_, err := svc.Create(context.Background(), dto.CreateOrderRequest{
		ClientID:             "cl-1",
		Collaborator:         dto.CollaboratorInput{Name: "Joana"},
		Equipment:            dto.EquipmentInput{Type: "notebook", Brand: "Dell", Model: "XPS", SerialNumber: "SN1"},
		ReportedProblem:      "does not boot",
		ContractedServiceIDs: []string{"svc-ghost"},
	}, nil)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func existingOrder(statusID string) *models.ServiceOrder {
	email := "contact@acme.example"
	return &models.ServiceOrder{
		ID:              "os-1",
		OrderNumber:     "OS-000001",
		ClientID:        "cl-1",
		ClientSnapshot:  models.ClientSnapshot{Name: "Acme", Email: &email},
		Collaborator:    models.Collaborator{Name: "Joana"},
		Equipment:       models.Equipment{Type: "notebook", Brand: "Dell", Model: "XPS", SerialNumber: "SN1"},
		ReportedProblem: "does not boot",
		Analyst:         "Alice",
		StatusID:        statusID,
		ContractedServices: models.ContractedServices{
			{ID: "svc-1", Name: "Cleaning"},
			{ID: "svc-2", Name: "Board repair"},
		},
	}
}

func TestTransitionAppliesPlanAndNotifies(t *testing.T) {
	repo := &orderRepoStub{orders: map[string]*models.ServiceOrder{"os-1": existingOrder("repairing")}}
	notifier := &notifierStub{}
	invalidator := &invalidatorStub{}
	svc := testOrderService(repo, registryStub{statuses: workflowStatuses()}, notifier, invalidator)

	order, err := svc.Transition(context.Background(), "os-1", dto.TransitionRequest{
		NewStatusID:         "awaiting-pickup",
		Observation:         "all services done",
		ConfirmedServiceIDs: []string{"svc-1", "svc-2"},
	}, &models.JWTClaims{Name: "Bruno"}, updateCaps())

	require.NoError(t, err)
	assert.Equal(t, "awaiting-pickup", order.StatusID)
	assert.Equal(t, 1, repo.statusUpdates)
	require.NotNil(t, repo.lastLog)
	assert.Equal(t, "repairing", repo.lastLog.FromStatusID)
	assert.Equal(t, "awaiting-pickup", repo.lastLog.ToStatusID)
	assert.Equal(t, "Bruno", repo.lastLog.Responsible)
	assert.Equal(t, 1, notifier.notified)
	assert.Equal(t, "awaiting-pickup", notifier.lastTo)
	assert.Equal(t, 1, invalidator.calls)
}

func TestTransitionSameStatusSkipsLedgerAndNotification(t *testing.T) {
	repo := &orderRepoStub{orders: map[string]*models.ServiceOrder{"os-1": existingOrder("repairing")}}
	notifier := &notifierStub{}
	svc := testOrderService(repo, registryStub{statuses: workflowStatuses()}, notifier, &invalidatorStub{})

	order, err := svc.Transition(context.Background(), "os-1", dto.TransitionRequest{
		NewStatusID: "repairing",
		Observation: "swapped the fan",
	}, &models.JWTClaims{Name: "Bruno"}, updateCaps())

	require.NoError(t, err)
	assert.Equal(t, "repairing", order.StatusID)
	assert.Zero(t, repo.statusUpdates)
	assert.Equal(t, 1, repo.techUpdates)
	assert.Zero(t, notifier.notified)
	require.NotNil(t, order.TechnicalSolution)
	assert.Equal(t, "swapped the fan", *order.TechnicalSolution)
}

func TestTransitionMissingNoteLeavesOrderUntouched(t *testing.T) {
	repo := &orderRepoStub{orders: map[string]*models.ServiceOrder{"os-1": existingOrder("repairing")}}
	svc := testOrderService(repo, registryStub{statuses: workflowStatuses()}, &notifierStub{}, &invalidatorStub{})

	_, err := svc.Transition(context.Background(), "os-1", dto.TransitionRequest{
		NewStatusID:         "awaiting-pickup",
		Observation:         "   ",
		ConfirmedServiceIDs: []string{"svc-1", "svc-2"},
	}, nil, updateCaps())

	assert.True(t, errors.Is(err, appErrors.ErrMissingNote))
	assert.Zero(t, repo.statusUpdates)
	assert.Equal(t, "repairing", repo.orders["os-1"].StatusID)
}

func TestTransitionWithoutCapabilityIsDenied(t *testing.T) {
	repo := &orderRepoStub{orders: map[string]*models.ServiceOrder{"os-1": existingOrder("repairing")}}
	svc := testOrderService(repo, registryStub{statuses: workflowStatuses()}, &notifierStub{}, &invalidatorStub{})

	_, err := svc.Transition(context.Background(), "os-1", dto.TransitionRequest{
		NewStatusID: "awaiting-pickup",
		Observation: "ready",
	}, nil, models.CapabilitySet{})

	assert.True(t, errors.Is(err, appErrors.ErrPermissionDenied))
	assert.Zero(t, repo.statusUpdates)
}

func TestUpdateRecordsFieldDiffs(t *testing.T) {
	repo := &orderRepoStub{orders: map[string]*models.ServiceOrder{"os-1": existingOrder("repairing")}}
	svc := testOrderService(repo, registryStub{statuses: workflowStatuses()}, &notifierStub{}, &invalidatorStub{})

	order, err := svc.Update(context.Background(), "os-1", dto.UpdateOrderRequest{
		ClientID:        "cl-1",
		Collaborator:    dto.CollaboratorInput{Name: "Joana"},
		Equipment:       dto.EquipmentInput{Type: "notebook", Brand: "Dell", Model: "XPS", SerialNumber: "SN1"},
		ReportedProblem: "does not boot after rain",
	}, &models.JWTClaims{Name: "Carla"})

	require.NoError(t, err)
	assert.Equal(t, "does not boot after rain", order.ReportedProblem)
	assert.Equal(t, 1, repo.detailUpdates)
	require.NotNil(t, repo.lastEditLog)
	require.Len(t, repo.lastEditLog.Changes, 1)
	assert.Equal(t, "reportedProblem", repo.lastEditLog.Changes[0].Field)
	assert.Equal(t, "does not boot", repo.lastEditLog.Changes[0].OldValue)
	assert.Equal(t, "Carla", repo.lastEditLog.Responsible)
}

func TestUpdateAttachmentsOnlyPersistsAndLogs(t *testing.T) {
	base := existingOrder("repairing")
	base.Attachments = pq.StringArray{"old.pdf"}
	repo := &orderRepoStub{orders: map[string]*models.ServiceOrder{"os-1": base}}
	svc := testOrderService(repo, registryStub{statuses: workflowStatuses()}, &notifierStub{}, &invalidatorStub{})

	order, err := svc.Update(context.Background(), "os-1", dto.UpdateOrderRequest{
		ClientID:        "cl-1",
		Collaborator:    dto.CollaboratorInput{Name: "Joana"},
		Equipment:       dto.EquipmentInput{Type: "notebook", Brand: "Dell", Model: "XPS", SerialNumber: "SN1"},
		ReportedProblem: "does not boot",
		Attachments:     []string{"old.pdf", "new-photo.jpg"},
	}, &models.JWTClaims{Name: "Carla"})

	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"old.pdf", "new-photo.jpg"}, order.Attachments)
	assert.Equal(t, 1, repo.detailUpdates)
	assert.Equal(t, pq.StringArray{"old.pdf", "new-photo.jpg"}, repo.orders["os-1"].Attachments)
	require.NotNil(t, repo.lastEditLog)
	require.Len(t, repo.lastEditLog.Changes, 1)
	assert.Equal(t, "attachments", repo.lastEditLog.Changes[0].Field)
	assert.Equal(t, pq.StringArray{"old.pdf"}, repo.lastEditLog.Changes[0].OldValue)
}

func TestUpdateWithoutChangesWritesNothing(t *testing.T) {
	repo := &orderRepoStub{orders: map[string]*models.ServiceOrder{"os-1": existingOrder("repairing")}}
	svc := testOrderService(repo, registryStub{statuses: workflowStatuses()}, &notifierStub{}, &invalidatorStub{})

	_, err := svc.Update(context.Background(), "os-1", dto.UpdateOrderRequest{
		ClientID:        "cl-1",
		Collaborator:    dto.CollaboratorInput{Name: "Joana"},
		Equipment:       dto.EquipmentInput{Type: "notebook", Brand: "Dell", Model: "XPS", SerialNumber: "SN1"},
		ReportedProblem: "does not boot",
	}, nil)

	require.NoError(t, err)
	assert.Zero(t, repo.detailUpdates)
}

func TestUpdateFinalizedOrderRejected(t *testing.T) {
	repo := &orderRepoStub{orders: map[string]*models.ServiceOrder{"os-1": existingOrder("delivered")}}
	svc := testOrderService(repo, registryStub{statuses: workflowStatuses()}, &notifierStub{}, &invalidatorStub{})

	_, err := svc.Update(context.Background(), "os-1", dto.UpdateOrderRequest{
		ClientID:        "cl-1",
		Collaborator:    dto.CollaboratorInput{Name: "Joana"},
		Equipment:       dto.EquipmentInput{Type: "notebook", Brand: "Dell", Model: "XPS", SerialNumber: "SN1"},
		ReportedProblem: "changed",
	}, nil)

	assert.True(t, errors.Is(err, appErrors.ErrOrderFinalized))
}

func TestGetIncludesAvailableTargets(t *testing.T) {
	repo := &orderRepoStub{orders: map[string]*models.ServiceOrder{"os-1": existingOrder("open")}}
	svc := testOrderService(repo, registryStub{statuses: workflowStatuses()}, &notifierStub{}, &invalidatorStub{})

	detail, err := svc.Get(context.Background(), "os-1", updateCaps())
	require.NoError(t, err)
	require.Len(t, detail.AvailableTargets, 1)
	assert.Equal(t, "repairing", detail.AvailableTargets[0].ID)
}

func TestGetUnknownOrderIsNotFound(t *testing.T) {
	svc := testOrderService(&orderRepoStub{}, registryStub{statuses: workflowStatuses()}, &notifierStub{}, &invalidatorStub{})

	_, err := svc.Get(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
