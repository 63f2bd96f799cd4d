package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/models"
	"github.com/osworks/servicedesk-api/internal/workflow"
	"github.com/osworks/servicedesk-api/pkg/export"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
)

type orderRepository interface {
	NextOrderNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, order *models.ServiceOrder, openingLog *models.LogEntry) error
	List(ctx context.Context, query dto.OrderQuery) ([]models.ServiceOrder, int, error)
	ListAll(ctx context.Context) ([]models.ServiceOrder, error)
	FindByID(ctx context.Context, id string) (*models.ServiceOrder, error)
	UpdateStatus(ctx context.Context, order *models.ServiceOrder, log *models.LogEntry) error
	UpdateTechnicalDetails(ctx context.Context, orderID string, solution *string, confirmed []string) error
	UpdateDetails(ctx context.Context, order *models.ServiceOrder, editLog *models.EditLogEntry) error
}

type orderClientReader interface {
	FindByID(ctx context.Context, id string) (*models.Client, error)
}

type registryProvider interface {
	Registry(ctx context.Context) (*workflow.Registry, error)
}

type transitionNotifier interface {
	NotifyStatusReached(order *models.ServiceOrder, target models.Status)
}

type summaryInvalidator interface {
	Invalidate(ctx context.Context)
}

// OrderService owns the service-order lifecycle: opening, listing,
// editing, transitioning and exporting. Every status change goes
// through the workflow engine; there is no other write path.
type OrderService struct {
	repo      orderRepository
	clients   orderClientReader
	catalog   serviceCatalogReader
	statuses  registryProvider
	notifier  transitionNotifier
	dashboard summaryInvalidator
	metrics   *MetricsService
	labels    *export.LabelExporter
	csv       *export.CSVExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOrderService constructs an OrderService.
func NewOrderService(repo orderRepository, clients orderClientReader, catalog serviceCatalogReader, statuses registryProvider, notifier transitionNotifier, dashboard summaryInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *OrderService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		repo:      repo,
		clients:   clients,
		catalog:   catalog,
		statuses:  statuses,
		notifier:  notifier,
		dashboard: dashboard,
		metrics:   metrics,
		labels:    export.NewLabelExporter(),
		csv:       export.NewCSVExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Create opens an order in the single initial status, snapshotting the
// client and the contracted services as they exist right now.
func (s *OrderService) Create(ctx context.Context, req dto.CreateOrderRequest, actor *models.JWTClaims) (*models.ServiceOrder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid order payload")
	}

	reg, err := s.statuses.Registry(ctx)
	if err != nil {
		return nil, err
	}
	initial, err := reg.InitialStatus()
	if err != nil {
		return nil, err
	}

	client, err := s.clients.FindByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}

	contracted, err := s.snapshotServices(ctx, req.ContractedServiceIDs)
	if err != nil {
		return nil, err
	}

	number, err := s.repo.NextOrderNumber(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate order number")
	}

	analyst := strings.TrimSpace(req.Analyst)
	if analyst == "" && actor != nil {
		analyst = actor.Name
	}

	order := &models.ServiceOrder{
		OrderNumber: number,
		ClientID:    client.ID,
		ClientSnapshot: models.ClientSnapshot{
			Name:    client.Name,
			Email:   client.Email,
			CNPJ:    client.CNPJ,
			Address: client.Address,
		},
		Collaborator: models.Collaborator{
			Name:  req.Collaborator.Name,
			Email: req.Collaborator.Email,
			Phone: req.Collaborator.Phone,
		},
		Equipment: models.Equipment{
			Type:         req.Equipment.Type,
			Brand:        req.Equipment.Brand,
			Model:        req.Equipment.Model,
			SerialNumber: req.Equipment.SerialNumber,
		},
		ReportedProblem:     req.ReportedProblem,
		Analyst:             analyst,
		StatusID:            initial.ID,
		ContractedServices:  contracted,
		ConfirmedServiceIDs: []string{},
		Attachments:         req.Attachments,
	}

	openingLog := &models.LogEntry{
		Timestamp:   time.Now().UTC(),
		Responsible: analyst,
		FromStatusID: "",
		ToStatusID:  initial.ID,
	}

	if err := s.repo.Create(ctx, order, openingLog); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create order")
	}

	s.metrics.RecordOrderCreated()
	s.invalidateDashboard(ctx)
	s.logger.Info("service order opened", zap.String("orderId", order.ID), zap.String("orderNumber", order.OrderNumber))

	order.Logs = []models.LogEntry{*openingLog}
	return order, nil
}

// List returns orders matching the query filters.
func (s *OrderService) List(ctx context.Context, query dto.OrderQuery) ([]models.ServiceOrder, *models.Pagination, error) {
	orders, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list orders")
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return orders, &models.Pagination{Page: page, PageSize: limit, TotalCount: total}, nil
}

// Get returns an order with its ledgers and the targets reachable by
// the requesting actor.
func (s *OrderService) Get(ctx context.Context, id string, caps models.CapabilitySet) (*dto.OrderDetail, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	reg, err := s.statuses.Registry(ctx)
	if err != nil {
		return nil, err
	}

	var targets []models.Status
	if current, ok := reg.ByID(order.StatusID); ok {
		targets = workflow.AvailableTargets(current, caps.CanOverrideTransitions(), reg)
	}

	return &dto.OrderDetail{Order: *order, AvailableTargets: targets}, nil
}

// Transition runs one validated status change (or a same-status detail
// update) and persists its outcome.
func (s *OrderService) Transition(ctx context.Context, orderID string, req dto.TransitionRequest, actor *models.JWTClaims, caps models.CapabilitySet) (*models.ServiceOrder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	reg, err := s.statuses.Registry(ctx)
	if err != nil {
		return nil, err
	}

	actorName := ""
	if actor != nil {
		actorName = actor.Name
	}

	plan, err := workflow.PlanTransition(order, workflow.Request{
		TargetStatusID:      req.NewStatusID,
		Note:                req.Observation,
		ConfirmedServiceIDs: req.ConfirmedServiceIDs,
		Actor:               actorName,
		Capabilities:        caps,
		Now:                 time.Now().UTC(),
	}, reg)
	if err != nil {
		return nil, err
	}

	solution := order.TechnicalSolution
	if plan.TechnicalSolution != "" {
		value := plan.TechnicalSolution
		solution = &value
	}

	if plan.DetailOnly {
		if err := s.repo.UpdateTechnicalDetails(ctx, order.ID, solution, plan.ConfirmedServiceIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update order details")
		}
		order.TechnicalSolution = solution
		order.ConfirmedServiceIDs = plan.ConfirmedServiceIDs
		return order, nil
	}

	fromStatusID := order.StatusID
	order.StatusID = plan.Target.ID
	order.TechnicalSolution = solution
	order.ConfirmedServiceIDs = plan.ConfirmedServiceIDs

	if err := s.repo.UpdateStatus(ctx, order, plan.Log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transition")
	}

	order.Logs = append(order.Logs, *plan.Log)
	s.metrics.RecordTransition(fromStatusID, plan.Target.ID)
	s.invalidateDashboard(ctx)
	s.logger.Info("order transitioned",
		zap.String("orderId", order.ID),
		zap.String("from", fromStatusID),
		zap.String("to", plan.Target.ID),
		zap.String("responsible", actorName),
	)

	if plan.NotifyEmail && s.notifier != nil {
		s.notifier.NotifyStatusReached(order, plan.Target)
	}

	return order, nil
}

// Update edits the order's descriptive details and appends one
// edit-log entry with the per-field diff. Finalized orders stay
// immutable.
func (s *OrderService) Update(ctx context.Context, orderID string, req dto.UpdateOrderRequest, actor *models.JWTClaims) (*models.ServiceOrder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid order payload")
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	reg, err := s.statuses.Registry(ctx)
	if err != nil {
		return nil, err
	}
	if current, ok := reg.ByID(order.StatusID); ok && current.IsFinal {
		return nil, appErrors.ErrOrderFinalized
	}

	changes := models.EditLogChanges{}

	if req.ClientID != order.ClientID {
		client, err := s.clients.FindByID(ctx, req.ClientID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "client not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
		}
		changes = append(changes, models.EditLogChange{Field: "clientId", OldValue: order.ClientID, NewValue: client.ID})
		order.ClientID = client.ID
		order.ClientSnapshot = models.ClientSnapshot{
			Name:    client.Name,
			Email:   client.Email,
			CNPJ:    client.CNPJ,
			Address: client.Address,
		}
	}

	newCollaborator := models.Collaborator{Name: req.Collaborator.Name, Email: req.Collaborator.Email, Phone: req.Collaborator.Phone}
	if !sameCollaborator(newCollaborator, order.Collaborator) {
		changes = append(changes, models.EditLogChange{Field: "collaborator", OldValue: order.Collaborator, NewValue: newCollaborator})
		order.Collaborator = newCollaborator
	}

	newEquipment := models.Equipment{Type: req.Equipment.Type, Brand: req.Equipment.Brand, Model: req.Equipment.Model, SerialNumber: req.Equipment.SerialNumber}
	if newEquipment != order.Equipment {
		changes = append(changes, models.EditLogChange{Field: "equipment", OldValue: order.Equipment, NewValue: newEquipment})
		order.Equipment = newEquipment
	}

	if req.ReportedProblem != order.ReportedProblem {
		changes = append(changes, models.EditLogChange{Field: "reportedProblem", OldValue: order.ReportedProblem, NewValue: req.ReportedProblem})
		order.ReportedProblem = req.ReportedProblem
	}

	if !sameStringList(req.Attachments, order.Attachments) {
		changes = append(changes, models.EditLogChange{Field: "attachments", OldValue: order.Attachments, NewValue: req.Attachments})
		order.Attachments = req.Attachments
	}

	if len(changes) == 0 {
		return order, nil
	}

	actorName := ""
	if actor != nil {
		actorName = actor.Name
	}
	var observation *string
	if note := strings.TrimSpace(req.Observation); note != "" {
		observation = &note
	}
	editLog := &models.EditLogEntry{
		OrderID:     order.ID,
		Timestamp:   time.Now().UTC(),
		Responsible: actorName,
		Changes:     changes,
		Observation: observation,
	}

	if err := s.repo.UpdateDetails(ctx, order, editLog); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update order")
	}

	order.EditLogs = append(order.EditLogs, *editLog)
	return order, nil
}

func (s *OrderService) invalidateDashboard(ctx context.Context) {
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
}

// RenderLabel produces the printable A6 label for an order.
func (s *OrderService) RenderLabel(ctx context.Context, id string) ([]byte, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	reg, err := s.statuses.Registry(ctx)
	if err != nil {
		return nil, err
	}
	statusName := order.StatusID
	if status, ok := reg.ByID(order.StatusID); ok {
		statusName = status.Name
	}

	phone := ""
	if order.Collaborator.Phone != nil {
		phone = *order.Collaborator.Phone
	}

	label := export.Label{
		OrderNumber: order.OrderNumber,
		ClientName:  order.ClientSnapshot.Name,
		Contact:     order.Collaborator.Name,
		Phone:       phone,
		Equipment:   fmt.Sprintf("%s %s %s", order.Equipment.Type, order.Equipment.Brand, order.Equipment.Model),
		SerialNo:    order.Equipment.SerialNumber,
		Problem:     order.ReportedProblem,
		Status:      statusName,
		OpenedAt:    order.CreatedAt.Format("2006-01-02 15:04"),
		Analyst:     order.Analyst,
	}

	data, err := s.labels.Render(label)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render label")
	}
	return data, nil
}

// ExportCSV renders every order as a CSV dataset for spreadsheets.
func (s *OrderService) ExportCSV(ctx context.Context) ([]byte, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load orders")
	}

	reg, err := s.statuses.Registry(ctx)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"orderNumber", "client", "equipment", "serialNumber", "status", "analyst", "createdAt"},
	}
	for i := range orders {
		order := &orders[i]
		statusName := order.StatusID
		if status, ok := reg.ByID(order.StatusID); ok {
			statusName = status.Name
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"orderNumber":  order.OrderNumber,
			"client":       order.ClientSnapshot.Name,
			"equipment":    fmt.Sprintf("%s %s %s", order.Equipment.Type, order.Equipment.Brand, order.Equipment.Model),
			"serialNumber": order.Equipment.SerialNumber,
			"status":       statusName,
			"analyst":      order.Analyst,
			"createdAt":    order.CreatedAt.Format(time.RFC3339),
		})
	}

	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

func (s *OrderService) findOrder(ctx context.Context, id string) (*models.ServiceOrder, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "service order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	return order, nil
}

// sameCollaborator compares by value; the pointer fields hold optional
// strings, not identities.
func sameCollaborator(a, b models.Collaborator) bool {
	return a.Name == b.Name && samePtr(a.Email, b.Email) && samePtr(a.Phone, b.Phone)
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameStringList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *OrderService) snapshotServices(ctx context.Context, ids []string) (models.ContractedServices, error) {
	if len(ids) == 0 {
		return models.ContractedServices{}, nil
	}
	services, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load services")
	}
	if len(services) != len(dedupeStrings(ids)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown service id in contracted services")
	}
	snapshot := make(models.ContractedServices, 0, len(services))
	for _, svc := range services {
		snapshot = append(snapshot, models.ContractedService{ID: svc.ID, Name: svc.Name})
	}
	return snapshot, nil
}
