package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/middleware"
	"github.com/osworks/servicedesk-api/internal/models"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
)

type orderServiceMock struct {
	order         *models.ServiceOrder
	detail        *dto.OrderDetail
	transitionErr error
	lastQuery     dto.OrderQuery
	lastReq       dto.TransitionRequest
	lastCaps      models.CapabilitySet
}

func (m *orderServiceMock) Create(ctx context.Context, req dto.CreateOrderRequest, actor *models.JWTClaims) (*models.ServiceOrder, error) {
	return m.order, nil
}

func (m *orderServiceMock) List(ctx context.Context, query dto.OrderQuery) ([]models.ServiceOrder, *models.Pagination, error) {
	m.lastQuery = query
	return []models.ServiceOrder{*m.order}, &models.Pagination{Page: query.Page, PageSize: query.Limit, TotalCount: 1}, nil
}

func (m *orderServiceMock) Get(ctx context.Context, id string, caps models.CapabilitySet) (*dto.OrderDetail, error) {
	m.lastCaps = caps
	if m.detail == nil {
		return nil, appErrors.ErrNotFound
	}
	return m.detail, nil
}

func (m *orderServiceMock) Update(ctx context.Context, orderID string, req dto.UpdateOrderRequest, actor *models.JWTClaims) (*models.ServiceOrder, error) {
	return m.order, nil
}

func (m *orderServiceMock) Transition(ctx context.Context, orderID string, req dto.TransitionRequest, actor *models.JWTClaims, caps models.CapabilitySet) (*models.ServiceOrder, error) {
	m.lastReq = req
	m.lastCaps = caps
	if m.transitionErr != nil {
		return nil, m.transitionErr
	}
	return m.order, nil
}

func (m *orderServiceMock) RenderLabel(ctx context.Context, id string) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

func (m *orderServiceMock) ExportCSV(ctx context.Context) ([]byte, error) {
	return []byte("orderNumber\nOS-000001\n"), nil
}

func testOrder() *models.ServiceOrder {
	return &models.ServiceOrder{ID: "os-1", OrderNumber: "OS-000001", StatusID: "open"}
}

func orderTestContext(t *testing.T, method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Name: "Alice", RoleID: "r1"})
	return c, w
}

func TestOrderHandlerTransitionPassesCapabilities(t *testing.T) {
	mock := &orderServiceMock{order: testOrder()}
	handler := NewOrderHandler(mock)

	c, w := orderTestContext(t, http.MethodPut, "/os/os-1/status", dto.TransitionRequest{
		NewStatusID: "repairing",
		Observation: "bench 2",
	})
	c.Params = gin.Params{{Key: "id", Value: "os-1"}}
	caps := models.NewCapabilitySet(models.Permissions{models.ResourceOrders: {models.ActionUpdate}})
	c.Set(middleware.ContextCapabilitiesKey, caps)

	handler.Transition(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "repairing", mock.lastReq.NewStatusID)
	assert.True(t, mock.lastCaps.Has(models.ResourceOrders, models.ActionUpdate))
}

func TestOrderHandlerTransitionMissingStatus(t *testing.T) {
	mock := &orderServiceMock{order: testOrder()}
	handler := NewOrderHandler(mock)

	c, w := orderTestContext(t, http.MethodPut, "/os/os-1/status", map[string]string{"observation": "no target"})
	c.Params = gin.Params{{Key: "id", Value: "os-1"}}

	handler.Transition(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandlerTransitionSurfacesWorkflowError(t *testing.T) {
	mock := &orderServiceMock{order: testOrder(), transitionErr: appErrors.ErrOrderFinalized}
	handler := NewOrderHandler(mock)

	c, w := orderTestContext(t, http.MethodPut, "/os/os-1/status", dto.TransitionRequest{NewStatusID: "open"})
	c.Params = gin.Params{{Key: "id", Value: "os-1"}}

	handler.Transition(c)
	assert.Equal(t, appErrors.ErrOrderFinalized.Status, w.Code)
}

func TestOrderHandlerListParsesQuery(t *testing.T) {
	mock := &orderServiceMock{order: testOrder()}
	handler := NewOrderHandler(mock)

	c, w := orderTestContext(t, http.MethodGet, "/os?statusId=open&search=%20acme%20&page=2&limit=5", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "open", mock.lastQuery.StatusID)
	assert.Equal(t, "acme", mock.lastQuery.Search)
	assert.Equal(t, 2, mock.lastQuery.Page)
	assert.Equal(t, 5, mock.lastQuery.Limit)
}

func TestOrderHandlerGetReturnsTargets(t *testing.T) {
	mock := &orderServiceMock{
		order: testOrder(),
		detail: &dto.OrderDetail{
			Order:            *testOrder(),
			AvailableTargets: []models.Status{{ID: "repairing", Name: "Repairing"}},
		},
	}
	handler := NewOrderHandler(mock)

	c, w := orderTestContext(t, http.MethodGet, "/os/os-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "os-1"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.OrderDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.AvailableTargets, 1)
	assert.Equal(t, "repairing", envelope.Data.AvailableTargets[0].ID)
}

func TestOrderHandlerLabelContentType(t *testing.T) {
	mock := &orderServiceMock{order: testOrder()}
	handler := NewOrderHandler(mock)

	c, w := orderTestContext(t, http.MethodGet, "/os/os-1/label", nil)
	c.Params = gin.Params{{Key: "id", Value: "os-1"}}

	handler.Label(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "label-os-1.pdf")
}

func TestOrderHandlerExportContentType(t *testing.T) {
	mock := &orderServiceMock{order: testOrder()}
	handler := NewOrderHandler(mock)

	c, w := orderTestContext(t, http.MethodGet, "/os/export", nil)

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "OS-000001")
}
