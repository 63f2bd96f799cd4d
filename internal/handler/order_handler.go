package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/models"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
	"github.com/osworks/servicedesk-api/pkg/response"
)

type orderService interface {
	Create(ctx context.Context, req dto.CreateOrderRequest, actor *models.JWTClaims) (*models.ServiceOrder, error)
	List(ctx context.Context, query dto.OrderQuery) ([]models.ServiceOrder, *models.Pagination, error)
	Get(ctx context.Context, id string, caps models.CapabilitySet) (*dto.OrderDetail, error)
	Update(ctx context.Context, orderID string, req dto.UpdateOrderRequest, actor *models.JWTClaims) (*models.ServiceOrder, error)
	Transition(ctx context.Context, orderID string, req dto.TransitionRequest, actor *models.JWTClaims, caps models.CapabilitySet) (*models.ServiceOrder, error)
	RenderLabel(ctx context.Context, id string) ([]byte, error)
	ExportCSV(ctx context.Context) ([]byte, error)
}

// OrderHandler exposes service-order endpoints.
type OrderHandler struct {
	service orderService
}

// NewOrderHandler builds a new handler.
func NewOrderHandler(service orderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// List godoc
// @Summary List service orders
// @Tags Orders
// @Produce json
// @Param statusId query string false "Filter by status"
// @Param clientId query string false "Filter by client"
// @Param analyst query string false "Filter by analyst"
// @Param search query string false "Search by order number or client name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /os [get]
func (h *OrderHandler) List(c *gin.Context) {
	var query dto.OrderQuery
	query.StatusID = c.Query("statusId")
	query.ClientID = c.Query("clientId")
	query.Analyst = c.Query("analyst")
	query.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		query.Limit = limit
	}

	orders, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orders, pagination)
}

// Create godoc
// @Summary Open a service order
// @Tags Orders
// @Accept json
// @Produce json
// @Param payload body dto.CreateOrderRequest true "Order payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /os [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid order payload"))
		return
	}

	order, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, order)
}

// Get godoc
// @Summary Get service order by id
// @Description Returns the order with its ledgers and the statuses the caller may move it to
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /os/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), capabilitiesFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Update godoc
// @Summary Edit service order details
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param payload body dto.UpdateOrderRequest true "Order payload"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /os/{id} [put]
func (h *OrderHandler) Update(c *gin.Context) {
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid order payload"))
		return
	}

	order, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, order, nil)
}

// Transition godoc
// @Summary Move order to a new status
// @Description Applies the workflow rules and records the transition in the order ledger
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param payload body dto.TransitionRequest true "Transition payload"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /os/{id}/status [put]
func (h *OrderHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}

	order, err := h.service.Transition(c.Request.Context(), c.Param("id"), req, claimsFromContext(c), capabilitiesFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, order, nil)
}

// Label godoc
// @Summary Render equipment label
// @Description Produces a printable PDF label for the order's equipment
// @Tags Orders
// @Produce application/pdf
// @Param id path string true "Order ID"
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /os/{id}/label [get]
func (h *OrderHandler) Label(c *gin.Context) {
	pdf, err := h.service.RenderLabel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "label-"+c.Param("id")+".pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Export godoc
// @Summary Export orders as CSV
// @Tags Orders
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /os/export [get]
func (h *OrderHandler) Export(c *gin.Context) {
	data, err := h.service.ExportCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="service-orders.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}
