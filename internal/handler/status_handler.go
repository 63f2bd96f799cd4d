package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/models"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
	"github.com/osworks/servicedesk-api/pkg/response"
)

type statusService interface {
	List(ctx context.Context) ([]models.Status, error)
	Get(ctx context.Context, id string) (*models.Status, error)
	Create(ctx context.Context, req dto.CreateStatusRequest) (*models.Status, error)
	Update(ctx context.Context, id string, req dto.UpdateStatusRequest) (*models.Status, error)
	Delete(ctx context.Context, id string) error
}

// StatusHandler exposes workflow-status endpoints.
type StatusHandler struct {
	service statusService
}

// NewStatusHandler builds a new handler.
func NewStatusHandler(service statusService) *StatusHandler {
	return &StatusHandler{service: service}
}

// List godoc
// @Summary List workflow statuses
// @Tags Statuses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /statuses [get]
func (h *StatusHandler) List(c *gin.Context) {
	statuses, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}

// Get godoc
// @Summary Get workflow status by id
// @Tags Statuses
// @Produce json
// @Param id path string true "Status ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /statuses/{id} [get]
func (h *StatusHandler) Get(c *gin.Context) {
	status, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Create godoc
// @Summary Create workflow status
// @Tags Statuses
// @Accept json
// @Produce json
// @Param payload body dto.CreateStatusRequest true "Status payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /statuses [post]
func (h *StatusHandler) Create(c *gin.Context) {
	var req dto.CreateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	status, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, status)
}

// Update godoc
// @Summary Update workflow status
// @Tags Statuses
// @Accept json
// @Produce json
// @Param id path string true "Status ID"
// @Param payload body dto.UpdateStatusRequest true "Status payload"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /statuses/{id} [put]
func (h *StatusHandler) Update(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	status, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Delete godoc
// @Summary Delete workflow status
// @Description Refused while any order still sits in the status
// @Tags Statuses
// @Param id path string true "Status ID"
// @Security BearerAuth
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /statuses/{id} [delete]
func (h *StatusHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
