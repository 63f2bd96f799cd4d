package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/service"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
	"github.com/osworks/servicedesk-api/pkg/response"
)

// CatalogHandler exposes the provided-services catalog endpoints.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler builds a new handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// List godoc
// @Summary List provided services
// @Tags Services
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /services [get]
func (h *CatalogHandler) List(c *gin.Context) {
	services, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, services, nil)
}

// Get godoc
// @Summary Get provided service by id
// @Tags Services
// @Produce json
// @Param id path string true "Service ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /services/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	svc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, svc, nil)
}

// Create godoc
// @Summary Create provided service
// @Tags Services
// @Accept json
// @Produce json
// @Param payload body dto.CreateServiceRequest true "Service payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /services [post]
func (h *CatalogHandler) Create(c *gin.Context) {
	var req dto.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid service payload"))
		return
	}
	svc, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, svc)
}

// Update godoc
// @Summary Update provided service
// @Tags Services
// @Accept json
// @Produce json
// @Param id path string true "Service ID"
// @Param payload body dto.UpdateServiceRequest true "Service payload"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /services/{id} [put]
func (h *CatalogHandler) Update(c *gin.Context) {
	var req dto.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid service payload"))
		return
	}
	svc, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, svc, nil)
}

// Delete godoc
// @Summary Delete provided service
// @Tags Services
// @Param id path string true "Service ID"
// @Security BearerAuth
// @Success 204 {object} response.Envelope
// @Router /services/{id} [delete]
func (h *CatalogHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
