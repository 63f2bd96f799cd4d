package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/service"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
	"github.com/osworks/servicedesk-api/pkg/response"
)

// ClientHandler exposes client registry endpoints.
type ClientHandler struct {
	service *service.ClientService
}

// NewClientHandler builds a new handler.
func NewClientHandler(svc *service.ClientService) *ClientHandler {
	return &ClientHandler{service: svc}
}

// List godoc
// @Summary List clients
// @Tags Clients
// @Produce json
// @Param search query string false "Search by name or CNPJ"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.service.List(c.Request.Context(), strings.TrimSpace(c.Query("search")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clients, nil)
}

// Get godoc
// @Summary Get client by id
// @Tags Clients
// @Produce json
// @Param id path string true "Client ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /clients/{id} [get]
func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client, nil)
}

// Create godoc
// @Summary Create client
// @Tags Clients
// @Accept json
// @Produce json
// @Param payload body dto.CreateClientRequest true "Client payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid client payload"))
		return
	}
	client, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, client)
}

// Update godoc
// @Summary Update client
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param payload body dto.UpdateClientRequest true "Client payload"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	var req dto.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid client payload"))
		return
	}
	client, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client, nil)
}

// Delete godoc
// @Summary Delete client
// @Description Refused while the client still has service orders
// @Tags Clients
// @Param id path string true "Client ID"
// @Security BearerAuth
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /clients/{id} [delete]
func (h *ClientHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
