package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/service"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
	"github.com/osworks/servicedesk-api/pkg/response"
)

// RoleHandler exposes role administration endpoints.
type RoleHandler struct {
	service *service.RoleService
}

// NewRoleHandler builds a new handler.
func NewRoleHandler(svc *service.RoleService) *RoleHandler {
	return &RoleHandler{service: svc}
}

// List godoc
// @Summary List roles
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roles, nil)
}

// Get godoc
// @Summary Get role by id
// @Tags Roles
// @Produce json
// @Param id path string true "Role ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /roles/{id} [get]
func (h *RoleHandler) Get(c *gin.Context) {
	role, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, role, nil)
}

// Create godoc
// @Summary Create role
// @Tags Roles
// @Accept json
// @Produce json
// @Param payload body dto.CreateRoleRequest true "Role payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /roles [post]
func (h *RoleHandler) Create(c *gin.Context) {
	var req dto.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role payload"))
		return
	}
	role, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, role)
}

// Update godoc
// @Summary Update role
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path string true "Role ID"
// @Param payload body dto.UpdateRoleRequest true "Role payload"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /roles/{id} [put]
func (h *RoleHandler) Update(c *gin.Context) {
	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role payload"))
		return
	}
	role, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, role, nil)
}

// Delete godoc
// @Summary Delete role
// @Description Refused while any user still holds the role
// @Tags Roles
// @Param id path string true "Role ID"
// @Security BearerAuth
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /roles/{id} [delete]
func (h *RoleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
