package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/service"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
	"github.com/osworks/servicedesk-api/pkg/response"
)

// SettingsHandler exposes administrative settings endpoints.
type SettingsHandler struct {
	service *service.SettingsService
}

// NewSettingsHandler builds a new handler.
func NewSettingsHandler(svc *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

// GetEmail godoc
// @Summary Get email settings
// @Description The stored SMTP password is never returned
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /settings/email [get]
func (h *SettingsHandler) GetEmail(c *gin.Context) {
	settings, err := h.service.GetEmailSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateEmail godoc
// @Summary Update email settings
// @Description An empty password keeps the stored secret
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateEmailSettingsRequest true "Email settings payload"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /settings/email [put]
func (h *SettingsHandler) UpdateEmail(c *gin.Context) {
	var req dto.UpdateEmailSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	settings, err := h.service.UpdateEmailSettings(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
