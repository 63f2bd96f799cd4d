package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/osworks/servicedesk-api/internal/workflow"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
	"github.com/osworks/servicedesk-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context) (*workflow.Summary, error)
}

// DashboardHandler exposes the operational overview endpoint.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler builds a new handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Dashboard summary
// @Description Active order counts per status plus per-analyst created and finalized totals
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
