package handlers

import (
	"context"
	"net/http"

	"billdesk/internal/common"
	"billdesk/internal/models"

	"github.com/labstack/echo/v4"
)

// DashboardSummarizer is satisfied by *analytics.DashboardService.
type DashboardSummarizer interface {
	Summary(ctx context.Context, owner string) (*models.DashboardSummary, error)
}

type DashboardHandlers struct {
	dashboard DashboardSummarizer
}

func NewDashboardHandlers(dashboard DashboardSummarizer) *DashboardHandlers {
	return &DashboardHandlers{dashboard: dashboard}
}

// GetDashboard handles GET /dashboard
func (h *DashboardHandlers) GetDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	owner, ok := common.GetOwnerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	summary, err := h.dashboard.Summary(ctx, owner)
	if err != nil {
		return sendServiceError(c, err, "dashboard")
	}

	return c.JSON(http.StatusOK, summary)
}
