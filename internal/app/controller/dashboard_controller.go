package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quonpass/quonpass-backend/internal/app/service"
	"github.com/quonpass/quonpass-backend/internal/errors"
)

type DashboardController struct {
	dashboardService service.DashboardService
}

func NewDashboardController(dashboardService service.DashboardService) *DashboardController {
	return &DashboardController{dashboardService: dashboardService}
}

// GetProgress handles GET /dashboard/progress?storeId=&year=&month=
// Year and month default to the current UTC month.
func (ctrl *DashboardController) GetProgress(c *gin.Context) {
	storeID, ok := optionalUintQuery(c, "storeId")
	if !ok {
		return
	}
	if storeID == nil {
		errors.RespondWithValidationError(c, "", map[string]string{"storeId": "is required"})
		return
	}
	year, ok := optionalIntQuery(c, "year")
	if !ok {
		return
	}
	month, ok := optionalIntQuery(c, "month")
	if !ok {
		return
	}

	now := time.Now().UTC()
	y, m := now.Year(), int(now.Month())
	if year != nil {
		y = *year
	}
	if month != nil {
		m = *month
	}

	progress, err := ctrl.dashboardService.GetMonthlyProgress(c.Request.Context(), *storeID, y, m)
	if err != nil {
		errors.Respond(c, err, "progress")
		return
	}
	c.JSON(http.StatusOK, progress)
}
