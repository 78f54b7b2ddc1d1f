package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/service"
	"github.com/quonpass/quonpass-backend/internal/errors"
	"github.com/quonpass/quonpass-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

// TargetController serves the annual, monthly, weekly and daily target endpoints.
type TargetController struct {
	targetService service.TargetService
}

func NewTargetController(targetService service.TargetService) *TargetController {
	return &TargetController{targetService: targetService}
}

// AmountsRequest carries the goal fields shared by every level.
type AmountsRequest struct {
	TargetSalesAmount    *decimal.Decimal `json:"target_sales_amount"`
	TargetCustomerCount  *int             `json:"target_customer_count"`
	TargetTotalItemsSold *int             `json:"target_total_items_sold"`
}

func (r AmountsRequest) input() service.AmountsInput {
	return service.AmountsInput{
		TargetSalesAmount:    r.TargetSalesAmount,
		TargetCustomerCount:  r.TargetCustomerCount,
		TargetTotalItemsSold: r.TargetTotalItemsSold,
	}
}

type CreateAnnualTargetRequest struct {
	Year                 *int             `json:"year" binding:"required"`
	StoreID              *uint            `json:"store_id" binding:"required"`
	TargetSalesAmount    *decimal.Decimal `json:"target_sales_amount" binding:"required"`
	TargetCustomerCount  int              `json:"target_customer_count"`
	TargetTotalItemsSold *int             `json:"target_total_items_sold"`
}

type UpdateAnnualTargetRequest struct {
	Year    *int  `json:"year"`
	StoreID *uint `json:"store_id"`
	AmountsRequest
}

type CreateMonthlyTargetRequest struct {
	AnnualTargetID       *uint    `json:"annual_target_id" binding:"required"`
	Month                *int     `json:"month" binding:"required"`
	AllocationPercentage *float64 `json:"allocation_percentage" binding:"required"`
	AmountsRequest
}

type UpdateMonthlyTargetRequest struct {
	Month                *int     `json:"month"`
	AllocationPercentage *float64 `json:"allocation_percentage"`
	AmountsRequest
}

type CreateWeeklyTargetRequest struct {
	MonthlyTargetID      *uint    `json:"monthly_target_id" binding:"required"`
	WeekNumber           *int     `json:"week_number" binding:"required"`
	AllocationPercentage *float64 `json:"allocation_percentage" binding:"required"`
	AmountsRequest
}

type UpdateWeeklyTargetRequest struct {
	WeekNumber           *int     `json:"week_number"`
	AllocationPercentage *float64 `json:"allocation_percentage"`
	AmountsRequest
}

type CreateDailyTargetRequest struct {
	WeeklyTargetID       *uint    `json:"weekly_target_id" binding:"required"`
	TargetDate           string   `json:"target_date" binding:"required"`
	AllocationPercentage *float64 `json:"allocation_percentage" binding:"required"`
	AmountsRequest
}

type UpdateDailyTargetRequest struct {
	TargetDate           *string  `json:"target_date"`
	AllocationPercentage *float64 `json:"allocation_percentage"`
	AmountsRequest
}

func badTargetDate(c *gin.Context) {
	errors.RespondWithValidationError(c, "", map[string]string{
		"target_date": "must be a date (YYYY-MM-DD)",
	})
}

// ---- annual ----

// ListAnnualTargets handles GET /targets?storeId=&year=
func (ctrl *TargetController) ListAnnualTargets(c *gin.Context) {
	storeID, ok := optionalUintQuery(c, "storeId")
	if !ok {
		return
	}
	year, ok := optionalIntQuery(c, "year")
	if !ok {
		return
	}

	targets, err := ctrl.targetService.ListAnnualTargets(c.Request.Context(), storeID, year)
	if err != nil {
		errors.Respond(c, err, "annual target")
		return
	}
	if targets == nil {
		targets = []model.AnnualTarget{}
	}
	c.JSON(http.StatusOK, targets)
}

func (ctrl *TargetController) GetAnnualTarget(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	target, err := ctrl.targetService.GetAnnualTarget(c.Request.Context(), id)
	if err != nil {
		errors.Respond(c, err, "annual target")
		return
	}
	c.JSON(http.StatusOK, target)
}

func (ctrl *TargetController) CreateAnnualTarget(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateAnnualTargetRequest
	if !bindJSON(c, &req) {
		return
	}

	target, err := ctrl.targetService.CreateAnnualTarget(c.Request.Context(), service.CreateAnnualTargetInput{
		Year:                 *req.Year,
		StoreID:              *req.StoreID,
		TargetSalesAmount:    *req.TargetSalesAmount,
		TargetCustomerCount:  req.TargetCustomerCount,
		TargetTotalItemsSold: req.TargetTotalItemsSold,
	})
	if err != nil {
		errors.Respond(c, err, "annual target")
		return
	}

	log.Info("Annual target created", map[string]interface{}{
		"annual_target_id": target.ID,
	})
	c.JSON(http.StatusCreated, target)
}

func (ctrl *TargetController) UpdateAnnualTarget(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateAnnualTargetRequest
	if !bindJSON(c, &req) {
		return
	}

	target, err := ctrl.targetService.UpdateAnnualTarget(c.Request.Context(), id, service.UpdateAnnualTargetInput{
		Year:         req.Year,
		StoreID:      req.StoreID,
		AmountsInput: req.input(),
	})
	if err != nil {
		errors.Respond(c, err, "annual target")
		return
	}
	c.JSON(http.StatusOK, target)
}

func (ctrl *TargetController) DeleteAnnualTarget(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	removed, err := ctrl.targetService.DeleteAnnualTarget(c.Request.Context(), id)
	if err != nil {
		errors.Respond(c, err, "annual target")
		return
	}

	log.Info("Annual target deleted", map[string]interface{}{
		"annual_target_id": id,
		"monthly":          removed.Monthly,
		"weekly":           removed.Weekly,
		"daily":            removed.Daily,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "annual target deleted",
		"deleted": removed,
	})
}

// DistributeAnnualTarget handles POST /targets/:id/distribute
func (ctrl *TargetController) DistributeAnnualTarget(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	months, err := ctrl.targetService.DistributeAnnualTarget(c.Request.Context(), id)
	if err != nil {
		errors.Respond(c, err, "monthly target")
		return
	}
	c.JSON(http.StatusCreated, months)
}

// GetAllocation handles GET /targets/:id/allocation
func (ctrl *TargetController) GetAllocation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := ctrl.targetService.GetAllocationSummary(c.Request.Context(), id)
	if err != nil {
		errors.Respond(c, err, "annual target")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ---- monthly ----

func (ctrl *TargetController) ListMonthlyTargets(c *gin.Context) {
	annualID, ok := optionalUintQuery(c, "annualTargetId")
	if !ok {
		return
	}

	targets, err := ctrl.targetService.ListMonthlyTargets(c.Request.Context(), annualID)
	if err != nil {
		errors.Respond(c, err, "monthly target")
		return
	}
	if targets == nil {
		targets = []model.MonthlyTarget{}
	}
	c.JSON(http.StatusOK, targets)
}

func (ctrl *TargetController) GetMonthlyTarget(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	target, err := ctrl.targetService.GetMonthlyTarget(c.Request.Context(), id)
	if err != nil {
		errors.Respond(c, err, "monthly target")
		return
	}
	c.JSON(http.StatusOK, target)
}

func (ctrl *TargetController) CreateMonthlyTarget(c *gin.Context) {
	var req CreateMonthlyTargetRequest
	if !bindJSON(c, &req) {
		return
	}

	target, err := ctrl.targetService.CreateMonthlyTarget(c.Request.Context(), service.CreateMonthlyTargetInput{
		AnnualTargetID:       *req.AnnualTargetID,
		Month:                *req.Month,
		AllocationPercentage: *req.AllocationPercentage,
		AmountsInput:         req.input(),
	})
	if err != nil {
		errors.Respond(c, err, "monthly target")
		return
	}
	c.JSON(http.StatusCreated, target)
}

func (ctrl *TargetController) UpdateMonthlyTarget(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateMonthlyTargetRequest
	if !bindJSON(c, &req) {
		return
	}

	target, err := ctrl.targetService.UpdateMonthlyTarget(c.Request.Context(), id, service.UpdateMonthlyTargetInput{
		Month:                req.Month,
		AllocationPercentage: req.AllocationPercentage,
		AmountsInput:         req.input(),
	})
	if err != nil {
		errors.Respond(c, err, "monthly target")
		return
	}
	c.JSON(http.StatusOK, target)
}

func (ctrl *TargetController) DeleteMonthlyTarget(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	removed, err := ctrl.targetService.DeleteMonthlyTarget(c.Request.Context(), id)
	if err != nil {
		errors.Respond(c, err, "monthly target")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "monthly target deleted",
		"deleted": removed,
	})
}

// ---- weekly ----

func (ctrl *TargetController) ListWeeklyTargets(c *gin.Context) {
	monthlyID, ok := optionalUintQuery(c, "monthlyTargetId")
	if !ok {
		return
	}

	targets, err := ctrl.targetService.ListWeeklyTargets(c.Request.Context(), monthlyID)
	if err != nil {
		errors.Respond(c, err, "weekly target")
		return
	}
	if targets == nil {
		targets = []model.WeeklyTarget{}
	}
	c.JSON(http.StatusOK, targets)
}

func (ctrl *TargetController) CreateWeeklyTarget(c *gin.Context) {
	var req CreateWeeklyTargetRequest
	if !bindJSON(c, &req) {
		return
	}

	target, err := ctrl.targetService.CreateWeeklyTarget(c.Request.Context(), service.CreateWeeklyTargetInput{
		MonthlyTargetID:      *req.MonthlyTargetID,
		WeekNumber:           *req.WeekNumber,
		AllocationPercentage: *req.AllocationPercentage,
		AmountsInput:         req.input(),
	})
	if err != nil {
		errors.Respond(c, err, "weekly target")
		return
	}
	c.JSON(http.StatusCreated, target)
}

func (ctrl *TargetController) UpdateWeeklyTarget(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateWeeklyTargetRequest
	if !bindJSON(c, &req) {
		return
	}

	target, err := ctrl.targetService.UpdateWeeklyTarget(c.Request.Context(), id, service.UpdateWeeklyTargetInput{
		WeekNumber:           req.WeekNumber,
		AllocationPercentage: req.AllocationPercentage,
		AmountsInput:         req.input(),
	})
	if err != nil {
		errors.Respond(c, err, "weekly target")
		return
	}
	c.JSON(http.StatusOK, target)
}

func (ctrl *TargetController) DeleteWeeklyTarget(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	removed, err := ctrl.targetService.DeleteWeeklyTarget(c.Request.Context(), id)
	if err != nil {
		errors.Respond(c, err, "weekly target")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "weekly target deleted",
		"deleted": removed,
	})
}

// ---- daily ----

func (ctrl *TargetController) ListDailyTargets(c *gin.Context) {
	weeklyID, ok := optionalUintQuery(c, "weeklyTargetId")
	if !ok {
		return
	}

	targets, err := ctrl.targetService.ListDailyTargets(c.Request.Context(), weeklyID)
	if err != nil {
		errors.Respond(c, err, "daily target")
		return
	}
	if targets == nil {
		targets = []model.DailyTarget{}
	}
	c.JSON(http.StatusOK, targets)
}

func (ctrl *TargetController) CreateDailyTarget(c *gin.Context) {
	var req CreateDailyTargetRequest
	if !bindJSON(c, &req) {
		return
	}
	date, err := parseDate(req.TargetDate)
	if err != nil {
		badTargetDate(c)
		return
	}

	target, err := ctrl.targetService.CreateDailyTarget(c.Request.Context(), service.CreateDailyTargetInput{
		WeeklyTargetID:       *req.WeeklyTargetID,
		TargetDate:           date,
		AllocationPercentage: *req.AllocationPercentage,
		AmountsInput:         req.input(),
	})
	if err != nil {
		errors.Respond(c, err, "daily target")
		return
	}
	c.JSON(http.StatusCreated, target)
}

func (ctrl *TargetController) UpdateDailyTarget(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateDailyTargetRequest
	if !bindJSON(c, &req) {
		return
	}

	var date *time.Time
	if req.TargetDate != nil {
		d, err := parseDate(*req.TargetDate)
		if err != nil {
			badTargetDate(c)
			return
		}
		date = &d
	}

	target, err := ctrl.targetService.UpdateDailyTarget(c.Request.Context(), id, service.UpdateDailyTargetInput{
		TargetDate:           date,
		AllocationPercentage: req.AllocationPercentage,
		AmountsInput:         req.input(),
	})
	if err != nil {
		errors.Respond(c, err, "daily target")
		return
	}
	c.JSON(http.StatusOK, target)
}

func (ctrl *TargetController) DeleteDailyTarget(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.targetService.DeleteDailyTarget(c.Request.Context(), id); err != nil {
		errors.Respond(c, err, "daily target")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "daily target deleted"})
}
