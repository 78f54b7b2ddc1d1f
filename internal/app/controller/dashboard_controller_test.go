package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/quonpass/quonpass-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardController_GetProgress(t *testing.T) {
	env := setupTestEnv(t)

	annual := createAnnual(t, env, 2025)
	monthly := createMonthly(t, env, annual.ID, 3, 0.25)

	for _, sale := range []map[string]interface{}{
		{"store_id": env.store.ID, "sale_date": "2025-03-03", "sales_amount": "60000", "customer_count": 30},
		{"store_id": env.store.ID, "sale_date": "2025-03-10", "sales_amount": "15000", "customer_count": 15},
		{"store_id": env.store.ID, "sale_date": "2025-04-01", "sales_amount": "99999", "customer_count": 99},
	} {
		mustStatus(t, env.do(t, http.MethodPost, "/sales", sale), http.StatusCreated)
	}

	w := env.do(t, http.MethodGet, fmt.Sprintf("/dashboard/progress?storeId=%d&year=2025&month=3", env.store.ID), nil)
	mustStatus(t, w, http.StatusOK)

	var progress service.MonthlyProgress
	decode(t, w, &progress)
	require.NotNil(t, progress.MonthlyTargetID)
	assert.Equal(t, monthly.ID, *progress.MonthlyTargetID)
	assert.Equal(t, "300000", progress.TargetSalesAmount.String())
	assert.Equal(t, "75000", progress.ActualSalesAmount.String())
	assert.Equal(t, int64(45), progress.ActualCustomerCount)
	require.NotNil(t, progress.SalesRate)
	assert.InDelta(t, 0.25, *progress.SalesRate, 1e-9)
	require.NotNil(t, progress.CustomerRate)
	assert.InDelta(t, 0.3, *progress.CustomerRate, 1e-9)

	require.Len(t, progress.Weeks, 5)
	assert.Equal(t, "2025-03-01", progress.Weeks[0].StartDate)
	assert.Equal(t, "60000", progress.Weeks[0].ActualSalesAmount.String())
	assert.Equal(t, "15000", progress.Weeks[1].ActualSalesAmount.String())
	assert.Nil(t, progress.Weeks[0].TargetSalesAmount)
}

func TestDashboardController_GetProgress_NoTarget(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/dashboard/progress?storeId=%d&year=2025&month=2", env.store.ID), nil)
	mustStatus(t, w, http.StatusOK)

	var progress service.MonthlyProgress
	decode(t, w, &progress)
	assert.Nil(t, progress.MonthlyTargetID)
	assert.Nil(t, progress.SalesRate)
	assert.Len(t, progress.Weeks, 4)
}

func TestDashboardController_GetProgress_Errors(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/dashboard/progress?year=2025&month=3", nil)
	mustStatus(t, w, http.StatusBadRequest)
	var resp errorBody
	decode(t, w, &resp)
	assert.Contains(t, resp.Details, "storeId")

	w = env.do(t, http.MethodGet, fmt.Sprintf("/dashboard/progress?storeId=%d&year=2025&month=13", env.store.ID), nil)
	mustStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodGet, "/dashboard/progress?storeId=999&year=2025&month=3", nil)
	mustStatus(t, w, http.StatusNotFound)
}
