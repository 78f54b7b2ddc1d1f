package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAnnual(t *testing.T, env *testEnv, year int) model.AnnualTarget {
	t.Helper()
	w := env.do(t, http.MethodPost, "/targets", map[string]interface{}{
		"year":                  year,
		"store_id":              env.store.ID,
		"target_sales_amount":   1200000,
		"target_customer_count": 600,
	})
	mustStatus(t, w, http.StatusCreated)

	var target model.AnnualTarget
	decode(t, w, &target)
	return target
}

func createMonthly(t *testing.T, env *testEnv, annualID uint, month int, allocation float64) model.MonthlyTarget {
	t.Helper()
	w := env.do(t, http.MethodPost, "/targets/monthly", map[string]interface{}{
		"annual_target_id":      annualID,
		"month":                 month,
		"allocation_percentage": allocation,
	})
	mustStatus(t, w, http.StatusCreated)

	var target model.MonthlyTarget
	decode(t, w, &target)
	return target
}

func TestTargetController_CreateAnnualTarget(t *testing.T) {
	env := setupTestEnv(t)

	target := createAnnual(t, env, 2025)

	assert.NotZero(t, target.ID)
	assert.Equal(t, 2025, target.Year)
	assert.Equal(t, "1200000", target.TargetSalesAmount.String())
	require.NotNil(t, target.Store)
	assert.Equal(t, "Shinjuku", target.Store.Name)
}

func TestTargetController_CreateAnnualTarget_Duplicate(t *testing.T) {
	env := setupTestEnv(t)

	body := map[string]interface{}{
		"year":                  2025,
		"store_id":              env.store.ID,
		"target_sales_amount":   1000000,
		"target_customer_count": 500,
	}
	mustStatus(t, env.do(t, http.MethodPost, "/targets", body), http.StatusCreated)

	w := env.do(t, http.MethodPost, "/targets", body)
	mustStatus(t, w, http.StatusBadRequest)

	var resp errorBody
	decode(t, w, &resp)
	assert.Contains(t, resp.Error, "already exists")
	assert.Equal(t, errors.TargetAlreadyExists, resp.Code)

	var count int64
	require.NoError(t, env.db.Model(&model.AnnualTarget{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTargetController_CreateAnnualTarget_Validation(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
		field  string
	}{
		{
			name:   "missing year",
			body:   map[string]interface{}{"store_id": env.store.ID, "target_sales_amount": 10},
			status: http.StatusBadRequest,
			field:  "year",
		},
		{
			name:   "missing amount",
			body:   map[string]interface{}{"year": 2025, "store_id": env.store.ID},
			status: http.StatusBadRequest,
			field:  "target_sales_amount",
		},
		{
			name:   "year out of range",
			body:   map[string]interface{}{"year": 1999, "store_id": env.store.ID, "target_sales_amount": 10},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown store",
			body:   map[string]interface{}{"year": 2025, "store_id": 9999, "target_sales_amount": 10},
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/targets", tt.body)
			mustStatus(t, w, tt.status)

			if tt.field != "" {
				var resp errorBody
				decode(t, w, &resp)
				assert.Equal(t, errors.ValidationInvalidInput, resp.Code)
				assert.Contains(t, resp.Details, tt.field)
			}
		})
	}
}

func TestTargetController_ListAnnualTargets_Filters(t *testing.T) {
	env := setupTestEnv(t)
	createAnnual(t, env, 2024)
	createAnnual(t, env, 2025)

	w := env.do(t, http.MethodGet, "/targets", nil)
	mustStatus(t, w, http.StatusOK)
	var all []model.AnnualTarget
	decode(t, w, &all)
	require.Len(t, all, 2)
	assert.Equal(t, 2025, all[0].Year)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/targets?storeId=%d&year=2024", env.store.ID), nil)
	mustStatus(t, w, http.StatusOK)
	var filtered []model.AnnualTarget
	decode(t, w, &filtered)
	require.Len(t, filtered, 1)
	assert.Equal(t, 2024, filtered[0].Year)

	mustStatus(t, env.do(t, http.MethodGet, "/targets?year=abc", nil), http.StatusBadRequest)
}

func TestTargetController_UpdateUnknown(t *testing.T) {
	env := setupTestEnv(t)

	body := map[string]interface{}{"target_sales_amount": 5}
	for _, path := range []string{"/targets/999", "/targets/monthly/999", "/targets/weekly/999", "/targets/daily/999"} {
		w := env.do(t, http.MethodPut, path, body)
		mustStatus(t, w, http.StatusNotFound)

		var resp errorBody
		decode(t, w, &resp)
		assert.Equal(t, errors.TargetNotFound, resp.Code, path)
	}

	mustStatus(t, env.do(t, http.MethodPut, "/targets/abc", body), http.StatusBadRequest)
}

func TestTargetController_UpdateAnnualTarget(t *testing.T) {
	env := setupTestEnv(t)
	annual := createAnnual(t, env, 2025)

	w := env.do(t, http.MethodPut, fmt.Sprintf("/targets/%d", annual.ID), map[string]interface{}{
		"target_customer_count": 700,
	})
	mustStatus(t, w, http.StatusOK)

	var updated model.AnnualTarget
	decode(t, w, &updated)
	assert.Equal(t, 700, updated.TargetCustomerCount)
	assert.Equal(t, "1200000", updated.TargetSalesAmount.String())
}

func TestTargetController_DeleteAnnualCascade(t *testing.T) {
	env := setupTestEnv(t)
	annual := createAnnual(t, env, 2025)
	january := createMonthly(t, env, annual.ID, 1, 0.1)
	createMonthly(t, env, annual.ID, 2, 0.1)

	w := env.do(t, http.MethodPost, "/targets/weekly", map[string]interface{}{
		"monthly_target_id":     january.ID,
		"week_number":           1,
		"allocation_percentage": 0.25,
	})
	mustStatus(t, w, http.StatusCreated)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/targets/%d", annual.ID), nil)
	mustStatus(t, w, http.StatusOK)

	var resp struct {
		Deleted struct {
			Monthly int64 `json:"monthly"`
			Weekly  int64 `json:"weekly"`
		} `json:"deleted"`
	}
	decode(t, w, &resp)
	assert.Equal(t, int64(2), resp.Deleted.Monthly)
	assert.Equal(t, int64(1), resp.Deleted.Weekly)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/targets/monthly?annualTargetId=%d", annual.ID), nil)
	mustStatus(t, w, http.StatusOK)
	assert.JSONEq(t, "[]", w.Body.String())

	mustStatus(t, env.do(t, http.MethodGet, fmt.Sprintf("/targets/%d", annual.ID), nil), http.StatusNotFound)
	mustStatus(t, env.do(t, http.MethodGet, fmt.Sprintf("/targets/monthly/%d", january.ID), nil), http.StatusNotFound)
	mustStatus(t, env.do(t, http.MethodDelete, fmt.Sprintf("/targets/%d", annual.ID), nil), http.StatusNotFound)
}

func TestTargetController_MonthlyAllocationOverflow(t *testing.T) {
	env := setupTestEnv(t)
	annual := createAnnual(t, env, 2025)
	createMonthly(t, env, annual.ID, 1, 0.6)

	w := env.do(t, http.MethodPost, "/targets/monthly", map[string]interface{}{
		"annual_target_id":      annual.ID,
		"month":                 2,
		"allocation_percentage": 0.5,
	})
	mustStatus(t, w, http.StatusBadRequest)

	var resp errorBody
	decode(t, w, &resp)
	assert.Equal(t, errors.TargetAllocationExceeded, resp.Code)
}

func TestTargetController_MonthlyUnknownParent(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/targets/monthly", map[string]interface{}{
		"annual_target_id":      4242,
		"month":                 1,
		"allocation_percentage": 0.1,
	})
	mustStatus(t, w, http.StatusNotFound)
}

func TestTargetController_MonthlyDerivedAmounts(t *testing.T) {
	env := setupTestEnv(t)
	annual := createAnnual(t, env, 2025)

	monthly := createMonthly(t, env, annual.ID, 3, 0.25)
	assert.Equal(t, "300000", monthly.TargetSalesAmount.String())
	assert.Equal(t, 150, monthly.TargetCustomerCount)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/targets/monthly/%d", monthly.ID), nil)
	mustStatus(t, w, http.StatusOK)
	var fetched model.MonthlyTarget
	decode(t, w, &fetched)
	require.NotNil(t, fetched.AnnualTarget)
	assert.Equal(t, annual.ID, fetched.AnnualTarget.ID)
}

func TestTargetController_DistributeAndAllocation(t *testing.T) {
	env := setupTestEnv(t)
	annual := createAnnual(t, env, 2025)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/targets/%d/distribute", annual.ID), nil)
	mustStatus(t, w, http.StatusCreated)
	var months []model.MonthlyTarget
	decode(t, w, &months)
	require.Len(t, months, 12)
	assert.Equal(t, "100000", months[0].TargetSalesAmount.String())

	w = env.do(t, http.MethodGet, fmt.Sprintf("/targets/%d/allocation", annual.ID), nil)
	mustStatus(t, w, http.StatusOK)
	var summary struct {
		Allocated     float64 `json:"allocated"`
		MissingMonths []int   `json:"missing_months"`
	}
	decode(t, w, &summary)
	assert.InDelta(t, 1.0, summary.Allocated, 1e-6)
	assert.Empty(t, summary.MissingMonths)

	// A second distribution would duplicate months.
	mustStatus(t, env.do(t, http.MethodPost, fmt.Sprintf("/targets/%d/distribute", annual.ID), nil), http.StatusBadRequest)
}

func TestTargetController_WeeklyAndDaily(t *testing.T) {
	env := setupTestEnv(t)
	annual := createAnnual(t, env, 2025)
	january := createMonthly(t, env, annual.ID, 1, 0.1)

	w := env.do(t, http.MethodPost, "/targets/weekly", map[string]interface{}{
		"monthly_target_id":     january.ID,
		"week_number":           2,
		"allocation_percentage": 0.25,
	})
	mustStatus(t, w, http.StatusCreated)
	var week model.WeeklyTarget
	decode(t, w, &week)

	// Week 2 covers January 8-14.
	w = env.do(t, http.MethodPost, "/targets/daily", map[string]interface{}{
		"weekly_target_id":      week.ID,
		"target_date":           "2025-01-03",
		"allocation_percentage": 0.1,
	})
	mustStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodPost, "/targets/daily", map[string]interface{}{
		"weekly_target_id":      week.ID,
		"target_date":           "not-a-date",
		"allocation_percentage": 0.1,
	})
	mustStatus(t, w, http.StatusBadRequest)
	var resp errorBody
	decode(t, w, &resp)
	assert.Contains(t, resp.Details, "target_date")

	w = env.do(t, http.MethodPost, "/targets/daily", map[string]interface{}{
		"weekly_target_id":      week.ID,
		"target_date":           "2025-01-09",
		"allocation_percentage": 0.2,
	})
	mustStatus(t, w, http.StatusCreated)
	var day model.DailyTarget
	decode(t, w, &day)
	assert.Equal(t, 9, day.TargetDate.Day())

	w = env.do(t, http.MethodGet, fmt.Sprintf("/targets/daily?weeklyTargetId=%d", week.ID), nil)
	mustStatus(t, w, http.StatusOK)
	var days []model.DailyTarget
	decode(t, w, &days)
	assert.Len(t, days, 1)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/targets/weekly/%d", week.ID), nil)
	mustStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/targets/daily?weeklyTargetId=%d", week.ID), nil)
	mustStatus(t, w, http.StatusOK)
	assert.JSONEq(t, "[]", w.Body.String())
}
