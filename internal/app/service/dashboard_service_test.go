package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCache mimics the Redis JSON cache, round-tripping values through JSON.
type memoryCache struct {
	items map[string][]byte
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return errors.New("miss")
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	m.sets++
	return nil
}

func (m *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func TestDashboardService_GetMonthlyProgress(t *testing.T) {
	r := setupRepos(t)
	cache := newMemoryCache()
	dashboard := NewDashboardService(r.targets, r.sales, r.stores, cache, time.Minute)
	targets := NewTargetService(r.targets, r.stores, dashboard)
	sales := NewSalesService(r.sales, r.stores, r.products, dashboard)
	store := createStore(t, r, "Kobe")
	ctx := context.Background()

	annual, err := targets.CreateAnnualTarget(ctx, CreateAnnualTargetInput{
		Year: 2025, StoreID: store.ID, TargetSalesAmount: dec("1200000"), TargetCustomerCount: 1200,
	})
	require.NoError(t, err)
	monthly, err := targets.CreateMonthlyTarget(ctx, CreateMonthlyTargetInput{AnnualTargetID: annual.ID, Month: 3, AllocationPercentage: 0.1})
	require.NoError(t, err)
	_, err = targets.CreateWeeklyTarget(ctx, CreateWeeklyTargetInput{MonthlyTargetID: monthly.ID, WeekNumber: 1, AllocationPercentage: 0.25})
	require.NoError(t, err)

	for _, sale := range []struct {
		day    int
		amount string
	}{{2, "20000"}, {5, "10000"}, {20, "30000"}} {
		_, err := sales.CreateSale(ctx, SalesRecordInput{
			StoreID:       store.ID,
			SaleDate:      time.Date(2025, 3, sale.day, 0, 0, 0, 0, time.UTC),
			SalesAmount:   dec(sale.amount),
			CustomerCount: 10,
			ItemsSold:     20,
		})
		require.NoError(t, err)
	}

	progress, err := dashboard.GetMonthlyProgress(ctx, store.ID, 2025, 3)
	require.NoError(t, err)
	require.NotNil(t, progress.MonthlyTargetID)
	assert.True(t, dec("120000").Equal(progress.TargetSalesAmount))
	assert.True(t, dec("60000").Equal(progress.ActualSalesAmount), progress.ActualSalesAmount.String())
	assert.Equal(t, int64(30), progress.ActualCustomerCount)
	assert.Equal(t, int64(60), progress.ActualItemsSold)
	require.NotNil(t, progress.SalesRate)
	assert.InDelta(t, 0.5, *progress.SalesRate, 1e-9)
	require.NotNil(t, progress.CustomerRate)
	assert.InDelta(t, 0.25, *progress.CustomerRate, 1e-9)

	require.Len(t, progress.Weeks, 5)
	assert.Equal(t, "2025-03-01", progress.Weeks[0].StartDate)
	assert.Equal(t, "2025-03-07", progress.Weeks[0].EndDate)
	require.NotNil(t, progress.Weeks[0].AchievementRate)
	assert.InDelta(t, 1.0, *progress.Weeks[0].AchievementRate, 1e-9)
	assert.Nil(t, progress.Weeks[1].TargetSalesAmount)
	assert.True(t, dec("30000").Equal(progress.Weeks[2].ActualSalesAmount))
	assert.Equal(t, "2025-03-31", progress.Weeks[4].EndDate)

	assert.Len(t, cache.items, 1)

	// A new sale invalidates the cached figures for the store.
	_, err = sales.CreateSale(ctx, SalesRecordInput{
		StoreID: store.ID, SaleDate: time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC), SalesAmount: dec("60000"),
	})
	require.NoError(t, err)
	assert.Empty(t, cache.items)

	progress, err = dashboard.GetMonthlyProgress(ctx, store.ID, 2025, 3)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, *progress.SalesRate, 1e-9)
}

func TestDashboardService_ServesFromCache(t *testing.T) {
	r := setupRepos(t)
	cache := newMemoryCache()
	dashboard := NewDashboardService(r.targets, r.sales, r.stores, cache, time.Minute)
	store := createStore(t, r, "Nara")
	ctx := context.Background()

	first, err := dashboard.GetMonthlyProgress(ctx, store.ID, 2025, 1)
	require.NoError(t, err)
	assert.Nil(t, first.MonthlyTargetID)
	assert.Nil(t, first.SalesRate)
	assert.Equal(t, 1, cache.sets)

	// Write straight to the table so only a cache hit can explain stale numbers.
	require.NoError(t, r.db.Create(&model.SalesRecord{
		StoreID: store.ID, SaleDate: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), SalesAmount: dec("999"),
	}).Error)

	second, err := dashboard.GetMonthlyProgress(ctx, store.ID, 2025, 1)
	require.NoError(t, err)
	assert.True(t, second.ActualSalesAmount.IsZero())
	assert.Equal(t, 1, cache.sets)
}

func TestDashboardService_Validation(t *testing.T) {
	r := setupRepos(t)
	dashboard := NewDashboardService(r.targets, r.sales, r.stores, nil, 0)
	ctx := context.Background()

	_, err := dashboard.GetMonthlyProgress(ctx, 1, 2025, 13)
	assert.ErrorIs(t, err, ErrInvalidMonth)

	_, err = dashboard.GetMonthlyProgress(ctx, 42, 2025, 1)
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestDashboardService_RefreshCurrentMonth(t *testing.T) {
	r := setupRepos(t)
	cache := newMemoryCache()
	svc := NewDashboardService(r.targets, r.sales, r.stores, cache, time.Minute).(*dashboardService)
	svc.now = func() time.Time { return time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC) }

	createStore(t, r, "Active One")
	createStore(t, r, "Active Two")
	archived := &model.Store{Name: "Closed", Status: model.StoreStatusArchived}
	require.NoError(t, r.db.Create(archived).Error)

	refreshed, err := svc.RefreshCurrentMonth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed)
	assert.Len(t, cache.items, 2)
	for key := range cache.items {
		assert.True(t, strings.HasSuffix(key, ":2025-07"), key)
	}
}
