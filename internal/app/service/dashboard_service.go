package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	"github.com/quonpass/quonpass-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProgressCache is the subset of pkg/redis.Cache the dashboard needs.
type ProgressCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

type WeekProgress struct {
	WeekNumber        int              `json:"week_number"`
	StartDate         string           `json:"start_date"`
	EndDate           string           `json:"end_date"`
	TargetSalesAmount *decimal.Decimal `json:"target_sales_amount"`
	ActualSalesAmount decimal.Decimal  `json:"actual_sales_amount"`
	AchievementRate   *float64         `json:"achievement_rate"`
}

// MonthlyProgress compares a store's monthly target with recorded sales.
// Rates are fractions (1.0 = target met) and nil when no target is set.
type MonthlyProgress struct {
	StoreID              uint            `json:"store_id"`
	Year                 int             `json:"year"`
	Month                int             `json:"month"`
	MonthlyTargetID      *uint           `json:"monthly_target_id"`
	TargetSalesAmount    decimal.Decimal `json:"target_sales_amount"`
	TargetCustomerCount  int             `json:"target_customer_count"`
	TargetTotalItemsSold *int            `json:"target_total_items_sold"`
	ActualSalesAmount    decimal.Decimal `json:"actual_sales_amount"`
	ActualCustomerCount  int64           `json:"actual_customer_count"`
	ActualItemsSold      int64           `json:"actual_items_sold"`
	SalesRate            *float64        `json:"sales_achievement_rate"`
	CustomerRate         *float64        `json:"customer_achievement_rate"`
	Weeks                []WeekProgress  `json:"weeks"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

type DashboardService interface {
	GetMonthlyProgress(ctx context.Context, storeID uint, year, month int) (*MonthlyProgress, error)
	RefreshCurrentMonth(ctx context.Context) (int, error)
	InvalidateStore(ctx context.Context, storeID uint)
}

type dashboardService struct {
	targetRepo repository.TargetRepository
	salesRepo  repository.SalesRepository
	storeRepo  repository.StoreRepository
	cache      ProgressCache
	ttl        time.Duration
	now        func() time.Time
}

// NewDashboardService builds the dashboard; cache may be nil to disable caching.
func NewDashboardService(
	targetRepo repository.TargetRepository,
	salesRepo repository.SalesRepository,
	storeRepo repository.StoreRepository,
	cache ProgressCache,
	ttl time.Duration,
) DashboardService {
	return &dashboardService{
		targetRepo: targetRepo,
		salesRepo:  salesRepo,
		storeRepo:  storeRepo,
		cache:      cache,
		ttl:        ttl,
		now:        time.Now,
	}
}

func progressKey(storeID uint, year, month int) string {
	return fmt.Sprintf("store:%d:%04d-%02d", storeID, year, month)
}

func (s *dashboardService) GetMonthlyProgress(ctx context.Context, storeID uint, year, month int) (*MonthlyProgress, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}

	key := progressKey(storeID, year, month)
	if s.cache != nil {
		var cached MonthlyProgress
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			logger.Debug("Progress served from cache", map[string]interface{}{
				"key": key,
			})
			return &cached, nil
		}
	}

	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		return nil, notFound(err, ErrStoreNotFound)
	}

	progress, err := s.compute(ctx, storeID, year, month)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, progress)
	return progress, nil
}

func (s *dashboardService) store(ctx context.Context, key string, progress *MonthlyProgress) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, progress, s.ttl); err != nil {
		logger.Warn("Failed to cache progress", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *dashboardService) compute(ctx context.Context, storeID uint, year, month int) (*MonthlyProgress, error) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	totals, err := s.salesRepo.Totals(ctx, storeID, first, last)
	if err != nil {
		return nil, err
	}

	progress := &MonthlyProgress{
		StoreID:             storeID,
		Year:                year,
		Month:               month,
		ActualSalesAmount:   totals.SalesAmount,
		ActualCustomerCount: totals.CustomerCount,
		ActualItemsSold:     totals.ItemsSold,
		GeneratedAt:         s.now().UTC(),
	}

	monthly, err := s.targetRepo.FindMonthlyForStore(ctx, storeID, year, month)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	weekTargets := map[int]model.WeeklyTarget{}
	if monthly != nil {
		id := monthly.ID
		progress.MonthlyTargetID = &id
		progress.TargetSalesAmount = monthly.TargetSalesAmount
		progress.TargetCustomerCount = monthly.TargetCustomerCount
		progress.TargetTotalItemsSold = monthly.TargetTotalItemsSold
		progress.SalesRate = rate(totals.SalesAmount, monthly.TargetSalesAmount)
		progress.CustomerRate = rate(decimal.NewFromInt(totals.CustomerCount), decimal.NewFromInt(int64(monthly.TargetCustomerCount)))
		for _, w := range monthly.WeeklyTargets {
			weekTargets[w.WeekNumber] = w
		}
	}

	weeks := model.WeeksInMonth(year, month)
	progress.Weeks = make([]WeekProgress, 0, weeks)
	for week := 1; week <= weeks; week++ {
		start, end := model.WeekBounds(year, month, week)
		weekTotals, err := s.salesRepo.Totals(ctx, storeID, start, end)
		if err != nil {
			return nil, err
		}

		wp := WeekProgress{
			WeekNumber:        week,
			StartDate:         start.Format("2006-01-02"),
			EndDate:           end.Format("2006-01-02"),
			ActualSalesAmount: weekTotals.SalesAmount,
		}
		if target, ok := weekTargets[week]; ok {
			amount := target.TargetSalesAmount
			wp.TargetSalesAmount = &amount
			wp.AchievementRate = rate(weekTotals.SalesAmount, amount)
		}
		progress.Weeks = append(progress.Weeks, wp)
	}
	return progress, nil
}

// rate returns actual/target rounded to four places, or nil for a zero target.
func rate(actual, target decimal.Decimal) *float64 {
	if target.IsZero() {
		return nil
	}
	r, _ := actual.Div(target).Float64()
	r = math.Round(r*1e4) / 1e4
	return &r
}

// RefreshCurrentMonth recomputes and caches this month's progress for every active store.
func (s *dashboardService) RefreshCurrentMonth(ctx context.Context) (int, error) {
	now := s.now().UTC()
	active := model.StoreStatusActive
	stores, err := s.storeRepo.FindAll(ctx, repository.StoreFilter{Status: &active})
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, store := range stores {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		progress, err := s.compute(ctx, store.ID, now.Year(), int(now.Month()))
		if err != nil {
			logger.Error("Failed to refresh store progress", err, map[string]interface{}{
				"store_id": store.ID,
			})
			continue
		}
		s.store(ctx, progressKey(store.ID, now.Year(), int(now.Month())), progress)
		refreshed++
	}

	logger.Info("Progress refreshed", map[string]interface{}{
		"stores":    len(stores),
		"refreshed": refreshed,
	})
	return refreshed, nil
}

func (s *dashboardService) InvalidateStore(ctx context.Context, storeID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, fmt.Sprintf("store:%d:*", storeID)); err != nil {
		logger.Warn("Failed to invalidate progress cache", map[string]interface{}{
			"store_id": storeID,
			"error":    err.Error(),
		})
	}
}
