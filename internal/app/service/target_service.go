package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	"github.com/quonpass/quonpass-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// allocationTolerance absorbs float rounding when sibling allocations sum to exactly 1.
const allocationTolerance = 1e-9

// AmountsInput carries optional goal amounts; nil fields are derived from the
// parent on create and left unchanged on update.
type AmountsInput struct {
	TargetSalesAmount    *decimal.Decimal
	TargetCustomerCount  *int
	TargetTotalItemsSold *int
}

func (in AmountsInput) empty() bool {
	return in.TargetSalesAmount == nil && in.TargetCustomerCount == nil && in.TargetTotalItemsSold == nil
}

// resolve overlays the provided fields on base.
func (in AmountsInput) resolve(base model.TargetAmounts) model.TargetAmounts {
	out := base
	if in.TargetSalesAmount != nil {
		out.TargetSalesAmount = in.TargetSalesAmount.Round(2)
	}
	if in.TargetCustomerCount != nil {
		out.TargetCustomerCount = *in.TargetCustomerCount
	}
	if in.TargetTotalItemsSold != nil {
		items := *in.TargetTotalItemsSold
		out.TargetTotalItemsSold = &items
	}
	return out
}

type CreateAnnualTargetInput struct {
	Year                 int
	StoreID              uint
	TargetSalesAmount    decimal.Decimal
	TargetCustomerCount  int
	TargetTotalItemsSold *int
}

type UpdateAnnualTargetInput struct {
	Year    *int
	StoreID *uint
	AmountsInput
}

type CreateMonthlyTargetInput struct {
	AnnualTargetID       uint
	Month                int
	AllocationPercentage float64
	AmountsInput
}

type UpdateMonthlyTargetInput struct {
	Month                *int
	AllocationPercentage *float64
	AmountsInput
}

type CreateWeeklyTargetInput struct {
	MonthlyTargetID      uint
	WeekNumber           int
	AllocationPercentage float64
	AmountsInput
}

type UpdateWeeklyTargetInput struct {
	WeekNumber           *int
	AllocationPercentage *float64
	AmountsInput
}

type CreateDailyTargetInput struct {
	WeeklyTargetID       uint
	TargetDate           time.Time
	AllocationPercentage float64
	AmountsInput
}

type UpdateDailyTargetInput struct {
	TargetDate           *time.Time
	AllocationPercentage *float64
	AmountsInput
}

type MonthAllocation struct {
	MonthlyTargetID      uint            `json:"monthly_target_id"`
	Month                int             `json:"month"`
	AllocationPercentage float64         `json:"allocation_percentage"`
	TargetSalesAmount    decimal.Decimal `json:"target_sales_amount"`
}

// AllocationSummary describes how much of an annual target has been spread over months.
type AllocationSummary struct {
	AnnualTargetID uint              `json:"annual_target_id"`
	Allocated      float64           `json:"allocated"`
	Remaining      float64           `json:"remaining"`
	MissingMonths  []int             `json:"missing_months"`
	Months         []MonthAllocation `json:"months"`
}

// ProgressInvalidator drops cached dashboard figures for a store.
type ProgressInvalidator interface {
	InvalidateStore(ctx context.Context, storeID uint)
}

type TargetService interface {
	CreateAnnualTarget(ctx context.Context, input CreateAnnualTargetInput) (*model.AnnualTarget, error)
	UpdateAnnualTarget(ctx context.Context, id uint, input UpdateAnnualTargetInput) (*model.AnnualTarget, error)
	DeleteAnnualTarget(ctx context.Context, id uint) (repository.CascadeResult, error)
	GetAnnualTarget(ctx context.Context, id uint) (*model.AnnualTarget, error)
	ListAnnualTargets(ctx context.Context, storeID *uint, year *int) ([]model.AnnualTarget, error)
	DistributeAnnualTarget(ctx context.Context, id uint) ([]model.MonthlyTarget, error)
	GetAllocationSummary(ctx context.Context, annualTargetID uint) (*AllocationSummary, error)

	CreateMonthlyTarget(ctx context.Context, input CreateMonthlyTargetInput) (*model.MonthlyTarget, error)
	UpdateMonthlyTarget(ctx context.Context, id uint, input UpdateMonthlyTargetInput) (*model.MonthlyTarget, error)
	DeleteMonthlyTarget(ctx context.Context, id uint) (repository.CascadeResult, error)
	GetMonthlyTarget(ctx context.Context, id uint) (*model.MonthlyTarget, error)
	ListMonthlyTargets(ctx context.Context, annualTargetID *uint) ([]model.MonthlyTarget, error)

	CreateWeeklyTarget(ctx context.Context, input CreateWeeklyTargetInput) (*model.WeeklyTarget, error)
	UpdateWeeklyTarget(ctx context.Context, id uint, input UpdateWeeklyTargetInput) (*model.WeeklyTarget, error)
	DeleteWeeklyTarget(ctx context.Context, id uint) (repository.CascadeResult, error)
	ListWeeklyTargets(ctx context.Context, monthlyTargetID *uint) ([]model.WeeklyTarget, error)

	CreateDailyTarget(ctx context.Context, input CreateDailyTargetInput) (*model.DailyTarget, error)
	UpdateDailyTarget(ctx context.Context, id uint, input UpdateDailyTargetInput) (*model.DailyTarget, error)
	DeleteDailyTarget(ctx context.Context, id uint) error
	ListDailyTargets(ctx context.Context, weeklyTargetID *uint) ([]model.DailyTarget, error)
}

type targetService struct {
	targetRepo repository.TargetRepository
	storeRepo  repository.StoreRepository
	progress   ProgressInvalidator
}

func NewTargetService(targetRepo repository.TargetRepository, storeRepo repository.StoreRepository, progress ProgressInvalidator) TargetService {
	return &targetService{
		targetRepo: targetRepo,
		storeRepo:  storeRepo,
		progress:   progress,
	}
}

func (s *targetService) invalidate(ctx context.Context, storeID uint) {
	if s.progress != nil && storeID != 0 {
		s.progress.InvalidateStore(ctx, storeID)
	}
}

func validateYear(year int) error {
	if year < 2000 || year > 2100 {
		return ErrInvalidYear
	}
	return nil
}

func validateAllocation(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return ErrInvalidAllocation
	}
	return nil
}

func validateAmounts(a model.TargetAmounts) error {
	if a.TargetSalesAmount.IsNegative() || a.TargetCustomerCount < 0 {
		return ErrNegativeAmount
	}
	if a.TargetTotalItemsSold != nil && *a.TargetTotalItemsSold < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// checkAllocation rejects a write that would push the parent's children above 100%.
func checkAllocation(ctx context.Context, repo repository.TargetRepository, level model.TargetLevel, parentID, selfID uint, allocation float64) error {
	siblings, err := repo.SumAllocation(ctx, level, parentID, selfID)
	if err != nil {
		return err
	}
	if siblings+allocation > 1+allocationTolerance {
		logger.Warn("Allocation would exceed parent", map[string]interface{}{
			"level":      level,
			"parent_id":  parentID,
			"siblings":   siblings,
			"allocation": allocation,
		})
		return ErrAllocationExceeded
	}
	return nil
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ---- annual ----

func (s *targetService) CreateAnnualTarget(ctx context.Context, input CreateAnnualTargetInput) (*model.AnnualTarget, error) {
	logger.Debug("Creating annual target", map[string]interface{}{
		"year":     input.Year,
		"store_id": input.StoreID,
	})

	if err := validateYear(input.Year); err != nil {
		return nil, err
	}
	amounts := model.TargetAmounts{
		TargetSalesAmount:    input.TargetSalesAmount.Round(2),
		TargetCustomerCount:  input.TargetCustomerCount,
		TargetTotalItemsSold: input.TargetTotalItemsSold,
	}
	if err := validateAmounts(amounts); err != nil {
		return nil, err
	}

	if _, err := s.storeRepo.FindByID(ctx, input.StoreID); err != nil {
		return nil, notFound(err, ErrStoreNotFound)
	}

	if _, err := s.targetRepo.FindAnnualByYearStore(ctx, input.Year, input.StoreID); err == nil {
		logger.Warn("Annual target already exists", map[string]interface{}{
			"year":     input.Year,
			"store_id": input.StoreID,
		})
		return nil, ErrAnnualTargetExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	target := &model.AnnualTarget{
		Year:          input.Year,
		StoreID:       input.StoreID,
		TargetAmounts: amounts,
	}
	if err := s.targetRepo.CreateAnnual(ctx, target); err != nil {
		return nil, err
	}

	logger.Info("Annual target created", map[string]interface{}{
		"annual_target_id": target.ID,
		"year":             target.Year,
		"store_id":         target.StoreID,
	})
	s.invalidate(ctx, target.StoreID)
	return s.GetAnnualTarget(ctx, target.ID)
}

func (s *targetService) UpdateAnnualTarget(ctx context.Context, id uint, input UpdateAnnualTargetInput) (*model.AnnualTarget, error) {
	target, err := s.targetRepo.FindAnnualByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAnnualTargetNotFound)
	}
	previousStore := target.StoreID

	year, storeID := target.Year, target.StoreID
	if input.Year != nil {
		if err := validateYear(*input.Year); err != nil {
			return nil, err
		}
		if *input.Year != target.Year && len(target.MonthlyTargets) > 0 {
			return nil, ErrPeriodLocked
		}
		year = *input.Year
	}
	if input.StoreID != nil && *input.StoreID != target.StoreID {
		if _, err := s.storeRepo.FindByID(ctx, *input.StoreID); err != nil {
			return nil, notFound(err, ErrStoreNotFound)
		}
		storeID = *input.StoreID
	}

	if year != target.Year || storeID != target.StoreID {
		existing, err := s.targetRepo.FindAnnualByYearStore(ctx, year, storeID)
		if err == nil && existing.ID != target.ID {
			return nil, ErrAnnualTargetExists
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	amounts := input.AmountsInput.resolve(target.TargetAmounts)
	if err := validateAmounts(amounts); err != nil {
		return nil, err
	}

	target.Year = year
	target.StoreID = storeID
	target.TargetAmounts = amounts
	if err := s.targetRepo.UpdateAnnual(ctx, target); err != nil {
		return nil, err
	}

	logger.Info("Annual target updated", map[string]interface{}{
		"annual_target_id": id,
	})
	s.invalidate(ctx, previousStore)
	s.invalidate(ctx, storeID)
	return s.GetAnnualTarget(ctx, id)
}

func (s *targetService) DeleteAnnualTarget(ctx context.Context, id uint) (repository.CascadeResult, error) {
	target, err := s.targetRepo.FindAnnualByID(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, notFound(err, ErrAnnualTargetNotFound)
	}

	result, err := s.targetRepo.DeleteAnnualCascade(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, notFound(err, ErrAnnualTargetNotFound)
	}
	s.invalidate(ctx, target.StoreID)
	return result, nil
}

func (s *targetService) GetAnnualTarget(ctx context.Context, id uint) (*model.AnnualTarget, error) {
	target, err := s.targetRepo.FindAnnualByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAnnualTargetNotFound)
	}
	return target, nil
}

func (s *targetService) ListAnnualTargets(ctx context.Context, storeID *uint, year *int) ([]model.AnnualTarget, error) {
	return s.targetRepo.ListAnnual(ctx, repository.AnnualTargetFilter{StoreID: storeID, Year: year})
}

// DistributeAnnualTarget spreads the annual goal evenly over twelve months.
func (s *targetService) DistributeAnnualTarget(ctx context.Context, id uint) ([]model.MonthlyTarget, error) {
	annual, err := s.targetRepo.FindAnnualByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAnnualTargetNotFound)
	}

	months := buildEvenMonths(annual)

	err = s.targetRepo.Transaction(ctx, func(repo repository.TargetRepository) error {
		siblings, err := repo.ListMonthly(ctx, &annual.ID)
		if err != nil {
			return err
		}
		if len(siblings) > 0 {
			return ErrAlreadyDistributed
		}
		return repo.CreateMonthlyBatch(ctx, months)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Annual target distributed over months", map[string]interface{}{
		"annual_target_id": id,
	})
	s.invalidate(ctx, annual.StoreID)
	return s.targetRepo.ListMonthly(ctx, &annual.ID)
}

// buildEvenMonths rounds cumulatively: month m gets round(total*m/12) - round(total*(m-1)/12).
// Every month stays non-negative and the twelve add up to the annual figures exactly.
// Amounts come from the exact twelfth; the stored allocation is that twelfth rounded
// the same cumulative way to six places.
func buildEvenMonths(annual *model.AnnualTarget) []model.MonthlyTarget {
	months := make([]model.MonthlyTarget, 0, 12)
	for month := 1; month <= 12; month++ {
		amounts := model.TargetAmounts{
			TargetSalesAmount:   cumulativeSales(annual.TargetSalesAmount, month).Sub(cumulativeSales(annual.TargetSalesAmount, month-1)),
			TargetCustomerCount: cumulativeCount(annual.TargetCustomerCount, month) - cumulativeCount(annual.TargetCustomerCount, month-1),
		}
		if annual.TargetTotalItemsSold != nil {
			items := cumulativeCount(*annual.TargetTotalItemsSold, month) - cumulativeCount(*annual.TargetTotalItemsSold, month-1)
			amounts.TargetTotalItemsSold = &items
		}
		months = append(months, model.MonthlyTarget{
			AnnualTargetID:       annual.ID,
			Month:                month,
			AllocationPercentage: math.Round((cumulativeShare(month)-cumulativeShare(month-1))*1e6) / 1e6,
			TargetAmounts:        amounts,
		})
	}
	return months
}

// cumulativeSales is the annual amount due by the end of the given month.
func cumulativeSales(total decimal.Decimal, month int) decimal.Decimal {
	return total.Mul(decimal.NewFromInt(int64(month))).Div(decimal.NewFromInt(12)).Round(2)
}

func cumulativeCount(total, month int) int {
	return int(math.Round(float64(total*month) / 12))
}

func cumulativeShare(month int) float64 {
	return math.Round(float64(month)/12*1e6) / 1e6
}

func (s *targetService) GetAllocationSummary(ctx context.Context, annualTargetID uint) (*AllocationSummary, error) {
	annual, err := s.targetRepo.FindAnnualByID(ctx, annualTargetID)
	if err != nil {
		return nil, notFound(err, ErrAnnualTargetNotFound)
	}

	summary := &AllocationSummary{
		AnnualTargetID: annual.ID,
		MissingMonths:  []int{},
		Months:         make([]MonthAllocation, 0, len(annual.MonthlyTargets)),
	}
	present := make(map[int]bool, 12)
	for _, m := range annual.MonthlyTargets {
		present[m.Month] = true
		summary.Allocated += m.AllocationPercentage
		summary.Months = append(summary.Months, MonthAllocation{
			MonthlyTargetID:      m.ID,
			Month:                m.Month,
			AllocationPercentage: m.AllocationPercentage,
			TargetSalesAmount:    m.TargetSalesAmount,
		})
	}
	for month := 1; month <= 12; month++ {
		if !present[month] {
			summary.MissingMonths = append(summary.MissingMonths, month)
		}
	}
	summary.Allocated = math.Round(summary.Allocated*1e6) / 1e6
	summary.Remaining = math.Max(0, math.Round((1-summary.Allocated)*1e6)/1e6)
	return summary, nil
}

// ---- monthly ----

func (s *targetService) CreateMonthlyTarget(ctx context.Context, input CreateMonthlyTargetInput) (*model.MonthlyTarget, error) {
	logger.Debug("Creating monthly target", map[string]interface{}{
		"annual_target_id": input.AnnualTargetID,
		"month":            input.Month,
		"allocation":       input.AllocationPercentage,
	})

	if input.Month < 1 || input.Month > 12 {
		return nil, ErrInvalidMonth
	}
	if err := validateAllocation(input.AllocationPercentage); err != nil {
		return nil, err
	}

	annual, err := s.targetRepo.FindAnnualByID(ctx, input.AnnualTargetID)
	if err != nil {
		return nil, notFound(err, ErrAnnualTargetNotFound)
	}

	amounts := input.AmountsInput.resolve(annual.TargetAmounts.Portion(input.AllocationPercentage))
	if err := validateAmounts(amounts); err != nil {
		return nil, err
	}

	target := &model.MonthlyTarget{
		AnnualTargetID:       annual.ID,
		Month:                input.Month,
		AllocationPercentage: input.AllocationPercentage,
		TargetAmounts:        amounts,
	}
	err = s.targetRepo.Transaction(ctx, func(repo repository.TargetRepository) error {
		if _, err := repo.FindMonthlyByPeriod(ctx, annual.ID, input.Month); err == nil {
			return ErrMonthlyTargetExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := checkAllocation(ctx, repo, model.LevelMonthly, annual.ID, 0, input.AllocationPercentage); err != nil {
			return err
		}
		return repo.CreateMonthly(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Monthly target created", map[string]interface{}{
		"monthly_target_id": target.ID,
		"annual_target_id":  annual.ID,
		"month":             target.Month,
		"derived_amounts":   input.AmountsInput.empty(),
	})
	s.invalidate(ctx, annual.StoreID)
	return s.GetMonthlyTarget(ctx, target.ID)
}

func (s *targetService) UpdateMonthlyTarget(ctx context.Context, id uint, input UpdateMonthlyTargetInput) (*model.MonthlyTarget, error) {
	target, err := s.targetRepo.FindMonthlyByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrMonthlyTargetNotFound)
	}

	if input.Month != nil {
		if *input.Month < 1 || *input.Month > 12 {
			return nil, ErrInvalidMonth
		}
		if *input.Month != target.Month && len(target.WeeklyTargets) > 0 {
			return nil, ErrPeriodLocked
		}
	}
	if input.AllocationPercentage != nil {
		if err := validateAllocation(*input.AllocationPercentage); err != nil {
			return nil, err
		}
	}
	amounts := input.AmountsInput.resolve(target.TargetAmounts)
	if err := validateAmounts(amounts); err != nil {
		return nil, err
	}

	err = s.targetRepo.Transaction(ctx, func(repo repository.TargetRepository) error {
		if input.Month != nil && *input.Month != target.Month {
			if _, err := repo.FindMonthlyByPeriod(ctx, target.AnnualTargetID, *input.Month); err == nil {
				return ErrMonthlyTargetExists
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			target.Month = *input.Month
		}
		if input.AllocationPercentage != nil {
			if err := checkAllocation(ctx, repo, model.LevelMonthly, target.AnnualTargetID, target.ID, *input.AllocationPercentage); err != nil {
				return err
			}
			target.AllocationPercentage = *input.AllocationPercentage
		}
		target.TargetAmounts = amounts
		return repo.UpdateMonthly(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Monthly target updated", map[string]interface{}{
		"monthly_target_id": id,
	})
	if target.AnnualTarget != nil {
		s.invalidate(ctx, target.AnnualTarget.StoreID)
	}
	return s.GetMonthlyTarget(ctx, id)
}

func (s *targetService) DeleteMonthlyTarget(ctx context.Context, id uint) (repository.CascadeResult, error) {
	target, err := s.targetRepo.FindMonthlyByID(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, notFound(err, ErrMonthlyTargetNotFound)
	}

	result, err := s.targetRepo.DeleteMonthlyCascade(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, notFound(err, ErrMonthlyTargetNotFound)
	}
	if target.AnnualTarget != nil {
		s.invalidate(ctx, target.AnnualTarget.StoreID)
	}
	return result, nil
}

func (s *targetService) GetMonthlyTarget(ctx context.Context, id uint) (*model.MonthlyTarget, error) {
	target, err := s.targetRepo.FindMonthlyByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrMonthlyTargetNotFound)
	}
	return target, nil
}

func (s *targetService) ListMonthlyTargets(ctx context.Context, annualTargetID *uint) ([]model.MonthlyTarget, error) {
	return s.targetRepo.ListMonthly(ctx, annualTargetID)
}

// ---- weekly ----

func (s *targetService) CreateWeeklyTarget(ctx context.Context, input CreateWeeklyTargetInput) (*model.WeeklyTarget, error) {
	if err := validateAllocation(input.AllocationPercentage); err != nil {
		return nil, err
	}

	monthly, err := s.targetRepo.FindMonthlyByID(ctx, input.MonthlyTargetID)
	if err != nil {
		return nil, notFound(err, ErrMonthlyTargetNotFound)
	}
	year := monthly.AnnualTarget.Year
	if input.WeekNumber < 1 || input.WeekNumber > model.WeeksInMonth(year, monthly.Month) {
		return nil, ErrInvalidWeekNumber
	}

	amounts := input.AmountsInput.resolve(monthly.TargetAmounts.Portion(input.AllocationPercentage))
	if err := validateAmounts(amounts); err != nil {
		return nil, err
	}

	target := &model.WeeklyTarget{
		MonthlyTargetID:      monthly.ID,
		WeekNumber:           input.WeekNumber,
		AllocationPercentage: input.AllocationPercentage,
		TargetAmounts:        amounts,
	}
	err = s.targetRepo.Transaction(ctx, func(repo repository.TargetRepository) error {
		if _, err := repo.FindWeeklyByPeriod(ctx, monthly.ID, input.WeekNumber); err == nil {
			return ErrWeeklyTargetExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := checkAllocation(ctx, repo, model.LevelWeekly, monthly.ID, 0, input.AllocationPercentage); err != nil {
			return err
		}
		return repo.CreateWeekly(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Weekly target created", map[string]interface{}{
		"weekly_target_id":  target.ID,
		"monthly_target_id": monthly.ID,
		"week_number":       target.WeekNumber,
	})
	s.invalidate(ctx, monthly.AnnualTarget.StoreID)
	return s.getWeekly(ctx, target.ID)
}

func (s *targetService) UpdateWeeklyTarget(ctx context.Context, id uint, input UpdateWeeklyTargetInput) (*model.WeeklyTarget, error) {
	target, err := s.targetRepo.FindWeeklyByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrWeeklyTargetNotFound)
	}
	monthly := target.MonthlyTarget

	if input.WeekNumber != nil {
		if *input.WeekNumber < 1 || *input.WeekNumber > model.WeeksInMonth(monthly.AnnualTarget.Year, monthly.Month) {
			return nil, ErrInvalidWeekNumber
		}
		if *input.WeekNumber != target.WeekNumber && len(target.DailyTargets) > 0 {
			return nil, ErrPeriodLocked
		}
	}
	if input.AllocationPercentage != nil {
		if err := validateAllocation(*input.AllocationPercentage); err != nil {
			return nil, err
		}
	}
	amounts := input.AmountsInput.resolve(target.TargetAmounts)
	if err := validateAmounts(amounts); err != nil {
		return nil, err
	}

	err = s.targetRepo.Transaction(ctx, func(repo repository.TargetRepository) error {
		if input.WeekNumber != nil && *input.WeekNumber != target.WeekNumber {
			if _, err := repo.FindWeeklyByPeriod(ctx, target.MonthlyTargetID, *input.WeekNumber); err == nil {
				return ErrWeeklyTargetExists
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			target.WeekNumber = *input.WeekNumber
		}
		if input.AllocationPercentage != nil {
			if err := checkAllocation(ctx, repo, model.LevelWeekly, target.MonthlyTargetID, target.ID, *input.AllocationPercentage); err != nil {
				return err
			}
			target.AllocationPercentage = *input.AllocationPercentage
		}
		target.TargetAmounts = amounts
		return repo.UpdateWeekly(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, monthly.AnnualTarget.StoreID)
	return s.getWeekly(ctx, id)
}

func (s *targetService) DeleteWeeklyTarget(ctx context.Context, id uint) (repository.CascadeResult, error) {
	target, err := s.targetRepo.FindWeeklyByID(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, notFound(err, ErrWeeklyTargetNotFound)
	}

	result, err := s.targetRepo.DeleteWeeklyCascade(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, notFound(err, ErrWeeklyTargetNotFound)
	}
	s.invalidate(ctx, target.MonthlyTarget.AnnualTarget.StoreID)
	return result, nil
}

func (s *targetService) getWeekly(ctx context.Context, id uint) (*model.WeeklyTarget, error) {
	target, err := s.targetRepo.FindWeeklyByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrWeeklyTargetNotFound)
	}
	return target, nil
}

func (s *targetService) ListWeeklyTargets(ctx context.Context, monthlyTargetID *uint) ([]model.WeeklyTarget, error) {
	return s.targetRepo.ListWeekly(ctx, monthlyTargetID)
}

// ---- daily ----

// weekContains reports whether date lies inside the calendar span of weekly.
func weekContains(weekly *model.WeeklyTarget, date time.Time) bool {
	monthly := weekly.MonthlyTarget
	start, end := model.WeekBounds(monthly.AnnualTarget.Year, monthly.Month, weekly.WeekNumber)
	return !date.Before(start) && !date.After(end)
}

func (s *targetService) CreateDailyTarget(ctx context.Context, input CreateDailyTargetInput) (*model.DailyTarget, error) {
	if err := validateAllocation(input.AllocationPercentage); err != nil {
		return nil, err
	}

	weekly, err := s.targetRepo.FindWeeklyByID(ctx, input.WeeklyTargetID)
	if err != nil {
		return nil, notFound(err, ErrWeeklyTargetNotFound)
	}
	date := normalizeDate(input.TargetDate)
	if !weekContains(weekly, date) {
		return nil, ErrDateOutsideWeek
	}

	amounts := input.AmountsInput.resolve(weekly.TargetAmounts.Portion(input.AllocationPercentage))
	if err := validateAmounts(amounts); err != nil {
		return nil, err
	}

	target := &model.DailyTarget{
		WeeklyTargetID:       weekly.ID,
		TargetDate:           date,
		AllocationPercentage: input.AllocationPercentage,
		TargetAmounts:        amounts,
	}
	err = s.targetRepo.Transaction(ctx, func(repo repository.TargetRepository) error {
		if _, err := repo.FindDailyByDate(ctx, weekly.ID, date); err == nil {
			return ErrDailyTargetExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := checkAllocation(ctx, repo, model.LevelDaily, weekly.ID, 0, input.AllocationPercentage); err != nil {
			return err
		}
		return repo.CreateDaily(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Daily target created", map[string]interface{}{
		"daily_target_id":  target.ID,
		"weekly_target_id": weekly.ID,
		"target_date":      date.Format("2006-01-02"),
	})
	s.invalidate(ctx, weekly.MonthlyTarget.AnnualTarget.StoreID)
	return s.getDaily(ctx, target.ID)
}

func (s *targetService) UpdateDailyTarget(ctx context.Context, id uint, input UpdateDailyTargetInput) (*model.DailyTarget, error) {
	target, err := s.targetRepo.FindDailyByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrDailyTargetNotFound)
	}

	var date *time.Time
	if input.TargetDate != nil {
		d := normalizeDate(*input.TargetDate)
		if !weekContains(target.WeeklyTarget, d) {
			return nil, ErrDateOutsideWeek
		}
		date = &d
	}
	if input.AllocationPercentage != nil {
		if err := validateAllocation(*input.AllocationPercentage); err != nil {
			return nil, err
		}
	}
	amounts := input.AmountsInput.resolve(target.TargetAmounts)
	if err := validateAmounts(amounts); err != nil {
		return nil, err
	}

	err = s.targetRepo.Transaction(ctx, func(repo repository.TargetRepository) error {
		if date != nil && !date.Equal(target.TargetDate) {
			if _, err := repo.FindDailyByDate(ctx, target.WeeklyTargetID, *date); err == nil {
				return ErrDailyTargetExists
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			target.TargetDate = *date
		}
		if input.AllocationPercentage != nil {
			if err := checkAllocation(ctx, repo, model.LevelDaily, target.WeeklyTargetID, target.ID, *input.AllocationPercentage); err != nil {
				return err
			}
			target.AllocationPercentage = *input.AllocationPercentage
		}
		target.TargetAmounts = amounts
		return repo.UpdateDaily(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, target.WeeklyTarget.MonthlyTarget.AnnualTarget.StoreID)
	return s.getDaily(ctx, id)
}

func (s *targetService) DeleteDailyTarget(ctx context.Context, id uint) error {
	target, err := s.targetRepo.FindDailyByID(ctx, id)
	if err != nil {
		return notFound(err, ErrDailyTargetNotFound)
	}
	if err := s.targetRepo.DeleteDaily(ctx, id); err != nil {
		return notFound(err, ErrDailyTargetNotFound)
	}
	s.invalidate(ctx, target.WeeklyTarget.MonthlyTarget.AnnualTarget.StoreID)
	return nil
}

func (s *targetService) getDaily(ctx context.Context, id uint) (*model.DailyTarget, error) {
	target, err := s.targetRepo.FindDailyByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrDailyTargetNotFound)
	}
	return target, nil
}

func (s *targetService) ListDailyTargets(ctx context.Context, weeklyTargetID *uint) ([]model.DailyTarget, error) {
	return s.targetRepo.ListDaily(ctx, weeklyTargetID)
}
