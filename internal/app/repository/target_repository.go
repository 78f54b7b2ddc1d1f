package repository

import (
	"context"
	"time"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnnualTargetFilter narrows ListAnnual; nil fields are ignored.
type AnnualTargetFilter struct {
	StoreID *uint
	Year    *int
}

// CascadeResult counts the descendants removed alongside a deleted target.
type CascadeResult struct {
	Monthly int64 `json:"monthly"`
	Weekly  int64 `json:"weekly"`
	Daily   int64 `json:"daily"`
}

type TargetRepository interface {
	// Transaction runs fn against a repository bound to a single database transaction.
	Transaction(ctx context.Context, fn func(repo TargetRepository) error) error

	CreateAnnual(ctx context.Context, target *model.AnnualTarget) error
	UpdateAnnual(ctx context.Context, target *model.AnnualTarget) error
	FindAnnualByID(ctx context.Context, id uint) (*model.AnnualTarget, error)
	FindAnnualByYearStore(ctx context.Context, year int, storeID uint) (*model.AnnualTarget, error)
	ListAnnual(ctx context.Context, filter AnnualTargetFilter) ([]model.AnnualTarget, error)
	DeleteAnnualCascade(ctx context.Context, id uint) (CascadeResult, error)

	CreateMonthly(ctx context.Context, target *model.MonthlyTarget) error
	CreateMonthlyBatch(ctx context.Context, targets []model.MonthlyTarget) error
	UpdateMonthly(ctx context.Context, target *model.MonthlyTarget) error
	FindMonthlyByID(ctx context.Context, id uint) (*model.MonthlyTarget, error)
	FindMonthlyByPeriod(ctx context.Context, annualTargetID uint, month int) (*model.MonthlyTarget, error)
	FindMonthlyForStore(ctx context.Context, storeID uint, year, month int) (*model.MonthlyTarget, error)
	ListMonthly(ctx context.Context, annualTargetID *uint) ([]model.MonthlyTarget, error)
	DeleteMonthlyCascade(ctx context.Context, id uint) (CascadeResult, error)

	CreateWeekly(ctx context.Context, target *model.WeeklyTarget) error
	UpdateWeekly(ctx context.Context, target *model.WeeklyTarget) error
	FindWeeklyByID(ctx context.Context, id uint) (*model.WeeklyTarget, error)
	FindWeeklyByPeriod(ctx context.Context, monthlyTargetID uint, weekNumber int) (*model.WeeklyTarget, error)
	ListWeekly(ctx context.Context, monthlyTargetID *uint) ([]model.WeeklyTarget, error)
	DeleteWeeklyCascade(ctx context.Context, id uint) (CascadeResult, error)

	CreateDaily(ctx context.Context, target *model.DailyTarget) error
	UpdateDaily(ctx context.Context, target *model.DailyTarget) error
	FindDailyByID(ctx context.Context, id uint) (*model.DailyTarget, error)
	FindDailyByDate(ctx context.Context, weeklyTargetID uint, date time.Time) (*model.DailyTarget, error)
	ListDaily(ctx context.Context, weeklyTargetID *uint) ([]model.DailyTarget, error)
	DeleteDaily(ctx context.Context, id uint) error

	// SumAllocation adds up the allocation of parentID's children at level,
	// leaving out excludeID (0 excludes nothing).
	SumAllocation(ctx context.Context, level model.TargetLevel, parentID, excludeID uint) (float64, error)
}

type targetRepository struct {
	db *gorm.DB
}

func NewTargetRepository(db *gorm.DB) TargetRepository {
	return &targetRepository{db: db}
}

func (r *targetRepository) Transaction(ctx context.Context, fn func(repo TargetRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&targetRepository{db: tx})
	})
}

func byMonth(db *gorm.DB) *gorm.DB {
	return db.Order("month ASC")
}

func byWeek(db *gorm.DB) *gorm.DB {
	return db.Order("week_number ASC")
}

func byDate(db *gorm.DB) *gorm.DB {
	return db.Order("target_date ASC")
}

// ---- annual ----

func (r *targetRepository) CreateAnnual(ctx context.Context, target *model.AnnualTarget) error {
	logger.Debug("Creating annual target in database", map[string]interface{}{
		"year":     target.Year,
		"store_id": target.StoreID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(target).Error; err != nil {
		logger.Error("Failed to create annual target in database", err, map[string]interface{}{
			"year":     target.Year,
			"store_id": target.StoreID,
		})
		return err
	}

	logger.Debug("Annual target created in database", map[string]interface{}{
		"annual_target_id": target.ID,
	})
	return nil
}

func (r *targetRepository) UpdateAnnual(ctx context.Context, target *model.AnnualTarget) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(target).Error; err != nil {
		logger.Error("Failed to update annual target in database", err, map[string]interface{}{
			"annual_target_id": target.ID,
		})
		return err
	}
	return nil
}

func (r *targetRepository) FindAnnualByID(ctx context.Context, id uint) (*model.AnnualTarget, error) {
	var target model.AnnualTarget
	err := r.db.WithContext(ctx).
		Preload("Store").
		Preload("MonthlyTargets", byMonth).
		First(&target, id).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *targetRepository) FindAnnualByYearStore(ctx context.Context, year int, storeID uint) (*model.AnnualTarget, error) {
	var target model.AnnualTarget
	err := r.db.WithContext(ctx).
		Where("year = ? AND store_id = ?", year, storeID).
		First(&target).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *targetRepository) ListAnnual(ctx context.Context, filter AnnualTargetFilter) ([]model.AnnualTarget, error) {
	query := r.db.WithContext(ctx).Model(&model.AnnualTarget{})
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}

	var targets []model.AnnualTarget
	err := query.
		Preload("Store").
		Preload("MonthlyTargets", byMonth).
		Order("year DESC").
		Order("store_id ASC").
		Find(&targets).Error
	if err != nil {
		logger.Error("Failed to list annual targets", err)
		return nil, err
	}
	return targets, nil
}

func (r *targetRepository) DeleteAnnualCascade(ctx context.Context, id uint) (CascadeResult, error) {
	var result CascadeResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		monthlyIDs := tx.Model(&model.MonthlyTarget{}).Select("id").Where("annual_target_id = ?", id)
		weeklyIDs := tx.Model(&model.WeeklyTarget{}).Select("id").Where("monthly_target_id IN (?)", monthlyIDs)

		res := tx.Where("weekly_target_id IN (?)", weeklyIDs).Delete(&model.DailyTarget{})
		if res.Error != nil {
			return res.Error
		}
		result.Daily = res.RowsAffected

		res = tx.Where("monthly_target_id IN (?)", monthlyIDs).Delete(&model.WeeklyTarget{})
		if res.Error != nil {
			return res.Error
		}
		result.Weekly = res.RowsAffected

		res = tx.Where("annual_target_id = ?", id).Delete(&model.MonthlyTarget{})
		if res.Error != nil {
			return res.Error
		}
		result.Monthly = res.RowsAffected

		res = tx.Delete(&model.AnnualTarget{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete annual target", err, map[string]interface{}{
			"annual_target_id": id,
		})
		return CascadeResult{}, err
	}

	logger.Info("Annual target deleted with descendants", map[string]interface{}{
		"annual_target_id": id,
		"monthly":          result.Monthly,
		"weekly":           result.Weekly,
		"daily":            result.Daily,
	})
	return result, nil
}

// ---- monthly ----

func (r *targetRepository) CreateMonthly(ctx context.Context, target *model.MonthlyTarget) error {
	logger.Debug("Creating monthly target in database", map[string]interface{}{
		"annual_target_id": target.AnnualTargetID,
		"month":            target.Month,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(target).Error; err != nil {
		logger.Error("Failed to create monthly target in database", err, map[string]interface{}{
			"annual_target_id": target.AnnualTargetID,
			"month":            target.Month,
		})
		return err
	}
	return nil
}

func (r *targetRepository) CreateMonthlyBatch(ctx context.Context, targets []model.MonthlyTarget) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&targets).Error; err != nil {
		logger.Error("Failed to create monthly targets in database", err, map[string]interface{}{
			"count": len(targets),
		})
		return err
	}
	return nil
}

func (r *targetRepository) UpdateMonthly(ctx context.Context, target *model.MonthlyTarget) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(target).Error; err != nil {
		logger.Error("Failed to update monthly target in database", err, map[string]interface{}{
			"monthly_target_id": target.ID,
		})
		return err
	}
	return nil
}

func (r *targetRepository) FindMonthlyByID(ctx context.Context, id uint) (*model.MonthlyTarget, error) {
	var target model.MonthlyTarget
	err := r.db.WithContext(ctx).
		Preload("AnnualTarget.Store").
		Preload("WeeklyTargets", byWeek).
		First(&target, id).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *targetRepository) FindMonthlyByPeriod(ctx context.Context, annualTargetID uint, month int) (*model.MonthlyTarget, error) {
	var target model.MonthlyTarget
	err := r.db.WithContext(ctx).
		Where("annual_target_id = ? AND month = ?", annualTargetID, month).
		First(&target).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *targetRepository) FindMonthlyForStore(ctx context.Context, storeID uint, year, month int) (*model.MonthlyTarget, error) {
	var target model.MonthlyTarget
	err := r.db.WithContext(ctx).
		Select("monthly_targets.*").
		Joins("JOIN annual_targets ON annual_targets.id = monthly_targets.annual_target_id").
		Where("annual_targets.store_id = ? AND annual_targets.year = ? AND monthly_targets.month = ?", storeID, year, month).
		Preload("WeeklyTargets", byWeek).
		First(&target).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *targetRepository) ListMonthly(ctx context.Context, annualTargetID *uint) ([]model.MonthlyTarget, error) {
	query := r.db.WithContext(ctx).Model(&model.MonthlyTarget{})
	if annualTargetID != nil {
		query = query.Where("annual_target_id = ?", *annualTargetID)
	}

	var targets []model.MonthlyTarget
	err := query.
		Preload("AnnualTarget").
		Preload("WeeklyTargets", byWeek).
		Order("month ASC").
		Order("annual_target_id ASC").
		Find(&targets).Error
	if err != nil {
		logger.Error("Failed to list monthly targets", err)
		return nil, err
	}
	return targets, nil
}

func (r *targetRepository) DeleteMonthlyCascade(ctx context.Context, id uint) (CascadeResult, error) {
	var result CascadeResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		weeklyIDs := tx.Model(&model.WeeklyTarget{}).Select("id").Where("monthly_target_id = ?", id)

		res := tx.Where("weekly_target_id IN (?)", weeklyIDs).Delete(&model.DailyTarget{})
		if res.Error != nil {
			return res.Error
		}
		result.Daily = res.RowsAffected

		res = tx.Where("monthly_target_id = ?", id).Delete(&model.WeeklyTarget{})
		if res.Error != nil {
			return res.Error
		}
		result.Weekly = res.RowsAffected

		res = tx.Delete(&model.MonthlyTarget{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		result.Monthly = res.RowsAffected
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete monthly target", err, map[string]interface{}{
			"monthly_target_id": id,
		})
		return CascadeResult{}, err
	}

	logger.Info("Monthly target deleted with descendants", map[string]interface{}{
		"monthly_target_id": id,
		"weekly":            result.Weekly,
		"daily":             result.Daily,
	})
	return result, nil
}

// ---- weekly ----

func (r *targetRepository) CreateWeekly(ctx context.Context, target *model.WeeklyTarget) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(target).Error; err != nil {
		logger.Error("Failed to create weekly target in database", err, map[string]interface{}{
			"monthly_target_id": target.MonthlyTargetID,
			"week_number":       target.WeekNumber,
		})
		return err
	}
	return nil
}

func (r *targetRepository) UpdateWeekly(ctx context.Context, target *model.WeeklyTarget) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(target).Error; err != nil {
		logger.Error("Failed to update weekly target in database", err, map[string]interface{}{
			"weekly_target_id": target.ID,
		})
		return err
	}
	return nil
}

func (r *targetRepository) FindWeeklyByID(ctx context.Context, id uint) (*model.WeeklyTarget, error) {
	var target model.WeeklyTarget
	err := r.db.WithContext(ctx).
		Preload("MonthlyTarget.AnnualTarget.Store").
		Preload("DailyTargets", byDate).
		First(&target, id).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *targetRepository) FindWeeklyByPeriod(ctx context.Context, monthlyTargetID uint, weekNumber int) (*model.WeeklyTarget, error) {
	var target model.WeeklyTarget
	err := r.db.WithContext(ctx).
		Where("monthly_target_id = ? AND week_number = ?", monthlyTargetID, weekNumber).
		First(&target).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *targetRepository) ListWeekly(ctx context.Context, monthlyTargetID *uint) ([]model.WeeklyTarget, error) {
	query := r.db.WithContext(ctx).Model(&model.WeeklyTarget{})
	if monthlyTargetID != nil {
		query = query.Where("monthly_target_id = ?", *monthlyTargetID)
	}

	var targets []model.WeeklyTarget
	err := query.
		Preload("MonthlyTarget").
		Preload("DailyTargets", byDate).
		Order("week_number ASC").
		Order("monthly_target_id ASC").
		Find(&targets).Error
	if err != nil {
		logger.Error("Failed to list weekly targets", err)
		return nil, err
	}
	return targets, nil
}

func (r *targetRepository) DeleteWeeklyCascade(ctx context.Context, id uint) (CascadeResult, error) {
	var result CascadeResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("weekly_target_id = ?", id).Delete(&model.DailyTarget{})
		if res.Error != nil {
			return res.Error
		}
		result.Daily = res.RowsAffected

		res = tx.Delete(&model.WeeklyTarget{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		result.Weekly = res.RowsAffected
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete weekly target", err, map[string]interface{}{
			"weekly_target_id": id,
		})
		return CascadeResult{}, err
	}
	return result, nil
}

// ---- daily ----

func (r *targetRepository) CreateDaily(ctx context.Context, target *model.DailyTarget) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(target).Error; err != nil {
		logger.Error("Failed to create daily target in database", err, map[string]interface{}{
			"weekly_target_id": target.WeeklyTargetID,
			"target_date":      target.TargetDate.Format("2006-01-02"),
		})
		return err
	}
	return nil
}

func (r *targetRepository) UpdateDaily(ctx context.Context, target *model.DailyTarget) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(target).Error; err != nil {
		logger.Error("Failed to update daily target in database", err, map[string]interface{}{
			"daily_target_id": target.ID,
		})
		return err
	}
	return nil
}

func (r *targetRepository) FindDailyByID(ctx context.Context, id uint) (*model.DailyTarget, error) {
	var target model.DailyTarget
	err := r.db.WithContext(ctx).
		Preload("WeeklyTarget.MonthlyTarget.AnnualTarget").
		First(&target, id).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *targetRepository) FindDailyByDate(ctx context.Context, weeklyTargetID uint, date time.Time) (*model.DailyTarget, error) {
	var target model.DailyTarget
	err := r.db.WithContext(ctx).
		Where("weekly_target_id = ? AND target_date = ?", weeklyTargetID, date).
		First(&target).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *targetRepository) ListDaily(ctx context.Context, weeklyTargetID *uint) ([]model.DailyTarget, error) {
	query := r.db.WithContext(ctx).Model(&model.DailyTarget{})
	if weeklyTargetID != nil {
		query = query.Where("weekly_target_id = ?", *weeklyTargetID)
	}

	var targets []model.DailyTarget
	err := query.
		Preload("WeeklyTarget").
		Order("target_date ASC").
		Order("weekly_target_id ASC").
		Find(&targets).Error
	if err != nil {
		logger.Error("Failed to list daily targets", err)
		return nil, err
	}
	return targets, nil
}

func (r *targetRepository) DeleteDaily(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.DailyTarget{}, id)
	if res.Error != nil {
		logger.Error("Failed to delete daily target", res.Error, map[string]interface{}{
			"daily_target_id": id,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *targetRepository) SumAllocation(ctx context.Context, level model.TargetLevel, parentID, excludeID uint) (float64, error) {
	var (
		table  interface{}
		column string
	)
	switch level {
	case model.LevelMonthly:
		table, column = &model.MonthlyTarget{}, "annual_target_id"
	case model.LevelWeekly:
		table, column = &model.WeeklyTarget{}, "monthly_target_id"
	case model.LevelDaily:
		table, column = &model.DailyTarget{}, "weekly_target_id"
	default:
		return 0, nil
	}

	query := r.db.WithContext(ctx).Model(table).Where(column+" = ?", parentID)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var sum float64
	if err := query.Select("COALESCE(SUM(allocation_percentage), 0)").Row().Scan(&sum); err != nil {
		logger.Error("Failed to sum allocation", err, map[string]interface{}{
			"level":     level,
			"parent_id": parentID,
		})
		return 0, err
	}
	return sum, nil
}
