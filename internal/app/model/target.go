package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// TargetLevel names one tier of the allocation tree.
type TargetLevel string

const (
	LevelAnnual  TargetLevel = "annual"
	LevelMonthly TargetLevel = "monthly"
	LevelWeekly  TargetLevel = "weekly"
	LevelDaily   TargetLevel = "daily"
)

// TargetAmounts are the goals carried by every level of the tree.
type TargetAmounts struct {
	TargetSalesAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"target_sales_amount"`
	TargetCustomerCount  int             `gorm:"not null;default:0" json:"target_customer_count"`
	TargetTotalItemsSold *int            `json:"target_total_items_sold"`
}

// Portion returns the share of a that a child allocated fraction receives.
// Money is rounded to cents and counts to the nearest whole unit.
func (a TargetAmounts) Portion(fraction float64) TargetAmounts {
	out := TargetAmounts{
		TargetSalesAmount:   a.TargetSalesAmount.Mul(decimal.NewFromFloat(fraction)).Round(2),
		TargetCustomerCount: int(math.Round(float64(a.TargetCustomerCount) * fraction)),
	}
	if a.TargetTotalItemsSold != nil {
		items := int(math.Round(float64(*a.TargetTotalItemsSold) * fraction))
		out.TargetTotalItemsSold = &items
	}
	return out
}

type AnnualTarget struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	Year    int    `gorm:"not null;uniqueIndex:idx_annual_targets_year_store,priority:1" json:"year"`
	StoreID uint   `gorm:"not null;uniqueIndex:idx_annual_targets_year_store,priority:2;index" json:"store_id"`
	Store   *Store `gorm:"foreignKey:StoreID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"store,omitempty"`
	TargetAmounts

	MonthlyTargets []MonthlyTarget `gorm:"foreignKey:AnnualTargetID" json:"monthly_targets,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AnnualTarget) TableName() string {
	return "annual_targets"
}

type MonthlyTarget struct {
	ID                   uint          `gorm:"primarykey" json:"id"`
	AnnualTargetID       uint          `gorm:"not null;uniqueIndex:idx_monthly_targets_annual_month,priority:1" json:"annual_target_id"`
	AnnualTarget         *AnnualTarget `gorm:"foreignKey:AnnualTargetID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"annual_target,omitempty"`
	Month                int           `gorm:"not null;uniqueIndex:idx_monthly_targets_annual_month,priority:2" json:"month"`
	AllocationPercentage float64       `gorm:"type:decimal(7,6);not null;default:0" json:"allocation_percentage"`
	TargetAmounts

	WeeklyTargets []WeeklyTarget `gorm:"foreignKey:MonthlyTargetID" json:"weekly_targets,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MonthlyTarget) TableName() string {
	return "monthly_targets"
}

type WeeklyTarget struct {
	ID                   uint           `gorm:"primarykey" json:"id"`
	MonthlyTargetID      uint           `gorm:"not null;uniqueIndex:idx_weekly_targets_monthly_week,priority:1" json:"monthly_target_id"`
	MonthlyTarget        *MonthlyTarget `gorm:"foreignKey:MonthlyTargetID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"monthly_target,omitempty"`
	WeekNumber           int            `gorm:"not null;uniqueIndex:idx_weekly_targets_monthly_week,priority:2" json:"week_number"`
	AllocationPercentage float64        `gorm:"type:decimal(7,6);not null;default:0" json:"allocation_percentage"`
	TargetAmounts

	DailyTargets []DailyTarget `gorm:"foreignKey:WeeklyTargetID" json:"daily_targets,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WeeklyTarget) TableName() string {
	return "weekly_targets"
}

type DailyTarget struct {
	ID                   uint          `gorm:"primarykey" json:"id"`
	WeeklyTargetID       uint          `gorm:"not null;uniqueIndex:idx_daily_targets_weekly_date,priority:1" json:"weekly_target_id"`
	WeeklyTarget         *WeeklyTarget `gorm:"foreignKey:WeeklyTargetID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"weekly_target,omitempty"`
	TargetDate           time.Time     `gorm:"type:date;not null;uniqueIndex:idx_daily_targets_weekly_date,priority:2" json:"target_date"`
	AllocationPercentage float64       `gorm:"type:decimal(7,6);not null;default:0" json:"allocation_percentage"`
	TargetAmounts

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DailyTarget) TableName() string {
	return "daily_targets"
}

// WeekBounds returns the first and last day of week n (1-based) within a month.
// Week 1 is days 1-7, week 2 days 8-14 and so on; the last week is clipped to the month end.
func WeekBounds(year, month, week int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()

	startDay := 1 + 7*(week-1)
	endDay := startDay + 6
	if endDay > lastDay {
		endDay = lastDay
	}
	return first.AddDate(0, 0, startDay-1), first.AddDate(0, 0, endDay-1)
}

// WeeksInMonth is how many WeekBounds weeks a month spans (4 or 5).
func WeeksInMonth(year, month int) int {
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return (lastDay + 6) / 7
}
