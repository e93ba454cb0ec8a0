package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetHealth buckets how much of the allowance has been used.
type BudgetHealth string

const (
	BudgetCritical BudgetHealth = "critical"
	BudgetWarning  BudgetHealth = "warning"
	BudgetCaution  BudgetHealth = "caution"
	BudgetGood     BudgetHealth = "good"
)

// BudgetStatus compares month-to-date spending against a monthly allowance.
type BudgetStatus struct {
	MonthlyAllowance      decimal.Decimal `json:"monthly_allowance"`
	TotalSpent            decimal.Decimal `json:"total_spent"`
	Remaining             decimal.Decimal `json:"remaining"`
	BudgetUsedPercentage  float64         `json:"budget_used_percentage"`
	Status                BudgetHealth    `json:"status"`
	DaysElapsed           int             `json:"days_elapsed"`
	DaysInMonth           int             `json:"days_in_month"`
	DaysRemaining         int             `json:"days_remaining"`
	DailyBudgetRemaining  decimal.Decimal `json:"daily_budget_remaining"`
	ProjectedMonthlySpend decimal.Decimal `json:"projected_monthly_spend"`
	OnTrack               bool            `json:"on_track"`
}

// BudgetAnalysis evaluates spending after daysElapsed days of a
// daysInMonth-day month. A non-positive allowance reports 0% used.
func BudgetAnalysis(spent, allowance decimal.Decimal, daysElapsed, daysInMonth int) BudgetStatus {
	daysElapsed = max(daysElapsed, 1)
	daysInMonth = max(daysInMonth, daysElapsed)

	used := decimal.Zero
	if allowance.IsPositive() {
		used = spent.Div(allowance).Mul(hundred)
	}

	projected := spent.Div(decimal.NewFromInt(int64(daysElapsed))).
		Mul(decimal.NewFromInt(int64(daysInMonth))).Round(2)

	remaining := allowance.Sub(spent)
	daysRemaining := daysInMonth - daysElapsed
	dailyRemaining := decimal.Zero
	if daysRemaining > 0 && remaining.IsPositive() {
		dailyRemaining = remaining.Div(decimal.NewFromInt(int64(daysRemaining))).Round(2)
	}

	return BudgetStatus{
		MonthlyAllowance:      allowance,
		TotalSpent:            spent,
		Remaining:             remaining,
		BudgetUsedPercentage:  used.Round(1).InexactFloat64(),
		Status:                healthFor(used),
		DaysElapsed:           daysElapsed,
		DaysInMonth:           daysInMonth,
		DaysRemaining:         daysRemaining,
		DailyBudgetRemaining:  dailyRemaining,
		ProjectedMonthlySpend: projected,
		OnTrack:               projected.LessThanOrEqual(allowance),
	}
}

// MonthProgress returns the day of month of now (1-based) and the month length.
func MonthProgress(now time.Time) (daysElapsed, daysInMonth int) {
	return now.UTC().Day(), DaysInMonth(now)
}

// healthFor takes the unrounded percentage.
func healthFor(used decimal.Decimal) BudgetHealth {
	switch {
	case used.GreaterThan(decimal.NewFromInt(90)):
		return BudgetCritical
	case used.GreaterThan(decimal.NewFromInt(75)):
		return BudgetWarning
	case used.GreaterThan(decimal.NewFromInt(50)):
		return BudgetCaution
	default:
		return BudgetGood
	}
}
