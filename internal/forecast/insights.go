package forecast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"campusfin/internal/analytics"
	"campusfin/internal/models"
)

// InsightInput is what the insight generator looks at.
type InsightInput struct {
	Type             models.PredictionType
	History          analytics.Summary
	SeriesCount      int // transactions behind the forecast series, after scoping
	Budget           *analytics.BudgetStatus
	Breakdown        []analytics.CategoryStat
	Points           []models.ForecastDataPoint
	Applied          []models.AppliedRule
	MonthlyAllowance decimal.Decimal
	MinHistory       int
	HighDailyExpense float64
}

var importanceRank = map[models.Importance]int{
	models.ImportanceHigh:   0,
	models.ImportanceMedium: 1,
	models.ImportanceLow:    2,
}

// GenerateInsights derives observations from history and the adjusted
// forecast. Output is ordered by importance, then by the order below.
func GenerateInsights(in InsightInput) []models.Insight {
	var out []models.Insight
	add := func(i models.Insight) { out = append(out, i) }
	h := in.History

	if in.SeriesCount < in.MinHistory {
		add(models.Insight{
			Type:            models.InsightInfo,
			Message:         fmt.Sprintf("Only %d of %d transactions needed for a reliable forecast are recorded", in.SeriesCount, in.MinHistory),
			Importance:      models.ImportanceMedium,
			Actionable:      true,
			SuggestedAction: "Keep logging income and expenses to improve forecast accuracy",
		})
	}

	if in.HighDailyExpense > 0 && h.DailyAverage.InexactFloat64() > in.HighDailyExpense {
		add(models.Insight{
			Type:            models.InsightWarning,
			Message:         fmt.Sprintf("Average daily spending of %s is above %s", money(h.DailyAverage), moneyf(in.HighDailyExpense)),
			Importance:      models.ImportanceHigh,
			Actionable:      true,
			SuggestedAction: "Review discretionary purchases and set a daily spending cap",
		})
	}

	if h.TransactionCount > 0 && h.Expense.GreaterThan(h.Income) {
		add(models.Insight{
			Type:            models.InsightWarning,
			Message:         fmt.Sprintf("Spending exceeded income by %s over the last %d days", money(h.Expense.Sub(h.Income)), h.Days),
			Importance:      models.ImportanceHigh,
			Actionable:      true,
			SuggestedAction: "Cut back on your largest expense categories",
		})
	} else if h.Income.IsPositive() {
		rate := h.NetBalance.Div(h.Income).InexactFloat64() * 100
		if rate >= 20 {
			add(models.Insight{
				Type:       models.InsightPositive,
				Message:    fmt.Sprintf("You saved %.1f%% of your income", rate),
				Importance: models.ImportanceLow,
			})
		}
	}

	if b := in.Budget; b != nil && b.MonthlyAllowance.IsPositive() {
		switch b.Status {
		case analytics.BudgetCritical:
			add(models.Insight{
				Type:            models.InsightWarning,
				Message:         fmt.Sprintf("%.1f%% of this month's allowance is already spent", b.BudgetUsedPercentage),
				Importance:      models.ImportanceHigh,
				Actionable:      true,
				SuggestedAction: fmt.Sprintf("Keep spending under %s per day for the rest of the month", money(b.DailyBudgetRemaining)),
			})
		case analytics.BudgetWarning:
			add(models.Insight{
				Type:            models.InsightWarning,
				Message:         fmt.Sprintf("%.1f%% of this month's allowance is spent", b.BudgetUsedPercentage),
				Importance:      models.ImportanceMedium,
				Actionable:      true,
				SuggestedAction: "Slow down on non-essential spending",
			})
		}
	}

	if len(in.Breakdown) > 0 && in.Breakdown[0].Percentage > 50 {
		top := in.Breakdown[0]
		add(models.Insight{
			Type:       models.InsightInfo,
			Message:    fmt.Sprintf("%s accounts for %.1f%% of your spending", top.CategoryName, top.Percentage),
			Importance: models.ImportanceMedium,
		})
	}

	if len(in.Points) > 0 {
		var total float64
		for _, p := range in.Points {
			total += p.PredictedValue
		}
		switch in.Type {
		case models.PredictionTypeExpense:
			if in.MonthlyAllowance.IsPositive() {
				pace := in.MonthlyAllowance.InexactFloat64() * float64(len(in.Points)) / 30
				if total > pace {
					add(models.Insight{
						Type:            models.InsightWarning,
						Message:         fmt.Sprintf("Projected spending of %s over the next %d days exceeds your allowance pace of %s", moneyf(total), len(in.Points), moneyf(pace)),
						Importance:      models.ImportanceMedium,
						Actionable:      true,
						SuggestedAction: "Plan for upcoming costs or trim recurring expenses",
					})
				}
			}
		case models.PredictionTypeBalance:
			if total < 0 {
				add(models.Insight{
					Type:            models.InsightWarning,
					Message:         fmt.Sprintf("Your balance is projected to fall by %s over the next %d days", moneyf(-total), len(in.Points)),
					Importance:      models.ImportanceHigh,
					Actionable:      true,
					SuggestedAction: "Look for extra income or postpone large purchases",
				})
			}
		}
	}

	if len(in.Applied) > 0 {
		names := make([]string, len(in.Applied))
		for i, r := range in.Applied {
			names[i] = r.RuleName
		}
		add(models.Insight{
			Type:       models.InsightInfo,
			Message:    fmt.Sprintf("%d scheduled adjustment(s) were factored into this forecast: %s", len(in.Applied), strings.Join(names, ", ")),
			Importance: models.ImportanceLow,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return importanceRank[out[i].Importance] < importanceRank[out[j].Importance]
	})
	return out
}

func money(d decimal.Decimal) string { return d.StringFixed(0) }

func moneyf(f float64) string { return decimal.NewFromFloat(f).StringFixed(0) }
