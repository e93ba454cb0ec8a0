package forecast

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusfin/internal/analytics"
	"campusfin/internal/config"
	"campusfin/internal/models"
)

func summary(income, expense int64, count, days int) analytics.Summary {
	in, ex := decimal.NewFromInt(income), decimal.NewFromInt(expense)
	return analytics.Summary{
		Income:           in,
		Expense:          ex,
		NetBalance:       in.Sub(ex),
		TransactionCount: count,
		Days:             days,
		DailyAverage:     ex.Div(decimal.NewFromInt(int64(days))).Round(2),
	}
}

func hasInsight(insights []models.Insight, typ models.InsightType, importance models.Importance) bool {
	for _, i := range insights {
		if i.Type == typ && i.Importance == importance {
			return true
		}
	}
	return false
}

func TestGenerateInsights_InsufficientHistory(t *testing.T) {
	out := GenerateInsights(InsightInput{
		Type:        models.PredictionTypeExpense,
		History:     summary(0, 0, 0, 90),
		SeriesCount: 0,
		MinHistory:  10,
	})

	require.Len(t, out, 1)
	assert.Equal(t, models.InsightInfo, out[0].Type)
	assert.Equal(t, models.ImportanceMedium, out[0].Importance)
	assert.True(t, out[0].Actionable)
}

func TestGenerateInsights_HighSpendingFirst(t *testing.T) {
	out := GenerateInsights(InsightInput{
		Type:             models.PredictionTypeExpense,
		History:          summary(1000000, 9000000, 40, 30),
		SeriesCount:      40,
		MinHistory:       10,
		HighDailyExpense: 100000,
		Applied:          []models.AppliedRule{{RuleName: "rent"}},
	})

	require.Len(t, out, 3)
	assert.Equal(t, models.ImportanceHigh, out[0].Importance)
	assert.Contains(t, out[0].Message, "300000")
	assert.Equal(t, models.ImportanceHigh, out[1].Importance)
	assert.Contains(t, out[1].Message, "8000000")
	assert.Equal(t, models.ImportanceLow, out[2].Importance)
	assert.Contains(t, out[2].Message, "rent")
}

func TestGenerateInsights_Savings(t *testing.T) {
	out := GenerateInsights(InsightInput{
		Type:        models.PredictionTypeIncome,
		History:     summary(2000000, 1000000, 20, 30),
		SeriesCount: 20,
		MinHistory:  10,
	})
	assert.True(t, hasInsight(out, models.InsightPositive, models.ImportanceLow))
}

func TestGenerateInsights_Budget(t *testing.T) {
	critical := analytics.BudgetAnalysis(decimal.NewFromInt(950000), decimal.NewFromInt(1000000), 25, 30)
	out := GenerateInsights(InsightInput{
		Type:        models.PredictionTypeExpense,
		History:     summary(1000000, 950000, 20, 30),
		SeriesCount: 20,
		Budget:      &critical,
		MinHistory:  10,
	})
	require.NotEmpty(t, out)
	assert.Equal(t, models.InsightWarning, out[0].Type)
	assert.Contains(t, out[0].Message, "95.0%")
}

func TestGenerateInsights_DominantCategoryAndPace(t *testing.T) {
	out := GenerateInsights(InsightInput{
		Type:             models.PredictionTypeExpense,
		History:          summary(3000000, 600000, 20, 30),
		SeriesCount:      20,
		Breakdown:        []analytics.CategoryStat{{CategoryName: "Food", Percentage: 62.5}},
		Points:           flat(30, 50000),
		MonthlyAllowance: decimal.NewFromInt(1000000),
		MinHistory:       10,
	})

	assert.True(t, hasInsight(out, models.InsightInfo, models.ImportanceMedium))
	assert.True(t, hasInsight(out, models.InsightWarning, models.ImportanceMedium))
}

func TestGenerateInsights_BalanceDecline(t *testing.T) {
	out := GenerateInsights(InsightInput{
		Type:        models.PredictionTypeBalance,
		History:     summary(1000000, 900000, 20, 30),
		SeriesCount: 20,
		Points:      flat(10, -1000),
		MinHistory:  10,
	})
	require.NotEmpty(t, out)
	assert.Equal(t, models.ImportanceHigh, out[0].Importance)
	assert.Contains(t, out[0].Message, "10000")
}

func TestGenerator_Generate(t *testing.T) {
	cfg := config.DefaultForecastConfig()
	g := NewGenerator(cfg)

	var history []models.Transaction
	hw := HistoryWindow(day0, 30)
	for i := 0; i < 30; i++ {
		history = append(history, models.Transaction{
			Type:            models.TransactionTypeExpense,
			Amount:          decimal.NewFromInt(20000),
			CategoryID:      "food",
			TransactionDate: hw.Start.AddDate(0, 0, i).Add(12 * time.Hour),
		})
	}

	rule := newRule("weekend", 5, models.RulePeriodNextWeek,
		models.RuleAdjustment{Target: "expense", Op: models.AdjustMultiply, Value: lit(1.5)})
	rule.ConfidenceImpact = -0.1

	out := g.Generate(Input{
		Scope:              expenseScope(),
		Horizon:            horizon(14),
		ConfidenceInterval: 0.95,
		Student:            models.Student{MonthlyAllowance: decimal.NewFromInt(1000000)},
		History:            history,
		HistoryWindow:      hw,
		Categories:         map[string]models.Category{"food": {Name: "Food"}},
		Rules:              []models.PredictionRule{rule},
	})

	require.Len(t, out.Points, 14)
	assert.Equal(t, 30000.0, out.Points[0].PredictedValue)
	assert.Equal(t, 20000.0, out.Points[7].PredictedValue)
	assert.Len(t, out.Adjustments, 7)
	assert.Equal(t, 30, out.Metrics.TransactionCount)
	assert.InDelta(t, 0.8, out.Confidence, 1e-9)
	assert.True(t, hasInsight(out.Insights, models.InsightInfo, models.ImportanceLow))
}

func TestGenerator_ScopedHistoryDrivesInsufficientInsight(t *testing.T) {
	g := NewGenerator(config.DefaultForecastConfig())

	var history []models.Transaction
	hw := HistoryWindow(day0, 30)
	for i := 0; i < 30; i++ {
		history = append(history, models.Transaction{
			Type:            models.TransactionTypeExpense,
			Amount:          decimal.NewFromInt(20000),
			CategoryID:      "food",
			TransactionDate: hw.Start.AddDate(0, 0, i).Add(12 * time.Hour),
		})
	}

	out := g.Generate(Input{
		Scope:              Scope{Type: models.PredictionTypeExpense, CategoryID: "books", CategoryName: "Books"},
		Horizon:            horizon(7),
		ConfidenceInterval: 0.95,
		History:            history,
		HistoryWindow:      hw,
		Categories:         map[string]models.Category{"food": {Name: "Food"}, "books": {Name: "Books"}},
	})

	var found bool
	for _, i := range out.Insights {
		if strings.Contains(i.Message, "transactions needed") {
			found = true
			assert.Contains(t, i.Message, "Only 0 of 10")
		}
	}
	assert.True(t, found, "thin category history should be reported")
}
