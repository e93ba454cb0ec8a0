package forecast

import (
	"campusfin/internal/analytics"
	"campusfin/internal/config"
	"campusfin/internal/models"
)

// Input is everything one forecast run reads. The caller fetches it; the
// generator itself does no I/O.
type Input struct {
	Scope              Scope
	Horizon            analytics.Window
	ConfidenceInterval float64

	Student        models.Student
	History        []models.Transaction
	HistoryWindow  analytics.Window
	Categories     map[string]models.Category
	Budget         analytics.BudgetStatus
	Debts          []models.Debt
	FutureEvents   []models.FutureEvent
	AcademicEvents []models.AcademicEvent
	Rules          []models.PredictionRule
}

// Output is a complete forecast, not yet keyed or timestamped.
type Output struct {
	Points      []models.ForecastDataPoint
	Adjustments []models.PredictionAdjustment
	Applied     []models.AppliedRule
	Insights    []models.Insight
	Metrics     models.ModelMetrics
	Confidence  float64
	Skipped     []*RuleError
}

// Generator runs baseline, rules and insights in order.
type Generator struct {
	engine           *Engine
	minHistory       int
	highDailyExpense float64
}

func NewGenerator(cfg config.ForecastConfig) *Generator {
	return &Generator{
		engine:           NewEngine(cfg.ConfidenceImpactCap),
		minHistory:       cfg.MinHistory,
		highDailyExpense: cfg.HighDailyExpense,
	}
}

// Generate builds the forecast for in.
func (g *Generator) Generate(in Input) Output {
	summary := analytics.Summarize(in.History, in.HistoryWindow)
	expense := models.TransactionTypeExpense
	breakdown := analytics.CategoryBreakdown(in.History, in.HistoryWindow, &expense, in.Categories, 0)

	series, txCount := g.series(in)
	base := BuildBaseline(BaselineInput{
		History:            series,
		TransactionCount:   txCount,
		Horizon:            in.Horizon,
		ConfidenceInterval: in.ConfidenceInterval,
		Type:               in.Scope.Type,
	})

	ctx := BuildContext(ContextInput{
		Horizon:        in.Horizon,
		Student:        in.Student,
		History:        summary,
		Budget:         in.Budget,
		Breakdown:      breakdown,
		Debts:          in.Debts,
		FutureEvents:   in.FutureEvents,
		AcademicEvents: in.AcademicEvents,
	})
	res := g.engine.Apply(in.Rules, ctx, in.Scope, base.Points)

	budget := in.Budget
	insights := GenerateInsights(InsightInput{
		Type:             in.Scope.Type,
		History:          summary,
		SeriesCount:      txCount,
		Budget:           &budget,
		Breakdown:        breakdown,
		Points:           res.Points,
		Applied:          res.Applied,
		MonthlyAllowance: in.Student.MonthlyAllowance,
		MinHistory:       g.minHistory,
		HighDailyExpense: g.highDailyExpense,
	})

	return Output{
		Points:      res.Points,
		Adjustments: res.Adjustments,
		Applied:     res.Applied,
		Insights:    insights,
		Metrics:     base.Metrics,
		Confidence:  FinalConfidence(BaseConfidence(txCount, g.minHistory, base.Metrics), res.ConfidenceDelta),
		Skipped:     res.Skipped,
	}
}

// series returns the daily history for the scoped prediction type and the
// number of transactions behind it.
func (g *Generator) series(in Input) ([]float64, int) {
	txs := in.History
	if in.Scope.CategoryID != "" {
		txs = make([]models.Transaction, 0, len(in.History))
		for _, tx := range in.History {
			if tx.CategoryID == in.Scope.CategoryID {
				txs = append(txs, tx)
			}
		}
	}
	s := analytics.Summarize(txs, in.HistoryWindow)
	last := in.HistoryWindow.End.AddDate(0, 0, -1)

	var txType *models.TransactionType
	count := s.TransactionCount
	switch in.Scope.Type {
	case models.PredictionTypeIncome:
		t := models.TransactionTypeIncome
		txType, count = &t, s.IncomeCount
	case models.PredictionTypeExpense:
		t := models.TransactionTypeExpense
		txType, count = &t, s.ExpenseCount
	}
	if in.HistoryWindow.Days() == 0 {
		return nil, count
	}
	return analytics.Values(analytics.DailyTrend(txs, in.HistoryWindow.Start, last, txType)), count
}
