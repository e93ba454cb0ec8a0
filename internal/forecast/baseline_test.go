package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusfin/internal/models"
)

func TestZScore(t *testing.T) {
	assert.InDelta(t, 1.96, ZScore(0.95), 0.001)
	assert.InDelta(t, 2.576, ZScore(0.99), 0.001)
	assert.InDelta(t, 1.645, ZScore(0.90), 0.001)
	assert.Equal(t, ZScore(0.95), ZScore(0))
	assert.Equal(t, ZScore(0.95), ZScore(1.5))
}

func TestBuildBaseline_NoHistory(t *testing.T) {
	b := BuildBaseline(BaselineInput{
		History: make([]float64, 90),
		Horizon: horizon(14),
		Type:    models.PredictionTypeExpense,
	})

	require.Len(t, b.Points, 14)
	for _, p := range b.Points {
		assert.Zero(t, p.PredictedValue)
		assert.Zero(t, p.LowerBound)
		assert.Zero(t, p.UpperBound)
	}
	assert.Zero(t, b.Metrics.AccuracyScore)
	assert.Equal(t, 90, b.Metrics.SampleDays)
}

func TestBuildBaseline_PointPerDay(t *testing.T) {
	b := BuildBaseline(BaselineInput{
		History:          []float64{100, 100, 100, 100},
		TransactionCount: 4,
		Horizon:          horizon(30),
		Type:             models.PredictionTypeExpense,
	})

	require.Len(t, b.Points, 30)
	assert.Equal(t, day0, b.Points[0].Date)
	assert.Equal(t, day0.AddDate(0, 0, 29), b.Points[29].Date)
	for _, p := range b.Points {
		assert.Equal(t, 100.0, p.PredictedValue)
		assert.Equal(t, 100.0, p.Trend)
		assert.Zero(t, p.Seasonal)
		assert.Zero(t, p.Weekly)
		assert.Zero(t, p.Yearly)
		assert.LessOrEqual(t, p.LowerBound, p.PredictedValue)
		assert.GreaterOrEqual(t, p.UpperBound, p.PredictedValue)
	}
	assert.Equal(t, 1.0, b.Metrics.AccuracyScore)
	assert.Zero(t, b.Metrics.MAE)
}

func TestBuildBaseline_Bounds(t *testing.T) {
	t.Run("spread from history", func(t *testing.T) {
		b := BuildBaseline(BaselineInput{
			History:            []float64{0, 200, 0, 200},
			TransactionCount:   2,
			Horizon:            horizon(1),
			ConfidenceInterval: 0.95,
			Type:               models.PredictionTypeExpense,
		})
		std := math.Sqrt(40000.0 / 3)
		assert.InDelta(t, 100+1.96*std, b.Points[0].UpperBound, 0.5)
		assert.Equal(t, 0.0, b.Points[0].LowerBound, "expense bounds clamp at zero")
	})

	t.Run("fallback spread", func(t *testing.T) {
		b := BuildBaseline(BaselineInput{
			History:          []float64{0, 0, 0, 400},
			TransactionCount: 1,
			Horizon:          horizon(1),
			Type:             models.PredictionTypeIncome,
		})
		p := b.Points[0]
		assert.Equal(t, 100.0, p.PredictedValue)
		assert.InDelta(t, 2*ZScore(0.95)*25, p.UpperBound-p.LowerBound, 0.02)
	})

	t.Run("balance may be negative", func(t *testing.T) {
		b := BuildBaseline(BaselineInput{
			History:          []float64{-100, 100, -100, 100},
			TransactionCount: 4,
			Horizon:          horizon(1),
			Type:             models.PredictionTypeBalance,
		})
		assert.Less(t, b.Points[0].LowerBound, 0.0)
	})
}

func TestFitMetrics(t *testing.T) {
	m := fitMetrics([]float64{50, 150}, 100, 2)
	assert.Equal(t, 50.0, m.MAE)
	assert.Equal(t, 50.0, m.RMSE)
	assert.InDelta(t, (100.0+33.33)/2, m.MAPE, 0.01)
	assert.Equal(t, 0.5, m.AccuracyScore)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.1, BaseConfidence(0, 10, models.ModelMetrics{}))
	assert.Equal(t, 0.3, BaseConfidence(5, 10, models.ModelMetrics{AccuracyScore: 1}))
	assert.InDelta(t, 0.9, BaseConfidence(50, 10, models.ModelMetrics{AccuracyScore: 1}), 1e-9)

	assert.Equal(t, 1.0, FinalConfidence(0.9, 0.5))
	assert.Equal(t, 0.0, FinalConfidence(0.1, -0.5))
	assert.Equal(t, 0.6, FinalConfidence(0.5, 0.1))
}

func TestHistoryWindow(t *testing.T) {
	w := HistoryWindow(day0.Add(15*time.Hour), 90)
	assert.Equal(t, day0, w.End)
	assert.Equal(t, 90, w.Days())
}
