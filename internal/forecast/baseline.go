package forecast

import (
	"math"
	"time"

	"campusfin/internal/analytics"
	"campusfin/internal/models"
)

const (
	defaultConfidenceInterval = 0.95
	// spread used when history is too short for a standard deviation
	fallbackSpreadRatio = 0.25
)

// BaselineInput is the history the baseline is fitted to.
type BaselineInput struct {
	// History is the gap-filled daily series, oldest first.
	History            []float64
	TransactionCount   int
	Horizon            analytics.Window
	ConfidenceInterval float64
	Type               models.PredictionType
}

// Baseline is the unadjusted projection.
type Baseline struct {
	Points  []models.ForecastDataPoint
	Mean    float64
	StdDev  float64
	Metrics models.ModelMetrics
}

// ZScore returns the two-sided normal quantile for a confidence interval.
// Values outside (0, 1) fall back to 95%.
func ZScore(ci float64) float64 {
	if ci <= 0 || ci >= 1 {
		ci = defaultConfidenceInterval
	}
	return math.Sqrt2 * math.Erfinv(ci)
}

// BuildBaseline projects the mean of the daily history forward, one point
// per calendar day of the horizon, with bounds at ZScore standard
// deviations. With no history every point is zero.
func BuildBaseline(in BaselineInput) Baseline {
	var mean, std float64
	if in.TransactionCount > 0 && len(in.History) > 0 {
		mean = meanOf(in.History)
		if in.TransactionCount >= 2 && len(in.History) >= 2 {
			std = stdDev(in.History, mean)
		} else {
			std = math.Abs(mean) * fallbackSpreadRatio
		}
	}
	z := ZScore(in.ConfidenceInterval)

	var points []models.ForecastDataPoint
	end := in.Horizon.End
	for d := analytics.DayStart(in.Horizon.Start); d.Before(end); d = d.AddDate(0, 0, 1) {
		lower, upper := mean-z*std, mean+z*std
		if in.Type != models.PredictionTypeBalance {
			lower = math.Max(lower, 0)
		}
		points = append(points, models.ForecastDataPoint{
			Date:           d,
			PredictedValue: round2(mean),
			LowerBound:     round2(lower),
			UpperBound:     round2(upper),
			Trend:          round2(mean),
		})
	}

	return Baseline{
		Points:  points,
		Mean:    mean,
		StdDev:  std,
		Metrics: fitMetrics(in.History, mean, in.TransactionCount),
	}
}

// fitMetrics scores the constant-mean model against the history it was
// fitted on. MAPE only counts days with a non-zero actual.
func fitMetrics(history []float64, mean float64, txCount int) models.ModelMetrics {
	m := models.ModelMetrics{SampleDays: len(history), TransactionCount: txCount}
	if len(history) == 0 || txCount == 0 {
		return m
	}

	var absSum, sqSum, pctSum, actualSum float64
	var pctN int
	for _, x := range history {
		e := x - mean
		absSum += math.Abs(e)
		sqSum += e * e
		actualSum += math.Abs(x)
		if x != 0 {
			pctSum += math.Abs(e) / math.Abs(x) * 100
			pctN++
		}
	}
	n := float64(len(history))
	m.MAE = round2(absSum / n)
	m.RMSE = round2(math.Sqrt(sqSum / n))
	if pctN > 0 {
		m.MAPE = round2(pctSum / float64(pctN))
	}
	if actualSum > 0 {
		m.AccuracyScore = math.Round(clamp(1-absSum/actualSum, 0, 1)*10000) / 10000
	}
	return m
}

// BaseConfidence is the confidence of an unadjusted forecast: low when the
// history is thin, otherwise driven by the in-sample accuracy.
func BaseConfidence(txCount, minHistory int, metrics models.ModelMetrics) float64 {
	switch {
	case txCount == 0:
		return 0.1
	case txCount < minHistory:
		return 0.3
	}
	return 0.5 + 0.4*metrics.AccuracyScore
}

// FinalConfidence combines the base confidence with the clamped rule delta
// and bounds the result to [0, 1].
func FinalConfidence(base, delta float64) float64 {
	return math.Round(clamp(base+delta, 0, 1)*1000) / 1000
}

// HistoryWindow is the lookback window ending at the forecast start.
func HistoryWindow(start time.Time, days int) analytics.Window {
	s := analytics.DayStart(start)
	return analytics.Window{Start: s.AddDate(0, 0, -days), End: s}
}

func meanOf(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64, mean float64) float64 {
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}
