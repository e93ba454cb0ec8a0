package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"campusfin/internal/models"
)

// DailyPoint is one calendar day of activity.
type DailyPoint struct {
	Date    time.Time       `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Amount  decimal.Decimal `json:"amount"`
	Count   int             `json:"count"`
}

// DailyTrend returns one point per UTC calendar day from from's day to to's
// day inclusive, oldest first. Days without activity are present with zero
// values. With txType set, only that type is counted and Amount is its total;
// otherwise Amount is income minus expense.
func DailyTrend(txs []models.Transaction, from, to time.Time, txType *models.TransactionType) []DailyPoint {
	first := DayStart(from)
	last := DayStart(to)
	if last.Before(first) {
		return []DailyPoint{}
	}

	n := int(last.Sub(first).Hours()/24) + 1
	points := make([]DailyPoint, n)
	for i := range points {
		points[i] = DailyPoint{
			Date:    first.AddDate(0, 0, i),
			Income:  decimal.Zero,
			Expense: decimal.Zero,
			Amount:  decimal.Zero,
		}
	}

	for i := range txs {
		tx := &txs[i]
		if txType != nil && tx.Type != *txType {
			continue
		}
		day := DayStart(tx.TransactionDate)
		if day.Before(first) || day.After(last) {
			continue
		}
		p := &points[int(day.Sub(first).Hours()/24)]
		switch tx.Type {
		case models.TransactionTypeIncome:
			p.Income = p.Income.Add(tx.Amount)
		case models.TransactionTypeExpense:
			p.Expense = p.Expense.Add(tx.Amount)
		default:
			continue
		}
		p.Count++
	}

	for i := range points {
		p := &points[i]
		switch {
		case txType == nil:
			p.Amount = p.Income.Sub(p.Expense)
		case *txType == models.TransactionTypeIncome:
			p.Amount = p.Income
		default:
			p.Amount = p.Expense
		}
	}
	return points
}

// Values returns the Amount of each point as float64, for numeric models.
func Values(points []DailyPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Amount.InexactFloat64()
	}
	return out
}
