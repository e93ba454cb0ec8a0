package analytics

import (
	"github.com/shopspring/decimal"

	"campusfin/internal/models"
)

// Summary holds income/expense totals for a window.
type Summary struct {
	Window           Window          `json:"window"`
	Income           decimal.Decimal `json:"income"`
	Expense          decimal.Decimal `json:"expense"`
	NetBalance       decimal.Decimal `json:"net_balance"`
	IncomeCount      int             `json:"income_count"`
	ExpenseCount     int             `json:"expense_count"`
	TransactionCount int             `json:"transaction_count"`
	DailyAverage     decimal.Decimal `json:"daily_average"`
	Days             int             `json:"days"`
}

// Summarize totals the transactions that fall inside w.
func Summarize(txs []models.Transaction, w Window) Summary {
	s := Summary{
		Window:       w,
		Income:       decimal.Zero,
		Expense:      decimal.Zero,
		NetBalance:   decimal.Zero,
		DailyAverage: decimal.Zero,
		Days:         w.Days(),
	}

	for i := range txs {
		tx := &txs[i]
		if !w.Contains(tx.TransactionDate) {
			continue
		}
		switch tx.Type {
		case models.TransactionTypeIncome:
			s.Income = s.Income.Add(tx.Amount)
			s.IncomeCount++
		case models.TransactionTypeExpense:
			s.Expense = s.Expense.Add(tx.Amount)
			s.ExpenseCount++
		default:
			continue
		}
		s.TransactionCount++
	}

	s.NetBalance = s.Income.Sub(s.Expense)
	s.DailyAverage = s.Expense.Div(decimal.NewFromInt(int64(max(s.Days, 1)))).Round(2)
	return s
}

// PeriodComparison compares a window against the equal-length window that
// immediately precedes it.
type PeriodComparison struct {
	Current       Summary `json:"current"`
	Previous      Summary `json:"previous"`
	IncomeChange  float64 `json:"income_change"`
	ExpenseChange float64 `json:"expense_change"`
	NetChange     float64 `json:"net_change"`
	CountChange   float64 `json:"count_change"`
}

// ComparePeriods summarizes current and its predecessor from one transaction
// set that covers both.
func ComparePeriods(txs []models.Transaction, current Window) PeriodComparison {
	cur := Summarize(txs, current)
	prev := Summarize(txs, current.Previous())

	return PeriodComparison{
		Current:       cur,
		Previous:      prev,
		IncomeChange:  PctChange(prev.Income, cur.Income),
		ExpenseChange: PctChange(prev.Expense, cur.Expense),
		NetChange:     PctChange(prev.NetBalance, cur.NetBalance),
		CountChange:   PctChange(decimal.NewFromInt(int64(prev.TransactionCount)), decimal.NewFromInt(int64(cur.TransactionCount))),
	}
}

var hundred = decimal.NewFromInt(100)

// PctChange is the percentage change from prev to cur rounded to one decimal.
// A zero baseline yields 100 for growth and 0 otherwise.
func PctChange(prev, cur decimal.Decimal) float64 {
	if prev.IsZero() {
		if cur.IsPositive() {
			return 100
		}
		return 0
	}
	return cur.Sub(prev).Div(prev).Mul(hundred).Round(1).InexactFloat64()
}
