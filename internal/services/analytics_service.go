package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"campusfin/internal/analytics"
	apperrors "campusfin/internal/errors"
	"campusfin/internal/models"
)

const (
	defaultTrendDays = 30
	maxTrendDays     = 365
)

// analyticsService runs the aggregator over a student's stored transactions.
type analyticsService struct {
	students     StudentServicer
	transactions TransactionServicer
	categories   CategoryServicer
	now          func() time.Time
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(students StudentServicer, transactions TransactionServicer, categories CategoryServicer) AnalyticsServicer {
	return &analyticsService{
		students:     students,
		transactions: transactions,
		categories:   categories,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// GetHistory returns the student's transactions inside window, oldest first.
func (s *analyticsService) GetHistory(ctx context.Context, studentID string, window analytics.Window) ([]models.Transaction, error) {
	from, to := window.Start, window.End
	return s.transactions.ListTransactions(ctx, studentID, TransactionFilter{FromDate: &from, ToDate: &to})
}

// GetSummary totals income and expense inside window.
func (s *analyticsService) GetSummary(ctx context.Context, studentID string, window analytics.Window) (*analytics.Summary, error) {
	txs, err := s.GetHistory(ctx, studentID, window)
	if err != nil {
		return nil, err
	}
	summary := analytics.Summarize(txs, window)
	return &summary, nil
}

// GetCategoryBreakdown groups the window's transactions by category.
func (s *analyticsService) GetCategoryBreakdown(
	ctx context.Context,
	studentID string,
	window analytics.Window,
	txType *models.TransactionType,
	limit int,
) ([]analytics.CategoryStat, error) {
	if limit < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must not be negative")
	}
	txs, err := s.GetHistory(ctx, studentID, window)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.CategoryMap(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return analytics.CategoryBreakdown(txs, window, txType, categories, limit), nil
}

// GetTrend returns days+1 gap-filled daily points ending today.
func (s *analyticsService) GetTrend(ctx context.Context, studentID string, days int) ([]analytics.DailyPoint, error) {
	if days == 0 {
		days = defaultTrendDays
	}
	if days < 0 || days > maxTrendDays {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "days must be between 1 and 365")
	}

	now := s.now()
	today := analytics.DayStart(now)
	from := today.AddDate(0, 0, -days)
	window := analytics.Window{Start: from, End: today.AddDate(0, 0, 1)}

	txs, err := s.GetHistory(ctx, studentID, window)
	if err != nil {
		return nil, err
	}
	return analytics.DailyTrend(txs, from, today, nil), nil
}

// GetBudgetAnalysis measures this month's spending against the allowance.
// A nil allowance uses the student's profile.
func (s *analyticsService) GetBudgetAnalysis(ctx context.Context, studentID string, monthlyAllowance *decimal.Decimal) (*analytics.BudgetStatus, error) {
	var allowance decimal.Decimal
	if monthlyAllowance != nil {
		allowance = *monthlyAllowance
	} else {
		student, err := s.students.GetStudent(ctx, studentID)
		if err != nil {
			return nil, err
		}
		allowance = student.MonthlyAllowance
	}

	now := s.now()
	window := analytics.MonthWindow(now)
	expense := models.TransactionTypeExpense
	from, to := window.Start, window.End
	txs, err := s.transactions.ListTransactions(ctx, studentID, TransactionFilter{
		FromDate: &from,
		ToDate:   &to,
		Type:     &expense,
	})
	if err != nil {
		return nil, err
	}

	spent := decimal.Zero
	for _, tx := range txs {
		spent = spent.Add(tx.Amount)
	}

	elapsed, daysInMonth := analytics.MonthProgress(now)
	status := analytics.BudgetAnalysis(spent, allowance, elapsed, daysInMonth)
	return &status, nil
}

// GetPeriodComparison compares window with the equal-length window before it.
func (s *analyticsService) GetPeriodComparison(ctx context.Context, studentID string, window analytics.Window) (*analytics.PeriodComparison, error) {
	txs, err := s.GetHistory(ctx, studentID, analytics.Window{Start: window.Previous().Start, End: window.End})
	if err != nil {
		return nil, err
	}
	comparison := analytics.ComparePeriods(txs, window)
	return &comparison, nil
}
