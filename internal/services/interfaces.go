package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"campusfin/internal/analytics"
	"campusfin/internal/models"
	"campusfin/internal/pagination"
)

// StudentServicer defines the contract for reading student profiles.
type StudentServicer interface {
	GetStudent(ctx context.Context, studentID string) (*models.Student, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
// FromDate is inclusive, ToDate exclusive.
type TransactionFilter struct {
	FromDate      *time.Time
	ToDate        *time.Time
	Type          *models.TransactionType
	CategoryID    *string
	PaymentMethod *models.PaymentMethod
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
}

// TransactionInput carries the fields of a new transaction.
type TransactionInput struct {
	CategoryID    string
	Type          models.TransactionType
	Amount        decimal.Decimal
	Date          time.Time
	PaymentMethod models.PaymentMethod
	Notes         string
	Location      string
	Metadata      []byte
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, studentID string, in TransactionInput) (*models.Transaction, error)
	GetStudentTransactions(ctx context.Context, studentID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	ListTransactions(ctx context.Context, studentID string, filter TransactionFilter) ([]models.Transaction, error)
	GetTransactionByID(ctx context.Context, studentID, transactionID string) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, studentID, transactionID string) error
}

// CategoryServicer defines the contract for category-related business logic.
// A student sees the system categories plus their own.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, studentID, name string, categoryType models.CategoryType, icon, color string) (*models.Category, error)
	GetStudentCategories(ctx context.Context, studentID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategory(ctx context.Context, studentID, categoryID string) (*models.Category, error)
	CategoryMap(ctx context.Context, studentID string) (map[string]models.Category, error)
	UpdateCategory(ctx context.Context, studentID, categoryID, name, icon, color string) (*models.Category, error)
	DeleteCategory(ctx context.Context, studentID, categoryID string) error
}

// ObligationServicer defines the contract for debts, planned events and the
// academic calendar.
type ObligationServicer interface {
	CreateDebt(ctx context.Context, studentID string, debt *models.Debt) (*models.Debt, error)
	ListActiveDebts(ctx context.Context, studentID string) ([]models.Debt, error)
	CreateFutureEvent(ctx context.Context, studentID string, event *models.FutureEvent) (*models.FutureEvent, error)
	ListFutureEvents(ctx context.Context, studentID string, from, to time.Time) ([]models.FutureEvent, error)
	CreateAcademicEvent(ctx context.Context, event *models.AcademicEvent) (*models.AcademicEvent, error)
	ListAcademicEvents(ctx context.Context, studentID string, from, to time.Time) ([]models.AcademicEvent, error)
}

// RuleUpdate holds the rule fields an admin may change. Nil fields are left
// as they are.
type RuleUpdate struct {
	Description      *string
	Priority         *int
	Period           *models.RulePeriod
	ConfidenceImpact *float64
	IsActive         *bool
	Conditions       *models.RuleConditions
	Adjustments      []models.RuleAdjustment
}

// RuleServicer defines the contract for managing prediction rules.
type RuleServicer interface {
	CreateRule(ctx context.Context, rule *models.PredictionRule) (*models.PredictionRule, error)
	GetRules(ctx context.Context, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.PredictionRule], error)
	GetRuleByID(ctx context.Context, ruleID string) (*models.PredictionRule, error)
	UpdateRule(ctx context.Context, ruleID string, update RuleUpdate) (*models.PredictionRule, error)
	ListActiveRules(ctx context.Context) ([]models.PredictionRule, error)
	ImportRules(ctx context.Context, rules []models.PredictionRule) (created, updated int, err error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(actorID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}

// AnalyticsServicer exposes the aggregator over a student's stored
// transactions.
type AnalyticsServicer interface {
	GetSummary(ctx context.Context, studentID string, window analytics.Window) (*analytics.Summary, error)
	GetCategoryBreakdown(ctx context.Context, studentID string, window analytics.Window, txType *models.TransactionType, limit int) ([]analytics.CategoryStat, error)
	GetTrend(ctx context.Context, studentID string, days int) ([]analytics.DailyPoint, error)
	GetBudgetAnalysis(ctx context.Context, studentID string, monthlyAllowance *decimal.Decimal) (*analytics.BudgetStatus, error)
	GetPeriodComparison(ctx context.Context, studentID string, window analytics.Window) (*analytics.PeriodComparison, error)
	GetHistory(ctx context.Context, studentID string, window analytics.Window) ([]models.Transaction, error)
}

// ForecastRequest identifies one forecast. Zero Start means today, zero End
// means 30 days after Start and zero ConfidenceInterval the configured
// default.
type ForecastRequest struct {
	StudentID          string
	Type               models.PredictionType
	Start              time.Time
	End                time.Time
	ConfidenceInterval float64
	CategoryID         string
}

// ForecastServicer defines the contract for rule-adjusted forecasts.
type ForecastServicer interface {
	GetForecast(ctx context.Context, req ForecastRequest) (*models.CachedPrediction, error)
}
