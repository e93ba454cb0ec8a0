package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"campusfin/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestStudent creates an active student with a unique email and a
// monthly allowance of 1,000,000.
func CreateTestStudent(t *testing.T, db *gorm.DB) *models.Student {
	t.Helper()

	student := &models.Student{
		Email:            fmt.Sprintf("student%d@test.ac.id", nextID()),
		FullName:         "Test Student",
		University:       "Test University",
		YearOfStudy:      2,
		MonthlyAllowance: decimal.NewFromInt(1000000),
		Currency:         "IDR",
		IsActive:         true,
	}
	if err := db.Create(student).Error; err != nil {
		t.Fatalf("failed to create test student: %v", err)
	}
	return student
}

// CreateTestCategory creates a category owned by studentID. An empty
// studentID creates a system category.
func CreateTestCategory(t *testing.T, db *gorm.DB, studentID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:     fmt.Sprintf("Test Category %d", nextID()),
		Type:     categoryType,
		Color:    "#4CAF50",
		IsSystem: studentID == "",
	}
	if studentID != "" {
		category.StudentID = &studentID
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a cash transaction at the given time.
func CreateTestTransaction(t *testing.T, db *gorm.DB, studentID, categoryID string, txType models.TransactionType, amount int64, at time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		StudentID:       studentID,
		Type:            txType,
		Amount:          decimal.NewFromInt(amount),
		CategoryID:      categoryID,
		TransactionDate: at,
		PaymentMethod:   models.PaymentMethodCash,
		Notes:           "Test transaction",
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestDebt creates an active debt that affects predictions, with four
// payments remaining.
func CreateTestDebt(t *testing.T, db *gorm.DB, studentID string, monthlyPayment int64, nextPayment time.Time) *models.Debt {
	t.Helper()

	debt := &models.Debt{
		StudentID:          studentID,
		Name:               fmt.Sprintf("Test Debt %d", nextID()),
		Lender:             "Campus Credit Union",
		TotalAmount:        decimal.NewFromInt(monthlyPayment * 6),
		RemainingAmount:    decimal.NewFromInt(monthlyPayment * 4),
		MonthlyPayment:     decimal.NewFromInt(monthlyPayment),
		NextPaymentDate:    nextPayment,
		AffectsPredictions: true,
		IsActive:           true,
	}
	if err := db.Create(debt).Error; err != nil {
		t.Fatalf("failed to create test debt: %v", err)
	}
	return debt
}

// CreateTestRule stores rule as given.
func CreateTestRule(t *testing.T, db *gorm.DB, rule *models.PredictionRule) *models.PredictionRule {
	t.Helper()

	if rule.RuleName == "" {
		rule.RuleName = fmt.Sprintf("test_rule_%d", nextID())
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("failed to create test rule: %v", err)
	}
	return rule
}
