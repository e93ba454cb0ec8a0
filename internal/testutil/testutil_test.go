package testutil_test

import (
	"testing"
	"time"

	"campusfin/internal/errors"
	"campusfin/internal/models"
	"campusfin/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"students", "categories", "transactions", "debts", "future_events", "academic_events", "prediction_rules", "cached_predictions", "prediction_adjustments", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	a := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, a)
	b := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, b)

	testutil.CreateTestStudent(t, a)

	var count int64
	b.Model(&models.Student{}).Count(&count)
	if count != 0 {
		t.Errorf("expected separate databases, found %d students in the second", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	student := testutil.CreateTestStudent(t, db)
	if student.ID == "" {
		t.Fatal("student should have an ID")
	}

	category := testutil.CreateTestCategory(t, db, student.ID, models.CategoryTypeExpense)
	if category.Type != models.CategoryTypeExpense {
		t.Errorf("expected expense category, got %s", category.Type)
	}

	system := testutil.CreateTestCategory(t, db, "", models.CategoryTypeIncome)
	if !system.IsSystem || system.StudentID != nil {
		t.Error("expected a system category without owner")
	}

	tx := testutil.CreateTestTransaction(t, db, student.ID, category.ID, models.TransactionTypeExpense, 50000, time.Now())
	if tx.Amount.IntPart() != 50000 {
		t.Errorf("expected amount 50000, got %s", tx.Amount)
	}

	debt := testutil.CreateTestDebt(t, db, student.ID, 300000, time.Now().AddDate(0, 0, 7))
	if debt.RemainingAmount.IntPart() != 1200000 {
		t.Errorf("expected remaining 1200000, got %s", debt.RemainingAmount)
	}

	rule := testutil.CreateTestRule(t, db, &models.PredictionRule{
		RuleType: models.RuleTypeBehavioral,
		Priority: 3,
		IsActive: true,
	})
	if rule.ID == "" || rule.RuleName == "" {
		t.Error("expected rule to get an ID and a generated name")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrStudentNotFound, "custom message")
	testutil.AssertAppError(t, err, "STUDENT_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
