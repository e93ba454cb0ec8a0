package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"campusfin/internal/models"
	"campusfin/internal/pagination"
	"campusfin/internal/testutil"
)

var txDay = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewCategoryService(db))
		student := testutil.CreateTestStudent(t, db)
		cat := testutil.CreateTestCategory(t, db, "", models.CategoryTypeExpense)

		tx, err := svc.CreateTransaction(ctx, student.ID, TransactionInput{
			CategoryID: cat.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     decimal.NewFromInt(45000),
			Date:       txDay,
			Notes:      "Lunch",
		})
		testutil.AssertNoError(t, err)

		if tx.ID == "" {
			t.Fatal("expected non-empty transaction ID")
		}
		testutil.AssertAmount(t, "amount", tx.Amount, "45000")
		if tx.PaymentMethod != models.PaymentMethodCash {
			t.Errorf("expected default payment method cash, got %s", tx.PaymentMethod)
		}
		if tx.Category == nil || tx.Category.ID != cat.ID {
			t.Error("expected category to be attached")
		}
	})

	t.Run("default_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewCategoryService(db))
		student := testutil.CreateTestStudent(t, db)
		cat := testutil.CreateTestCategory(t, db, student.ID, models.CategoryTypeIncome)

		before := time.Now().UTC()
		tx, err := svc.CreateTransaction(ctx, student.ID, TransactionInput{
			CategoryID: cat.ID,
			Type:       models.TransactionTypeIncome,
			Amount:     decimal.NewFromInt(1000000),
		})
		testutil.AssertNoError(t, err)
		if tx.TransactionDate.Before(before) {
			t.Errorf("expected date defaulted to now, got %s", tx.TransactionDate)
		}
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewCategoryService(db))
		student := testutil.CreateTestStudent(t, db)
		cat := testutil.CreateTestCategory(t, db, "", models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(ctx, student.ID, TransactionInput{
			CategoryID: cat.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     decimal.Zero,
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewCategoryService(db))
		student := testutil.CreateTestStudent(t, db)
		cat := testutil.CreateTestCategory(t, db, "", models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(ctx, student.ID, TransactionInput{
			CategoryID: cat.ID,
			Type:       models.TransactionType("transfer"),
			Amount:     decimal.NewFromInt(100),
		})
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("category_type_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewCategoryService(db))
		student := testutil.CreateTestStudent(t, db)
		cat := testutil.CreateTestCategory(t, db, "", models.CategoryTypeIncome)

		_, err := svc.CreateTransaction(ctx, student.ID, TransactionInput{
			CategoryID: cat.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     decimal.NewFromInt(100),
		})
		testutil.AssertAppError(t, err, "CATEGORY_TYPE_MISMATCH")
	})

	t.Run("foreign_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewCategoryService(db))
		student := testutil.CreateTestStudent(t, db)
		other := testutil.CreateTestStudent(t, db)
		cat := testutil.CreateTestCategory(t, db, other.ID, models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(ctx, student.ID, TransactionInput{
			CategoryID: cat.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     decimal.NewFromInt(100),
		})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, NewCategoryService(db))
	student := testutil.CreateTestStudent(t, db)
	other := testutil.CreateTestStudent(t, db)
	food := testutil.CreateTestCategory(t, db, "", models.CategoryTypeExpense)
	salary := testutil.CreateTestCategory(t, db, "", models.CategoryTypeIncome)

	testutil.CreateTestTransaction(t, db, student.ID, salary.ID, models.TransactionTypeIncome, 2000000, txDay)
	testutil.CreateTestTransaction(t, db, student.ID, food.ID, models.TransactionTypeExpense, 50000, txDay.AddDate(0, 0, 1))
	testutil.CreateTestTransaction(t, db, student.ID, food.ID, models.TransactionTypeExpense, 30000, txDay.AddDate(0, 0, 2))
	testutil.CreateTestTransaction(t, db, other.ID, food.ID, models.TransactionTypeExpense, 99000, txDay)

	t.Run("all_oldest_first", func(t *testing.T) {
		txs, err := svc.ListTransactions(ctx, student.ID, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if len(txs) != 3 {
			t.Fatalf("expected 3 transactions, got %d", len(txs))
		}
		if txs[0].Type != models.TransactionTypeIncome {
			t.Errorf("expected oldest (income) first, got %s", txs[0].Type)
		}
	})

	t.Run("half_open_dates", func(t *testing.T) {
		from := txDay.AddDate(0, 0, 1)
		to := txDay.AddDate(0, 0, 2)
		txs, err := svc.ListTransactions(ctx, student.ID, TransactionFilter{FromDate: &from, ToDate: &to})
		testutil.AssertNoError(t, err)

		if len(txs) != 1 || !txs[0].Amount.Equal(decimal.NewFromInt(50000)) {
			t.Errorf("expected only the 50000 expense, got %d transactions", len(txs))
		}
	})

	t.Run("type_and_amount", func(t *testing.T) {
		expense := models.TransactionTypeExpense
		minAmount := decimal.NewFromInt(40000)
		txs, err := svc.ListTransactions(ctx, student.ID, TransactionFilter{Type: &expense, MinAmount: &minAmount})
		testutil.AssertNoError(t, err)

		if len(txs) != 1 {
			t.Errorf("expected 1 transaction, got %d", len(txs))
		}
	})

	t.Run("paginated_newest_first", func(t *testing.T) {
		result, err := svc.GetStudentTransactions(ctx, student.ID, pagination.PageRequest{Page: 1, PageSize: 2}, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 3 || result.TotalPages != 2 {
			t.Fatalf("expected 3 items over 2 pages, got %d over %d", result.TotalItems, result.TotalPages)
		}
		if !result.Data[0].Amount.Equal(decimal.NewFromInt(30000)) {
			t.Errorf("expected newest transaction first, got %s", result.Data[0].Amount)
		}
	})
}

func TestGetAndDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, NewCategoryService(db))
	student := testutil.CreateTestStudent(t, db)
	other := testutil.CreateTestStudent(t, db)
	cat := testutil.CreateTestCategory(t, db, "", models.CategoryTypeExpense)
	tx := testutil.CreateTestTransaction(t, db, student.ID, cat.ID, models.TransactionTypeExpense, 15000, txDay)

	t.Run("other_student", func(t *testing.T) {
		_, err := svc.GetTransactionByID(ctx, other.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("found_with_category", func(t *testing.T) {
		got, err := svc.GetTransactionByID(ctx, student.ID, tx.ID)
		testutil.AssertNoError(t, err)
		if got.Category == nil || got.Category.ID != cat.ID {
			t.Error("expected category preloaded")
		}
	})

	t.Run("delete", func(t *testing.T) {
		testutil.AssertNoError(t, svc.DeleteTransaction(ctx, student.ID, tx.ID))

		_, err := svc.GetTransactionByID(ctx, student.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")

		err = svc.DeleteTransaction(ctx, student.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}
