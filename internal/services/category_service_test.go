package services

import (
	"context"
	"testing"
	"time"

	"campusfin/internal/models"
	"campusfin/internal/pagination"
	"campusfin/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		student := testutil.CreateTestStudent(t, db)

		cat, err := svc.CreateCategory(ctx, student.ID, "Groceries", models.CategoryTypeExpense, "cart", "#FF0000")
		testutil.AssertNoError(t, err)

		if cat.ID == "" {
			t.Fatal("expected non-empty category ID")
		}
		if cat.Name != "Groceries" {
			t.Errorf("expected name Groceries, got %s", cat.Name)
		}
		if cat.StudentID == nil || *cat.StudentID != student.ID {
			t.Errorf("expected category owned by %s, got %v", student.ID, cat.StudentID)
		}
		if cat.IsSystem {
			t.Error("expected a student category, got a system one")
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		student := testutil.CreateTestStudent(t, db)

		_, err := svc.CreateCategory(ctx, student.ID, "Food", models.CategoryTypeExpense, "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(ctx, student.ID, "food", models.CategoryTypeExpense, "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("shadowing_system_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		student := testutil.CreateTestStudent(t, db)
		system := testutil.CreateTestCategory(t, db, "", models.CategoryTypeExpense)

		_, err := svc.CreateCategory(ctx, student.ID, system.Name, models.CategoryTypeExpense, "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("same_name_other_student", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		alice := testutil.CreateTestStudent(t, db)
		bob := testutil.CreateTestStudent(t, db)

		_, err := svc.CreateCategory(ctx, alice.ID, "Coffee", models.CategoryTypeExpense, "", "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory(ctx, bob.ID, "Coffee", models.CategoryTypeExpense, "", "")
		testutil.AssertNoError(t, err)
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		student := testutil.CreateTestStudent(t, db)

		_, err := svc.CreateCategory(ctx, student.ID, "  ", models.CategoryTypeExpense, "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		student := testutil.CreateTestStudent(t, db)

		_, err := svc.CreateCategory(ctx, student.ID, "Misc", models.CategoryType("transfer"), "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetStudentCategories(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)
	student := testutil.CreateTestStudent(t, db)
	other := testutil.CreateTestStudent(t, db)

	testutil.CreateTestCategory(t, db, "", models.CategoryTypeExpense)
	testutil.CreateTestCategory(t, db, "", models.CategoryTypeIncome)
	testutil.CreateTestCategory(t, db, student.ID, models.CategoryTypeExpense)
	testutil.CreateTestCategory(t, db, other.ID, models.CategoryTypeExpense)

	t.Run("system_and_own", func(t *testing.T) {
		result, err := svc.GetStudentCategories(ctx, student.ID, nil, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 3 {
			t.Fatalf("expected 3 categories, got %d", result.TotalItems)
		}
		for _, c := range result.Data {
			if c.StudentID != nil && *c.StudentID == other.ID {
				t.Errorf("category %s of another student leaked", c.ID)
			}
		}
		if !result.Data[0].IsSystem {
			t.Error("expected system categories first")
		}
	})

	t.Run("by_type", func(t *testing.T) {
		expense := models.CategoryTypeExpense
		result, err := svc.GetStudentCategories(ctx, student.ID, &expense, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Errorf("expected 2 expense categories, got %d", result.TotalItems)
		}
	})

	t.Run("paginated", func(t *testing.T) {
		result, err := svc.GetStudentCategories(ctx, student.ID, nil, pagination.PageRequest{Page: 2, PageSize: 2})
		testutil.AssertNoError(t, err)

		if len(result.Data) != 1 {
			t.Errorf("expected 1 category on page 2, got %d", len(result.Data))
		}
		if result.TotalPages != 2 {
			t.Errorf("expected 2 pages, got %d", result.TotalPages)
		}
	})
}

func TestGetCategory(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)
	student := testutil.CreateTestStudent(t, db)
	other := testutil.CreateTestStudent(t, db)

	system := testutil.CreateTestCategory(t, db, "", models.CategoryTypeExpense)
	foreign := testutil.CreateTestCategory(t, db, other.ID, models.CategoryTypeExpense)

	t.Run("system", func(t *testing.T) {
		cat, err := svc.GetCategory(ctx, student.ID, system.ID)
		testutil.AssertNoError(t, err)
		if cat.ID != system.ID {
			t.Errorf("expected %s, got %s", system.ID, cat.ID)
		}
	})

	t.Run("other_student", func(t *testing.T) {
		_, err := svc.GetCategory(ctx, student.ID, foreign.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("map", func(t *testing.T) {
		m, err := svc.CategoryMap(ctx, student.ID)
		testutil.AssertNoError(t, err)
		if _, ok := m[system.ID]; !ok {
			t.Error("expected system category in map")
		}
		if _, ok := m[foreign.ID]; ok {
			t.Error("unexpected foreign category in map")
		}
	})
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		student := testutil.CreateTestStudent(t, db)
		cat := testutil.CreateTestCategory(t, db, student.ID, models.CategoryTypeExpense)

		updated, err := svc.UpdateCategory(ctx, student.ID, cat.ID, "Books", "book", "")
		testutil.AssertNoError(t, err)

		if updated.Name != "Books" || updated.Icon != "book" {
			t.Errorf("expected Books/book, got %s/%s", updated.Name, updated.Icon)
		}
		if updated.Color != cat.Color {
			t.Errorf("expected color to stay %s, got %s", cat.Color, updated.Color)
		}
	})

	t.Run("system", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		student := testutil.CreateTestStudent(t, db)
		system := testutil.CreateTestCategory(t, db, "", models.CategoryTypeExpense)

		_, err := svc.UpdateCategory(ctx, student.ID, system.ID, "Mine now", "", "")
		testutil.AssertAppError(t, err, "SYSTEM_CATEGORY")
	})
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("unused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		student := testutil.CreateTestStudent(t, db)
		cat := testutil.CreateTestCategory(t, db, student.ID, models.CategoryTypeExpense)

		testutil.AssertNoError(t, svc.DeleteCategory(ctx, student.ID, cat.ID))

		_, err := svc.GetCategory(ctx, student.ID, cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("in_use", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		student := testutil.CreateTestStudent(t, db)
		cat := testutil.CreateTestCategory(t, db, student.ID, models.CategoryTypeExpense)
		testutil.CreateTestTransaction(t, db, student.ID, cat.ID, models.TransactionTypeExpense, 25000, time.Now().UTC())

		err := svc.DeleteCategory(ctx, student.ID, cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_IN_USE")
	})

	t.Run("system", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		student := testutil.CreateTestStudent(t, db)
		system := testutil.CreateTestCategory(t, db, "", models.CategoryTypeIncome)

		err := svc.DeleteCategory(ctx, student.ID, system.ID)
		testutil.AssertAppError(t, err, "SYSTEM_CATEGORY")
	})
}
