package services

import (
	"context"
	"testing"

	"campusfin/internal/models"
	"campusfin/internal/pagination"
	"campusfin/internal/testutil"
)

func testRule(name string, priority int) *models.PredictionRule {
	factor := 1.1
	return &models.PredictionRule{
		RuleName: name,
		RuleType: models.RuleTypeBehavioral,
		Priority: priority,
		IsActive: true,
		Adjustments: []models.RuleAdjustment{{
			Target: "expense",
			Op:     models.AdjustMultiply,
			Value:  models.AdjustmentValue{Literal: &factor},
			Reason: "test",
		}},
	}
}

func TestCreateRule(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)

		rule, err := svc.CreateRule(ctx, testRule("late_night_snacks", 4))
		testutil.AssertNoError(t, err)

		if rule.ID == "" {
			t.Fatal("expected non-empty rule ID")
		}
		if rule.Period != models.RulePeriodAll {
			t.Errorf("expected period to default to all, got %q", rule.Period)
		}

		got, err := svc.GetRuleByID(ctx, rule.ID)
		testutil.AssertNoError(t, err)
		if len(got.Adjustments) != 1 || *got.Adjustments[0].Value.Literal != 1.1 {
			t.Errorf("expected adjustments to round-trip, got %+v", got.Adjustments)
		}
	})

	t.Run("inactive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)

		in := testRule("draft", 4)
		in.IsActive = false
		rule, err := svc.CreateRule(ctx, in)
		testutil.AssertNoError(t, err)

		got, err := svc.GetRuleByID(ctx, rule.ID)
		testutil.AssertNoError(t, err)
		if got.IsActive {
			t.Error("expected rule to be stored inactive")
		}
	})

	t.Run("invalid_priority", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)

		_, err := svc.CreateRule(ctx, testRule("too_urgent", 11))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("no_adjustments", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)

		in := testRule("empty", 3)
		in.Adjustments = nil
		_, err := svc.CreateRule(ctx, in)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("duplicate_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)

		_, err := svc.CreateRule(ctx, testRule("dup", 3))
		testutil.AssertNoError(t, err)
		_, err = svc.CreateRule(ctx, testRule("dup", 6))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListActiveRules(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRuleService(db)

	for _, r := range []*models.PredictionRule{
		testRule("first_five", 5),
		testRule("two", 2),
		testRule("second_five", 5),
	} {
		_, err := svc.CreateRule(ctx, r)
		testutil.AssertNoError(t, err)
	}
	off := testRule("off", 1)
	off.IsActive = false
	_, err := svc.CreateRule(ctx, off)
	testutil.AssertNoError(t, err)

	rules, err := svc.ListActiveRules(ctx)
	testutil.AssertNoError(t, err)

	var names []string
	for _, r := range rules {
		names = append(names, r.RuleName)
	}
	want := []string{"two", "first_five", "second_five"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], names[i])
		}
	}

	t.Run("paginated_with_filter", func(t *testing.T) {
		inactive := false
		result, err := svc.GetRules(ctx, pagination.PageRequest{}, &inactive)
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 || result.Data[0].RuleName != "off" {
			t.Errorf("expected only the inactive rule, got %d items", result.TotalItems)
		}
	})
}

func TestUpdateRule(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRuleService(db)

	rule, err := svc.CreateRule(ctx, testRule("tuned", 5))
	testutil.AssertNoError(t, err)

	t.Run("valid", func(t *testing.T) {
		priority := 9
		active := false
		period := models.RulePeriodNextWeek
		updated, err := svc.UpdateRule(ctx, rule.ID, RuleUpdate{Priority: &priority, IsActive: &active, Period: &period})
		testutil.AssertNoError(t, err)

		if updated.Priority != 9 || updated.IsActive || updated.Period != period {
			t.Errorf("unexpected rule after update: %+v", updated)
		}

		got, err := svc.GetRuleByID(ctx, rule.ID)
		testutil.AssertNoError(t, err)
		if got.IsActive {
			t.Error("expected deactivation to persist")
		}
	})

	t.Run("invalid_impact", func(t *testing.T) {
		impact := 0.9
		_, err := svc.UpdateRule(ctx, rule.ID, RuleUpdate{ConfidenceImpact: &impact})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := svc.UpdateRule(ctx, "0190c6a2-0000-7000-8000-00000000dead", RuleUpdate{})
		testutil.AssertAppError(t, err, "RULE_NOT_FOUND")
	})
}

func TestImportRules(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRuleService(db)

	existing, err := svc.CreateRule(ctx, testRule("rent_increase", 5))
	testutil.AssertNoError(t, err)
	if err := db.Model(existing).Update("usage_count", 7).Error; err != nil {
		t.Fatalf("failed to seed usage count: %v", err)
	}

	changed := *testRule("rent_increase", 8)
	changed.Description = "Landlord raised rent"
	created, updated, err := svc.ImportRules(ctx, []models.PredictionRule{changed, *testRule("new_rule", 2)})
	testutil.AssertNoError(t, err)

	if created != 1 || updated != 1 {
		t.Errorf("expected 1 created and 1 updated, got %d and %d", created, updated)
	}

	got, err := svc.GetRuleByID(ctx, existing.ID)
	testutil.AssertNoError(t, err)
	if got.Priority != 8 || got.Description != "Landlord raised rent" {
		t.Errorf("expected imported fields on existing rule, got %+v", got)
	}
	if got.UsageCount != 7 {
		t.Errorf("expected usage count to survive import, got %d", got.UsageCount)
	}

	t.Run("invalid_rejects_all", func(t *testing.T) {
		_, _, err := svc.ImportRules(ctx, []models.PredictionRule{*testRule("fine", 2), *testRule("broken", 0)})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		result, err := svc.GetRules(ctx, pagination.PageRequest{}, nil)
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected nothing imported, got %d rules", result.TotalItems)
		}
	})
}
