package forecast

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusfin/internal/analytics"
	"campusfin/internal/models"
)

func txt(s string) *string { return &s }

func TestEvalPredicate(t *testing.T) {
	tests := []struct {
		name    string
		pred    models.Predicate
		value   Value
		present bool
		want    bool
		wantErr error
	}{
		{"eq number", models.Predicate{Op: models.OpEquals, Number: num(3)}, Number(3), true, true, nil},
		{"neq number", models.Predicate{Op: models.OpNotEquals, Number: num(3)}, Number(4), true, true, nil},
		{"eq text", models.Predicate{Op: models.OpEquals, Text: txt("ITB")}, Text("ITB"), true, true, nil},
		{"gt", models.Predicate{Op: models.OpGreater, Number: num(10)}, Number(10), true, false, nil},
		{"gte", models.Predicate{Op: models.OpGreaterEq, Number: num(10)}, Number(10), true, true, nil},
		{"lt", models.Predicate{Op: models.OpLess, Number: num(10)}, Number(9.5), true, true, nil},
		{"lte", models.Predicate{Op: models.OpLessEq, Number: num(10)}, Number(11), true, false, nil},
		{"between inside", models.Predicate{Op: models.OpBetween, Min: num(1), Max: num(3)}, Number(3), true, true, nil},
		{"between outside", models.Predicate{Op: models.OpBetween, Min: num(1), Max: num(3)}, Number(0), true, false, nil},
		{"between open max", models.Predicate{Op: models.OpBetween, Min: num(1)}, Number(100), true, true, nil},
		{"in", models.Predicate{Op: models.OpIn, Values: []string{"food", "transport"}}, Text("transport"), true, true, nil},
		{"not in", models.Predicate{Op: models.OpIn, Values: []string{"food"}}, Text("rent"), true, false, nil},
		{"is true", models.Predicate{Op: models.OpIsTrue}, Flag(true), true, true, nil},
		{"is false", models.Predicate{Op: models.OpIsFalse}, Flag(true), true, false, nil},
		{"exists present", models.Predicate{Op: models.OpExists}, Number(0), true, true, nil},
		{"exists missing", models.Predicate{Op: models.OpExists}, Value{}, false, false, nil},
		{"missing field", models.Predicate{Op: models.OpGreater, Number: num(1)}, Value{}, false, false, ErrMissingField},
		{"type mismatch", models.Predicate{Op: models.OpGreater, Number: num(1)}, Text("x"), true, false, ErrTypeMismatch},
		{"bool on number", models.Predicate{Op: models.OpIsTrue}, Number(1), true, false, ErrTypeMismatch},
		{"eq without operand", models.Predicate{Op: models.OpEquals}, Number(1), true, false, ErrInvalidPredicate},
		{"unknown op", models.Predicate{Op: "like"}, Text("x"), true, false, ErrInvalidPredicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalPredicate("dim.field", tt.pred, tt.value, tt.present)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatches_EmptyConditionsMatchAnything(t *testing.T) {
	ok, err := NewContext().Matches(models.RuleConditions{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatches_AllPredicatesMustHold(t *testing.T) {
	ctx := BuildContext(ContextInput{
		Horizon: horizon(30),
		Student: models.Student{YearOfStudy: 1, LivesOnCampus: true, MonthlyAllowance: decimal.NewFromInt(1500000)},
	})

	conds := models.RuleConditions{
		Student: map[string]models.Predicate{
			"year_of_study":   {Op: models.OpLessEq, Number: num(2)},
			"lives_on_campus": {Op: models.OpIsTrue},
		},
		Temporal: map[string]models.Predicate{
			"month": {Op: models.OpEquals, Number: num(3)},
		},
	}
	ok, err := ctx.Matches(conds)
	require.NoError(t, err)
	assert.True(t, ok)

	conds.Temporal["month"] = models.Predicate{Op: models.OpEquals, Number: num(9)}
	ok, err = ctx.Matches(conds)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	ctx := NewContext()
	ctx.Set(DimFinancial, "monthly_income", Number(2000000))
	ctx.Set(DimStudent, "university", Text("ITB"))
	ctx.Set(DimDebt, "monthly_payment", Number(250))
	ctx.schedule("debt.monthly_payment", day0, 100)

	v, due, err := ctx.Resolve(lit(1.2), day0)
	require.NoError(t, err)
	assert.True(t, due)
	assert.Equal(t, 1.2, v)

	v, due, err = ctx.Resolve(ref("financial.monthly_income"), day0.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.True(t, due, "undated refs apply on every day")
	assert.Equal(t, 2000000.0, v)

	v, due, err = ctx.Resolve(ref("debt.monthly_payment"), day0)
	require.NoError(t, err)
	assert.True(t, due)
	assert.Equal(t, 100.0, v)

	_, due, err = ctx.Resolve(ref("debt.monthly_payment"), day0.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, due, "nothing due on an unscheduled day, whatever the total")

	_, _, err = ctx.Resolve(ref("event.expense_amount"), day0)
	assert.True(t, errors.Is(err, ErrMissingField))

	_, _, err = ctx.Resolve(ref("student.university"), day0)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, _, err = ctx.Resolve(ref("nodot"), day0)
	assert.True(t, errors.Is(err, ErrMissingField))

	_, _, err = ctx.Resolve(models.AdjustmentValue{}, day0)
	assert.True(t, errors.Is(err, ErrInvalidAdjustment))
}

func TestBuildContext_MonthEndDebtRecurs(t *testing.T) {
	jan31 := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	ctx := BuildContext(ContextInput{
		Horizon: analytics.Window{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
		Debts: []models.Debt{{
			RemainingAmount:    decimal.NewFromInt(1000000),
			MonthlyPayment:     decimal.NewFromInt(100000),
			NextPaymentDate:    jan31,
			AffectsPredictions: true,
			IsActive:           true,
		}},
	})

	var days []string
	for d := range ctx.paymentDays {
		days = append(days, d)
	}
	sort.Strings(days)
	assert.Equal(t, []string{"2026-01-31", "2026-02-28", "2026-03-31", "2026-04-30"}, days)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		from time.Time
		n    int
		want time.Time
	}{
		{time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2028, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), 2, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC), 3, time.Date(2027, 2, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, addMonths(tt.from, tt.n), "%s +%d", tt.from.Format("2006-01-02"), tt.n)
	}
}

func TestBuildContext(t *testing.T) {
	ctx := BuildContext(ContextInput{
		Horizon: horizon(30),
		Student: models.Student{YearOfStudy: 2, HasScholarship: true, University: "UI"},
		AcademicEvents: []models.AcademicEvent{
			{EventType: models.AcademicEventHoliday, StartDate: day0.AddDate(0, 0, -3), EndDate: day0.AddDate(0, 0, 2), IncomeImpact: 1, ExpenseImpact: 0.8},
			{EventType: models.AcademicEventExamPeriod, StartDate: day0.AddDate(0, 0, 12), EndDate: day0.AddDate(0, 0, 20), IncomeImpact: 1, ExpenseImpact: 1.3},
		},
	})

	v, ok := ctx.Lookup(DimTemporal, "in_holiday")
	require.True(t, ok)
	assert.True(t, v.Bool)

	v, ok = ctx.Lookup(DimTemporal, "in_exam_period")
	require.True(t, ok)
	assert.False(t, v.Bool)

	v, ok = ctx.Lookup(DimTemporal, "days_to_next_exam")
	require.True(t, ok)
	assert.Equal(t, 12.0, v.Num)

	v, ok = ctx.Lookup(DimFinancial, "active_debt_count")
	require.True(t, ok)
	assert.Zero(t, v.Num)

	_, ok = ctx.Lookup(DimDebt, "monthly_payment")
	assert.False(t, ok, "debt fields are only set when debts exist")
	_, ok = ctx.Lookup(DimEvent, "estimated_amount")
	assert.False(t, ok)

	assert.True(t, ctx.inAcademicWindow(day0))
	assert.False(t, ctx.inAcademicWindow(day0.AddDate(0, 0, 5)))
}
