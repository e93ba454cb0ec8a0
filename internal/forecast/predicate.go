package forecast

import (
	"errors"
	"fmt"
	"slices"

	apperrors "campusfin/internal/errors"
	"campusfin/internal/models"
)

var (
	ErrMissingField      = errors.New("context field not available")
	ErrTypeMismatch      = errors.New("context field has the wrong type")
	ErrInvalidPredicate  = errors.New("invalid predicate")
	ErrInvalidAdjustment = errors.New("invalid adjustment")
	ErrInvalidPeriod     = errors.New("unknown rule period")
)

func missingField(path string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, path)
}

func typeMismatch(path string, want, got ValueKind) error {
	return fmt.Errorf("%w: %s is %s, want %s", ErrTypeMismatch, path, got, want)
}

// RuleError reports a rule that could not be evaluated. The rule is skipped
// and the rest of the pipeline continues.
type RuleError struct {
	RuleID   string
	RuleName string
	Err      error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q (%s): %v", e.RuleName, e.RuleID, e.Err)
}

// Unwrap exposes both the cause and the rule-evaluation sentinel, so callers
// can match either with errors.Is.
func (e *RuleError) Unwrap() []error {
	return []error{e.Err, apperrors.ErrRuleEvaluation}
}

// evalPredicate tests one predicate against a context field.
func evalPredicate(path string, p models.Predicate, v Value, present bool) (bool, error) {
	if p.Op == models.OpExists {
		return present, nil
	}
	if !present {
		return false, missingField(path)
	}

	switch p.Op {
	case models.OpIsTrue, models.OpIsFalse:
		if v.Kind != KindBool {
			return false, typeMismatch(path, KindBool, v.Kind)
		}
		return v.Bool == (p.Op == models.OpIsTrue), nil

	case models.OpEquals, models.OpNotEquals:
		eq, err := equals(path, p, v)
		if err != nil {
			return false, err
		}
		return eq == (p.Op == models.OpEquals), nil

	case models.OpGreater, models.OpGreaterEq, models.OpLess, models.OpLessEq:
		if p.Number == nil {
			return false, fmt.Errorf("%w: %s %s needs a number operand", ErrInvalidPredicate, path, p.Op)
		}
		if v.Kind != KindNumber {
			return false, typeMismatch(path, KindNumber, v.Kind)
		}
		switch p.Op {
		case models.OpGreater:
			return v.Num > *p.Number, nil
		case models.OpGreaterEq:
			return v.Num >= *p.Number, nil
		case models.OpLess:
			return v.Num < *p.Number, nil
		default:
			return v.Num <= *p.Number, nil
		}

	case models.OpBetween:
		if p.Min == nil && p.Max == nil {
			return false, fmt.Errorf("%w: %s between needs min or max", ErrInvalidPredicate, path)
		}
		if v.Kind != KindNumber {
			return false, typeMismatch(path, KindNumber, v.Kind)
		}
		if p.Min != nil && v.Num < *p.Min {
			return false, nil
		}
		if p.Max != nil && v.Num > *p.Max {
			return false, nil
		}
		return true, nil

	case models.OpIn:
		if v.Kind != KindText {
			return false, typeMismatch(path, KindText, v.Kind)
		}
		return slices.Contains(p.Values, v.Str), nil
	}

	return false, fmt.Errorf("%w: %s has op %q", ErrInvalidPredicate, path, p.Op)
}

func equals(path string, p models.Predicate, v Value) (bool, error) {
	switch {
	case p.Number != nil:
		if v.Kind != KindNumber {
			return false, typeMismatch(path, KindNumber, v.Kind)
		}
		return v.Num == *p.Number, nil
	case p.Text != nil:
		if v.Kind != KindText {
			return false, typeMismatch(path, KindText, v.Kind)
		}
		return v.Str == *p.Text, nil
	}
	return false, fmt.Errorf("%w: %s %s needs an operand", ErrInvalidPredicate, path, p.Op)
}

// Matches reports whether every predicate in conds holds for c. Predicates
// are checked in sorted field order so the first error is deterministic.
func (c *Context) Matches(conds models.RuleConditions) (bool, error) {
	groups := []struct {
		dim   Dimension
		preds map[string]models.Predicate
	}{
		{DimStudent, conds.Student},
		{DimFinancial, conds.Financial},
		{DimTemporal, conds.Temporal},
		{DimTransaction, conds.Transaction},
	}
	for _, g := range groups {
		fields := make([]string, 0, len(g.preds))
		for f := range g.preds {
			fields = append(fields, f)
		}
		slices.Sort(fields)
		for _, f := range fields {
			v, ok := c.Lookup(g.dim, f)
			hit, err := evalPredicate(string(g.dim)+"."+f, g.preds[f], v, ok)
			if err != nil {
				return false, err
			}
			if !hit {
				return false, nil
			}
		}
	}
	return true, nil
}
