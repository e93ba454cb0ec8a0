package ruleset

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"campusfin/internal/models"
)

const (
	MinPriority = 1
	MaxPriority = 10
	// MaxConfidenceImpact bounds a single rule; the engine clamps the sum.
	MaxConfidenceImpact = 0.5
)

var ErrInvalidRule = errors.New("invalid prediction rule")

var (
	ruleTypes = map[models.RuleType]bool{
		models.RuleTypeDebtImpact:  true,
		models.RuleTypeEventImpact: true,
		models.RuleTypeSeasonal:    true,
		models.RuleTypeBehavioral:  true,
	}
	periods = map[models.RulePeriod]bool{
		"":                              true,
		models.RulePeriodAll:            true,
		models.RulePeriodNextWeek:       true,
		models.RulePeriodNextMonth:      true,
		models.RulePeriodPaymentDates:   true,
		models.RulePeriodEventDates:     true,
		models.RulePeriodAcademicEvents: true,
	}
	targets = map[string]bool{"income": true, "expense": true, "balance": true}
	refDims = map[string]bool{
		"student": true, "financial": true, "temporal": true, "transaction": true,
		"debt": true, "event": true, "academic": true,
	}
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRule, fmt.Sprintf(format, args...))
}

// Validate checks a rule's static shape. Whether referenced context fields
// exist is only known at evaluation time.
func Validate(r *models.PredictionRule) error {
	if strings.TrimSpace(r.RuleName) == "" {
		return invalid("name is required")
	}
	if !ruleTypes[r.RuleType] {
		return invalid("unknown rule type %q", r.RuleType)
	}
	if r.Priority < MinPriority || r.Priority > MaxPriority {
		return invalid("priority %d outside %d-%d", r.Priority, MinPriority, MaxPriority)
	}
	if !periods[r.Period] {
		return invalid("unknown period %q", r.Period)
	}
	if math.Abs(r.ConfidenceImpact) > MaxConfidenceImpact {
		return invalid("confidence impact %v outside ±%v", r.ConfidenceImpact, MaxConfidenceImpact)
	}
	if len(r.Adjustments) == 0 {
		return invalid("at least one adjustment is required")
	}
	for i, a := range r.Adjustments {
		if err := validateAdjustment(a); err != nil {
			return fmt.Errorf("adjustment %d: %w", i+1, err)
		}
	}

	c := r.Conditions.Data()
	for dim, preds := range map[string]map[string]models.Predicate{
		"student":     c.Student,
		"financial":   c.Financial,
		"temporal":    c.Temporal,
		"transaction": c.Transaction,
	} {
		for field, p := range preds {
			if err := validatePredicate(p); err != nil {
				return fmt.Errorf("condition %s.%s: %w", dim, field, err)
			}
		}
	}
	return nil
}

func validateAdjustment(a models.RuleAdjustment) error {
	kind, _, _ := strings.Cut(a.Target, "/")
	if !targets[kind] {
		return invalid("unknown target %q", a.Target)
	}
	switch a.Op {
	case models.AdjustMultiply, models.AdjustAdd, models.AdjustSubtract:
	default:
		return invalid("unknown op %q", a.Op)
	}

	hasLiteral, hasRef := a.Value.Literal != nil, a.Value.Ref != ""
	if hasLiteral == hasRef {
		return invalid("value needs exactly one of literal or ref")
	}
	if hasRef {
		dim, field, ok := strings.Cut(a.Value.Ref, ".")
		if !ok || field == "" || !refDims[dim] {
			return invalid("bad ref %q", a.Value.Ref)
		}
	}
	if hasLiteral && a.Op == models.AdjustMultiply && *a.Value.Literal < 0 {
		return invalid("negative multiplier %v", *a.Value.Literal)
	}
	return nil
}

func validatePredicate(p models.Predicate) error {
	switch p.Op {
	case models.OpExists, models.OpIsTrue, models.OpIsFalse:
		return nil
	case models.OpEquals, models.OpNotEquals:
		if (p.Number == nil) == (p.Text == nil) {
			return invalid("%s needs exactly one of number or text", p.Op)
		}
	case models.OpGreater, models.OpGreaterEq, models.OpLess, models.OpLessEq:
		if p.Number == nil {
			return invalid("%s needs a number", p.Op)
		}
	case models.OpBetween:
		if p.Min == nil && p.Max == nil {
			return invalid("between needs min or max")
		}
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			return invalid("between min %v above max %v", *p.Min, *p.Max)
		}
	case models.OpIn:
		if len(p.Values) == 0 {
			return invalid("in needs values")
		}
	default:
		return invalid("unknown op %q", p.Op)
	}
	return nil
}
