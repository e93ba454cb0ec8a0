package forecast

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"campusfin/internal/analytics"
	"campusfin/internal/logger"
	"campusfin/internal/models"
)

// Scope identifies the forecast a rule set is applied to.
type Scope struct {
	Type         models.PredictionType
	CategoryID   string
	CategoryName string
}

// Result is the outcome of running the rule engine over a baseline.
type Result struct {
	Points          []models.ForecastDataPoint
	Adjustments     []models.PredictionAdjustment
	Applied         []models.AppliedRule
	ConfidenceDelta float64
	Skipped         []*RuleError
}

// Engine applies prediction rules to a baseline forecast. Rules run in
// ascending priority order and each one sees the output of the rules before
// it. A rule either applies completely or not at all.
type Engine struct {
	confidenceCap float64
	logger        *zap.SugaredLogger
}

// NewEngine returns an engine that clamps the summed confidence impact of
// applied rules to [-confidenceCap, confidenceCap].
func NewEngine(confidenceCap float64) *Engine {
	return &Engine{
		confidenceCap: math.Abs(confidenceCap),
		logger:        logger.Named("rules"),
	}
}

// OrderRules returns a copy of rules, active ones only, sorted by priority
// then creation time then id.
func OrderRules(rules []models.PredictionRule) []models.PredictionRule {
	ordered := make([]models.PredictionRule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := &ordered[i], &ordered[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		at, aid := a.CreatedOrder()
		bt, bid := b.CreatedOrder()
		if !at.Equal(bt) {
			return at.Before(bt)
		}
		return aid < bid
	})
	return ordered
}

// Apply runs rules against baseline and returns the adjusted points. The
// baseline slice is not modified.
func (e *Engine) Apply(rules []models.PredictionRule, ctx *Context, scope Scope, baseline []models.ForecastDataPoint) Result {
	points := make([]models.ForecastDataPoint, len(baseline))
	copy(points, baseline)

	res := Result{Points: points}
	var confidence float64

	for _, rule := range OrderRules(rules) {
		matched, err := ctx.Matches(rule.Conditions.Data())
		if err != nil {
			res.Skipped = append(res.Skipped, e.skip(&rule, err))
			continue
		}
		if !matched {
			continue
		}

		next, adjustments, err := e.applyRule(&rule, ctx, scope, res.Points)
		if err != nil {
			res.Skipped = append(res.Skipped, e.skip(&rule, err))
			continue
		}
		if len(adjustments) == 0 {
			continue
		}

		res.Points = next
		res.Adjustments = append(res.Adjustments, adjustments...)
		confidence += rule.ConfidenceImpact

		var effect float64
		touched := make(map[string]bool)
		for _, a := range adjustments {
			effect += a.AdjustedValue - a.OriginalValue
			touched[analytics.DayKey(a.Date)] = true
		}
		res.Applied = append(res.Applied, models.AppliedRule{
			RuleID:           rule.ID,
			RuleName:         rule.RuleName,
			RuleType:         rule.RuleType,
			Priority:         rule.Priority,
			PointsAffected:   len(touched),
			TotalEffect:      round2(effect),
			ConfidenceImpact: rule.ConfidenceImpact,
		})
	}

	res.ConfidenceDelta = clamp(confidence, -e.confidenceCap, e.confidenceCap)
	return res
}

func (e *Engine) skip(rule *models.PredictionRule, err error) *RuleError {
	re := &RuleError{RuleID: rule.ID, RuleName: rule.RuleName, Err: err}
	e.logger.Warnw("Skipping prediction rule",
		"rule_id", rule.ID,
		"rule_name", rule.RuleName,
		"error", err,
	)
	return re
}

// applyRule works on a copy of points and returns it only if every
// adjustment of the rule succeeded.
func (e *Engine) applyRule(rule *models.PredictionRule, ctx *Context, scope Scope, in []models.ForecastDataPoint) ([]models.ForecastDataPoint, []models.PredictionAdjustment, error) {
	window, err := periodIndexes(rule.Period, ctx, in)
	if err != nil {
		return nil, nil, err
	}

	points := make([]models.ForecastDataPoint, len(in))
	copy(points, in)
	var out []models.PredictionAdjustment

	for _, adj := range rule.Adjustments {
		sign, ok, err := targetSign(adj, scope)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		for _, i := range window {
			p := &points[i]
			v, due, err := ctx.Resolve(adj.Value, p.Date)
			if err != nil {
				return nil, nil, err
			}
			if !due {
				continue
			}

			before := p.PredictedValue
			switch adj.Op {
			case models.AdjustMultiply:
				if v < 0 {
					return nil, nil, fmt.Errorf("%w: negative multiplier %v", ErrInvalidAdjustment, v)
				}
				p.PredictedValue *= v
				p.LowerBound *= v
				p.UpperBound *= v
			case models.AdjustAdd, models.AdjustSubtract:
				delta := v * sign
				if adj.Op == models.AdjustSubtract {
					delta = -delta
				}
				p.PredictedValue += delta
				p.LowerBound += delta
				p.UpperBound += delta
			}
			if scope.Type != models.PredictionTypeBalance {
				p.PredictedValue = math.Max(p.PredictedValue, 0)
				p.LowerBound = math.Max(p.LowerBound, 0)
				p.UpperBound = math.Max(p.UpperBound, 0)
			}

			out = append(out, models.PredictionAdjustment{
				RuleID:         rule.ID,
				RuleName:       rule.RuleName,
				Date:           p.Date,
				OriginalValue:  round2(before),
				AdjustedValue:  round2(p.PredictedValue),
				Reason:         reason(rule, adj),
				AdjustmentType: rule.RuleType,
				Confidence:     rule.ConfidenceImpact,
			})
		}
	}
	return points, out, nil
}

// targetSign decides whether adj applies to the forecast in scope. The sign
// is -1 when an expense adjustment is folded into a balance forecast.
func targetSign(adj models.RuleAdjustment, scope Scope) (float64, bool, error) {
	switch adj.Op {
	case models.AdjustMultiply, models.AdjustAdd, models.AdjustSubtract:
	default:
		return 0, false, fmt.Errorf("%w: op %q", ErrInvalidAdjustment, adj.Op)
	}
	if adj.Value.Literal == nil && adj.Value.Ref == "" {
		return 0, false, fmt.Errorf("%w: target %s has no value", ErrInvalidAdjustment, adj.Target)
	}

	kind, category, _ := strings.Cut(adj.Target, "/")
	target := models.PredictionType(kind)
	switch target {
	case models.PredictionTypeIncome, models.PredictionTypeExpense, models.PredictionTypeBalance:
	default:
		return 0, false, fmt.Errorf("%w: target %q", ErrInvalidAdjustment, adj.Target)
	}

	if category != "" && category != scope.CategoryID && !strings.EqualFold(category, scope.CategoryName) {
		return 0, false, nil
	}
	if target == scope.Type {
		return 1, true, nil
	}
	if scope.Type == models.PredictionTypeBalance && adj.Op != models.AdjustMultiply {
		if target == models.PredictionTypeExpense {
			return -1, true, nil
		}
		return 1, true, nil
	}
	return 0, false, nil
}

func periodIndexes(period models.RulePeriod, ctx *Context, points []models.ForecastDataPoint) ([]int, error) {
	if len(points) == 0 {
		return nil, nil
	}
	first := analytics.DayStart(points[0].Date)

	var keep func(d time.Time) bool
	switch period {
	case "", models.RulePeriodAll:
		keep = func(time.Time) bool { return true }
	case models.RulePeriodNextWeek:
		limit := first.AddDate(0, 0, 7)
		keep = func(d time.Time) bool { return d.Before(limit) }
	case models.RulePeriodNextMonth:
		limit := first.AddDate(0, 0, 30)
		keep = func(d time.Time) bool { return d.Before(limit) }
	case models.RulePeriodPaymentDates:
		keep = ctx.isPaymentDay
	case models.RulePeriodEventDates:
		keep = ctx.isEventDay
	case models.RulePeriodAcademicEvents:
		keep = ctx.inAcademicWindow
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}

	var idx []int
	for i, p := range points {
		if keep(p.Date) {
			idx = append(idx, i)
		}
	}
	return idx, nil
}

func reason(rule *models.PredictionRule, adj models.RuleAdjustment) string {
	if adj.Reason != "" {
		return adj.Reason
	}
	if adj.Value.IsRef() {
		return fmt.Sprintf("%s: %s %s by %s", rule.RuleName, adj.Op, adj.Target, adj.Value.Ref)
	}
	return fmt.Sprintf("%s: %s %s by %g", rule.RuleName, adj.Op, adj.Target, *adj.Value.Literal)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
