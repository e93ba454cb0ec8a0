package models

import (
	"time"

	"gorm.io/datatypes"
)

// RuleType classifies what a prediction rule models.
type RuleType string

const (
	RuleTypeDebtImpact  RuleType = "debt_impact"
	RuleTypeEventImpact RuleType = "event_impact"
	RuleTypeSeasonal    RuleType = "seasonal"
	RuleTypeBehavioral  RuleType = "behavioral"
)

// RulePeriod selects which forecast points a rule's adjustments touch.
type RulePeriod string

const (
	RulePeriodAll            RulePeriod = "all"
	RulePeriodNextWeek       RulePeriod = "next_week"
	RulePeriodNextMonth      RulePeriod = "next_month"
	RulePeriodPaymentDates   RulePeriod = "payment_dates"
	RulePeriodEventDates     RulePeriod = "event_dates"
	RulePeriodAcademicEvents RulePeriod = "academic_events"
)

// PredicateOp is the comparison a predicate performs.
type PredicateOp string

const (
	OpEquals    PredicateOp = "eq"
	OpNotEquals PredicateOp = "neq"
	OpGreater   PredicateOp = "gt"
	OpGreaterEq PredicateOp = "gte"
	OpLess      PredicateOp = "lt"
	OpLessEq    PredicateOp = "lte"
	OpBetween   PredicateOp = "between"
	OpIn        PredicateOp = "in"
	OpIsTrue    PredicateOp = "is_true"
	OpIsFalse   PredicateOp = "is_false"
	OpExists    PredicateOp = "exists"
)

// Predicate is a single typed test over one context field.
// Number/Text carry the operand for eq/neq/gt/gte/lt/lte, Min/Max for
// between, Values for in.
type Predicate struct {
	Op     PredicateOp `json:"op" toml:"op"`
	Number *float64    `json:"number,omitempty" toml:"number,omitempty"`
	Text   *string     `json:"text,omitempty" toml:"text,omitempty"`
	Min    *float64    `json:"min,omitempty" toml:"min,omitempty"`
	Max    *float64    `json:"max,omitempty" toml:"max,omitempty"`
	Values []string    `json:"values,omitempty" toml:"values,omitempty"`
}

// RuleConditions groups predicates by criterion dimension. An empty
// dimension matches any context.
type RuleConditions struct {
	Student     map[string]Predicate `json:"student,omitempty" toml:"student,omitempty"`
	Financial   map[string]Predicate `json:"financial,omitempty" toml:"financial,omitempty"`
	Temporal    map[string]Predicate `json:"temporal,omitempty" toml:"temporal,omitempty"`
	Transaction map[string]Predicate `json:"transaction,omitempty" toml:"transaction,omitempty"`
}

// AdjustmentOp is how an adjustment perturbs a forecast value.
type AdjustmentOp string

const (
	AdjustMultiply AdjustmentOp = "multiply"
	AdjustAdd      AdjustmentOp = "add"
	AdjustSubtract AdjustmentOp = "subtract"
)

// AdjustmentValue is either a literal number or a reference to a context
// field ("debt.monthly_payment") resolved when the rule is evaluated.
// Exactly one of Literal and Ref is set.
type AdjustmentValue struct {
	Literal *float64 `json:"literal,omitempty" toml:"literal,omitempty"`
	Ref     string   `json:"ref,omitempty" toml:"ref,omitempty"`
}

// IsRef reports whether the value must be resolved from context.
func (v AdjustmentValue) IsRef() bool { return v.Literal == nil && v.Ref != "" }

// RuleAdjustment is one perturbation. Target is "income", "expense" or
// "balance", optionally suffixed with "/<category>".
type RuleAdjustment struct {
	Target string          `json:"target" toml:"target"`
	Op     AdjustmentOp    `json:"op" toml:"op"`
	Value  AdjustmentValue `json:"value" toml:"value"`
	Reason string          `json:"reason" toml:"reason"`
}

// PredictionRule is admin-managed configuration evaluated by the rule engine.
type PredictionRule struct {
	Base
	RuleName         string                              `gorm:"not null;uniqueIndex" json:"rule_name"`
	RuleType         RuleType                            `gorm:"not null" json:"rule_type"`
	Description      string                              `json:"description,omitempty"`
	Priority         int                                 `gorm:"not null;default:5" json:"priority"`
	Period           RulePeriod                          `gorm:"not null;default:'all'" json:"period"`
	Conditions       datatypes.JSONType[RuleConditions]  `json:"conditions"`
	Adjustments      datatypes.JSONSlice[RuleAdjustment] `json:"adjustments"`
	ConfidenceImpact float64                             `gorm:"not null;default:0" json:"confidence_impact"`
	IsActive         bool                                `gorm:"not null;default:true" json:"is_active"`
	UsageCount       int                                 `gorm:"not null;default:0" json:"usage_count"`
	SuccessRate      float64                             `gorm:"not null;default:0" json:"success_rate"`
}

// CreatedOrder is the key used to break priority ties: creation time, then id.
func (r *PredictionRule) CreatedOrder() (time.Time, string) {
	return r.CreatedAt, r.ID
}
