package models

import (
	"time"

	"campusfin/internal/uuid"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PredictionType is the quantity being forecast.
type PredictionType string

const (
	PredictionTypeIncome  PredictionType = "income"
	PredictionTypeExpense PredictionType = "expense"
	PredictionTypeBalance PredictionType = "balance"
)

// ForecastDataPoint is one dated estimate with its decomposed components.
type ForecastDataPoint struct {
	Date           time.Time `json:"date"`
	PredictedValue float64   `json:"predicted_value"`
	LowerBound     float64   `json:"lower_bound"`
	UpperBound     float64   `json:"upper_bound"`
	Trend          float64   `json:"trend"`
	Seasonal       float64   `json:"seasonal"`
	Yearly         float64   `json:"yearly"`
	Weekly         float64   `json:"weekly"`
}

// ModelMetrics describes how well the baseline fits recent history.
type ModelMetrics struct {
	MAE              float64 `json:"mae"`
	MAPE             float64 `json:"mape"`
	RMSE             float64 `json:"rmse"`
	AccuracyScore    float64 `json:"accuracy_score"`
	SampleDays       int     `json:"sample_days"`
	TransactionCount int     `json:"transaction_count"`
}

// InsightType is the tone of an insight.
type InsightType string

const (
	InsightInfo     InsightType = "info"
	InsightWarning  InsightType = "warning"
	InsightPositive InsightType = "positive"
)

// Importance ranks insights for display.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Insight is a human-readable observation about a student's finances.
type Insight struct {
	Type            InsightType `json:"type"`
	Message         string      `json:"message"`
	Importance      Importance  `json:"importance"`
	Actionable      bool        `json:"actionable"`
	SuggestedAction string      `json:"suggested_action,omitempty"`
}

// AppliedRule summarizes one rule that fired during a forecast.
type AppliedRule struct {
	RuleID           string   `json:"rule_id"`
	RuleName         string   `json:"rule_name"`
	RuleType         RuleType `json:"rule_type"`
	Priority         int      `json:"priority"`
	PointsAffected   int      `json:"points_affected"`
	TotalEffect      float64  `json:"total_effect"`
	ConfidenceImpact float64  `json:"confidence_impact"`
}

// CachedPrediction is the memoized output of the forecast pipeline. Rows are
// never updated in place: regeneration replaces the row and its adjustments.
type CachedPrediction struct {
	ID                 string                                 `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID          string                                 `gorm:"type:uuid;not null;index" json:"student_id"`
	PredictionType     PredictionType                         `gorm:"not null" json:"prediction_type"`
	CategoryID         *string                                `gorm:"type:uuid" json:"category_id,omitempty"`
	PredictionStart    time.Time                              `gorm:"not null" json:"prediction_start"`
	PredictionEnd      time.Time                              `gorm:"not null" json:"prediction_end"`
	ConfidenceInterval float64                                `gorm:"not null" json:"confidence_interval"`
	Confidence         float64                                `gorm:"not null" json:"confidence"`
	ForecastData       datatypes.JSONSlice[ForecastDataPoint] `json:"forecast_data"`
	AdjustmentsApplied datatypes.JSONSlice[AppliedRule]       `json:"adjustments_applied"`
	ModelMetrics       datatypes.JSONType[ModelMetrics]       `json:"model_metrics"`
	Insights           datatypes.JSONSlice[Insight]           `json:"insights"`
	GeneratedAt        time.Time                              `gorm:"not null" json:"generated_at"`
	CacheUntil         time.Time                              `gorm:"not null;index" json:"cache_until"`
	PredictionHash     string                                 `gorm:"size:64;not null;uniqueIndex" json:"prediction_hash"`

	Adjustments []PredictionAdjustment `gorm:"foreignKey:PredictionID" json:"adjustments,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *CachedPrediction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}

// IsLive reports whether the entry can still be served at now.
func (p *CachedPrediction) IsLive(now time.Time) bool {
	return now.Before(p.CacheUntil)
}

// PredictionAdjustment is the audit record of one rule adjustment applied to
// one forecast point.
type PredictionAdjustment struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	PredictionID   string    `gorm:"type:uuid;not null;index" json:"prediction_id"`
	Sequence       int       `gorm:"not null;default:0" json:"sequence"`
	RuleID         string    `gorm:"type:uuid;not null" json:"rule_id"`
	RuleName       string    `gorm:"not null" json:"rule_name"`
	Date           time.Time `gorm:"not null" json:"date"`
	OriginalValue  float64   `gorm:"not null" json:"original_value"`
	AdjustedValue  float64   `gorm:"not null" json:"adjusted_value"`
	Reason         string    `json:"reason"`
	AdjustmentType RuleType  `gorm:"not null" json:"adjustment_type"`
	Confidence     float64   `gorm:"not null" json:"confidence"`
	CreatedAt      time.Time `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (a *PredictionAdjustment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New()
	}
	return nil
}
