package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Debt is a loan or installment plan with a recurring monthly payment.
type Debt struct {
	Base
	StudentID          string          `gorm:"type:uuid;not null;index" json:"student_id"`
	Name               string          `gorm:"not null" json:"name"`
	Lender             string          `json:"lender,omitempty"`
	TotalAmount        decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"total_amount"`
	RemainingAmount    decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"remaining_amount"`
	MonthlyPayment     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"monthly_payment"`
	NextPaymentDate    time.Time       `gorm:"not null" json:"next_payment_date"`
	AffectsPredictions bool            `gorm:"not null;default:true" json:"affects_predictions"`
	IsActive           bool            `gorm:"not null;default:true" json:"is_active"`
}

// FutureEvent is a one-off expected income or expense (a trip, a tuition
// refund, a laptop purchase).
type FutureEvent struct {
	Base
	StudentID          string          `gorm:"type:uuid;not null;index" json:"student_id"`
	Name               string          `gorm:"not null" json:"name"`
	EventType          string          `json:"event_type,omitempty"`
	Type               TransactionType `gorm:"not null" json:"type"`
	EstimatedAmount    decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"estimated_amount"`
	ExpectedDate       time.Time       `gorm:"not null" json:"expected_date"`
	AffectsPredictions bool            `gorm:"not null;default:true" json:"affects_predictions"`
}

// AcademicEventType classifies academic calendar windows.
type AcademicEventType string

const (
	AcademicEventExamPeriod    AcademicEventType = "exam_period"
	AcademicEventHoliday       AcademicEventType = "holiday"
	AcademicEventRegistration  AcademicEventType = "registration"
	AcademicEventSemesterStart AcademicEventType = "semester_start"
)

// AcademicEvent is a calendar window with multiplicative impact on income and
// expenses. A nil StudentID marks a general event that applies to everyone.
type AcademicEvent struct {
	Base
	StudentID       *string           `gorm:"type:uuid;index" json:"student_id,omitempty"`
	Name            string            `gorm:"not null" json:"name"`
	EventType       AcademicEventType `gorm:"not null" json:"event_type"`
	StartDate       time.Time         `gorm:"not null" json:"start_date"`
	EndDate         time.Time         `gorm:"not null" json:"end_date"`
	IncomeImpact    float64           `gorm:"not null;default:1" json:"income_impact"`
	ExpenseImpact   float64           `gorm:"not null;default:1" json:"expense_impact"`
	PreparationDays int               `gorm:"not null;default:0" json:"preparation_days"`
	DelayDays       int               `gorm:"not null;default:0" json:"delay_days"`
}

// EffectiveWindow is the event window widened by its preparation and delay
// offsets, as whole calendar days [from, to].
func (e *AcademicEvent) EffectiveWindow() (from, to time.Time) {
	return e.StartDate.AddDate(0, 0, -e.PreparationDays), e.EndDate.AddDate(0, 0, e.DelayDays)
}
