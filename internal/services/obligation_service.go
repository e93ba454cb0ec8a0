package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "campusfin/internal/errors"
	"campusfin/internal/models"
)

// obligationService manages debts, planned one-off events and the academic
// calendar: everything the forecast knows about the future.
type obligationService struct {
	db *gorm.DB
}

// NewObligationService creates a new ObligationServicer.
func NewObligationService(db *gorm.DB) ObligationServicer {
	return &obligationService{db: db}
}

// CreateDebt records a debt for the student. RemainingAmount defaults to the
// total.
func (s *obligationService) CreateDebt(ctx context.Context, studentID string, debt *models.Debt) (*models.Debt, error) {
	if strings.TrimSpace(debt.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "debt name is required")
	}
	if !debt.TotalAmount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "total amount must be greater than zero")
	}
	if !debt.MonthlyPayment.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly payment must be greater than zero")
	}
	if debt.RemainingAmount.IsZero() {
		debt.RemainingAmount = debt.TotalAmount
	}
	if debt.RemainingAmount.IsNegative() || debt.RemainingAmount.GreaterThan(debt.TotalAmount) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "remaining amount must be between zero and the total")
	}
	if debt.NextPaymentDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "next payment date is required")
	}

	debt.ID = ""
	debt.StudentID = studentID
	debt.IsActive = true

	// default:true columns ignore a false zero value on insert
	affects := debt.AffectsPredictions
	debt.AffectsPredictions = true
	db := s.db.WithContext(ctx)
	if err := db.Create(debt).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !affects {
		if err := db.Model(debt).Update("affects_predictions", false).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		debt.AffectsPredictions = false
	}
	return debt, nil
}

// ListActiveDebts returns the active debts that should shape predictions,
// by next payment date.
func (s *obligationService) ListActiveDebts(ctx context.Context, studentID string) ([]models.Debt, error) {
	var debts []models.Debt
	if err := s.db.WithContext(ctx).
		Where("student_id = ? AND is_active = ? AND affects_predictions = ?", studentID, true, true).
		Order("next_payment_date ASC").
		Find(&debts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return debts, nil
}

// CreateFutureEvent records an expected one-off income or expense.
func (s *obligationService) CreateFutureEvent(ctx context.Context, studentID string, event *models.FutureEvent) (*models.FutureEvent, error) {
	if strings.TrimSpace(event.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "event name is required")
	}
	if event.Type != models.TransactionTypeIncome && event.Type != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if !event.EstimatedAmount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "estimated amount must be greater than zero")
	}
	if event.ExpectedDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "expected date is required")
	}

	event.ID = ""
	event.StudentID = studentID

	affects := event.AffectsPredictions
	event.AffectsPredictions = true
	db := s.db.WithContext(ctx)
	if err := db.Create(event).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !affects {
		if err := db.Model(event).Update("affects_predictions", false).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		event.AffectsPredictions = false
	}
	return event, nil
}

// ListFutureEvents returns events expected in [from, to) that affect
// predictions.
func (s *obligationService) ListFutureEvents(ctx context.Context, studentID string, from, to time.Time) ([]models.FutureEvent, error) {
	var events []models.FutureEvent
	if err := s.db.WithContext(ctx).
		Where("student_id = ? AND affects_predictions = ?", studentID, true).
		Where("expected_date >= ? AND expected_date < ?", from, to).
		Order("expected_date ASC").
		Find(&events).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return events, nil
}

// CreateAcademicEvent adds a calendar window. A nil StudentID makes it a
// general event.
func (s *obligationService) CreateAcademicEvent(ctx context.Context, event *models.AcademicEvent) (*models.AcademicEvent, error) {
	if strings.TrimSpace(event.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "event name is required")
	}
	switch event.EventType {
	case models.AcademicEventExamPeriod, models.AcademicEventHoliday,
		models.AcademicEventRegistration, models.AcademicEventSemesterStart:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown academic event type")
	}
	if event.StartDate.IsZero() || event.EndDate.Before(event.StartDate) {
		return nil, apperrors.ErrInvalidWindow
	}
	if event.IncomeImpact < 0 || event.ExpenseImpact < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "impact multipliers must not be negative")
	}
	if event.PreparationDays < 0 || event.DelayDays < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "preparation and delay days must not be negative")
	}

	// Zero multipliers are written explicitly so the column default of 1
	// does not replace them.
	income, expense := event.IncomeImpact, event.ExpenseImpact
	event.ID = ""
	db := s.db.WithContext(ctx)
	if err := db.Create(event).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if income == 0 || expense == 0 {
		if err := db.Model(event).Updates(map[string]interface{}{
			"income_impact":  income,
			"expense_impact": expense,
		}).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		event.IncomeImpact, event.ExpenseImpact = income, expense
	}
	return event, nil
}

// ListAcademicEvents returns general and student-specific events whose
// window, widened by preparation and delay days, overlaps [from, to).
func (s *obligationService) ListAcademicEvents(ctx context.Context, studentID string, from, to time.Time) ([]models.AcademicEvent, error) {
	var candidates []models.AcademicEvent
	if err := s.db.WithContext(ctx).
		Where("(student_id IS NULL OR student_id = ?)", studentID).
		Order("start_date ASC").
		Find(&candidates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	events := make([]models.AcademicEvent, 0, len(candidates))
	for _, e := range candidates {
		start, end := e.EffectiveWindow()
		// end is the last covered day, inclusive
		if start.Before(to) && end.AddDate(0, 0, 1).After(from) {
			events = append(events, e)
		}
	}
	return events, nil
}
