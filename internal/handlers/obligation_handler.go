package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"campusfin/internal/analytics"
	apperrors "campusfin/internal/errors"
	"campusfin/internal/models"
	"campusfin/internal/services"
)

// upcomingDays is the default look-ahead for event listings.
const upcomingDays = 90

// ObligationHandler handles debts, planned events and the academic calendar.
type ObligationHandler struct {
	obligationService services.ObligationServicer
	auditService      services.AuditServicer
	now               func() time.Time
}

// NewObligationHandler creates a new ObligationHandler.
func NewObligationHandler(obligationService services.ObligationServicer, auditService services.AuditServicer) *ObligationHandler {
	return &ObligationHandler{obligationService: obligationService, auditService: auditService, now: time.Now}
}

// CreateDebtRequest represents the request payload for recording a debt
type CreateDebtRequest struct {
	Name               string           `json:"name" binding:"required,max=100"`
	Lender             string           `json:"lender" binding:"max=100"`
	TotalAmount        decimal.Decimal  `json:"total_amount" swaggertype:"string" example:"3000000"`
	RemainingAmount    *decimal.Decimal `json:"remaining_amount" swaggertype:"string"`
	MonthlyPayment     decimal.Decimal  `json:"monthly_payment" swaggertype:"string" example:"300000"`
	NextPaymentDate    string           `json:"next_payment_date" binding:"required"`
	AffectsPredictions *bool            `json:"affects_predictions"`
}

// CreateFutureEventRequest represents the request payload for a planned event
type CreateFutureEventRequest struct {
	Name               string                 `json:"name" binding:"required,max=100"`
	EventType          string                 `json:"event_type" binding:"max=50"`
	Type               models.TransactionType `json:"type" binding:"required,transaction_type"`
	EstimatedAmount    decimal.Decimal        `json:"estimated_amount" swaggertype:"string" example:"750000"`
	ExpectedDate       string                 `json:"expected_date" binding:"required"`
	AffectsPredictions *bool                  `json:"affects_predictions"`
}

// CreateAcademicEventRequest represents the request payload for a calendar window
type CreateAcademicEventRequest struct {
	StudentID       *string                  `json:"student_id"`
	Name            string                   `json:"name" binding:"required,max=100"`
	EventType       models.AcademicEventType `json:"event_type" binding:"required,academic_event_type"`
	StartDate       string                   `json:"start_date" binding:"required"`
	EndDate         string                   `json:"end_date" binding:"required"`
	IncomeImpact    *float64                 `json:"income_impact" binding:"omitempty,gte=0"`
	ExpenseImpact   *float64                 `json:"expense_impact" binding:"omitempty,gte=0"`
	PreparationDays int                      `json:"preparation_days" binding:"gte=0,lte=90"`
	DelayDays       int                      `json:"delay_days" binding:"gte=0,lte=90"`
}

// CreateDebt handles recording a debt
// @Summary     Record a debt
// @Description Record a loan or installment plan. Active debts add their monthly payment to expense forecasts on payment dates.
// @Tags        obligations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateDebtRequest true "Debt details"
// @Success     201 {object} models.Debt "Debt recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /debts [post]
func (h *ObligationHandler) CreateDebt(c *gin.Context) {
	studentID, err := getStudentID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	nextPayment, err := parseFlexibleTime(req.NextPaymentDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid next_payment_date: "+err.Error()))
		return
	}

	debt := &models.Debt{
		Name:               req.Name,
		Lender:             req.Lender,
		TotalAmount:        req.TotalAmount,
		MonthlyPayment:     req.MonthlyPayment,
		NextPaymentDate:    nextPayment,
		AffectsPredictions: req.AffectsPredictions == nil || *req.AffectsPredictions,
	}
	if req.RemainingAmount != nil {
		debt.RemainingAmount = *req.RemainingAmount
	}

	debt, err = h.obligationService.CreateDebt(c.Request.Context(), studentID, debt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(studentID, "CREATE_DEBT", "debt", debt.ID, c.ClientIP(),
		map[string]interface{}{"name": debt.Name, "monthly_payment": debt.MonthlyPayment.String()})

	c.JSON(http.StatusCreated, gin.H{"debt": debt})
}

// ListDebts handles listing the debts that shape predictions
// @Summary     List active debts
// @Tags        obligations
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Debt
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /debts [get]
func (h *ObligationHandler) ListDebts(c *gin.Context) {
	studentID, err := getStudentID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debts, err := h.obligationService.ListActiveDebts(c.Request.Context(), studentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"debts": debts})
}

// CreateFutureEvent handles recording a planned income or expense
// @Summary     Record a planned event
// @Tags        obligations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateFutureEventRequest true "Event details"
// @Success     201 {object} models.FutureEvent "Event recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /future-events [post]
func (h *ObligationHandler) CreateFutureEvent(c *gin.Context) {
	studentID, err := getStudentID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateFutureEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	expected, err := parseFlexibleTime(req.ExpectedDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid expected_date: "+err.Error()))
		return
	}

	event, err := h.obligationService.CreateFutureEvent(c.Request.Context(), studentID, &models.FutureEvent{
		Name:               req.Name,
		EventType:          req.EventType,
		Type:               req.Type,
		EstimatedAmount:    req.EstimatedAmount,
		ExpectedDate:       expected,
		AffectsPredictions: req.AffectsPredictions == nil || *req.AffectsPredictions,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(studentID, "CREATE_FUTURE_EVENT", "future_event", event.ID, c.ClientIP(),
		map[string]interface{}{"name": event.Name, "type": event.Type, "estimated_amount": event.EstimatedAmount.String()})

	c.JSON(http.StatusCreated, gin.H{"event": event})
}

// ListFutureEvents handles listing upcoming planned events
// @Summary     List planned events
// @Tags        obligations
// @Produce     json
// @Security    BearerAuth
// @Param       start query string false "Range start (default today)"
// @Param       end   query string false "Range end (default start + 90 days)"
// @Success     200 {array}  models.FutureEvent
// @Failure     400 {object} ErrorResponse "Invalid window"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /future-events [get]
func (h *ObligationHandler) ListFutureEvents(c *gin.Context) {
	studentID, err := getStudentID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	window, err := h.upcoming(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	events, err := h.obligationService.ListFutureEvents(c.Request.Context(), studentID, window.Start, window.End)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ListAcademicEvents handles listing calendar windows that overlap a range
// @Summary     List academic events
// @Description General events plus the student's own whose effective window overlaps the range
// @Tags        obligations
// @Produce     json
// @Security    BearerAuth
// @Param       start query string false "Range start (default today)"
// @Param       end   query string false "Range end (default start + 90 days)"
// @Success     200 {array}  models.AcademicEvent
// @Failure     400 {object} ErrorResponse "Invalid window"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /academic-events [get]
func (h *ObligationHandler) ListAcademicEvents(c *gin.Context) {
	studentID, err := getStudentID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	window, err := h.upcoming(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	events, err := h.obligationService.ListAcademicEvents(c.Request.Context(), studentID, window.Start, window.End)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// CreateAcademicEvent handles adding a calendar window (admin)
// @Summary     Create academic event
// @Description Add an exam period, holiday, registration or semester start. Omit student_id for a general event.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateAcademicEventRequest true "Event details"
// @Success     201 {object} models.AcademicEvent "Event created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/academic-events [post]
func (h *ObligationHandler) CreateAcademicEvent(c *gin.Context) {
	var req CreateAcademicEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	start, err := parseFlexibleTime(req.StartDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start_date: "+err.Error()))
		return
	}
	end, err := parseFlexibleTime(req.EndDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end_date: "+err.Error()))
		return
	}

	event := &models.AcademicEvent{
		StudentID:       req.StudentID,
		Name:            req.Name,
		EventType:       req.EventType,
		StartDate:       start,
		EndDate:         end,
		IncomeImpact:    1,
		ExpenseImpact:   1,
		PreparationDays: req.PreparationDays,
		DelayDays:       req.DelayDays,
	}
	if req.IncomeImpact != nil {
		event.IncomeImpact = *req.IncomeImpact
	}
	if req.ExpenseImpact != nil {
		event.ExpenseImpact = *req.ExpenseImpact
	}

	event, err = h.obligationService.CreateAcademicEvent(c.Request.Context(), event)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminActor, "CREATE_ACADEMIC_EVENT", "academic_event", event.ID, c.ClientIP(),
		map[string]interface{}{"name": event.Name, "event_type": event.EventType})

	c.JSON(http.StatusCreated, gin.H{"event": event})
}

// upcoming reads the start and end query parameters, defaulting to the next
// upcomingDays days from today.
func (h *ObligationHandler) upcoming(c *gin.Context) (analytics.Window, error) {
	start := analytics.DayStart(h.now())
	if v := c.Query("start"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return analytics.Window{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start: "+err.Error())
		}
		start = t
	}
	end := start.AddDate(0, 0, upcomingDays)
	if v := c.Query("end"); v != "" {
		t, err := parseEndTime(v)
		if err != nil {
			return analytics.Window{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end: "+err.Error())
		}
		end = t
	}
	return analytics.NewWindow(start, end)
}
