package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "campusfin/internal/errors"
	"campusfin/internal/models"
	"campusfin/internal/services"
)

// AnalyticsHandler serves the aggregator endpoints.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
	now              func() time.Time
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, now: time.Now}
}

// GetSummary returns income and expense totals for a window
// @Summary     Spending summary
// @Description Income, expense and net balance for a window. Defaults to the current month.
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       start query string false "Window start (RFC3339 or YYYY-MM-DD)"
// @Param       end   query string false "Window end, exclusive for RFC3339 and inclusive for YYYY-MM-DD"
// @Success     200 {object} analytics.Summary
// @Failure     400 {object} ErrorResponse "Invalid window"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Student not found"
// @Router      /analytics/summary [get]
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	studentID, err := getStudentID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	window, err := parseWindow(c, h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.analyticsService.GetSummary(c.Request.Context(), studentID, window)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetCategoryBreakdown returns per-category totals for a window
// @Summary     Category breakdown
// @Description Totals per category ordered by amount. Percentages are shares of the full total even when limit truncates the list.
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       start query string false "Window start (RFC3339 or YYYY-MM-DD)"
// @Param       end   query string false "Window end"
// @Param       type  query string false "Transaction type (income, expense)"
// @Param       limit query int    false "Maximum number of categories (0 = all)"
// @Success     200 {array}  analytics.CategoryStat
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /analytics/categories [get]
func (h *AnalyticsHandler) GetCategoryBreakdown(c *gin.Context) {
	studentID, err := getStudentID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	window, err := parseWindow(c, h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	txType, err := parseTransactionType(c.Query("type"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid limit"))
			return
		}
	}

	stats, err := h.analyticsService.GetCategoryBreakdown(c.Request.Context(), studentID, window, txType, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": stats})
}

// GetTrend returns one point per day for the last N days
// @Summary     Daily trend
// @Description Gap-filled daily income, expense and net amounts for the last N days including today.
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       days query int false "Number of days (1-365, default 30)"
// @Success     200 {array}  analytics.DailyPoint
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /analytics/trend [get]
func (h *AnalyticsHandler) GetTrend(c *gin.Context) {
	studentID, err := getStudentID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	days := 0
	if v := c.Query("days"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid days"))
			return
		}
	}

	points, err := h.analyticsService.GetTrend(c.Request.Context(), studentID, days)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trend": points})
}

// GetBudgetAnalysis compares this month's spending with the allowance
// @Summary     Budget analysis
// @Description Month-to-date spending against the monthly allowance. The allowance defaults to the student profile.
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       monthly_allowance query string false "Override the monthly allowance"
// @Success     200 {object} analytics.BudgetStatus
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Student not found"
// @Router      /analytics/budget [get]
func (h *AnalyticsHandler) GetBudgetAnalysis(c *gin.Context) {
	studentID, err := getStudentID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var allowance *decimal.Decimal
	if v := c.Query("monthly_allowance"); v != "" {
		d, parseErr := decimal.NewFromString(v)
		if parseErr != nil || d.IsNegative() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid monthly_allowance"))
			return
		}
		allowance = &d
	}

	status, err := h.analyticsService.GetBudgetAnalysis(c.Request.Context(), studentID, allowance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": status})
}

// GetPeriodComparison compares a window with the one before it
// @Summary     Period comparison
// @Description Summary of a window next to the equal-length window that precedes it, with percentage changes.
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       start query string false "Window start (RFC3339 or YYYY-MM-DD)"
// @Param       end   query string false "Window end"
// @Success     200 {object} analytics.PeriodComparison
// @Failure     400 {object} ErrorResponse "Invalid window"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /analytics/comparison [get]
func (h *AnalyticsHandler) GetPeriodComparison(c *gin.Context) {
	studentID, err := getStudentID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	window, err := parseWindow(c, h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	comparison, err := h.analyticsService.GetPeriodComparison(c.Request.Context(), studentID, window)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comparison": comparison})
}

func parseTransactionType(v string) (*models.TransactionType, error) {
	if v == "" {
		return nil, nil
	}
	txType := models.TransactionType(v)
	switch txType {
	case models.TransactionTypeIncome, models.TransactionTypeExpense:
		return &txType, nil
	}
	return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be income or expense")
}
