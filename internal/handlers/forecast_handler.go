package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "campusfin/internal/errors"
	"campusfin/internal/models"
	"campusfin/internal/services"
)

// ForecastHandler serves rule-adjusted forecasts.
type ForecastHandler struct {
	forecastService services.ForecastServicer
}

// NewForecastHandler creates a new ForecastHandler.
func NewForecastHandler(forecastService services.ForecastServicer) *ForecastHandler {
	return &ForecastHandler{forecastService: forecastService}
}

// GetForecast returns the forecast for a horizon, served from cache when live
// @Summary     Get forecast
// @Description Daily predicted values with confidence bounds, the rules that adjusted them, and insights. Identical requests within the cache TTL return the same stored forecast.
// @Tags        forecasts
// @Produce     json
// @Security    BearerAuth
// @Param       type                query string false "income, expense or balance (default expense)"
// @Param       start               query string false "First forecast day (RFC3339 or YYYY-MM-DD, default today)"
// @Param       end                 query string false "Last forecast day for YYYY-MM-DD, exclusive end for RFC3339 (default start + 30 days)"
// @Param       confidence_interval query number false "Confidence level in (0, 1), default 0.95"
// @Param       category_id         query string false "Restrict the forecast to one category"
// @Success     200 {object} models.CachedPrediction
// @Failure     400 {object} ErrorResponse "Invalid input or window"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Student or category not found"
// @Failure     504 {object} ErrorResponse "Forecast computation timed out"
// @Router      /forecasts [get]
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	studentID, err := getStudentID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	req := services.ForecastRequest{
		StudentID:  studentID,
		Type:       models.PredictionTypeExpense,
		CategoryID: c.Query("category_id"),
	}

	if v := c.Query("type"); v != "" {
		req.Type = models.PredictionType(v)
	}

	if v := c.Query("start"); v != "" {
		if req.Start, err = parseFlexibleTime(v); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start: "+err.Error()))
			return
		}
	}

	if v := c.Query("end"); v != "" {
		if req.End, err = parseEndTime(v); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end: "+err.Error()))
			return
		}
	}

	if v := c.Query("confidence_interval"); v != "" {
		if req.ConfidenceInterval, err = strconv.ParseFloat(v, 64); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid confidence_interval"))
			return
		}
	}

	prediction, err := h.forecastService.GetForecast(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"forecast": prediction})
}
