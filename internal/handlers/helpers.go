package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"campusfin/internal/analytics"
	apperrors "campusfin/internal/errors"
	"campusfin/internal/logger"
	"campusfin/internal/middleware"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the body of an ErrorResponse.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}

// getStudentID extracts the authenticated student ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getStudentID(c *gin.Context) (string, error) {
	id := c.GetString(middleware.StudentIDKey)
	if id == "" {
		return "", apperrors.ErrUnauthorized
	}
	return id, nil
}

// requirePathID reads a non-empty path parameter.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func requirePathID(c *gin.Context, param string) (string, error) {
	id := strings.TrimSpace(c.Param(param))
	if id == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseFlexibleTime accepts RFC3339 timestamps or bare YYYY-MM-DD dates
// (midnight UTC).
func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// parseEndTime parses an exclusive window end. A bare date names the last
// day to include, so it moves to the following midnight.
func parseEndTime(s string) (time.Time, error) {
	t, err := parseFlexibleTime(s)
	if err != nil {
		return time.Time{}, err
	}
	if len(s) == len("2006-01-02") {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

// parseWindow reads the start and end query parameters. A bare end
// date is inclusive, so its whole day is covered. With neither given the
// window is the current calendar month.
func parseWindow(c *gin.Context, now time.Time) (analytics.Window, error) {
	startStr, endStr := c.Query("start"), c.Query("end")
	if startStr == "" && endStr == "" {
		return analytics.MonthWindow(now), nil
	}

	month := analytics.MonthWindow(now)
	start, end := month.Start, month.End
	if startStr != "" {
		t, err := parseFlexibleTime(startStr)
		if err != nil {
			return analytics.Window{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start: "+err.Error())
		}
		start = t
	}
	if endStr != "" {
		t, err := parseEndTime(endStr)
		if err != nil {
			return analytics.Window{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end: "+err.Error())
		}
		end = t
	}
	return analytics.NewWindow(start, end)
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, ErrorResponse{Error: ErrorDetail{Code: appErr.Code, Message: appErr.Message}})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, ErrorResponse{Error: ErrorDetail{
		Code:    apperrors.ErrInternalServer.Code,
		Message: apperrors.ErrInternalServer.Message,
	}})
}
