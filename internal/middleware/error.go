package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "campusfin/internal/errors"
	"campusfin/internal/logger"
)

// ErrorHandler renders errors attached with c.Error as the standard error
// body. Handlers that already wrote a response are left alone. A deadline
// that escaped the forecast cache still surfaces as FORECAST_TIMEOUT, and
// anything that is not an AppError is logged and reported as an internal
// error.
func ErrorHandler() gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// The last error is the one closest to the handler.
		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		switch {
		case errors.As(err, &appErr):
			if appErr.Internal != nil {
				log.Errorw("app error",
					"code", appErr.Code,
					"internal", appErr.Internal.Error(),
					"path", c.Request.URL.Path,
				)
			}
		case errors.Is(err, context.DeadlineExceeded):
			appErr = apperrors.Wrap(apperrors.ErrForecastTimeout, err)
		default:
			log.Errorw("unexpected error",
				"error", err.Error(),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			appErr = apperrors.ErrInternalServer
		}
		abortWith(c, appErr)
	}
}
