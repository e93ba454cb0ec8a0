package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "campusfin/internal/errors"
)

// AdminKeyMiddleware guards rule and calendar administration with a shared
// key sent in X-API-Key. With no key configured the admin surface is closed.
func AdminKeyMiddleware(apiKey string) gin.HandlerFunc {
	expected := []byte(apiKey)
	return func(c *gin.Context) {
		if len(expected) == 0 {
			abortWith(c, apperrors.ErrAdminNotConfigured)
			return
		}
		if subtle.ConstantTimeCompare([]byte(c.GetHeader("X-API-Key")), expected) != 1 {
			abortWith(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
