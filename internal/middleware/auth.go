package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "campusfin/internal/errors"
)

// StudentIDKey is the gin context key holding the authenticated student.
const StudentIDKey = "studentID"

// JWTClaims represents the claims in the JWT. Tokens are issued by the
// identity service; this API only verifies them.
type JWTClaims struct {
	StudentID string `json:"student_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func abortWith(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{"code": appErr.Code, "message": appErr.Message},
	})
}

// ParseToken validates an HMAC-signed access token and returns its claims.
func ParseToken(tokenString string, secret []byte) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	// Reject refresh tokens used as access tokens
	if claims.TokenType == "refresh" {
		return nil, fmt.Errorf("token is not an access token")
	}
	if claims.StudentID == "" {
		claims.StudentID = claims.Subject
	}
	if claims.StudentID == "" {
		return nil, fmt.Errorf("token has no student")
	}
	return claims, nil
}

// AuthMiddleware verifies the bearer token and sets the student in the context
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWith(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWith(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		claims, err := ParseToken(parts[1], secret)
		if err != nil {
			abortWith(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired token"))
			return
		}

		c.Set(StudentIDKey, claims.StudentID)
		c.Set("email", claims.Email)
		c.Next()
	}
}
