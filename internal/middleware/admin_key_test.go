package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "campusfin/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// adminRouter mounts a stand-in rule import endpoint behind the key check.
func adminRouter(configured string) *gin.Engine {
	r := gin.New()
	admin := r.Group("/admin", AdminKeyMiddleware(configured))
	admin.POST("/rules/import", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"created": 0, "updated": 0})
	})
	return r
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseBody(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatal("expected error object in response")
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestAdminKeyMiddleware(t *testing.T) {
	const key = "ops-rotation-2025"

	tests := []struct {
		name       string
		configured string
		header     *string
		want       *apperrors.AppError
	}{
		{name: "matching_key", configured: key, header: &[]string{key}[0]},
		{name: "wrong_key", configured: key, header: &[]string{"ops-rotation-2024"}[0], want: apperrors.ErrInvalidAPIKey},
		{name: "no_header", configured: key, want: apperrors.ErrInvalidAPIKey},
		{name: "empty_header", configured: key, header: &[]string{""}[0], want: apperrors.ErrInvalidAPIKey},
		{name: "prefix_only", configured: key, header: &[]string{"ops-rotation"}[0], want: apperrors.ErrInvalidAPIKey},
		{name: "admin_disabled", configured: "", header: &[]string{key}[0], want: apperrors.ErrAdminNotConfigured},
		{name: "admin_disabled_empty_header", configured: "", header: &[]string{""}[0], want: apperrors.ErrAdminNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/rules/import", http.NoBody)
			if tt.header != nil {
				req.Header.Set("X-API-Key", *tt.header)
			}
			rec := httptest.NewRecorder()
			adminRouter(tt.configured).ServeHTTP(rec, req)

			if tt.want == nil {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected the import handler to run, got %d", rec.Code)
				}
				if _, ok := parseBody(t, rec)["created"]; !ok {
					t.Error("expected the handler's body")
				}
				return
			}
			if rec.Code != tt.want.StatusCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.want.StatusCode)
			}
			if code := errorCode(t, rec); code != tt.want.Code {
				t.Errorf("error code = %q, want %q", code, tt.want.Code)
			}
		})
	}
}
