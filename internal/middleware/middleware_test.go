package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ims_backend/internal/models"
	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	employees map[int64]*models.Employee
	err       error
}

func (r stubResolver) Authenticate(id int64) (*models.Employee, error) {
	if r.err != nil {
		return nil, r.err
	}
	employee, ok := r.employees[id]
	if !ok {
		return nil, services.ErrEmployeeNotFound
	}
	if !employee.IsActive() {
		return nil, services.ErrAccountInactive
	}
	return employee, nil
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error utils.APIError `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error.Code
}

func TestAuthMiddleware(t *testing.T) {
	utils.ConfigureJWT("middleware-test-secret", time.Hour)
	resolver := stubResolver{employees: map[int64]*models.Employee{
		1: {ID: 1, Name: "Owner", Role: models.RoleEmployer, Status: models.StatusActive},
		2: {ID: 2, Name: "Gone", Role: models.RoleEmployee, Status: models.StatusInactive},
	}}

	engine := gin.New()
	engine.GET("/private", AuthMiddleware(resolver), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetInt64(ContextUserID), "role": c.GetString(ContextUserRole)})
	})

	token := func(id int64, role string) string {
		tok, err := utils.GenerateAccessToken(id, role)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		return "Bearer " + tok
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"unknown employee", token(9, models.RoleEmployee), http.StatusUnauthorized},
		{"inactive employee", token(2, models.RoleEmployee), http.StatusForbidden},
		{"active employee", token(1, models.RoleEmployer), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareUsesStoredRole(t *testing.T) {
	utils.ConfigureJWT("middleware-test-secret", time.Hour)
	resolver := stubResolver{employees: map[int64]*models.Employee{
		5: {ID: 5, Role: models.RoleEmployee, Status: models.StatusActive},
	}}
	engine := gin.New()
	engine.GET("/admin", AuthMiddleware(resolver), RoleAuthMiddleware(models.RoleEmployer), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	// The token claims employer but the database says employee.
	tok, err := utils.GenerateAccessToken(5, models.RoleEmployer)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if code := errorCode(t, rec); code != utils.ErrCodeForbidden {
		t.Fatalf("code = %q, want %q", code, utils.ErrCodeForbidden)
	}
}

func TestAuthMiddlewareResolverFailure(t *testing.T) {
	utils.ConfigureJWT("middleware-test-secret", time.Hour)
	engine := gin.New()
	engine.GET("/private", AuthMiddleware(stubResolver{err: errors.New("db down")}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	tok, _ := utils.GenerateAccessToken(1, models.RoleEmployer)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	utils.ConfigureJWT("middleware-test-secret", time.Hour)
	engine := gin.New()
	engine.GET("/maybe", OptionalAuthMiddleware(stubResolver{}), func(c *gin.Context) {
		_, authenticated := c.Get(ContextUserID)
		c.JSON(http.StatusOK, gin.H{"authenticated": authenticated})
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/maybe", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"authenticated":false`) {
		t.Fatalf("anonymous request: %d %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", rec.Code)
	}
}

func TestRoleAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"no role", "", http.StatusUnauthorized},
		{"employee", models.RoleEmployee, http.StatusForbidden},
		{"manager", models.RoleManager, http.StatusOK},
		{"employer", models.RoleEmployer, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gin.New()
			engine.GET("/reports", func(c *gin.Context) {
				if tt.role != "" {
					c.Set(ContextUserRole, tt.role)
				}
				c.Next()
			}, RoleAuthMiddleware(models.RoleEmployer, models.RoleManager), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(utils.RequestIDKey))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" || rec.Body.String() != "abc-123" {
		t.Fatalf("incoming id not reused: header %q body %q", got, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Fatalf("oversized id should be replaced by a uuid, got %q", got)
	}
}

func TestTracingKeepsStatus(t *testing.T) {
	engine := gin.New()
	engine.Use(Tracing("test"))
	engine.GET("/boom", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rec.Code)
	}
}
