package middleware

import (
	"errors"
	"net/http"
	"strings"

	"ims_backend/internal/models"
	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	ContextEmployee = "employee"
)

// EmployeeResolver loads the employee behind a validated token.
type EmployeeResolver interface {
	Authenticate(employeeID int64) (*models.Employee, error)
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
// The token only identifies the employee: role and status are re-read from the database on every request.
func AuthMiddleware(resolver EmployeeResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, resolver, c.GetHeader("Authorization"))
	}
}

// OptionalAuthMiddleware authenticates when an Authorization header is present and passes anonymous requests through.
func OptionalAuthMiddleware(resolver EmployeeResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		authenticate(c, resolver, header)
	}
}

func authenticate(c *gin.Context, resolver EmployeeResolver, authHeader string) {
	if authHeader == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header required", ""))
		return
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"Invalid authorization header format. Use Bearer <token>", ""))
		return
	}

	claims, err := utils.ValidateToken(parts[1])
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"Could not validate credentials", err.Error()))
		return
	}

	employee, err := resolver.Authenticate(claims.EmployeeID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmployeeNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Could not validate credentials", "employee no longer exists"))
		case errors.Is(err, services.ErrAccountInactive):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "This account is inactive.", ""))
		default:
			utils.LogError(err, "AuthMiddleware: failed to resolve employee")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to authenticate.", "Internal error"))
		}
		return
	}

	c.Set(ContextUserID, employee.ID)
	c.Set(ContextUserRole, employee.Role)
	c.Set(ContextEmployee, employee)
	c.Next()
}

// RoleAuthMiddleware creates a Gin middleware for role-based authorization.
// It checks if the user role (set by AuthMiddleware) is one of the allowed roles.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		if role == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated", ""))
			return
		}

		for _, r := range allowedRoles {
			if strings.EqualFold(role, r) {
				c.Next()
				return
			}
		}

		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
			"You do not have permission to access this resource.", "Required roles: "+strings.Join(allowedRoles, ", ")))
	}
}
