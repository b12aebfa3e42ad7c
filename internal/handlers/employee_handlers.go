package handlers

import (
	"net/http"

	"ims_backend/internal/middleware"
	"ims_backend/internal/models"
	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// EmployeeHandler holds the employee service.
type EmployeeHandler struct {
	employeeService services.EmployeeService
}

// NewEmployeeHandler creates a new EmployeeHandler.
func NewEmployeeHandler(es services.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeService: es}
}

// CreateEmployee registers an employee. Runs behind OptionalAuthMiddleware so the
// very first account can be created without a token.
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	var req services.CreateEmployeeRequest
	if !bindJSON(c, &req, "CreateEmployee") {
		return
	}

	var actor *services.Actor
	if _, authenticated := c.Get(middleware.ContextUserID); authenticated {
		a, ok := currentActor(c)
		if !ok {
			return
		}
		actor = &a
	}

	employee, err := h.employeeService.CreateEmployee(actor, req)
	if err != nil {
		respondServiceError(c, err, "CreateEmployee: Error from employeeService.CreateEmployee")
		return
	}
	c.JSON(http.StatusCreated, employee)
}

// GetEmployees lists employees filtered by role, status and search.
func (h *EmployeeHandler) GetEmployees(c *gin.Context) {
	page, pageSize := pagination(c)
	filters := models.EmployeeFilters{
		Role:     stringQuery(c, "role"),
		Status:   stringQuery(c, "status"),
		Search:   stringQuery(c, "search"),
		Page:     page,
		PageSize: pageSize,
	}

	employees, total, err := h.employeeService.GetEmployees(filters)
	if err != nil {
		respondServiceError(c, err, "GetEmployees: Error from employeeService.GetEmployees")
		return
	}
	if employees == nil {
		employees = []models.Employee{}
	}
	respondList(c, employees, total, page, pageSize)
}

func (h *EmployeeHandler) GetEmployeeByID(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	employee, err := h.employeeService.GetEmployeeByID(actor, id)
	if err != nil {
		respondServiceError(c, err, "GetEmployeeByID: Error from employeeService.GetEmployeeByID for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, employee)
}

func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateEmployeeRequest
	if !bindJSON(c, &req, "UpdateEmployee") {
		return
	}

	employee, err := h.employeeService.UpdateEmployee(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateEmployee: Error from employeeService.UpdateEmployee for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, employee)
}

func (h *EmployeeHandler) DeleteEmployee(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.employeeService.DeleteEmployee(actor, id); err != nil {
		respondServiceError(c, err, "DeleteEmployee: Error from employeeService.DeleteEmployee for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Employee deleted successfully"})
}

// ChangePassword sets a new password for the caller.
func (h *EmployeeHandler) ChangePassword(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.ChangePasswordRequest
	if !bindJSON(c, &req, "ChangePassword") {
		return
	}

	if err := h.employeeService.ChangePassword(actor, req); err != nil {
		respondServiceError(c, err, "ChangePassword: Error from employeeService.ChangePassword")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
