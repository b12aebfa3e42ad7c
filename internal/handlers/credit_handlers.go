package handlers

import (
	"net/http"

	"ims_backend/internal/models"
	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CreditHandler holds the credit service.
type CreditHandler struct {
	creditService services.CreditService
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(cs services.CreditService) *CreditHandler {
	return &CreditHandler{creditService: cs}
}

func (h *CreditHandler) CreateCredit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.CreateCreditRequest
	if !bindJSON(c, &req, "CreateCredit") {
		return
	}
	credit, err := h.creditService.CreateCredit(actor, req)
	if err != nil {
		respondServiceError(c, err, "CreateCredit: Error from creditService.CreateCredit")
		return
	}
	c.JSON(http.StatusCreated, credit)
}

func (h *CreditHandler) GetCredits(c *gin.Context) {
	page, pageSize := pagination(c)
	employeeID, ok := int64Query(c, "employee_id")
	if !ok {
		return
	}
	filters := models.CreditFilters{
		Status:     stringQuery(c, "status"),
		EmployeeID: employeeID,
		Page:       page,
		PageSize:   pageSize,
	}
	credits, total, err := h.creditService.GetCredits(filters)
	if err != nil {
		respondServiceError(c, err, "GetCredits: Error from creditService.GetCredits")
		return
	}
	if credits == nil {
		credits = []models.Credit{}
	}
	respondList(c, credits, total, page, pageSize)
}

func (h *CreditHandler) GetCreditByID(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	credit, err := h.creditService.GetCreditByID(actor, id)
	if err != nil {
		respondServiceError(c, err, "GetCreditByID: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, credit)
}

// UpdateCredit clears a credit.
func (h *CreditHandler) UpdateCredit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateCreditRequest
	if !bindJSON(c, &req, "UpdateCredit") {
		return
	}
	credit, err := h.creditService.ClearCredit(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateCredit: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, credit)
}

func (h *CreditHandler) DeleteCredit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.creditService.DeleteCredit(actor, id); err != nil {
		respondServiceError(c, err, "DeleteCredit: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Credit deleted successfully"})
}
