package handlers

import (
	"net/http"

	"ims_backend/internal/models"
	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SupplierHandler holds the supplier service.
type SupplierHandler struct {
	supplierService services.SupplierService
}

// NewSupplierHandler creates a new SupplierHandler.
func NewSupplierHandler(ss services.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: ss}
}

func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req services.CreateSupplierRequest
	if !bindJSON(c, &req, "CreateSupplier") {
		return
	}
	supplier, err := h.supplierService.CreateSupplier(req)
	if err != nil {
		respondServiceError(c, err, "CreateSupplier: Error from supplierService.CreateSupplier")
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

func (h *SupplierHandler) GetSuppliers(c *gin.Context) {
	page, pageSize := pagination(c)
	suppliers, total, err := h.supplierService.GetSuppliers(stringQuery(c, "search"), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetSuppliers: Error from supplierService.GetSuppliers")
		return
	}
	if suppliers == nil {
		suppliers = []models.Supplier{}
	}
	respondList(c, suppliers, total, page, pageSize)
}

func (h *SupplierHandler) GetSupplierByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	supplier, err := h.supplierService.GetSupplierByID(id)
	if err != nil {
		respondServiceError(c, err, "GetSupplierByID: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateSupplierRequest
	if !bindJSON(c, &req, "UpdateSupplier") {
		return
	}
	supplier, err := h.supplierService.UpdateSupplier(id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateSupplier: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *SupplierHandler) DeleteSupplier(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.supplierService.DeleteSupplier(id); err != nil {
		respondServiceError(c, err, "DeleteSupplier: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier deleted successfully"})
}

// RecordPayment records money paid to a supplier.
func (h *SupplierHandler) RecordPayment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.SupplierPaymentRequest
	if !bindJSON(c, &req, "RecordPayment") {
		return
	}
	payment, err := h.supplierService.RecordPayment(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "RecordPayment: Error for supplier ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *SupplierHandler) GetPayments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := pagination(c)
	payments, total, err := h.supplierService.GetPayments(id, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetPayments: Error for supplier ID "+utils.Int64ToStr(id))
		return
	}
	if payments == nil {
		payments = []models.SupplierPayment{}
	}
	respondList(c, payments, total, page, pageSize)
}
