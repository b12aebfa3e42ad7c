package handlers

import (
	"net/http"

	"ims_backend/internal/models"
	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SaleHandler holds the sale service.
type SaleHandler struct {
	saleService services.SaleService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(ss services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: ss}
}

func (h *SaleHandler) CreateSale(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.CreateSaleRequest
	if !bindJSON(c, &req, "CreateSale") {
		return
	}
	sale, err := h.saleService.CreateSale(actor, req)
	if err != nil {
		respondServiceError(c, err, "CreateSale: Error from saleService.CreateSale")
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// saleFilters reads start_date, end_date, and optionally employee_id and is_paid.
func saleFilters(c *gin.Context, withEmployee bool) (models.SaleFilters, bool) {
	page, pageSize := pagination(c)
	filters := models.SaleFilters{
		StartDate: stringQuery(c, "start_date"),
		EndDate:   stringQuery(c, "end_date"),
		Page:      page,
		PageSize:  pageSize,
	}
	var ok bool
	if filters.IsPaid, ok = boolQuery(c, "is_paid"); !ok {
		return filters, false
	}
	if withEmployee {
		if filters.EmployeeID, ok = int64Query(c, "employee_id"); !ok {
			return filters, false
		}
	}
	return filters, true
}

func (h *SaleHandler) GetSales(c *gin.Context) {
	filters, ok := saleFilters(c, true)
	if !ok {
		return
	}
	sales, total, err := h.saleService.GetSales(filters)
	if err != nil {
		respondServiceError(c, err, "GetSales: Error from saleService.GetSales")
		return
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	respondList(c, sales, total, filters.Page, filters.PageSize)
}

// GetMySales lists the caller's own sales.
func (h *SaleHandler) GetMySales(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	filters, ok := saleFilters(c, false)
	if !ok {
		return
	}
	sales, total, err := h.saleService.GetMySales(actor, filters)
	if err != nil {
		respondServiceError(c, err, "GetMySales: Error from saleService.GetMySales")
		return
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	respondList(c, sales, total, filters.Page, filters.PageSize)
}

func (h *SaleHandler) GetSaleByID(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sale, err := h.saleService.GetSaleByID(actor, id)
	if err != nil {
		respondServiceError(c, err, "GetSaleByID: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *SaleHandler) UpdateSale(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateSaleRequest
	if !bindJSON(c, &req, "UpdateSale") {
		return
	}
	sale, err := h.saleService.UpdateSale(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateSale: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *SaleHandler) DeleteSale(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.saleService.DeleteSale(actor, id); err != nil {
		respondServiceError(c, err, "DeleteSale: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sale deleted successfully"})
}

// PaySale settles a pending bill.
func (h *SaleHandler) PaySale(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.PaySaleRequest
	if !bindJSON(c, &req, "PaySale") {
		return
	}
	sale, err := h.saleService.PaySale(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "PaySale: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, sale)
}
