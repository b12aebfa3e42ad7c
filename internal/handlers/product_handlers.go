package handlers

import (
	"net/http"

	"ims_backend/internal/models"
	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ProductHandler holds the product service. It also serves the stock movement log.
type ProductHandler struct {
	productService services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(ps services.ProductService) *ProductHandler {
	return &ProductHandler{productService: ps}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.CreateProductRequest
	if !bindJSON(c, &req, "CreateProduct") {
		return
	}
	product, err := h.productService.CreateProduct(actor, req)
	if err != nil {
		respondServiceError(c, err, "CreateProduct: Error from productService.CreateProduct")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts lists products filtered by category_id, supplier_id and search.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	page, pageSize := pagination(c)
	categoryID, ok := int64Query(c, "category_id")
	if !ok {
		return
	}
	supplierID, ok := int64Query(c, "supplier_id")
	if !ok {
		return
	}
	filters := models.ProductFilters{
		CategoryID: categoryID,
		SupplierID: supplierID,
		Search:     stringQuery(c, "search"),
		Page:       page,
		PageSize:   pageSize,
	}

	products, total, err := h.productService.GetProducts(filters)
	if err != nil {
		respondServiceError(c, err, "GetProducts: Error from productService.GetProducts")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	respondList(c, products, total, page, pageSize)
}

func (h *ProductHandler) GetProductByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetProductByID(id)
	if err != nil {
		respondServiceError(c, err, "GetProductByID: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateProductRequest
	if !bindJSON(c, &req, "UpdateProduct") {
		return
	}
	product, err := h.productService.UpdateProduct(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateProduct: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.productService.DeleteProduct(id); err != nil {
		respondServiceError(c, err, "DeleteProduct: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// Restock adds delivered stock to a product.
func (h *ProductHandler) Restock(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.RestockRequest
	if !bindJSON(c, &req, "Restock") {
		return
	}
	product, err := h.productService.Restock(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "Restock: Error for product ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetStockMovements lists the stock audit trail, filtered by product_id and type.
func (h *ProductHandler) GetStockMovements(c *gin.Context) {
	page, pageSize := pagination(c)
	productID, ok := int64Query(c, "product_id")
	if !ok {
		return
	}
	filters := models.StockMovementFilters{
		ProductID:    productID,
		MovementType: stringQuery(c, "type"),
		Page:         page,
		PageSize:     pageSize,
	}

	movements, total, err := h.productService.GetStockMovements(filters)
	if err != nil {
		respondServiceError(c, err, "GetStockMovements: Error from productService.GetStockMovements")
		return
	}
	if movements == nil {
		movements = []models.StockMovement{}
	}
	respondList(c, movements, total, page, pageSize)
}
