package handlers

import (
	"net/http"

	"ims_backend/internal/models"
	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CategoryHandler holds the category service.
type CategoryHandler struct {
	categoryService services.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(cs services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: cs}
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req services.CategoryRequest
	if !bindJSON(c, &req, "CreateCategory") {
		return
	}
	category, err := h.categoryService.CreateCategory(req)
	if err != nil {
		respondServiceError(c, err, "CreateCategory: Error from categoryService.CreateCategory")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	page, pageSize := pagination(c)
	categories, total, err := h.categoryService.GetCategories(stringQuery(c, "search"), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetCategories: Error from categoryService.GetCategories")
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	respondList(c, categories, total, page, pageSize)
}

func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	category, err := h.categoryService.GetCategoryByID(id)
	if err != nil {
		respondServiceError(c, err, "GetCategoryByID: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.CategoryRequest
	if !bindJSON(c, &req, "UpdateCategory") {
		return
	}
	category, err := h.categoryService.UpdateCategory(id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateCategory: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.categoryService.DeleteCategory(id); err != nil {
		respondServiceError(c, err, "DeleteCategory: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
