package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"ims_backend/internal/middleware"
	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// errorMapping turns a service sentinel into an API error.
// With detailIsMessage the text wrapped around the sentinel becomes the message shown to the user.
type errorMapping struct {
	target          error
	status          int
	code            string
	message         string
	detailIsMessage bool
}

var serviceErrors = []errorMapping{
	{services.ErrValidation, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Input validation failed", true},
	{services.ErrInvalidPaymentType, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Payment method must be cash, mpesa or card", false},
	{services.ErrInsufficientStock, http.StatusBadRequest, utils.ErrCodeBadRequest, "Not enough stock", true},
	{services.ErrAuthRequired, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated", false},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid phone or password", false},
	{services.ErrAccountInactive, http.StatusForbidden, utils.ErrCodeForbidden, "This account is inactive.", false},
	{services.ErrForbidden, http.StatusForbidden, utils.ErrCodeForbidden, "You do not have permission to perform this action.", false},

	{services.ErrEmployeeNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Employee not found", false},
	{services.ErrEmployeeInactive, http.StatusBadRequest, utils.ErrCodeBadRequest, "Employee is inactive", false},
	{services.ErrPhoneTaken, http.StatusConflict, utils.ErrCodeConflict, "Phone number already registered", false},
	{services.ErrRoleTaken, http.StatusConflict, utils.ErrCodeConflict, "Only one employer and one manager may exist", false},
	{services.ErrEmployeeProtected, http.StatusBadRequest, utils.ErrCodeBadRequest, "This account is protected", false},
	{services.ErrEmployeeInUse, http.StatusConflict, utils.ErrCodeConflict, "Employee has sales or credits and cannot be deleted", false},

	{services.ErrCategoryNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Category not found", false},
	{services.ErrCategoryExists, http.StatusConflict, utils.ErrCodeConflict, "Category already exists", false},
	{services.ErrCategoryInUse, http.StatusConflict, utils.ErrCodeConflict, "Category has products and cannot be deleted", false},
	{services.ErrSupplierNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Supplier not found", false},
	{services.ErrSupplierExists, http.StatusConflict, utils.ErrCodeConflict, "Supplier already exists", false},
	{services.ErrSupplierInUse, http.StatusConflict, utils.ErrCodeConflict, "Supplier has products and cannot be deleted", false},
	{services.ErrProductNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Product not found", false},
	{services.ErrSKUExists, http.StatusConflict, utils.ErrCodeConflict, "SKU already exists", false},
	{services.ErrProductInUse, http.StatusConflict, utils.ErrCodeConflict, "Product has been sold and cannot be deleted", false},

	{services.ErrDayNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Sales day not found", false},
	{services.ErrDayAlreadyOpen, http.StatusBadRequest, utils.ErrCodeBadRequest, "Day is already open", false},
	{services.ErrDayExists, http.StatusBadRequest, utils.ErrCodeBadRequest, "Day already exists for today", false},
	{services.ErrNoOpenDay, http.StatusBadRequest, utils.ErrCodeBadRequest, "No open day to close", false},
	{services.ErrDayNotOpen, http.StatusBadRequest, utils.ErrCodeBadRequest, "Day is closed. Open the day before recording sales.", false},
	{services.ErrDayHasOpenCredit, http.StatusBadRequest, utils.ErrCodeBadRequest, "Cannot close day with uncleared credits", false},
	{services.ErrDayHasSales, http.StatusConflict, utils.ErrCodeConflict, "Day has sales and cannot be deleted", false},

	{services.ErrSaleNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Sale not found", false},
	{services.ErrSaleDayClosed, http.StatusBadRequest, utils.ErrCodeBadRequest, "Sales of a closed day cannot be changed", false},
	{services.ErrSaleCreditCleared, http.StatusBadRequest, utils.ErrCodeBadRequest, "Sale credit has already been cleared", false},
	{services.ErrSaleAlreadyPaid, http.StatusBadRequest, utils.ErrCodeBadRequest, "Sale is already paid", false},
	{services.ErrSaleIsCredit, http.StatusBadRequest, utils.ErrCodeBadRequest, "Credit sales are settled by clearing the credit", false},

	{services.ErrCreditNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Credit not found", false},
	{services.ErrCreditExists, http.StatusConflict, utils.ErrCodeConflict, "Credit already exists for this sale", false},
	{services.ErrCreditAlreadyCleared, http.StatusBadRequest, utils.ErrCodeBadRequest, "Credit is already cleared", false},
}

// wrappedDetail returns the text wrapped around sentinel in err, if any.
func wrappedDetail(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return ""
}

// respondServiceError logs err under where and sends the matching API error.
func respondServiceError(c *gin.Context, err error, where string) {
	utils.LogError(err, where)
	for _, m := range serviceErrors {
		if !errors.Is(err, m.target) {
			continue
		}
		message, details := m.message, wrappedDetail(err, m.target)
		if m.detailIsMessage && details != "" {
			message, details = details, ""
		}
		utils.RespondWithError(c, utils.NewAPIError(m.status, m.code, message, details))
		return
	}
	utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "An unexpected error occurred.", "Internal error"))
}

// bindJSON binds the request body and answers 400 when it does not fit.
func bindJSON(c *gin.Context, req interface{}, where string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.LogError(err, where+": Failed to bind JSON")
		utils.RespondValidationFailed(c, err.Error())
		return false
	}
	return true
}

// currentActor reads the employee placed in the context by AuthMiddleware.
func currentActor(c *gin.Context) (services.Actor, bool) {
	id, ok := c.Get(middleware.ContextUserID)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated", ""))
		return services.Actor{}, false
	}
	employeeID, ok := id.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated", "Invalid user ID format in context"))
		return services.Actor{}, false
	}
	return services.Actor{ID: employeeID, Role: c.GetString(middleware.ContextUserRole)}, true
}

// idParam parses a positive path ID, answering 400 otherwise.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.ParsePositiveID(c.Param(name))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid "+name+": "+err.Error())
		return 0, false
	}
	return id, true
}

// pagination reads page and page_size with defaults 1 and 10; page_size is capped at 100.
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func respondList(c *gin.Context, data interface{}, total, page, pageSize int) {
	c.JSON(http.StatusOK, gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func stringQuery(c *gin.Context, key string) *string {
	v := c.Query(key)
	if utils.IsEmpty(v) {
		return nil
	}
	v = strings.TrimSpace(v)
	return &v
}

func int64Query(c *gin.Context, key string) (*int64, bool) {
	v := c.Query(key)
	if v == "" {
		return nil, true
	}
	id, err := utils.ParsePositiveID(v)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid "+key+": "+err.Error())
		return nil, false
	}
	return &id, true
}

func intQuery(c *gin.Context, key string) (*int, bool) {
	v := c.Query(key)
	if v == "" {
		return nil, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid "+key+": must be an integer")
		return nil, false
	}
	return &n, true
}

func boolQuery(c *gin.Context, key string) (*bool, bool) {
	v := c.Query(key)
	if v == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid "+key+": must be true or false")
		return nil, false
	}
	return &b, true
}
