package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveError(err error) (int, utils.APIError) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	respondServiceError(c, err, "test")

	var body struct {
		Error utils.APIError `json:"error"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec.Code, body.Error
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "stock shortage shows the detail",
			err:         fmt.Errorf("%w: Not enough stock for product Coke (available: 2)", services.ErrInsufficientStock),
			wantStatus:  http.StatusBadRequest,
			wantCode:    utils.ErrCodeBadRequest,
			wantMessage: "Not enough stock for product Coke (available: 2)",
		},
		{
			name:        "validation detail",
			err:         fmt.Errorf("failed to list sales: %w", fmt.Errorf("%w: end_date cannot be earlier than start_date", services.ErrValidation)),
			wantStatus:  http.StatusBadRequest,
			wantCode:    utils.ErrCodeValidationFailed,
			wantMessage: "end_date cannot be earlier than start_date",
		},
		{
			name:        "open credits keep the fixed message",
			err:         fmt.Errorf("%w: 2 credits still open", services.ErrDayHasOpenCredit),
			wantStatus:  http.StatusBadRequest,
			wantCode:    utils.ErrCodeBadRequest,
			wantMessage: "Cannot close day with uncleared credits",
		},
		{
			name:        "day already exists",
			err:         fmt.Errorf("%w: 2024-03-01", services.ErrDayExists),
			wantStatus:  http.StatusBadRequest,
			wantCode:    utils.ErrCodeBadRequest,
			wantMessage: "Day already exists for today",
		},
		{
			name:        "forbidden",
			err:         fmt.Errorf("%w: employees can only view their own sales", services.ErrForbidden),
			wantStatus:  http.StatusForbidden,
			wantCode:    utils.ErrCodeForbidden,
			wantMessage: "You do not have permission to perform this action.",
		},
		{
			name:        "not found",
			err:         services.ErrSaleNotFound,
			wantStatus:  http.StatusNotFound,
			wantCode:    utils.ErrCodeNotFound,
			wantMessage: "Sale not found",
		},
		{
			name:        "conflict",
			err:         fmt.Errorf("%w: CC-500", services.ErrSKUExists),
			wantStatus:  http.StatusConflict,
			wantCode:    utils.ErrCodeConflict,
			wantMessage: "SKU already exists",
		},
		{
			name:        "unknown error",
			err:         errors.New("connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    utils.ErrCodeInternalServerError,
			wantMessage: "An unexpected error occurred.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, apiErr := serveError(tt.err)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if apiErr.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", apiErr.Code, tt.wantCode)
			}
			if apiErr.Message != tt.wantMessage {
				t.Fatalf("message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"", 1, 10},
		{"?page=3&page_size=25", 3, 25},
		{"?page=0&page_size=-5", 1, 10},
		{"?page=abc&page_size=1000", 1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil)
			page, pageSize := pagination(c)
			if page != tt.wantPage || pageSize != tt.wantPageSize {
				t.Fatalf("pagination = (%d, %d), want (%d, %d)", page, pageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestQueryHelpers(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/sales?employee_id=7&is_paid=true&search=%20%20&limit=5", nil)

	if v := stringQuery(c, "search"); v != nil {
		t.Fatalf("blank search should be nil, got %q", *v)
	}
	if v, ok := int64Query(c, "employee_id"); !ok || v == nil || *v != 7 {
		t.Fatalf("employee_id = %v, %v", v, ok)
	}
	if v, ok := boolQuery(c, "is_paid"); !ok || v == nil || !*v {
		t.Fatalf("is_paid = %v, %v", v, ok)
	}
	if v, ok := intQuery(c, "limit"); !ok || v == nil || *v != 5 {
		t.Fatalf("limit = %v, %v", v, ok)
	}
	if v, ok := intQuery(c, "missing"); !ok || v != nil {
		t.Fatalf("missing int query = %v, %v", v, ok)
	}

	rec := httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/sales?employee_id=-1", nil)
	if _, ok := int64Query(c, "employee_id"); ok {
		t.Fatal("negative employee_id should be rejected")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
