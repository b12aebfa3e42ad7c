package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods accepted for settled sales
const (
	PaymentCash  = "cash"
	PaymentMpesa = "mpesa"
	PaymentCard  = "card"
)

// ValidPaymentMethod reports whether method is an accepted payment method.
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentMpesa, PaymentCard:
		return true
	}
	return false
}

// Credit statuses
const (
	CreditOpen    = "open"
	CreditCleared = "cleared"
)

// SalesDay gates sales: sales can only be recorded against the open day.
type SalesDay struct {
	ID           int64      `json:"id"`
	Date         string     `json:"date"`
	IsOpen       bool       `json:"is_open"`
	OpenedByID   *int64     `json:"opened_by_id"`
	ClosedByID   *int64     `json:"closed_by_id"`
	OpenedByName *string    `json:"opened_by_name,omitempty"`
	ClosedByName *string    `json:"closed_by_name,omitempty"`
	OpenedAt     time.Time  `json:"opened_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

// SaleItem is one product line of a sale. Price is the product price when the sale was recorded.
type SaleItem struct {
	ID          int64           `json:"id"`
	SaleID      int64           `json:"sale_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Sale is a recorded transaction. A credit sale stays unpaid without a payment method until its credit is cleared.
type Sale struct {
	ID            int64           `json:"id"`
	DayID         int64           `json:"day_id"`
	Date          string          `json:"date"`
	EmployeeID    int64           `json:"employee_id"`
	EmployeeName  string          `json:"employee_name,omitempty"`
	CustomerName  *string         `json:"customer_name,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	IsCredit      bool            `json:"is_credit"`
	IsPaid        bool            `json:"is_paid"`
	PaymentMethod *string         `json:"payment_method"`
	Items         []SaleItem      `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SaleFilters narrows sale listings. Dates are inclusive YYYY-MM-DD bounds.
type SaleFilters struct {
	StartDate  *string
	EndDate    *string
	EmployeeID *int64
	IsPaid     *bool
	Page       int
	PageSize   int
}

// Credit tracks an unpaid sale until it is cleared with a payment method.
type Credit struct {
	ID            int64           `json:"id"`
	SaleID        int64           `json:"sale_id"`
	EmployeeID    int64           `json:"employee_id"`
	EmployeeName  string          `json:"employee_name,omitempty"`
	CustomerName  *string         `json:"customer_name,omitempty"`
	SaleDate      string          `json:"sale_date,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	PaymentMethod *string         `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	ClearedAt     *time.Time      `json:"cleared_at,omitempty"`
}

// CreditFilters narrows credit listings.
type CreditFilters struct {
	Status     *string
	EmployeeID *int64
	Page       int
	PageSize   int
}
