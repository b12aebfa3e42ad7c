package models

import "github.com/shopspring/decimal"

// SalesSummary aggregates sales over a date range.
type SalesSummary struct {
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalCredits  decimal.Decimal `json:"total_credits"`
	TotalCash     decimal.Decimal `json:"total_cash"`
	NumberOfSales int             `json:"number_of_sales"`
}

// EmployeeSales is the sales total of one employee.
type EmployeeSales struct {
	EmployeeID    int64           `json:"employee_id"`
	EmployeeName  string          `json:"employee_name"`
	NumberOfSales int             `json:"number_of_sales"`
	TotalSales    decimal.Decimal `json:"total_sales"`
}

// CategorySales is the sales total of one category. Uncategorised products report under a nil ID.
type CategorySales struct {
	CategoryID   *int64          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Quantity     int             `json:"quantity"`
	TotalSales   decimal.Decimal `json:"total_sales"`
}

// PaymentMethodSales is the settled sales total of one payment method.
type PaymentMethodSales struct {
	PaymentMethod string          `json:"payment_method"`
	NumberOfSales int             `json:"number_of_sales"`
	TotalSales    decimal.Decimal `json:"total_sales"`
}

// CreditSummary splits credits by status.
type CreditSummary struct {
	OpenCredits            decimal.Decimal `json:"open_credits"`
	ClearedCredits         decimal.Decimal `json:"cleared_credits"`
	NumberOfOpenCredits    int             `json:"number_of_open_credits"`
	NumberOfClearedCredits int             `json:"number_of_cleared_credits"`
}

// DayReport describes the sales day behind a daily report.
type DayReport struct {
	Date     string  `json:"date"`
	IsOpen   bool    `json:"is_open"`
	OpenedBy *string `json:"opened_by"`
	ClosedBy *string `json:"closed_by"`
}

// Report is the daily or period sales report.
type Report struct {
	StartDate            string               `json:"start_date"`
	EndDate              string               `json:"end_date"`
	SalesSummary         SalesSummary         `json:"sales_summary"`
	SalesByEmployee      []EmployeeSales      `json:"sales_by_employee"`
	SalesByCategory      []CategorySales      `json:"sales_by_category"`
	SalesByPaymentMethod []PaymentMethodSales `json:"sales_by_payment_method"`
	CreditSummary        CreditSummary        `json:"credit_summary"`
	DayReport            *DayReport           `json:"day_report"`
}

// InventoryReportItem is a product at or below the stock threshold.
type InventoryReportItem struct {
	ProductID int64   `json:"product_id"`
	Product   string  `json:"product"`
	SKU       string  `json:"sku"`
	Stock     int     `json:"stock"`
	Category  *string `json:"category"`
	Supplier  *string `json:"supplier"`
}

// SupplierBalanceItem is a supplier that is still owed money.
type SupplierBalanceItem struct {
	SupplierID int64           `json:"supplier_id"`
	Supplier   string          `json:"supplier"`
	Contact    string          `json:"contact"`
	Balance    decimal.Decimal `json:"balance"`
}

// TopProductItem ranks products by quantity sold.
type TopProductItem struct {
	ProductID  int64           `json:"product_id"`
	Product    string          `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

// DashboardSummary holds the key metrics for the admin dashboard.
type DashboardSummary struct {
	Date                string          `json:"date"`
	DayOpen             bool            `json:"day_open"`
	SalesToday          decimal.Decimal `json:"sales_today"`
	NumberOfSalesToday  int             `json:"number_of_sales_today"`
	OpenCreditsTotal    decimal.Decimal `json:"open_credits_total"`
	NumberOfOpenCredits int             `json:"number_of_open_credits"`
	LowStockCount       int             `json:"low_stock_count"`
	SupplierBalanceDue  decimal.Decimal `json:"supplier_balance_due"`
}
