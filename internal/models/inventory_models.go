package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Supplier provides products. Balance is the amount owed to the supplier.
type Supplier struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Contact   string          `json:"contact"`
	Email     *string         `json:"email,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SupplierPayment records money paid towards a supplier balance.
type SupplierPayment struct {
	ID           int64           `json:"id"`
	SupplierID   int64           `json:"supplier_id"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Note         *string         `json:"note,omitempty"`
	RecordedByID *int64          `json:"recorded_by_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Product is a stocked item that can be sold.
type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	CategoryID   *int64          `json:"category_id"`
	SupplierID   *int64          `json:"supplier_id"`
	ImageURL     *string         `json:"image_url,omitempty"`
	CategoryName *string         `json:"category_name,omitempty"`
	SupplierName *string         `json:"supplier_name,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductFilters narrows product listings.
type ProductFilters struct {
	CategoryID *int64
	SupplierID *int64
	Search     *string
	Page       int
	PageSize   int
}

// Stock movement types
const (
	MovementSale         = "sale"
	MovementSaleReversal = "sale_reversal"
	MovementRestock      = "restock"
	MovementAdjustment   = "adjustment"
)

// StockMovement is an audit entry for every change to a product's stock.
type StockMovement struct {
	ID              int64            `json:"id"`
	ProductID       int64            `json:"product_id"`
	ProductName     string           `json:"product_name,omitempty"`
	EmployeeID      *int64           `json:"employee_id,omitempty"`
	EmployeeName    *string          `json:"employee_name,omitempty"`
	SaleID          *int64           `json:"sale_id,omitempty"`
	MovementType    string           `json:"movement_type"`
	QuantityChanged int              `json:"quantity_changed"`
	StockAfter      int              `json:"stock_after"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	Note            *string          `json:"note,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// StockMovementFilters narrows stock movement listings.
type StockMovementFilters struct {
	ProductID    *int64
	MovementType *string
	Page         int
	PageSize     int
}
