package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"ims_backend/internal/database"
	"ims_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ReportRepository runs the aggregate queries behind reports and the dashboard.
// Date bounds are inclusive YYYY-MM-DD strings. Queries stop when ctx is cancelled.
type ReportRepository interface {
	SalesSummary(ctx context.Context, startDate, endDate string) (models.SalesSummary, error)
	SalesByEmployee(ctx context.Context, startDate, endDate string) ([]models.EmployeeSales, error)
	SalesByCategory(ctx context.Context, startDate, endDate string) ([]models.CategorySales, error)
	SalesByPaymentMethod(ctx context.Context, startDate, endDate string) ([]models.PaymentMethodSales, error)
	CreditSummary(ctx context.Context, startDate, endDate string) (models.CreditSummary, error)
	Credits(ctx context.Context, status *string) ([]models.Credit, error)
	LowStock(ctx context.Context, threshold int) ([]models.InventoryReportItem, error)
	SupplierBalances(ctx context.Context) ([]models.SupplierBalanceItem, error)
	TopProducts(ctx context.Context, startDate, endDate string, limit int) ([]models.TopProductItem, error)

	CountLowStock(ctx context.Context, threshold int) (int, error)
	OpenCreditTotals(ctx context.Context) (decimal.Decimal, int, error)
	SupplierBalanceDue(ctx context.Context) (decimal.Decimal, error)
}

type reportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *database.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) SalesSummary(ctx context.Context, startDate, endDate string) (models.SalesSummary, error) {
	var summary models.SalesSummary

	query := `SELECT COALESCE(SUM(total_amount), 0),
	                 COALESCE(SUM(CASE WHEN is_paid THEN total_amount ELSE 0 END), 0),
	                 COUNT(*)
	          FROM sales
	          WHERE date >= $1 AND date <= $2`
	err := r.db.QueryRowContext(ctx, query, startDate, endDate).Scan(money{&summary.TotalSales}, money{&summary.TotalCash}, &summary.NumberOfSales)
	if err != nil {
		return summary, fmt.Errorf("%w: summarising sales: %v", ErrDatabaseError, err)
	}

	creditQuery := `SELECT COALESCE(SUM(c.amount), 0)
	                FROM credits c
	                JOIN sales s ON c.sale_id = s.id
	                WHERE s.date >= $1 AND s.date <= $2 AND c.status = $3`
	if err := r.db.QueryRowContext(ctx, creditQuery, startDate, endDate, models.CreditOpen).Scan(money{&summary.TotalCredits}); err != nil {
		return summary, fmt.Errorf("%w: summarising credit sales: %v", ErrDatabaseError, err)
	}
	return summary, nil
}

func (r *reportRepository) SalesByEmployee(ctx context.Context, startDate, endDate string) ([]models.EmployeeSales, error) {
	query := `SELECT e.id, e.name, COUNT(s.id), COALESCE(SUM(s.total_amount), 0) AS total
	          FROM sales s
	          JOIN employees e ON s.employee_id = e.id
	          WHERE s.date >= $1 AND s.date <= $2
	          GROUP BY e.id, e.name
	          ORDER BY total DESC, e.name`
	rows, err := r.db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: sales by employee: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := []models.EmployeeSales{}
	for rows.Next() {
		var item models.EmployeeSales
		if err := rows.Scan(&item.EmployeeID, &item.EmployeeName, &item.NumberOfSales, money{&item.TotalSales}); err != nil {
			return nil, fmt.Errorf("%w: scanning sales by employee: %v", ErrDatabaseError, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sales by employee: %v", ErrDatabaseError, err)
	}
	return result, nil
}

func (r *reportRepository) SalesByCategory(ctx context.Context, startDate, endDate string) ([]models.CategorySales, error) {
	query := `SELECT c.id, COALESCE(c.name, 'Uncategorised'), COALESCE(SUM(si.quantity), 0),
	                 COALESCE(SUM(si.price * si.quantity), 0) AS total
	          FROM sale_items si
	          JOIN sales s ON si.sale_id = s.id
	          JOIN products p ON si.product_id = p.id
	          LEFT JOIN categories c ON p.category_id = c.id
	          WHERE s.date >= $1 AND s.date <= $2
	          GROUP BY c.id, c.name
	          ORDER BY total DESC`
	rows, err := r.db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: sales by category: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := []models.CategorySales{}
	for rows.Next() {
		var item models.CategorySales
		var categoryID sql.NullInt64
		if err := rows.Scan(&categoryID, &item.CategoryName, &item.Quantity, money{&item.TotalSales}); err != nil {
			return nil, fmt.Errorf("%w: scanning sales by category: %v", ErrDatabaseError, err)
		}
		item.CategoryID = nullInt64Ptr(categoryID)
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sales by category: %v", ErrDatabaseError, err)
	}
	return result, nil
}

// SalesByPaymentMethod only counts settled sales.
func (r *reportRepository) SalesByPaymentMethod(ctx context.Context, startDate, endDate string) ([]models.PaymentMethodSales, error) {
	query := `SELECT payment_method, COUNT(*), COALESCE(SUM(total_amount), 0) AS total
	          FROM sales
	          WHERE date >= $1 AND date <= $2 AND is_paid = TRUE AND payment_method IS NOT NULL
	          GROUP BY payment_method
	          ORDER BY total DESC`
	rows, err := r.db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: sales by payment method: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := []models.PaymentMethodSales{}
	for rows.Next() {
		var item models.PaymentMethodSales
		if err := rows.Scan(&item.PaymentMethod, &item.NumberOfSales, money{&item.TotalSales}); err != nil {
			return nil, fmt.Errorf("%w: scanning sales by payment method: %v", ErrDatabaseError, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sales by payment method: %v", ErrDatabaseError, err)
	}
	return result, nil
}

func (r *reportRepository) CreditSummary(ctx context.Context, startDate, endDate string) (models.CreditSummary, error) {
	var summary models.CreditSummary
	query := `SELECT COALESCE(SUM(CASE WHEN c.status = $1 THEN c.amount ELSE 0 END), 0),
	                 COALESCE(SUM(CASE WHEN c.status = $2 THEN c.amount ELSE 0 END), 0),
	                 COALESCE(SUM(CASE WHEN c.status = $3 THEN 1 ELSE 0 END), 0),
	                 COALESCE(SUM(CASE WHEN c.status = $4 THEN 1 ELSE 0 END), 0)
	          FROM credits c
	          JOIN sales s ON c.sale_id = s.id
	          WHERE s.date >= $5 AND s.date <= $6`
	err := r.db.QueryRowContext(ctx, query,
		models.CreditOpen, models.CreditCleared, models.CreditOpen, models.CreditCleared, startDate, endDate,
	).Scan(money{&summary.OpenCredits}, money{&summary.ClearedCredits}, &summary.NumberOfOpenCredits, &summary.NumberOfClearedCredits)
	if err != nil {
		return summary, fmt.Errorf("%w: summarising credits: %v", ErrDatabaseError, err)
	}
	return summary, nil
}

// Credits lists credits of every date, optionally narrowed to one status.
func (r *reportRepository) Credits(ctx context.Context, status *string) ([]models.Credit, error) {
	query := creditSelect
	var args []interface{}
	if status != nil && *status != "" {
		query += ` WHERE c.status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: credits report: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := []models.Credit{}
	for rows.Next() {
		credit, err := scanCredit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *credit)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating credits report: %v", ErrDatabaseError, err)
	}
	return result, nil
}

func (r *reportRepository) LowStock(ctx context.Context, threshold int) ([]models.InventoryReportItem, error) {
	query := `SELECT p.id, p.name, p.sku, p.stock, c.name, s.name
	          FROM products p
	          LEFT JOIN categories c ON p.category_id = c.id
	          LEFT JOIN suppliers s ON p.supplier_id = s.id
	          WHERE p.stock <= $1
	          ORDER BY p.stock, p.name`
	rows, err := r.db.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: inventory report: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := []models.InventoryReportItem{}
	for rows.Next() {
		var item models.InventoryReportItem
		var category, supplier sql.NullString
		if err := rows.Scan(&item.ProductID, &item.Product, &item.SKU, &item.Stock, &category, &supplier); err != nil {
			return nil, fmt.Errorf("%w: scanning inventory report: %v", ErrDatabaseError, err)
		}
		item.Category = nullStringPtr(category)
		item.Supplier = nullStringPtr(supplier)
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating inventory report: %v", ErrDatabaseError, err)
	}
	return result, nil
}

func (r *reportRepository) SupplierBalances(ctx context.Context) ([]models.SupplierBalanceItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, contact, balance FROM suppliers WHERE balance > 0 ORDER BY balance DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("%w: supplier balances: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := []models.SupplierBalanceItem{}
	for rows.Next() {
		var item models.SupplierBalanceItem
		if err := rows.Scan(&item.SupplierID, &item.Supplier, &item.Contact, money{&item.Balance}); err != nil {
			return nil, fmt.Errorf("%w: scanning supplier balance: %v", ErrDatabaseError, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating supplier balances: %v", ErrDatabaseError, err)
	}
	return result, nil
}

func (r *reportRepository) TopProducts(ctx context.Context, startDate, endDate string, limit int) ([]models.TopProductItem, error) {
	query := `SELECT p.id, p.name, COALESCE(SUM(si.quantity), 0) AS qty, COALESCE(SUM(si.price * si.quantity), 0)
	          FROM sale_items si
	          JOIN sales s ON si.sale_id = s.id
	          JOIN products p ON si.product_id = p.id
	          WHERE s.date >= $1 AND s.date <= $2
	          GROUP BY p.id, p.name
	          ORDER BY qty DESC, p.name
	          LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, startDate, endDate, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: top products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := []models.TopProductItem{}
	for rows.Next() {
		var item models.TopProductItem
		if err := rows.Scan(&item.ProductID, &item.Product, &item.Quantity, money{&item.TotalSales}); err != nil {
			return nil, fmt.Errorf("%w: scanning top product: %v", ErrDatabaseError, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating top products: %v", ErrDatabaseError, err)
	}
	return result, nil
}

func (r *reportRepository) CountLowStock(ctx context.Context, threshold int) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE stock <= $1`, threshold).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting low stock products: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *reportRepository) OpenCreditTotals(ctx context.Context) (decimal.Decimal, int, error) {
	var total decimal.Decimal
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM credits WHERE status = $1`, models.CreditOpen).
		Scan(money{&total}, &count)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("%w: totalling open credits: %v", ErrDatabaseError, err)
	}
	return total, count, nil
}

func (r *reportRepository) SupplierBalanceDue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(balance), 0) FROM suppliers`).Scan(money{&total}); err != nil {
		return decimal.Zero, fmt.Errorf("%w: totalling supplier balances: %v", ErrDatabaseError, err)
	}
	return total, nil
}
