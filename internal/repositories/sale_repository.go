package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ims_backend/internal/database"
	"ims_backend/internal/models"

	"github.com/shopspring/decimal"
)

// SaleRepository defines the interface for sale and sale item database operations.
type SaleRepository interface {
	// Sale methods
	CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error)
	GetSaleByID(saleID int64) (*models.Sale, error)
	GetSaleForUpdate(executor SQLExecutor, saleID int64) (*models.Sale, error)
	GetSales(filters models.SaleFilters) ([]models.Sale, int, error)
	UpdateSale(executor SQLExecutor, sale *models.Sale) error
	UpdatePaymentState(executor SQLExecutor, saleID int64, isCredit, isPaid bool, paymentMethod *string) error
	DeleteSale(executor SQLExecutor, saleID int64) error

	// SaleItem methods
	CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error)
	GetSaleItems(executor SQLExecutor, saleID int64) ([]models.SaleItem, error)
	DeleteSaleItems(executor SQLExecutor, saleID int64) (int64, error)
}

type saleRepository struct {
	db *database.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *database.DB) SaleRepository {
	return &saleRepository{db: db}
}

// --- Sale Methods ---

func (r *saleRepository) CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error) {
	query := `INSERT INTO sales
	            (day_id, date, employee_id, customer_name, total_amount, is_credit, is_paid, payment_method,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	now := time.Now().UTC()
	sale.CreatedAt = now
	sale.UpdatedAt = now

	err := executor.QueryRow(query,
		sale.DayID, sale.Date, sale.EmployeeID, sale.CustomerName, sale.TotalAmount, sale.IsCredit, sale.IsPaid,
		sale.PaymentMethod, now, now,
	).Scan(&sale.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: sale references a missing day or employee", ErrForeignKey)
		}
		return 0, fmt.Errorf("%w: creating sale: %v", ErrDatabaseError, err)
	}
	return sale.ID, nil
}

const saleSelect = `SELECT s.id, s.day_id, s.date, s.employee_id, e.name, s.customer_name, s.total_amount,
	        s.is_credit, s.is_paid, s.payment_method, s.created_at, s.updated_at
	      FROM sales s
	      JOIN employees e ON s.employee_id = e.id`

func scanSale(row scanner, extra ...interface{}) (*models.Sale, error) {
	var s models.Sale
	var customer, method sql.NullString

	dest := []interface{}{
		&s.ID, &s.DayID, &s.Date, &s.EmployeeID, &s.EmployeeName, &customer, &s.TotalAmount,
		&s.IsCredit, &s.IsPaid, &method, &s.CreatedAt, &s.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
	}
	s.CustomerName = nullStringPtr(customer)
	s.PaymentMethod = nullStringPtr(method)
	s.Items = []models.SaleItem{}
	return &s, nil
}

// GetSaleByID returns the sale with its items.
func (r *saleRepository) GetSaleByID(saleID int64) (*models.Sale, error) {
	sale, err := scanSale(r.db.QueryRow(saleSelect+` WHERE s.id = $1`, saleID))
	if err != nil {
		return nil, err
	}
	items, err := r.GetSaleItems(r.db, saleID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

// GetSaleForUpdate loads the sale row (locked on PostgreSQL) with its items through executor.
func (r *saleRepository) GetSaleForUpdate(executor SQLExecutor, saleID int64) (*models.Sale, error) {
	query := `SELECT id, day_id, date, employee_id, '', customer_name, total_amount,
	            is_credit, is_paid, payment_method, created_at, updated_at
	          FROM sales WHERE id = $1` + r.db.ForUpdate()
	sale, err := scanSale(executor.QueryRow(query, saleID))
	if err != nil {
		return nil, err
	}
	items, err := r.GetSaleItems(executor, saleID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

func (r *saleRepository) GetSales(filters models.SaleFilters) ([]models.Sale, int, error) {
	sales := []models.Sale{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT s.id, s.day_id, s.date, s.employee_id, e.name, s.customer_name, s.total_amount,
	        s.is_credit, s.is_paid, s.payment_method, s.created_at, s.updated_at,
	        COUNT(*) OVER() AS total_count
	      FROM sales s
	      JOIN employees e ON s.employee_id = e.id`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.StartDate != nil && *filters.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("s.date >= $%d", argCounter))
		args = append(args, *filters.StartDate)
		argCounter++
	}
	if filters.EndDate != nil && *filters.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("s.date <= $%d", argCounter))
		args = append(args, *filters.EndDate)
		argCounter++
	}
	if filters.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("s.employee_id = $%d", argCounter))
		args = append(args, *filters.EmployeeID)
		argCounter++
	}
	if filters.IsPaid != nil {
		conditions = append(conditions, fmt.Sprintf("s.is_paid = $%d", argCounter))
		args = append(args, *filters.IsPaid)
		argCounter++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	filtered, filterArgCount := queryBuilder.String(), len(args)
	queryBuilder.WriteString(" ORDER BY s.created_at DESC, s.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, filters.PageSize, offset(filters.Page, filters.PageSize))

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		sale, err := scanSale(rows, &totalCount)
		if err != nil {
			return nil, 0, err
		}
		sales = append(sales, *sale)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sales: %v", ErrDatabaseError, err)
	}
	rows.Close()

	if len(sales) == 0 && filters.Page > 1 {
		if totalCount, err = countRows(r.db, filtered, args[:filterArgCount]); err != nil {
			return nil, 0, err
		}
	}

	if err := r.attachItems(sales); err != nil {
		return nil, 0, err
	}
	return sales, totalCount, nil
}

// attachItems loads the items of a page of sales with a single query.
func (r *saleRepository) attachItems(sales []models.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	placeholders := make([]string, len(sales))
	args := make([]interface{}, len(sales))
	index := make(map[int64]int, len(sales))
	for i, s := range sales {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = s.ID
		index[s.ID] = i
	}

	query := `SELECT si.id, si.sale_id, si.product_id, p.name, si.quantity, si.price
	          FROM sale_items si
	          JOIN products p ON si.product_id = p.id
	          WHERE si.sale_id IN (` + strings.Join(placeholders, ", ") + `)
	          ORDER BY si.id`
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("%w: getting items of sales page: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanSaleItem(rows)
		if err != nil {
			return err
		}
		i := index[item.SaleID]
		sales[i].Items = append(sales[i].Items, *item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating sale items: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *saleRepository) UpdateSale(executor SQLExecutor, sale *models.Sale) error {
	query := `UPDATE sales
	          SET customer_name = $1, total_amount = $2, is_credit = $3, is_paid = $4, payment_method = $5, updated_at = $6
	          WHERE id = $7`
	sale.UpdatedAt = time.Now().UTC()
	res, err := executor.Exec(query,
		sale.CustomerName, sale.TotalAmount, sale.IsCredit, sale.IsPaid, sale.PaymentMethod, sale.UpdatedAt, sale.ID)
	if err != nil {
		return fmt.Errorf("%w: updating sale %d: %v", ErrDatabaseError, sale.ID, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: checking sale update: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *saleRepository) UpdatePaymentState(executor SQLExecutor, saleID int64, isCredit, isPaid bool, paymentMethod *string) error {
	query := `UPDATE sales SET is_credit = $1, is_paid = $2, payment_method = $3, updated_at = $4 WHERE id = $5`
	res, err := executor.Exec(query, isCredit, isPaid, paymentMethod, time.Now().UTC(), saleID)
	if err != nil {
		return fmt.Errorf("%w: updating payment state of sale %d: %v", ErrDatabaseError, saleID, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: checking sale payment update: %v", ErrDatabaseError, err)
	}
	return nil
}

// DeleteSale removes the sale; its items and credit go with it through ON DELETE CASCADE.
func (r *saleRepository) DeleteSale(executor SQLExecutor, saleID int64) error {
	res, err := executor.Exec(`DELETE FROM sales WHERE id = $1`, saleID)
	if err != nil {
		return fmt.Errorf("%w: deleting sale %d: %v", ErrDatabaseError, saleID, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: checking sale delete: %v", ErrDatabaseError, err)
	}
	return nil
}

// --- SaleItem Methods ---

func (r *saleRepository) CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error) {
	query := `INSERT INTO sale_items (sale_id, product_id, quantity, price) VALUES ($1, $2, $3, $4) RETURNING id`
	err := executor.QueryRow(query, item.SaleID, item.ProductID, item.Quantity, item.Price).Scan(&item.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: sale item references missing product %d", ErrForeignKey, item.ProductID)
		}
		return 0, fmt.Errorf("%w: creating sale item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func scanSaleItem(row scanner) (*models.SaleItem, error) {
	var item models.SaleItem
	if err := row.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
		return nil, fmt.Errorf("%w: scanning sale item: %v", ErrDatabaseError, err)
	}
	item.Subtotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	return &item, nil
}

func (r *saleRepository) GetSaleItems(executor SQLExecutor, saleID int64) ([]models.SaleItem, error) {
	if executor == nil {
		executor = r.db
	}
	items := []models.SaleItem{}
	query := `SELECT si.id, si.sale_id, si.product_id, p.name, si.quantity, si.price
	          FROM sale_items si
	          JOIN products p ON si.product_id = p.id
	          WHERE si.sale_id = $1
	          ORDER BY si.id`
	rows, err := executor.Query(query, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting items of sale %d: %v", ErrDatabaseError, saleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanSaleItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating items of sale %d: %v", ErrDatabaseError, saleID, err)
	}
	return items, nil
}

func (r *saleRepository) DeleteSaleItems(executor SQLExecutor, saleID int64) (int64, error) {
	res, err := executor.Exec(`DELETE FROM sale_items WHERE sale_id = $1`, saleID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting items of sale %d: %v", ErrDatabaseError, saleID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: counting deleted sale items: %v", ErrDatabaseError, err)
	}
	return n, nil
}
