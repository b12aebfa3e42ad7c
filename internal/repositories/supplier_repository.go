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

// SupplierRepository defines the interface for supplier and supplier payment database operations.
type SupplierRepository interface {
	CreateSupplier(executor SQLExecutor, supplier *models.Supplier) (*models.Supplier, error)
	GetSupplierByID(id int64) (*models.Supplier, error)
	GetSupplierForUpdate(executor SQLExecutor, id int64) (*models.Supplier, error)
	GetSupplierByName(name string) (*models.Supplier, error)
	GetSuppliers(search *string, page, pageSize int) ([]models.Supplier, int, error)
	UpdateSupplier(executor SQLExecutor, supplier *models.Supplier) (*models.Supplier, error)
	UpdateBalance(executor SQLExecutor, id int64, balance decimal.Decimal) error
	DeleteSupplier(executor SQLExecutor, id int64) error
	CountProducts(executor SQLExecutor, supplierID int64) (int, error)

	CreatePayment(executor SQLExecutor, payment *models.SupplierPayment) (*models.SupplierPayment, error)
	GetPayments(supplierID int64, page, pageSize int) ([]models.SupplierPayment, int, error)
}

type supplierRepository struct {
	db *database.DB
}

// NewSupplierRepository creates a new instance of SupplierRepository.
func NewSupplierRepository(db *database.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

const supplierColumns = `id, name, contact, email, balance, created_at, updated_at`

func scanSupplier(row scanner) (*models.Supplier, error) {
	var s models.Supplier
	var email sql.NullString
	if err := row.Scan(&s.ID, &s.Name, &s.Contact, &email, &s.Balance, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning supplier: %v", ErrDatabaseError, err)
	}
	s.Email = nullStringPtr(email)
	return &s, nil
}

func (r *supplierRepository) CreateSupplier(executor SQLExecutor, supplier *models.Supplier) (*models.Supplier, error) {
	query := `INSERT INTO suppliers (name, contact, email, balance, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	now := time.Now().UTC()
	supplier.CreatedAt = now
	supplier.UpdatedAt = now

	err := executor.QueryRow(query, supplier.Name, supplier.Contact, supplier.Email, supplier.Balance, now, now).Scan(&supplier.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: supplier name '%s' already exists", ErrDuplicateKey, supplier.Name)
		}
		return nil, fmt.Errorf("%w: creating supplier: %v", ErrDatabaseError, err)
	}
	return supplier, nil
}

func (r *supplierRepository) GetSupplierByID(id int64) (*models.Supplier, error) {
	return scanSupplier(r.db.QueryRow(`SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
}

// GetSupplierForUpdate loads and row-locks a supplier inside a transaction.
func (r *supplierRepository) GetSupplierForUpdate(executor SQLExecutor, id int64) (*models.Supplier, error) {
	return scanSupplier(executor.QueryRow(`SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`+r.db.ForUpdate(), id))
}

// GetSupplierByName matches case-insensitively.
func (r *supplierRepository) GetSupplierByName(name string) (*models.Supplier, error) {
	return scanSupplier(r.db.QueryRow(`SELECT `+supplierColumns+` FROM suppliers WHERE LOWER(name) = LOWER($1)`, name))
}

func (r *supplierRepository) GetSuppliers(search *string, page, pageSize int) ([]models.Supplier, int, error) {
	suppliers := []models.Supplier{}
	totalCount := 0

	query := `SELECT ` + supplierColumns + `, COUNT(*) OVER() AS total_count FROM suppliers`
	var args []interface{}
	argCount := 1
	if search != nil && *search != "" {
		query += fmt.Sprintf(" WHERE LOWER(name) LIKE $%d OR contact LIKE $%d", argCount, argCount+1)
		term := "%" + strings.ToLower(*search) + "%"
		args = append(args, term, term)
		argCount += 2
	}
	filtered, filterArgCount := query, len(args)
	query += fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, pageSize, offset(page, pageSize))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting suppliers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Supplier
		var email sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Contact, &email, &s.Balance, &s.CreatedAt, &s.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning supplier row: %v", ErrDatabaseError, err)
		}
		s.Email = nullStringPtr(email)
		suppliers = append(suppliers, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating suppliers: %v", ErrDatabaseError, err)
	}
	if len(suppliers) == 0 && page > 1 {
		if totalCount, err = countRows(r.db, filtered, args[:filterArgCount]); err != nil {
			return nil, 0, err
		}
	}
	return suppliers, totalCount, nil
}

func (r *supplierRepository) UpdateSupplier(executor SQLExecutor, supplier *models.Supplier) (*models.Supplier, error) {
	query := `UPDATE suppliers SET name = $1, contact = $2, email = $3, balance = $4, updated_at = $5 WHERE id = $6`
	supplier.UpdatedAt = time.Now().UTC()

	res, err := executor.Exec(query, supplier.Name, supplier.Contact, supplier.Email, supplier.Balance, supplier.UpdatedAt, supplier.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: supplier name '%s' already exists", ErrDuplicateKey, supplier.Name)
		}
		return nil, fmt.Errorf("%w: updating supplier %d: %v", ErrDatabaseError, supplier.ID, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: checking supplier update: %v", ErrDatabaseError, err)
	}
	return supplier, nil
}

func (r *supplierRepository) UpdateBalance(executor SQLExecutor, id int64, balance decimal.Decimal) error {
	res, err := executor.Exec(`UPDATE suppliers SET balance = $1, updated_at = $2 WHERE id = $3`, balance, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: updating balance of supplier %d: %v", ErrDatabaseError, id, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: checking supplier balance update: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *supplierRepository) DeleteSupplier(executor SQLExecutor, id int64) error {
	res, err := executor.Exec(`DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: supplier %d still has products", ErrForeignKey, id)
		}
		return fmt.Errorf("%w: deleting supplier %d: %v", ErrDatabaseError, id, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: checking supplier delete: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *supplierRepository) CountProducts(executor SQLExecutor, supplierID int64) (int, error) {
	if executor == nil {
		executor = r.db
	}
	var count int
	if err := executor.QueryRow(`SELECT COUNT(*) FROM products WHERE supplier_id = $1`, supplierID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting products of supplier %d: %v", ErrDatabaseError, supplierID, err)
	}
	return count, nil
}

func (r *supplierRepository) CreatePayment(executor SQLExecutor, payment *models.SupplierPayment) (*models.SupplierPayment, error) {
	query := `INSERT INTO supplier_payments (supplier_id, amount, balance_after, note, recorded_by_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	payment.CreatedAt = time.Now().UTC()

	err := executor.QueryRow(query,
		payment.SupplierID, payment.Amount, payment.BalanceAfter, payment.Note, payment.RecordedByID, payment.CreatedAt,
	).Scan(&payment.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: supplier %d not found", ErrNotFound, payment.SupplierID)
		}
		return nil, fmt.Errorf("%w: creating supplier payment: %v", ErrDatabaseError, err)
	}
	return payment, nil
}

func (r *supplierRepository) GetPayments(supplierID int64, page, pageSize int) ([]models.SupplierPayment, int, error) {
	payments := []models.SupplierPayment{}
	totalCount := 0

	query := `SELECT id, supplier_id, amount, balance_after, note, recorded_by_id, created_at, COUNT(*) OVER() AS total_count
	          FROM supplier_payments
	          WHERE supplier_id = $1
	          ORDER BY created_at DESC, id DESC
	          LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(query, supplierID, pageSize, offset(page, pageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting payments of supplier %d: %v", ErrDatabaseError, supplierID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.SupplierPayment
		var note sql.NullString
		var recordedBy sql.NullInt64
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.Amount, &p.BalanceAfter, &note, &recordedBy, &p.CreatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning supplier payment: %v", ErrDatabaseError, err)
		}
		p.Note = nullStringPtr(note)
		p.RecordedByID = nullInt64Ptr(recordedBy)
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating supplier payments: %v", ErrDatabaseError, err)
	}
	if len(payments) == 0 && page > 1 {
		if totalCount, err = countRows(r.db, `SELECT id FROM supplier_payments WHERE supplier_id = $1`, []interface{}{supplierID}); err != nil {
			return nil, 0, err
		}
	}
	return payments, totalCount, nil
}
