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

// CreditRepository defines the interface for credit database operations.
type CreditRepository interface {
	CreateCredit(executor SQLExecutor, credit *models.Credit) (*models.Credit, error)
	GetCreditByID(id int64) (*models.Credit, error)
	GetCreditForUpdate(executor SQLExecutor, id int64) (*models.Credit, error)
	GetCreditBySaleID(executor SQLExecutor, saleID int64) (*models.Credit, error)
	GetCredits(filters models.CreditFilters) ([]models.Credit, int, error)
	UpdateAmount(executor SQLExecutor, id int64, amount decimal.Decimal) error
	// ClearCredit moves an open credit to cleared; a credit that is no longer open yields ErrConflict.
	ClearCredit(executor SQLExecutor, id int64, paymentMethod string, clearedAt time.Time) error
	DeleteCredit(executor SQLExecutor, id int64) error
}

type creditRepository struct {
	db *database.DB
}

// NewCreditRepository creates a new instance of CreditRepository.
func NewCreditRepository(db *database.DB) CreditRepository {
	return &creditRepository{db: db}
}

const creditSelect = `SELECT c.id, c.sale_id, c.employee_id, e.name, s.customer_name, s.date, c.amount, c.status,
	        c.payment_method, c.created_at, c.updated_at, c.cleared_at
	      FROM credits c
	      JOIN sales s ON c.sale_id = s.id
	      JOIN employees e ON c.employee_id = e.id`

func scanCredit(row scanner, extra ...interface{}) (*models.Credit, error) {
	var c models.Credit
	var customer, method sql.NullString
	var clearedAt sql.NullTime

	dest := []interface{}{
		&c.ID, &c.SaleID, &c.EmployeeID, &c.EmployeeName, &customer, &c.SaleDate, &c.Amount, &c.Status,
		&method, &c.CreatedAt, &c.UpdatedAt, &clearedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning credit: %v", ErrDatabaseError, err)
	}
	c.CustomerName = nullStringPtr(customer)
	c.PaymentMethod = nullStringPtr(method)
	c.ClearedAt = nullTimePtr(clearedAt)
	return &c, nil
}

func (r *creditRepository) CreateCredit(executor SQLExecutor, credit *models.Credit) (*models.Credit, error) {
	query := `INSERT INTO credits (sale_id, employee_id, amount, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	now := time.Now().UTC()
	credit.CreatedAt = now
	credit.UpdatedAt = now
	if credit.Status == "" {
		credit.Status = models.CreditOpen
	}

	err := executor.QueryRow(query, credit.SaleID, credit.EmployeeID, credit.Amount, credit.Status, now, now).Scan(&credit.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: sale %d already has a credit", ErrDuplicateKey, credit.SaleID)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: credit references a missing sale or employee", ErrForeignKey)
		}
		return nil, fmt.Errorf("%w: creating credit: %v", ErrDatabaseError, err)
	}
	return credit, nil
}

func (r *creditRepository) GetCreditByID(id int64) (*models.Credit, error) {
	return scanCredit(r.db.QueryRow(creditSelect+` WHERE c.id = $1`, id))
}

// GetCreditForUpdate loads the credit row (locked on PostgreSQL) through executor.
func (r *creditRepository) GetCreditForUpdate(executor SQLExecutor, id int64) (*models.Credit, error) {
	query := `SELECT id, sale_id, employee_id, '', NULL, '', amount, status, payment_method, created_at, updated_at, cleared_at
	          FROM credits WHERE id = $1` + r.db.ForUpdate()
	return scanCredit(executor.QueryRow(query, id))
}

func (r *creditRepository) GetCreditBySaleID(executor SQLExecutor, saleID int64) (*models.Credit, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT id, sale_id, employee_id, '', NULL, '', amount, status, payment_method, created_at, updated_at, cleared_at
	          FROM credits WHERE sale_id = $1` + r.db.ForUpdate()
	return scanCredit(executor.QueryRow(query, saleID))
}

func (r *creditRepository) GetCredits(filters models.CreditFilters) ([]models.Credit, int, error) {
	credits := []models.Credit{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(strings.Replace(creditSelect, "c.cleared_at", "c.cleared_at, COUNT(*) OVER() AS total_count", 1))

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("c.employee_id = $%d", argCount))
		args = append(args, *filters.EmployeeID)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	filtered, filterArgCount := queryBuilder.String(), len(args)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY c.created_at DESC, c.id DESC LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, offset(filters.Page, filters.PageSize))

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting credits: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		credit, err := scanCredit(rows, &totalCount)
		if err != nil {
			return nil, 0, err
		}
		credits = append(credits, *credit)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating credits: %v", ErrDatabaseError, err)
	}
	if len(credits) == 0 && filters.Page > 1 {
		if totalCount, err = countRows(r.db, filtered, args[:filterArgCount]); err != nil {
			return nil, 0, err
		}
	}
	return credits, totalCount, nil
}

func (r *creditRepository) UpdateAmount(executor SQLExecutor, id int64, amount decimal.Decimal) error {
	res, err := executor.Exec(`UPDATE credits SET amount = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		amount, time.Now().UTC(), id, models.CreditOpen)
	if err != nil {
		return fmt.Errorf("%w: updating amount of credit %d: %v", ErrDatabaseError, id, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return fmt.Errorf("%w: credit %d is not open", ErrConflict, id)
		}
		return fmt.Errorf("%w: checking credit amount update: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *creditRepository) ClearCredit(executor SQLExecutor, id int64, paymentMethod string, clearedAt time.Time) error {
	query := `UPDATE credits SET status = $1, payment_method = $2, cleared_at = $3, updated_at = $4
	          WHERE id = $5 AND status = $6`
	res, err := executor.Exec(query, models.CreditCleared, paymentMethod, clearedAt, clearedAt, id, models.CreditOpen)
	if err != nil {
		return fmt.Errorf("%w: clearing credit %d: %v", ErrDatabaseError, id, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return fmt.Errorf("%w: credit %d is not open", ErrConflict, id)
		}
		return fmt.Errorf("%w: checking credit clear: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *creditRepository) DeleteCredit(executor SQLExecutor, id int64) error {
	res, err := executor.Exec(`DELETE FROM credits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting credit %d: %v", ErrDatabaseError, id, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: checking credit delete: %v", ErrDatabaseError, err)
	}
	return nil
}
