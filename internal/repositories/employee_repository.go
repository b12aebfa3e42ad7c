package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ims_backend/internal/database"
	"ims_backend/internal/models"
)

// EmployeeRepository defines the interface for employee-related database operations.
type EmployeeRepository interface {
	CreateEmployee(executor SQLExecutor, employee *models.Employee) (*models.Employee, error)
	GetEmployeeByID(id int64) (*models.Employee, error)
	GetEmployeeByPhone(phone string) (*models.Employee, error)
	GetEmployees(filters models.EmployeeFilters) ([]models.Employee, int, error)
	UpdateEmployee(executor SQLExecutor, employee *models.Employee) (*models.Employee, error)
	UpdatePassword(executor SQLExecutor, id int64, passwordHash string) error
	DeleteEmployee(executor SQLExecutor, id int64) error
	CountEmployees(executor SQLExecutor) (int, error)
	CountByRole(executor SQLExecutor, role string, excludeID int64) (int, error)
	GetFirstEmployerID() (int64, error)
	HasSalesOrCredits(id int64) (bool, error)
}

type employeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new instance of EmployeeRepository.
func NewEmployeeRepository(db *database.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `id, name, role, phone, status, password_hash, created_at, updated_at`

func scanEmployee(row scanner) (*models.Employee, error) {
	var e models.Employee
	err := row.Scan(&e.ID, &e.Name, &e.Role, &e.Phone, &e.Status, &e.PasswordHash, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning employee: %v", ErrDatabaseError, err)
	}
	return &e, nil
}

func (r *employeeRepository) CreateEmployee(executor SQLExecutor, employee *models.Employee) (*models.Employee, error) {
	query := `INSERT INTO employees (name, role, phone, status, password_hash, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	now := time.Now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	err := executor.QueryRow(query,
		employee.Name, employee.Role, employee.Phone, employee.Status, employee.PasswordHash, now, now,
	).Scan(&employee.ID)
	if err != nil {
		if isUniqueViolation(err) {
			if isAdminRoleViolation(err) {
				return nil, fmt.Errorf("%w: role %s", ErrAdminRoleTaken, employee.Role)
			}
			return nil, fmt.Errorf("%w: employee phone %s already registered", ErrDuplicateKey, employee.Phone)
		}
		return nil, fmt.Errorf("%w: creating employee: %v", ErrDatabaseError, err)
	}
	return employee, nil
}

func (r *employeeRepository) GetEmployeeByID(id int64) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	return scanEmployee(r.db.QueryRow(query, id))
}

func (r *employeeRepository) GetEmployeeByPhone(phone string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE phone = $1`
	return scanEmployee(r.db.QueryRow(query, phone))
}

func (r *employeeRepository) GetEmployees(filters models.EmployeeFilters) ([]models.Employee, int, error) {
	employees := []models.Employee{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + employeeColumns + `, COUNT(*) OVER() AS total_count FROM employees`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Role != nil && *filters.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argCount))
		args = append(args, *filters.Role)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR phone LIKE $%d)", argCount, argCount+1))
		term := "%" + strings.ToLower(*filters.Search) + "%"
		args = append(args, term, term)
		argCount += 2
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	filtered, filterArgCount := queryBuilder.String(), len(args)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, offset(filters.Page, filters.PageSize))

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting employees: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Role, &e.Phone, &e.Status, &e.PasswordHash, &e.CreatedAt, &e.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning employee row: %v", ErrDatabaseError, err)
		}
		employees = append(employees, e)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating employees: %v", ErrDatabaseError, err)
	}
	if len(employees) == 0 && filters.Page > 1 {
		if totalCount, err = countRows(r.db, filtered, args[:filterArgCount]); err != nil {
			return nil, 0, err
		}
	}
	return employees, totalCount, nil
}

func (r *employeeRepository) UpdateEmployee(executor SQLExecutor, employee *models.Employee) (*models.Employee, error) {
	query := `UPDATE employees SET name = $1, role = $2, phone = $3, status = $4, password_hash = $5, updated_at = $6
	          WHERE id = $7`
	employee.UpdatedAt = time.Now().UTC()

	res, err := executor.Exec(query,
		employee.Name, employee.Role, employee.Phone, employee.Status, employee.PasswordHash, employee.UpdatedAt, employee.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if isAdminRoleViolation(err) {
				return nil, fmt.Errorf("%w: role %s", ErrAdminRoleTaken, employee.Role)
			}
			return nil, fmt.Errorf("%w: employee phone %s already registered", ErrDuplicateKey, employee.Phone)
		}
		return nil, fmt.Errorf("%w: updating employee %d: %v", ErrDatabaseError, employee.ID, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: checking employee update: %v", ErrDatabaseError, err)
	}
	return employee, nil
}

func (r *employeeRepository) UpdatePassword(executor SQLExecutor, id int64, passwordHash string) error {
	res, err := executor.Exec(`UPDATE employees SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: updating password for employee %d: %v", ErrDatabaseError, id, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: checking password update: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *employeeRepository) DeleteEmployee(executor SQLExecutor, id int64) error {
	res, err := executor.Exec(`DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: employee %d is referenced by other records", ErrForeignKey, id)
		}
		return fmt.Errorf("%w: deleting employee %d: %v", ErrDatabaseError, id, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: checking employee delete: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *employeeRepository) CountEmployees(executor SQLExecutor) (int, error) {
	if executor == nil {
		executor = r.db
	}
	var count int
	if err := executor.QueryRow(`SELECT COUNT(*) FROM employees`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting employees: %v", ErrDatabaseError, err)
	}
	return count, nil
}

// CountByRole counts employees holding role, ignoring excludeID (pass 0 to count all).
func (r *employeeRepository) CountByRole(executor SQLExecutor, role string, excludeID int64) (int, error) {
	if executor == nil {
		executor = r.db
	}
	var count int
	err := executor.QueryRow(`SELECT COUNT(*) FROM employees WHERE role = $1 AND id <> $2`, role, excludeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting %s employees: %v", ErrDatabaseError, role, err)
	}
	return count, nil
}

// GetFirstEmployerID returns the ID of the oldest employer account.
func (r *employeeRepository) GetFirstEmployerID() (int64, error) {
	var id int64
	err := r.db.QueryRow(`SELECT id FROM employees WHERE role = $1 ORDER BY id LIMIT 1`, models.RoleEmployer).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: getting first employer: %v", ErrDatabaseError, err)
	}
	return id, nil
}

func (r *employeeRepository) HasSalesOrCredits(id int64) (bool, error) {
	query := `SELECT
	            (SELECT COUNT(*) FROM sales WHERE employee_id = $1) +
	            (SELECT COUNT(*) FROM credits WHERE employee_id = $2)`
	var count int
	if err := r.db.QueryRow(query, id, id).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: checking activity of employee %d: %v", ErrDatabaseError, id, err)
	}
	return count > 0, nil
}
