package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ims_backend/internal/database"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrAdminRoleTaken is returned when a write would create a second employer or manager.
	ErrAdminRoleTaken = errors.New("admin role already assigned")

	// ErrForeignKey is returned when a write references a missing row or a delete hits a referenced row.
	ErrForeignKey = errors.New("foreign key constraint violated")

	// ErrConflict is returned when a guarded update matched no row because the state changed.
	ErrConflict = errors.New("record state changed concurrently")
)

// SQLExecutor is satisfied by *database.DB and *database.Tx.
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor = database.Executor

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// isUniqueViolation recognises unique violations from lib/pq, pgx and modernc sqlite.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// violatedConstraint names the constraint behind a violation.
// SQLite only reports the table and column, so its lower-cased message is returned instead.
func violatedConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return strings.ToLower(err.Error())
}

// isAdminRoleViolation reports whether err comes from the single employer / single manager index.
func isAdminRoleViolation(err error) bool {
	constraint := violatedConstraint(err)
	return strings.Contains(constraint, "ux_employees_single_admin") || strings.Contains(constraint, "employees.role")
}

// isForeignKeyViolation recognises foreign key violations from lib/pq, pgx and modernc sqlite.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "foreign_key_violation"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

// expectOneRow turns a zero-row guarded update into ErrConflict.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// offset converts a 1-based page into a row offset.
func offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// countRows counts the rows a list query matches without paging.
// COUNT(*) OVER() has no row to report on when the requested page is past the end.
func countRows(db *database.DB, query string, args []interface{}) (int, error) {
	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM (`+query+`) AS matched`, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: counting rows: %v", ErrDatabaseError, err)
	}
	return total, nil
}

// moneyScale is the number of decimal places kept for amounts.
const moneyScale = 2

// money scans an amount rounded to cents.
// SQLite evaluates SUM over NUMERIC columns as REAL, which carries binary float error.
type money struct {
	dst *decimal.Decimal
}

func (m money) Scan(value interface{}) error {
	if err := m.dst.Scan(value); err != nil {
		return err
	}
	*m.dst = m.dst.Round(moneyScale)
	return nil
}
