package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ims_backend/internal/database"
	"ims_backend/internal/models"
)

// DayRepository defines the interface for sales day database operations.
type DayRepository interface {
	CreateDay(executor SQLExecutor, day *models.SalesDay) (*models.SalesDay, error)
	GetDayByID(id int64) (*models.SalesDay, error)
	GetDayByIDWith(executor SQLExecutor, id int64) (*models.SalesDay, error)
	GetDayByDate(executor SQLExecutor, date string) (*models.SalesDay, error)
	// GetOpenDay returns the single open day, locking it on PostgreSQL.
	GetOpenDay(executor SQLExecutor) (*models.SalesDay, error)
	GetDays(page, pageSize int) ([]models.SalesDay, int, error)
	CloseDay(executor SQLExecutor, id int64, closedByID int64, closedAt time.Time) error
	DeleteDay(executor SQLExecutor, id int64) error
	CountSales(executor SQLExecutor, dayID int64) (int, error)
	CountOpenCredits(executor SQLExecutor, dayID int64) (int, error)
}

type dayRepository struct {
	db *database.DB
}

// NewDayRepository creates a new instance of DayRepository.
func NewDayRepository(db *database.DB) DayRepository {
	return &dayRepository{db: db}
}

const daySelect = `SELECT d.id, d.date, d.is_open, d.opened_by_id, d.closed_by_id, d.opened_at, d.closed_at,
	        ob.name AS opened_by_name, cb.name AS closed_by_name
	      FROM sales_days d
	      LEFT JOIN employees ob ON d.opened_by_id = ob.id
	      LEFT JOIN employees cb ON d.closed_by_id = cb.id`

func scanDay(row scanner, extra ...interface{}) (*models.SalesDay, error) {
	var d models.SalesDay
	var openedBy, closedBy sql.NullInt64
	var openedByName, closedByName sql.NullString
	var closedAt sql.NullTime

	dest := []interface{}{&d.ID, &d.Date, &d.IsOpen, &openedBy, &closedBy, &d.OpenedAt, &closedAt, &openedByName, &closedByName}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning sales day: %v", ErrDatabaseError, err)
	}
	d.OpenedByID = nullInt64Ptr(openedBy)
	d.ClosedByID = nullInt64Ptr(closedBy)
	d.OpenedByName = nullStringPtr(openedByName)
	d.ClosedByName = nullStringPtr(closedByName)
	d.ClosedAt = nullTimePtr(closedAt)
	return &d, nil
}

func (r *dayRepository) CreateDay(executor SQLExecutor, day *models.SalesDay) (*models.SalesDay, error) {
	query := `INSERT INTO sales_days (date, is_open, opened_by_id, opened_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if day.OpenedAt.IsZero() {
		day.OpenedAt = time.Now().UTC()
	}
	err := executor.QueryRow(query, day.Date, day.IsOpen, day.OpenedByID, day.OpenedAt).Scan(&day.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a day for %s exists or another day is open", ErrDuplicateKey, day.Date)
		}
		return nil, fmt.Errorf("%w: creating sales day: %v", ErrDatabaseError, err)
	}
	return day, nil
}

func (r *dayRepository) GetDayByID(id int64) (*models.SalesDay, error) {
	return r.GetDayByIDWith(r.db, id)
}

func (r *dayRepository) GetDayByIDWith(executor SQLExecutor, id int64) (*models.SalesDay, error) {
	if executor == nil {
		executor = r.db
	}
	return scanDay(executor.QueryRow(daySelect+` WHERE d.id = $1`, id))
}

func (r *dayRepository) GetDayByDate(executor SQLExecutor, date string) (*models.SalesDay, error) {
	if executor == nil {
		executor = r.db
	}
	return scanDay(executor.QueryRow(daySelect+` WHERE d.date = $1`, date))
}

func (r *dayRepository) GetOpenDay(executor SQLExecutor) (*models.SalesDay, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT id, date, is_open, opened_by_id, closed_by_id, opened_at, closed_at, NULL, NULL
	          FROM sales_days WHERE is_open = TRUE` + r.db.ForUpdate()
	return scanDay(executor.QueryRow(query))
}

func (r *dayRepository) GetDays(page, pageSize int) ([]models.SalesDay, int, error) {
	days := []models.SalesDay{}
	totalCount := 0

	query := `SELECT d.id, d.date, d.is_open, d.opened_by_id, d.closed_by_id, d.opened_at, d.closed_at,
	            ob.name AS opened_by_name, cb.name AS closed_by_name, COUNT(*) OVER() AS total_count
	          FROM sales_days d
	          LEFT JOIN employees ob ON d.opened_by_id = ob.id
	          LEFT JOIN employees cb ON d.closed_by_id = cb.id
	          ORDER BY d.date DESC
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(query, pageSize, offset(page, pageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting sales days: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		day, err := scanDay(rows, &totalCount)
		if err != nil {
			return nil, 0, err
		}
		days = append(days, *day)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sales days: %v", ErrDatabaseError, err)
	}
	if len(days) == 0 && page > 1 {
		if totalCount, err = countRows(r.db, `SELECT id FROM sales_days`, nil); err != nil {
			return nil, 0, err
		}
	}
	return days, totalCount, nil
}

// CloseDay only closes a day that is still open; otherwise it reports ErrConflict.
func (r *dayRepository) CloseDay(executor SQLExecutor, id int64, closedByID int64, closedAt time.Time) error {
	res, err := executor.Exec(`UPDATE sales_days SET is_open = FALSE, closed_by_id = $1, closed_at = $2 WHERE id = $3 AND is_open = TRUE`,
		closedByID, closedAt, id)
	if err != nil {
		return fmt.Errorf("%w: closing sales day %d: %v", ErrDatabaseError, id, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return fmt.Errorf("%w: sales day %d is not open", ErrConflict, id)
		}
		return fmt.Errorf("%w: checking day close: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *dayRepository) DeleteDay(executor SQLExecutor, id int64) error {
	res, err := executor.Exec(`DELETE FROM sales_days WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: sales day %d has sales", ErrForeignKey, id)
		}
		return fmt.Errorf("%w: deleting sales day %d: %v", ErrDatabaseError, id, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: checking day delete: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *dayRepository) CountSales(executor SQLExecutor, dayID int64) (int, error) {
	if executor == nil {
		executor = r.db
	}
	var count int
	if err := executor.QueryRow(`SELECT COUNT(*) FROM sales WHERE day_id = $1`, dayID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting sales of day %d: %v", ErrDatabaseError, dayID, err)
	}
	return count, nil
}

// CountOpenCredits counts uncleared credits attached to sales of the day.
func (r *dayRepository) CountOpenCredits(executor SQLExecutor, dayID int64) (int, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT COUNT(*) FROM credits c JOIN sales s ON c.sale_id = s.id WHERE s.day_id = $1 AND c.status = $2`
	var count int
	if err := executor.QueryRow(query, dayID, models.CreditOpen).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting open credits of day %d: %v", ErrDatabaseError, dayID, err)
	}
	return count, nil
}
