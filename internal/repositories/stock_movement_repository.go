package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ims_backend/internal/database"
	"ims_backend/internal/models"

	"github.com/shopspring/decimal"
)

// StockMovementRepository defines the interface for stock movement database operations.
type StockMovementRepository interface {
	CreateMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error)
	GetMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error)
}

type stockMovementRepository struct {
	db *database.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *database.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error) {
	query := `INSERT INTO stock_movements
	          (product_id, employee_id, sale_id, movement_type, quantity_changed, stock_after, unit_cost, note, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}

	var unitCost interface{}
	if movement.UnitCost != nil {
		unitCost = *movement.UnitCost
	}

	err := executor.QueryRow(query,
		movement.ProductID, movement.EmployeeID, movement.SaleID, movement.MovementType, movement.QuantityChanged,
		movement.StockAfter, unitCost, movement.Note, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating stock movement: %v", ErrDatabaseError, err)
	}
	return movement.ID, nil
}

func (r *stockMovementRepository) GetMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error) {
	movements := []models.StockMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    sm.id, sm.product_id, p.name, sm.employee_id, e.name, sm.sale_id, sm.movement_type,
	    sm.quantity_changed, sm.stock_after, sm.unit_cost, sm.note, sm.created_at,
	    COUNT(*) OVER() AS total_count
	  FROM stock_movements sm
	  JOIN products p ON sm.product_id = p.id
	  LEFT JOIN employees e ON sm.employee_id = e.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("sm.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.MovementType != nil && *filters.MovementType != "" {
		conditions = append(conditions, fmt.Sprintf("sm.movement_type = $%d", argCount))
		args = append(args, *filters.MovementType)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	filtered, filterArgCount := queryBuilder.String(), len(args)
	queryBuilder.WriteString(" ORDER BY sm.created_at DESC, sm.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, offset(filters.Page, filters.PageSize))

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting stock movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.StockMovement
		var employeeID, saleID sql.NullInt64
		var employeeName, note sql.NullString
		var unitCost decimal.NullDecimal

		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.ProductName, &employeeID, &employeeName, &saleID, &m.MovementType,
			&m.QuantityChanged, &m.StockAfter, &unitCost, &note, &m.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}

		m.EmployeeID = nullInt64Ptr(employeeID)
		m.EmployeeName = nullStringPtr(employeeName)
		m.SaleID = nullInt64Ptr(saleID)
		m.Note = nullStringPtr(note)
		if unitCost.Valid {
			cost := unitCost.Decimal
			m.UnitCost = &cost
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock movements: %v", ErrDatabaseError, err)
	}

	if len(movements) == 0 && filters.Page > 1 {
		if totalCount, err = countRows(r.db, filtered, args[:filterArgCount]); err != nil {
			return nil, 0, err
		}
	}
	return movements, totalCount, nil
}
