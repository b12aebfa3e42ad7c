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

// CategoryRepository defines the interface for product category database operations.
type CategoryRepository interface {
	CreateCategory(executor SQLExecutor, category *models.Category) (*models.Category, error)
	GetCategoryByID(id int64) (*models.Category, error)
	GetCategoryByName(name string) (*models.Category, error)
	GetCategories(search *string, page, pageSize int) ([]models.Category, int, error)
	UpdateCategory(executor SQLExecutor, category *models.Category) (*models.Category, error)
	DeleteCategory(executor SQLExecutor, id int64) error
	CountProducts(executor SQLExecutor, categoryID int64) (int, error)
}

type categoryRepository struct {
	db *database.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository.
func NewCategoryRepository(db *database.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning category: %v", ErrDatabaseError, err)
	}
	return &c, nil
}

func (r *categoryRepository) CreateCategory(executor SQLExecutor, category *models.Category) (*models.Category, error) {
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	err := executor.QueryRow(`INSERT INTO categories (name, created_at, updated_at) VALUES ($1, $2, $3) RETURNING id`,
		category.Name, now, now).Scan(&category.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: category name '%s' already exists", ErrDuplicateKey, category.Name)
		}
		return nil, fmt.Errorf("%w: creating category: %v", ErrDatabaseError, err)
	}
	return category, nil
}

func (r *categoryRepository) GetCategoryByID(id int64) (*models.Category, error) {
	return scanCategory(r.db.QueryRow(`SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`, id))
}

// GetCategoryByName matches case-insensitively.
func (r *categoryRepository) GetCategoryByName(name string) (*models.Category, error) {
	return scanCategory(r.db.QueryRow(`SELECT id, name, created_at, updated_at FROM categories WHERE LOWER(name) = LOWER($1)`, name))
}

func (r *categoryRepository) GetCategories(search *string, page, pageSize int) ([]models.Category, int, error) {
	categories := []models.Category{}
	totalCount := 0

	query := `SELECT id, name, created_at, updated_at, COUNT(*) OVER() AS total_count FROM categories`
	var args []interface{}
	argCount := 1
	if search != nil && *search != "" {
		query += fmt.Sprintf(" WHERE LOWER(name) LIKE $%d", argCount)
		args = append(args, "%"+strings.ToLower(*search)+"%")
		argCount++
	}
	filtered, filterArgCount := query, len(args)
	query += fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, pageSize, offset(page, pageSize))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning category row: %v", ErrDatabaseError, err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating categories: %v", ErrDatabaseError, err)
	}
	if len(categories) == 0 && page > 1 {
		if totalCount, err = countRows(r.db, filtered, args[:filterArgCount]); err != nil {
			return nil, 0, err
		}
	}
	return categories, totalCount, nil
}

func (r *categoryRepository) UpdateCategory(executor SQLExecutor, category *models.Category) (*models.Category, error) {
	category.UpdatedAt = time.Now().UTC()
	res, err := executor.Exec(`UPDATE categories SET name = $1, updated_at = $2 WHERE id = $3`,
		category.Name, category.UpdatedAt, category.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: category name '%s' already exists", ErrDuplicateKey, category.Name)
		}
		return nil, fmt.Errorf("%w: updating category %d: %v", ErrDatabaseError, category.ID, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: checking category update: %v", ErrDatabaseError, err)
	}
	return r.GetCategoryByIDWith(executor, category.ID)
}

// GetCategoryByIDWith reads through executor so a transaction sees its own writes.
func (r *categoryRepository) GetCategoryByIDWith(executor SQLExecutor, id int64) (*models.Category, error) {
	return scanCategory(executor.QueryRow(`SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`, id))
}

func (r *categoryRepository) DeleteCategory(executor SQLExecutor, id int64) error {
	res, err := executor.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: category %d still has products", ErrForeignKey, id)
		}
		return fmt.Errorf("%w: deleting category %d: %v", ErrDatabaseError, id, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: checking category delete: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *categoryRepository) CountProducts(executor SQLExecutor, categoryID int64) (int, error) {
	if executor == nil {
		executor = r.db
	}
	var count int
	if err := executor.QueryRow(`SELECT COUNT(*) FROM products WHERE category_id = $1`, categoryID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting products of category %d: %v", ErrDatabaseError, categoryID, err)
	}
	return count, nil
}
