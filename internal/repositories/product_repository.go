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

// ProductRepository defines the interface for product and stock database operations.
type ProductRepository interface {
	CreateProduct(executor SQLExecutor, product *models.Product) (*models.Product, error)
	GetProductByID(id int64) (*models.Product, error)
	GetProductForUpdate(executor SQLExecutor, id int64) (*models.Product, error)
	GetProductBySKU(sku string) (*models.Product, error)
	GetProducts(filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(executor SQLExecutor, product *models.Product) (*models.Product, error)
	DeleteProduct(executor SQLExecutor, id int64) error
	CountSaleItems(executor SQLExecutor, productID int64) (int, error)

	// DecrementStock takes quantity units, failing with ErrConflict when stock is insufficient.
	DecrementStock(executor SQLExecutor, productID int64, quantity int) (int, error)
	IncrementStock(executor SQLExecutor, productID int64, quantity int) (int, error)
}

type productRepository struct {
	db *database.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *database.DB) ProductRepository {
	return &productRepository{db: db}
}

const productSelect = `SELECT p.id, p.name, p.sku, p.price, p.stock, p.category_id, p.supplier_id, p.image_url,
	        p.created_at, p.updated_at, c.name AS category_name, s.name AS supplier_name
	      FROM products p
	      LEFT JOIN categories c ON p.category_id = c.id
	      LEFT JOIN suppliers s ON p.supplier_id = s.id`

func scanProduct(row scanner, extra ...interface{}) (*models.Product, error) {
	var p models.Product
	var categoryID, supplierID sql.NullInt64
	var imageURL, categoryName, supplierName sql.NullString

	dest := []interface{}{
		&p.ID, &p.Name, &p.SKU, &p.Price, &p.Stock, &categoryID, &supplierID, &imageURL,
		&p.CreatedAt, &p.UpdatedAt, &categoryName, &supplierName,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
	}

	p.CategoryID = nullInt64Ptr(categoryID)
	p.SupplierID = nullInt64Ptr(supplierID)
	p.ImageURL = nullStringPtr(imageURL)
	p.CategoryName = nullStringPtr(categoryName)
	p.SupplierName = nullStringPtr(supplierName)
	return &p, nil
}

func (r *productRepository) CreateProduct(executor SQLExecutor, product *models.Product) (*models.Product, error) {
	query := `INSERT INTO products (name, sku, price, stock, category_id, supplier_id, image_url, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	now := time.Now().UTC()

	err := executor.QueryRow(query,
		product.Name, product.SKU, product.Price, product.Stock, product.CategoryID, product.SupplierID,
		product.ImageURL, now, now,
	).Scan(&product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: product SKU '%s' already exists", ErrDuplicateKey, product.SKU)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: category or supplier of product '%s' does not exist", ErrForeignKey, product.Name)
		}
		return nil, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return r.GetProductForUpdate(executor, product.ID)
}

func (r *productRepository) GetProductByID(id int64) (*models.Product, error) {
	return scanProduct(r.db.QueryRow(productSelect+` WHERE p.id = $1`, id))
}

// GetProductForUpdate reads through executor and, on PostgreSQL, locks the product row.
func (r *productRepository) GetProductForUpdate(executor SQLExecutor, id int64) (*models.Product, error) {
	query := `SELECT p.id, p.name, p.sku, p.price, p.stock, p.category_id, p.supplier_id, p.image_url,
	            p.created_at, p.updated_at, NULL, NULL
	          FROM products p WHERE p.id = $1` + r.db.ForUpdate()
	product, err := scanProduct(executor.QueryRow(query, id))
	if err != nil {
		return nil, err
	}
	return product, nil
}

// GetProductBySKU matches case-insensitively.
func (r *productRepository) GetProductBySKU(sku string) (*models.Product, error) {
	return scanProduct(r.db.QueryRow(productSelect+` WHERE LOWER(p.sku) = LOWER($1)`, sku))
}

func (r *productRepository) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(strings.Replace(productSelect, "s.name AS supplier_name", "s.name AS supplier_name, COUNT(*) OVER() AS total_count", 1))

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argCount))
		args = append(args, *filters.CategoryID)
		argCount++
	}
	if filters.SupplierID != nil {
		conditions = append(conditions, fmt.Sprintf("p.supplier_id = $%d", argCount))
		args = append(args, *filters.SupplierID)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(p.name) LIKE $%d OR LOWER(p.sku) LIKE $%d)", argCount, argCount+1))
		term := "%" + strings.ToLower(*filters.Search) + "%"
		args = append(args, term, term)
		argCount += 2
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	filtered, filterArgCount := queryBuilder.String(), len(args)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY p.name LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, offset(filters.Page, filters.PageSize))

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows, &totalCount)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *product)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating products: %v", ErrDatabaseError, err)
	}
	if len(products) == 0 && filters.Page > 1 {
		if totalCount, err = countRows(r.db, filtered, args[:filterArgCount]); err != nil {
			return nil, 0, err
		}
	}
	return products, totalCount, nil
}

func (r *productRepository) UpdateProduct(executor SQLExecutor, product *models.Product) (*models.Product, error) {
	query := `UPDATE products
	          SET name = $1, sku = $2, price = $3, stock = $4, category_id = $5, supplier_id = $6, image_url = $7, updated_at = $8
	          WHERE id = $9`
	res, err := executor.Exec(query,
		product.Name, product.SKU, product.Price, product.Stock, product.CategoryID, product.SupplierID,
		product.ImageURL, time.Now().UTC(), product.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: product SKU '%s' already exists", ErrDuplicateKey, product.SKU)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: category or supplier of product %d does not exist", ErrForeignKey, product.ID)
		}
		return nil, fmt.Errorf("%w: updating product %d: %v", ErrDatabaseError, product.ID, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: checking product update: %v", ErrDatabaseError, err)
	}
	return r.GetProductForUpdate(executor, product.ID)
}

func (r *productRepository) DeleteProduct(executor SQLExecutor, id int64) error {
	res, err := executor.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: product %d has been sold", ErrForeignKey, id)
		}
		return fmt.Errorf("%w: deleting product %d: %v", ErrDatabaseError, id, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: checking product delete: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *productRepository) CountSaleItems(executor SQLExecutor, productID int64) (int, error) {
	if executor == nil {
		executor = r.db
	}
	var count int
	if err := executor.QueryRow(`SELECT COUNT(*) FROM sale_items WHERE product_id = $1`, productID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting sale items of product %d: %v", ErrDatabaseError, productID, err)
	}
	return count, nil
}

func (r *productRepository) DecrementStock(executor SQLExecutor, productID int64, quantity int) (int, error) {
	res, err := executor.Exec(`UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3 AND stock >= $4`,
		quantity, time.Now().UTC(), productID, quantity)
	if err != nil {
		return 0, fmt.Errorf("%w: decrementing stock of product %d: %v", ErrDatabaseError, productID, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return 0, fmt.Errorf("%w: product %d has fewer than %d units", ErrConflict, productID, quantity)
		}
		return 0, fmt.Errorf("%w: checking stock decrement: %v", ErrDatabaseError, err)
	}
	return r.currentStock(executor, productID)
}

func (r *productRepository) IncrementStock(executor SQLExecutor, productID int64, quantity int) (int, error) {
	res, err := executor.Exec(`UPDATE products SET stock = stock + $1, updated_at = $2 WHERE id = $3`,
		quantity, time.Now().UTC(), productID)
	if err != nil {
		return 0, fmt.Errorf("%w: incrementing stock of product %d: %v", ErrDatabaseError, productID, err)
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, ErrConflict) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: checking stock increment: %v", ErrDatabaseError, err)
	}
	return r.currentStock(executor, productID)
}

func (r *productRepository) currentStock(executor SQLExecutor, productID int64) (int, error) {
	var stock int
	if err := executor.QueryRow(`SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock); err != nil {
		return 0, fmt.Errorf("%w: reading stock of product %d: %v", ErrDatabaseError, productID, err)
	}
	return stock, nil
}
