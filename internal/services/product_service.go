package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"ims_backend/internal/models"
	"ims_backend/internal/repositories"
	"ims_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrSKUExists         = errors.New("product SKU already exists")
	ErrProductInUse      = errors.New("product has been sold")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CreateProductRequest DTO
type CreateProductRequest struct {
	Name       string          `json:"name" binding:"required"`
	SKU        string          `json:"sku" binding:"required"`
	Price      decimal.Decimal `json:"price" binding:"required"`
	Stock      int             `json:"stock"`
	CategoryID *int64          `json:"category_id"`
	SupplierID *int64          `json:"supplier_id"`
	ImageURL   *string         `json:"image_url"`
}

// UpdateProductRequest DTO. Nil fields are left unchanged.
type UpdateProductRequest struct {
	Name       *string          `json:"name"`
	SKU        *string          `json:"sku"`
	Price      *decimal.Decimal `json:"price"`
	Stock      *int             `json:"stock"`
	CategoryID *int64           `json:"category_id"`
	SupplierID *int64           `json:"supplier_id"`
	ImageURL   *string          `json:"image_url"`
}

// RestockRequest DTO
type RestockRequest struct {
	Quantity int              `json:"quantity" binding:"required,gt=0"`
	UnitCost *decimal.Decimal `json:"unit_cost"`
	Note     *string          `json:"note"`
}

// ProductService manages products, their stock and the stock movement audit trail.
type ProductService interface {
	CreateProduct(actor Actor, req CreateProductRequest) (*models.Product, error)
	GetProductByID(id int64) (*models.Product, error)
	GetProducts(filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(actor Actor, id int64, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(id int64) error
	// Restock adds stock and, when a unit cost is given, grows the supplier's balance.
	Restock(actor Actor, id int64, req RestockRequest) (*models.Product, error)
	GetStockMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error)
}

type productService struct {
	productRepo  repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
	supplierRepo repositories.SupplierRepository
	movementRepo repositories.StockMovementRepository
	db           TxRunner
}

// NewProductService creates a new instance of ProductService.
func NewProductService(
	pr repositories.ProductRepository,
	cr repositories.CategoryRepository,
	sr repositories.SupplierRepository,
	mr repositories.StockMovementRepository,
	db TxRunner,
) ProductService {
	return &productService{
		productRepo:  pr,
		categoryRepo: cr,
		supplierRepo: sr,
		movementRepo: mr,
		db:           db,
	}
}

func (s *productService) validate(p *models.Product) error {
	p.Name = utils.TitleCase(p.Name)
	if n := utf8.RuneCountInString(p.Name); n < 2 || n > 150 {
		return validationError("product name must be between 2 and 150 characters")
	}
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	if n := utf8.RuneCountInString(p.SKU); n < 2 || n > 50 {
		return validationError("SKU must be between 2 and 50 characters")
	}
	if !p.Price.IsPositive() || p.Price.GreaterThan(models.MaxAmount) {
		return validationError("price must be greater than 0 and at most %s", models.MaxAmount.String())
	}
	if p.Stock < 0 {
		return validationError("stock cannot be negative")
	}

	existing, err := s.productRepo.GetProductBySKU(p.SKU)
	if err == nil && existing.ID != p.ID {
		return fmt.Errorf("%w: %s", ErrSKUExists, p.SKU)
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to check SKU: %w", err)
	}

	if p.CategoryID != nil {
		if _, err := s.categoryRepo.GetCategoryByID(*p.CategoryID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("failed to check category: %w", err)
		}
	}
	if p.SupplierID != nil {
		if _, err := s.supplierRepo.GetSupplierByID(*p.SupplierID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrSupplierNotFound
			}
			return fmt.Errorf("failed to check supplier: %w", err)
		}
	}
	return nil
}

func mapProductWriteError(err error, sku string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrProductNotFound
	case errors.Is(err, repositories.ErrDuplicateKey):
		return fmt.Errorf("%w: %s", ErrSKUExists, sku)
	case errors.Is(err, repositories.ErrForeignKey):
		return validationError("category or supplier does not exist")
	}
	return err
}

func (s *productService) CreateProduct(actor Actor, req CreateProductRequest) (*models.Product, error) {
	product := &models.Product{
		Name:       req.Name,
		SKU:        req.SKU,
		Price:      req.Price,
		Stock:      req.Stock,
		CategoryID: req.CategoryID,
		SupplierID: req.SupplierID,
		ImageURL:   trimmedOrNil(req.ImageURL),
	}
	if err := s.validate(product); err != nil {
		return nil, err
	}

	var created *models.Product
	err := s.db.InTx(func(exec repositories.SQLExecutor) error {
		var err error
		created, err = s.productRepo.CreateProduct(exec, product)
		if err != nil {
			return mapProductWriteError(err, product.SKU)
		}
		if created.Stock > 0 {
			return s.recordMovement(exec, &models.StockMovement{
				ProductID:       created.ID,
				EmployeeID:      &actor.ID,
				MovementType:    models.MovementAdjustment,
				QuantityChanged: created.Stock,
				StockAfter:      created.Stock,
				Note:            utils.NewNullString("Opening stock"),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProductByID(created.ID)
}

func (s *productService) GetProductByID(id int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return product, nil
}

func (s *productService) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	products, total, err := s.productRepo.GetProducts(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (s *productService) UpdateProduct(actor Actor, id int64, req UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetProductByID(id)
	if err != nil {
		return nil, err
	}
	previousStock := product.Stock

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.SKU != nil {
		product.SKU = *req.SKU
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.SupplierID != nil {
		product.SupplierID = req.SupplierID
	}
	if req.ImageURL != nil {
		product.ImageURL = trimmedOrNil(req.ImageURL)
	}
	if err := s.validate(product); err != nil {
		return nil, err
	}

	err = s.db.InTx(func(exec repositories.SQLExecutor) error {
		current, err := s.productRepo.GetProductForUpdate(exec, id)
		if err != nil {
			return mapProductWriteError(err, product.SKU)
		}
		previousStock = current.Stock
		if _, err := s.productRepo.UpdateProduct(exec, product); err != nil {
			return mapProductWriteError(err, product.SKU)
		}
		if delta := product.Stock - previousStock; delta != 0 {
			return s.recordMovement(exec, &models.StockMovement{
				ProductID:       id,
				EmployeeID:      &actor.ID,
				MovementType:    models.MovementAdjustment,
				QuantityChanged: delta,
				StockAfter:      product.Stock,
				Note:            utils.NewNullString("Manual stock adjustment"),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProductByID(id)
}

func (s *productService) DeleteProduct(id int64) error {
	return s.db.InTx(func(exec repositories.SQLExecutor) error {
		count, err := s.productRepo.CountSaleItems(exec, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: it appears on %d sale items", ErrProductInUse, count)
		}
		err = s.productRepo.DeleteProduct(exec, id)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return ErrProductNotFound
		case errors.Is(err, repositories.ErrForeignKey):
			return ErrProductInUse
		}
		return err
	})
}

func (s *productService) Restock(actor Actor, id int64, req RestockRequest) (*models.Product, error) {
	if req.Quantity <= 0 {
		return nil, validationError("quantity must be greater than 0")
	}
	if req.UnitCost != nil && (req.UnitCost.IsNegative() || req.UnitCost.GreaterThan(models.MaxAmount)) {
		return nil, validationError("unit_cost must be between 0 and %s", models.MaxAmount.String())
	}

	err := s.db.InTx(func(exec repositories.SQLExecutor) error {
		product, err := s.productRepo.GetProductForUpdate(exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		stock, err := s.productRepo.IncrementStock(exec, id, req.Quantity)
		if err != nil {
			return err
		}

		if req.UnitCost != nil && req.UnitCost.IsPositive() && product.SupplierID != nil {
			supplier, err := s.supplierRepo.GetSupplierForUpdate(exec, *product.SupplierID)
			if err != nil {
				return err
			}
			balance := supplier.Balance.Add(req.UnitCost.Mul(decimal.NewFromInt(int64(req.Quantity))))
			if balance.GreaterThan(models.MaxAmount) {
				return validationError("supplier balance cannot exceed %s", models.MaxAmount.String())
			}
			if err := s.supplierRepo.UpdateBalance(exec, supplier.ID, balance); err != nil {
				return err
			}
		}

		return s.recordMovement(exec, &models.StockMovement{
			ProductID:       id,
			EmployeeID:      &actor.ID,
			MovementType:    models.MovementRestock,
			QuantityChanged: req.Quantity,
			StockAfter:      stock,
			UnitCost:        req.UnitCost,
			Note:            trimmedOrNil(req.Note),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetProductByID(id)
}

func (s *productService) GetStockMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error) {
	if filters.MovementType != nil && *filters.MovementType != "" {
		switch *filters.MovementType {
		case models.MovementSale, models.MovementSaleReversal, models.MovementRestock, models.MovementAdjustment:
		default:
			return nil, 0, validationError("unknown movement type %q", *filters.MovementType)
		}
	}
	movements, total, err := s.movementRepo.GetMovements(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, total, nil
}

func (s *productService) recordMovement(exec repositories.SQLExecutor, movement *models.StockMovement) error {
	if _, err := s.movementRepo.CreateMovement(exec, movement); err != nil {
		return fmt.Errorf("failed to record stock movement for product %d: %w", movement.ProductID, err)
	}
	return nil
}
