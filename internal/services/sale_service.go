package services

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"ims_backend/internal/models"
	"ims_backend/internal/repositories"
	"ims_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrSaleNotFound       = errors.New("sale not found")
	ErrSaleDayClosed      = errors.New("sale belongs to a closed day")
	ErrSaleCreditCleared  = errors.New("sale credit has been cleared")
	ErrSaleAlreadyPaid    = errors.New("sale is already paid")
	ErrSaleIsCredit       = errors.New("sale is a credit sale")
	ErrInvalidPaymentType = errors.New("invalid payment method")
)

// SaleItemRequest DTO
type SaleItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// CreateSaleRequest DTO. EmployeeID defaults to the caller.
type CreateSaleRequest struct {
	EmployeeID    *int64            `json:"employee_id"`
	CustomerName  *string           `json:"customer_name"`
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	IsCredit      bool              `json:"is_credit"`
	PaymentMethod *string           `json:"payment_method"`
}

// UpdateSaleRequest DTO. Items replace the sale's current items.
type UpdateSaleRequest struct {
	CustomerName *string           `json:"customer_name"`
	Items        []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

// PaySaleRequest DTO
type PaySaleRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// SaleService records sales against the open day and keeps stock and credits in step.
type SaleService interface {
	CreateSale(actor Actor, req CreateSaleRequest) (*models.Sale, error)
	GetSaleByID(actor Actor, id int64) (*models.Sale, error)
	GetSales(filters models.SaleFilters) ([]models.Sale, int, error)
	GetMySales(actor Actor, filters models.SaleFilters) ([]models.Sale, int, error)
	UpdateSale(actor Actor, id int64, req UpdateSaleRequest) (*models.Sale, error)
	DeleteSale(actor Actor, id int64) error
	// PaySale settles a pending bill: a sale that is neither paid nor on credit.
	PaySale(actor Actor, id int64, req PaySaleRequest) (*models.Sale, error)
}

type saleService struct {
	saleRepo     repositories.SaleRepository
	productRepo  repositories.ProductRepository
	movementRepo repositories.StockMovementRepository
	creditRepo   repositories.CreditRepository
	dayRepo      repositories.DayRepository
	employeeRepo repositories.EmployeeRepository
	db           TxRunner
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(
	sr repositories.SaleRepository,
	pr repositories.ProductRepository,
	mr repositories.StockMovementRepository,
	cr repositories.CreditRepository,
	dr repositories.DayRepository,
	er repositories.EmployeeRepository,
	db TxRunner,
) SaleService {
	return &saleService{
		saleRepo:     sr,
		productRepo:  pr,
		movementRepo: mr,
		creditRepo:   cr,
		dayRepo:      dr,
		employeeRepo: er,
		db:           db,
	}
}

// mergeItems validates the requested lines and folds repeated products into one line.
func mergeItems(items []SaleItemRequest) ([]SaleItemRequest, error) {
	if len(items) == 0 {
		return nil, validationError("a sale needs at least one item")
	}
	merged := make([]SaleItemRequest, 0, len(items))
	index := make(map[int64]int, len(items))
	for _, item := range items {
		if item.ProductID <= 0 {
			return nil, validationError("product_id must be a positive integer")
		}
		if item.Quantity <= 0 {
			return nil, validationError("quantity for product %d must be greater than 0", item.ProductID)
		}
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func normalizeCustomer(name *string) (*string, error) {
	if name == nil {
		return nil, nil
	}
	trimmed := utils.NewNullString(utils.CollapseSpaces(*name))
	if trimmed != nil && utf8.RuneCountInString(*trimmed) > 150 {
		return nil, validationError("customer_name must be at most 150 characters")
	}
	return trimmed, nil
}

func validPaymentMethod(method *string) (string, error) {
	if method == nil || *method == "" {
		return "", validationError("payment_method is required (cash, mpesa or card)")
	}
	if !models.ValidPaymentMethod(*method) {
		return "", fmt.Errorf("%w: %q, expected cash, mpesa or card", ErrInvalidPaymentType, *method)
	}
	return *method, nil
}

// priceItems locks each product, checks stock and snapshots its current price.
func (s *saleService) priceItems(exec repositories.SQLExecutor, items []SaleItemRequest) ([]models.SaleItem, decimal.Decimal, error) {
	priced := make([]models.SaleItem, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		product, err := s.productRepo.GetProductForUpdate(exec, item.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, decimal.Zero, fmt.Errorf("%w: %d", ErrProductNotFound, item.ProductID)
			}
			return nil, decimal.Zero, err
		}
		if product.Stock < item.Quantity {
			return nil, decimal.Zero, fmt.Errorf("%w: Not enough stock for product %s (available: %d)",
				ErrInsufficientStock, product.Name, product.Stock)
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)
		priced = append(priced, models.SaleItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			Price:       product.Price,
			Subtotal:    subtotal,
		})
	}
	return priced, total, nil
}

// takeItems stores the sale lines and takes their stock.
func (s *saleService) takeItems(exec repositories.SQLExecutor, sale *models.Sale, items []models.SaleItem, actorID int64) error {
	for i := range items {
		items[i].SaleID = sale.ID
		if _, err := s.saleRepo.CreateSaleItem(exec, &items[i]); err != nil {
			return err
		}
		stock, err := s.productRepo.DecrementStock(exec, items[i].ProductID, items[i].Quantity)
		if err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return fmt.Errorf("%w: Not enough stock for product %s", ErrInsufficientStock, items[i].ProductName)
			}
			return err
		}
		if _, err := s.movementRepo.CreateMovement(exec, &models.StockMovement{
			ProductID:       items[i].ProductID,
			EmployeeID:      &actorID,
			SaleID:          &sale.ID,
			MovementType:    models.MovementSale,
			QuantityChanged: -items[i].Quantity,
			StockAfter:      stock,
		}); err != nil {
			return fmt.Errorf("failed to record sale movement: %w", err)
		}
	}
	sale.Items = items
	return nil
}

// restoreItems puts the stock of the sale's current lines back.
func (s *saleService) restoreItems(exec repositories.SQLExecutor, sale *models.Sale, actorID int64, note string) error {
	for _, item := range sale.Items {
		stock, err := s.productRepo.IncrementStock(exec, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if _, err := s.movementRepo.CreateMovement(exec, &models.StockMovement{
			ProductID:       item.ProductID,
			EmployeeID:      &actorID,
			SaleID:          &sale.ID,
			MovementType:    models.MovementSaleReversal,
			QuantityChanged: item.Quantity,
			StockAfter:      stock,
			Note:            utils.NewNullString(note),
		}); err != nil {
			return fmt.Errorf("failed to record reversal movement: %w", err)
		}
	}
	return nil
}

func (s *saleService) CreateSale(actor Actor, req CreateSaleRequest) (*models.Sale, error) {
	items, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}
	customer, err := normalizeCustomer(req.CustomerName)
	if err != nil {
		return nil, err
	}

	sale := &models.Sale{CustomerName: customer, IsCredit: req.IsCredit}
	if req.IsCredit {
		if req.PaymentMethod != nil && *req.PaymentMethod != "" {
			return nil, validationError("a credit sale cannot have a payment method")
		}
	} else {
		method, err := validPaymentMethod(req.PaymentMethod)
		if err != nil {
			return nil, err
		}
		sale.PaymentMethod = &method
		sale.IsPaid = true
	}

	sale.EmployeeID = actor.ID
	if req.EmployeeID != nil && *req.EmployeeID != actor.ID {
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("%w: employees can only record their own sales", ErrForbidden)
		}
		sale.EmployeeID = *req.EmployeeID
	}
	employee, err := s.employeeRepo.GetEmployeeByID(sale.EmployeeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to load employee %d: %w", sale.EmployeeID, err)
	}
	if !employee.IsActive() {
		return nil, fmt.Errorf("%w: %s", ErrEmployeeInactive, employee.Name)
	}

	err = s.db.InTx(func(exec repositories.SQLExecutor) error {
		day, err := s.dayRepo.GetOpenDay(exec)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrDayNotOpen
			}
			return err
		}
		sale.DayID = day.ID
		sale.Date = day.Date

		priced, total, err := s.priceItems(exec, items)
		if err != nil {
			return err
		}
		sale.TotalAmount = total

		if _, err := s.saleRepo.CreateSale(exec, sale); err != nil {
			return err
		}
		if err := s.takeItems(exec, sale, priced, actor.ID); err != nil {
			return err
		}

		if sale.IsCredit {
			_, err := s.creditRepo.CreateCredit(exec, &models.Credit{
				SaleID:     sale.ID,
				EmployeeID: sale.EmployeeID,
				Amount:     total,
				Status:     models.CreditOpen,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadSale(sale.ID)
}

func (s *saleService) loadSale(id int64) (*models.Sale, error) {
	sale, err := s.saleRepo.GetSaleByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to get sale %d: %w", id, err)
	}
	return sale, nil
}

func (s *saleService) GetSaleByID(actor Actor, id int64) (*models.Sale, error) {
	sale, err := s.loadSale(id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && sale.EmployeeID != actor.ID {
		return nil, fmt.Errorf("%w: employees can only view their own sales", ErrForbidden)
	}
	return sale, nil
}

func (s *saleService) GetSales(filters models.SaleFilters) ([]models.Sale, int, error) {
	start, end, err := validateDateRange(filters.StartDate, filters.EndDate)
	if err != nil {
		return nil, 0, err
	}
	filters.StartDate, filters.EndDate = start, end

	sales, total, err := s.saleRepo.GetSales(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, total, nil
}

func (s *saleService) GetMySales(actor Actor, filters models.SaleFilters) ([]models.Sale, int, error) {
	filters.EmployeeID = &actor.ID
	return s.GetSales(filters)
}

// lockEditableSale loads the sale for modification and checks its day is still open.
func (s *saleService) lockEditableSale(exec repositories.SQLExecutor, id int64) (*models.Sale, error) {
	sale, err := s.saleRepo.GetSaleForUpdate(exec, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	day, err := s.dayRepo.GetDayByIDWith(exec, sale.DayID)
	if err != nil {
		return nil, err
	}
	if !day.IsOpen {
		return nil, fmt.Errorf("%w: %s", ErrSaleDayClosed, day.Date)
	}
	return sale, nil
}

func (s *saleService) UpdateSale(actor Actor, id int64, req UpdateSaleRequest) (*models.Sale, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	items, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}
	customer, err := normalizeCustomer(req.CustomerName)
	if err != nil {
		return nil, err
	}

	err = s.db.InTx(func(exec repositories.SQLExecutor) error {
		sale, err := s.lockEditableSale(exec, id)
		if err != nil {
			return err
		}
		credit, err := s.creditRepo.GetCreditBySaleID(exec, id)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		if credit != nil && credit.Status == models.CreditCleared {
			return ErrSaleCreditCleared
		}

		if err := s.restoreItems(exec, sale, actor.ID, "Sale updated"); err != nil {
			return err
		}
		if _, err := s.saleRepo.DeleteSaleItems(exec, id); err != nil {
			return err
		}

		priced, total, err := s.priceItems(exec, items)
		if err != nil {
			return err
		}
		sale.TotalAmount = total
		if req.CustomerName != nil {
			sale.CustomerName = customer
		}
		if err := s.saleRepo.UpdateSale(exec, sale); err != nil {
			return err
		}
		if err := s.takeItems(exec, sale, priced, actor.ID); err != nil {
			return err
		}
		if credit != nil {
			return s.creditRepo.UpdateAmount(exec, credit.ID, total)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadSale(id)
}

func (s *saleService) DeleteSale(actor Actor, id int64) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.db.InTx(func(exec repositories.SQLExecutor) error {
		sale, err := s.lockEditableSale(exec, id)
		if err != nil {
			return err
		}
		if err := s.restoreItems(exec, sale, actor.ID, "Sale deleted"); err != nil {
			return err
		}
		// items and the credit go with the sale
		if err := s.saleRepo.DeleteSale(exec, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrSaleNotFound
			}
			return err
		}
		return nil
	})
}

func (s *saleService) PaySale(actor Actor, id int64, req PaySaleRequest) (*models.Sale, error) {
	method, err := validPaymentMethod(&req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	err = s.db.InTx(func(exec repositories.SQLExecutor) error {
		sale, err := s.saleRepo.GetSaleForUpdate(exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrSaleNotFound
			}
			return err
		}
		if !actor.IsAdmin() && sale.EmployeeID != actor.ID {
			return fmt.Errorf("%w: employees can only settle their own sales", ErrForbidden)
		}
		if sale.IsPaid {
			return ErrSaleAlreadyPaid
		}
		if sale.IsCredit {
			return fmt.Errorf("%w: clear its credit instead", ErrSaleIsCredit)
		}
		return s.saleRepo.UpdatePaymentState(exec, id, false, true, &method)
	})
	if err != nil {
		return nil, err
	}
	return s.loadSale(id)
}
