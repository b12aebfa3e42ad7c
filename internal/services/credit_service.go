package services

import (
	"errors"
	"fmt"

	"ims_backend/internal/models"
	"ims_backend/internal/repositories"
)

var (
	ErrCreditNotFound       = errors.New("credit not found")
	ErrCreditExists         = errors.New("sale already has a credit")
	ErrCreditAlreadyCleared = errors.New("credit is already cleared")
)

// CreateCreditRequest DTO. EmployeeID defaults to the employee who made the sale.
type CreateCreditRequest struct {
	SaleID     int64  `json:"sale_id" binding:"required"`
	EmployeeID *int64 `json:"employee_id"`
}

// UpdateCreditRequest DTO. Clearing is the only transition.
type UpdateCreditRequest struct {
	Status        string  `json:"status" binding:"required"`
	PaymentMethod *string `json:"payment_method"`
}

// CreditService tracks unpaid sales until they are cleared.
type CreditService interface {
	CreateCredit(actor Actor, req CreateCreditRequest) (*models.Credit, error)
	GetCreditByID(actor Actor, id int64) (*models.Credit, error)
	GetCredits(filters models.CreditFilters) ([]models.Credit, int, error)
	// ClearCredit settles an open credit with a payment method; the sale becomes paid.
	ClearCredit(actor Actor, id int64, req UpdateCreditRequest) (*models.Credit, error)
	// DeleteCredit removes an open credit and turns its sale back into a pending bill.
	DeleteCredit(actor Actor, id int64) error
}

type creditService struct {
	creditRepo   repositories.CreditRepository
	saleRepo     repositories.SaleRepository
	dayRepo      repositories.DayRepository
	employeeRepo repositories.EmployeeRepository
	db           TxRunner
	clock        BusinessClock
}

// NewCreditService creates a new instance of CreditService.
func NewCreditService(
	cr repositories.CreditRepository,
	sr repositories.SaleRepository,
	dr repositories.DayRepository,
	er repositories.EmployeeRepository,
	db TxRunner,
	clock BusinessClock,
) CreditService {
	return &creditService{
		creditRepo:   cr,
		saleRepo:     sr,
		dayRepo:      dr,
		employeeRepo: er,
		db:           db,
		clock:        clock,
	}
}

func (s *creditService) requireOpenDay(exec repositories.SQLExecutor, dayID int64) error {
	day, err := s.dayRepo.GetDayByIDWith(exec, dayID)
	if err != nil {
		return err
	}
	if !day.IsOpen {
		return fmt.Errorf("%w: %s", ErrSaleDayClosed, day.Date)
	}
	return nil
}

func (s *creditService) CreateCredit(actor Actor, req CreateCreditRequest) (*models.Credit, error) {
	if !actor.IsAdmin() && req.EmployeeID != nil && *req.EmployeeID != actor.ID {
		return nil, fmt.Errorf("%w: employees can only record credits under their own name", ErrForbidden)
	}
	credit := &models.Credit{SaleID: req.SaleID, Status: models.CreditOpen}

	err := s.db.InTx(func(exec repositories.SQLExecutor) error {
		sale, err := s.saleRepo.GetSaleForUpdate(exec, req.SaleID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrSaleNotFound
			}
			return err
		}
		if !actor.IsAdmin() && sale.EmployeeID != actor.ID {
			return fmt.Errorf("%w: employees can only put their own sales on credit", ErrForbidden)
		}
		if err := s.requireOpenDay(exec, sale.DayID); err != nil {
			return err
		}

		credit.EmployeeID = sale.EmployeeID
		if req.EmployeeID != nil {
			credit.EmployeeID = *req.EmployeeID
		}
		employee, err := s.employeeRepo.GetEmployeeByID(credit.EmployeeID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrEmployeeNotFound
			}
			return err
		}
		if !employee.IsActive() {
			return fmt.Errorf("%w: %s", ErrEmployeeInactive, employee.Name)
		}

		if _, err := s.creditRepo.GetCreditBySaleID(exec, sale.ID); err == nil {
			return ErrCreditExists
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		if sale.IsPaid {
			return ErrSaleAlreadyPaid
		}

		credit.Amount = sale.TotalAmount
		if _, err := s.creditRepo.CreateCredit(exec, credit); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrCreditExists
			}
			return err
		}
		return s.saleRepo.UpdatePaymentState(exec, sale.ID, true, false, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.loadCredit(credit.ID)
}

func (s *creditService) loadCredit(id int64) (*models.Credit, error) {
	credit, err := s.creditRepo.GetCreditByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCreditNotFound
		}
		return nil, fmt.Errorf("failed to get credit %d: %w", id, err)
	}
	return credit, nil
}

func (s *creditService) GetCreditByID(actor Actor, id int64) (*models.Credit, error) {
	credit, err := s.loadCredit(id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && credit.EmployeeID != actor.ID {
		return nil, fmt.Errorf("%w: employees can only view their own credits", ErrForbidden)
	}
	return credit, nil
}

func (s *creditService) GetCredits(filters models.CreditFilters) ([]models.Credit, int, error) {
	if filters.Status != nil && *filters.Status != "" &&
		*filters.Status != models.CreditOpen && *filters.Status != models.CreditCleared {
		return nil, 0, validationError("status must be open or cleared")
	}
	credits, total, err := s.creditRepo.GetCredits(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list credits: %w", err)
	}
	return credits, total, nil
}

func (s *creditService) ClearCredit(actor Actor, id int64, req UpdateCreditRequest) (*models.Credit, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if req.Status != models.CreditCleared {
		return nil, validationError("status can only be set to cleared")
	}
	method, err := validPaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	err = s.db.InTx(func(exec repositories.SQLExecutor) error {
		credit, err := s.creditRepo.GetCreditForUpdate(exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrCreditNotFound
			}
			return err
		}
		if credit.Status != models.CreditOpen {
			return ErrCreditAlreadyCleared
		}
		if err := s.creditRepo.ClearCredit(exec, id, method, s.clock.now().UTC()); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return ErrCreditAlreadyCleared
			}
			return err
		}
		return s.saleRepo.UpdatePaymentState(exec, credit.SaleID, false, true, &method)
	})
	if err != nil {
		return nil, err
	}
	return s.loadCredit(id)
}

func (s *creditService) DeleteCredit(actor Actor, id int64) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.db.InTx(func(exec repositories.SQLExecutor) error {
		credit, err := s.creditRepo.GetCreditForUpdate(exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrCreditNotFound
			}
			return err
		}
		if credit.Status != models.CreditOpen {
			return fmt.Errorf("%w: a cleared credit cannot be deleted", ErrCreditAlreadyCleared)
		}
		sale, err := s.saleRepo.GetSaleForUpdate(exec, credit.SaleID)
		if err != nil {
			return err
		}
		if err := s.requireOpenDay(exec, sale.DayID); err != nil {
			return err
		}
		if err := s.creditRepo.DeleteCredit(exec, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrCreditNotFound
			}
			return err
		}
		return s.saleRepo.UpdatePaymentState(exec, sale.ID, false, false, nil)
	})
}
