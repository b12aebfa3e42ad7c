package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"ims_backend/internal/models"
	"ims_backend/internal/repositories"
	"ims_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrSupplierNotFound = errors.New("supplier not found")
	ErrSupplierExists   = errors.New("supplier already exists")
	ErrSupplierInUse    = errors.New("supplier has products")
)

var (
	localMobilePattern = regexp.MustCompile(`^07\d{8}$`)
	kenyaMobilePattern = regexp.MustCompile(`^\+2547\d{8}$`)
)

// CreateSupplierRequest DTO
type CreateSupplierRequest struct {
	Name    string           `json:"name" binding:"required"`
	Contact string           `json:"contact" binding:"required"`
	Email   *string          `json:"email" binding:"omitempty,email"`
	Balance *decimal.Decimal `json:"balance"`
}

// UpdateSupplierRequest DTO. Nil fields are left unchanged.
type UpdateSupplierRequest struct {
	Name    *string          `json:"name"`
	Contact *string          `json:"contact"`
	Email   *string          `json:"email" binding:"omitempty,email"`
	Balance *decimal.Decimal `json:"balance"`
}

// SupplierPaymentRequest DTO
type SupplierPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Note   *string         `json:"note"`
}

// SupplierService manages suppliers and what the shop owes them.
type SupplierService interface {
	CreateSupplier(req CreateSupplierRequest) (*models.Supplier, error)
	GetSupplierByID(id int64) (*models.Supplier, error)
	GetSuppliers(search *string, page, pageSize int) ([]models.Supplier, int, error)
	UpdateSupplier(id int64, req UpdateSupplierRequest) (*models.Supplier, error)
	DeleteSupplier(id int64) error
	// RecordPayment lowers the balance by the paid amount, never below zero.
	RecordPayment(actor Actor, supplierID int64, req SupplierPaymentRequest) (*models.SupplierPayment, error)
	GetPayments(supplierID int64, page, pageSize int) ([]models.SupplierPayment, int, error)
}

type supplierService struct {
	supplierRepo repositories.SupplierRepository
	db           TxRunner
}

// NewSupplierService creates a new instance of SupplierService.
func NewSupplierService(supplierRepo repositories.SupplierRepository, db TxRunner) SupplierService {
	return &supplierService{supplierRepo: supplierRepo, db: db}
}

// NormalizeContact accepts 07XXXXXXXX or +2547XXXXXXXX and returns the international form.
func NormalizeContact(contact string) (string, error) {
	contact = strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(contact))
	if localMobilePattern.MatchString(contact) {
		contact = "+254" + contact[1:]
	}
	if !kenyaMobilePattern.MatchString(contact) {
		return "", validationError("contact must be a mobile number like 0712345678 or +254712345678")
	}
	return contact, nil
}

func validateBalance(balance decimal.Decimal) error {
	if balance.IsNegative() || balance.GreaterThan(models.MaxAmount) {
		return validationError("balance must be between 0 and %s", models.MaxAmount.String())
	}
	return nil
}

func (s *supplierService) supplierName(name string, selfID int64) (string, error) {
	name = utils.TitleCase(name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 150 {
		return "", validationError("supplier name must be between 2 and 150 characters")
	}
	existing, err := s.supplierRepo.GetSupplierByName(name)
	if err == nil && existing.ID != selfID {
		return "", fmt.Errorf("%w: %s", ErrSupplierExists, name)
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return "", fmt.Errorf("failed to check supplier name: %w", err)
	}
	return name, nil
}

func (s *supplierService) CreateSupplier(req CreateSupplierRequest) (*models.Supplier, error) {
	name, err := s.supplierName(req.Name, 0)
	if err != nil {
		return nil, err
	}
	contact, err := NormalizeContact(req.Contact)
	if err != nil {
		return nil, err
	}
	supplier := &models.Supplier{Name: name, Contact: contact, Email: trimmedOrNil(req.Email), Balance: decimal.Zero}
	if req.Balance != nil {
		supplier.Balance = *req.Balance
	}
	if err := validateBalance(supplier.Balance); err != nil {
		return nil, err
	}

	err = s.db.InTx(func(exec repositories.SQLExecutor) error {
		_, err := s.supplierRepo.CreateSupplier(exec, supplier)
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", ErrSupplierExists, name)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *supplierService) GetSupplierByID(id int64) (*models.Supplier, error) {
	supplier, err := s.supplierRepo.GetSupplierByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to get supplier %d: %w", id, err)
	}
	return supplier, nil
}

func (s *supplierService) GetSuppliers(search *string, page, pageSize int) ([]models.Supplier, int, error) {
	suppliers, total, err := s.supplierRepo.GetSuppliers(search, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, total, nil
}

func (s *supplierService) UpdateSupplier(id int64, req UpdateSupplierRequest) (*models.Supplier, error) {
	supplier, err := s.GetSupplierByID(id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if supplier.Name, err = s.supplierName(*req.Name, id); err != nil {
			return nil, err
		}
	}
	if req.Contact != nil {
		if supplier.Contact, err = NormalizeContact(*req.Contact); err != nil {
			return nil, err
		}
	}
	if req.Email != nil {
		supplier.Email = trimmedOrNil(req.Email)
	}
	if req.Balance != nil {
		if err := validateBalance(*req.Balance); err != nil {
			return nil, err
		}
		supplier.Balance = *req.Balance
	}

	err = s.db.InTx(func(exec repositories.SQLExecutor) error {
		_, err := s.supplierRepo.UpdateSupplier(exec, supplier)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return ErrSupplierNotFound
		case errors.Is(err, repositories.ErrDuplicateKey):
			return fmt.Errorf("%w: %s", ErrSupplierExists, supplier.Name)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *supplierService) DeleteSupplier(id int64) error {
	return s.db.InTx(func(exec repositories.SQLExecutor) error {
		count, err := s.supplierRepo.CountProducts(exec, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %d products still use it", ErrSupplierInUse, count)
		}
		err = s.supplierRepo.DeleteSupplier(exec, id)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return ErrSupplierNotFound
		case errors.Is(err, repositories.ErrForeignKey):
			return ErrSupplierInUse
		}
		return err
	})
}

func (s *supplierService) RecordPayment(actor Actor, supplierID int64, req SupplierPaymentRequest) (*models.SupplierPayment, error) {
	if !req.Amount.IsPositive() || req.Amount.GreaterThan(models.MaxAmount) {
		return nil, validationError("amount must be greater than 0 and at most %s", models.MaxAmount.String())
	}

	payment := &models.SupplierPayment{
		SupplierID:   supplierID,
		Amount:       req.Amount,
		Note:         trimmedOrNil(req.Note),
		RecordedByID: &actor.ID,
	}
	err := s.db.InTx(func(exec repositories.SQLExecutor) error {
		supplier, err := s.supplierRepo.GetSupplierForUpdate(exec, supplierID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrSupplierNotFound
			}
			return err
		}
		balance := supplier.Balance.Sub(req.Amount)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		if err := s.supplierRepo.UpdateBalance(exec, supplierID, balance); err != nil {
			return err
		}
		payment.BalanceAfter = balance
		_, err = s.supplierRepo.CreatePayment(exec, payment)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *supplierService) GetPayments(supplierID int64, page, pageSize int) ([]models.SupplierPayment, int, error) {
	if _, err := s.GetSupplierByID(supplierID); err != nil {
		return nil, 0, err
	}
	payments, total, err := s.supplierRepo.GetPayments(supplierID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list supplier payments: %w", err)
	}
	return payments, total, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	return utils.NewNullString(*s)
}
