package services

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"ims_backend/internal/models"
	"ims_backend/internal/repositories"
	"ims_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors for Employees ---
var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrEmployeeInactive  = errors.New("employee is inactive")
	ErrPhoneTaken        = errors.New("phone number already registered")
	ErrRoleTaken         = errors.New("role already assigned")
	ErrEmployeeProtected = errors.New("employee account is protected")
	ErrEmployeeInUse     = errors.New("employee has sales or credits")
	ErrAuthRequired      = errors.New("authentication required")
)

const minPasswordLength = 6

var phonePattern = regexp.MustCompile(`^\+?\d{7,20}$`)

// CreateEmployeeRequest DTO
type CreateEmployeeRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	Password string `json:"password" binding:"required"`
}

// UpdateEmployeeRequest DTO. Nil fields are left unchanged.
type UpdateEmployeeRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	Status   *string `json:"status"`
	Password *string `json:"password"`
}

// ChangePasswordRequest DTO
type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// EmployeeService manages employee accounts and the role rules around them.
type EmployeeService interface {
	// CreateEmployee registers an employee. A nil actor is only allowed while no employee exists,
	// and then creates the employer.
	CreateEmployee(actor *Actor, req CreateEmployeeRequest) (*models.Employee, error)
	GetEmployeeByID(actor Actor, id int64) (*models.Employee, error)
	GetEmployees(filters models.EmployeeFilters) ([]models.Employee, int, error)
	UpdateEmployee(actor Actor, id int64, req UpdateEmployeeRequest) (*models.Employee, error)
	DeleteEmployee(actor Actor, id int64) error
	ChangePassword(actor Actor, req ChangePasswordRequest) error
}

type employeeService struct {
	employeeRepo repositories.EmployeeRepository
	db           TxRunner
}

// NewEmployeeService creates a new instance of EmployeeService.
func NewEmployeeService(employeeRepo repositories.EmployeeRepository, db TxRunner) EmployeeService {
	return &employeeService{employeeRepo: employeeRepo, db: db}
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", validationError("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmployee(e *models.Employee) error {
	e.Name = utils.CollapseSpaces(e.Name)
	if n := utf8.RuneCountInString(e.Name); n < 2 || n > 150 {
		return validationError("name must be between 2 and 150 characters")
	}
	if !phonePattern.MatchString(e.Phone) {
		return validationError("phone must be 7 to 20 digits with an optional leading +")
	}
	if !models.ValidRole(e.Role) {
		return validationError("role must be one of employer, manager, employee")
	}
	if !models.ValidStatus(e.Status) {
		return validationError("status must be active or inactive")
	}
	return nil
}

func (s *employeeService) CreateEmployee(actor *Actor, req CreateEmployeeRequest) (*models.Employee, error) {
	employee := &models.Employee{
		Name:   req.Name,
		Phone:  utils.CollapseSpaces(req.Phone),
		Role:   req.Role,
		Status: req.Status,
	}
	if employee.Role == "" {
		employee.Role = models.RoleEmployee
	}
	if employee.Status == "" {
		employee.Status = models.StatusActive
	}

	if actor == nil {
		// bootstrap: the very first account is always the employer
		employee.Role = models.RoleEmployer
		employee.Status = models.StatusActive
	} else {
		if !actor.IsAdmin() {
			return nil, ErrForbidden
		}
		if employee.Role == models.RoleManager && actor.Role != models.RoleEmployer {
			return nil, fmt.Errorf("%w: only the employer can create a manager", ErrForbidden)
		}
	}

	if err := normalizeEmployee(employee); err != nil {
		return nil, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	employee.PasswordHash = hash

	err = s.db.InTx(func(exec repositories.SQLExecutor) error {
		count, err := s.employeeRepo.CountEmployees(exec)
		if err != nil {
			return err
		}
		if actor == nil && count > 0 {
			return ErrAuthRequired
		}
		if models.IsAdminRole(employee.Role) {
			taken, err := s.employeeRepo.CountByRole(exec, employee.Role, 0)
			if err != nil {
				return err
			}
			if taken > 0 {
				return fmt.Errorf("%w: an account with role %s already exists", ErrRoleTaken, employee.Role)
			}
		}
		if _, err := s.employeeRepo.CreateEmployee(exec, employee); err != nil {
			if errors.Is(err, repositories.ErrAdminRoleTaken) {
				return fmt.Errorf("%w: an account with role %s already exists", ErrRoleTaken, employee.Role)
			}
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: %s", ErrPhoneTaken, employee.Phone)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *employeeService) GetEmployeeByID(actor Actor, id int64) (*models.Employee, error) {
	if !actor.IsAdmin() && actor.ID != id {
		return nil, ErrForbidden
	}
	employee, err := s.employeeRepo.GetEmployeeByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	return employee, nil
}

func (s *employeeService) GetEmployees(filters models.EmployeeFilters) ([]models.Employee, int, error) {
	if filters.Role != nil && *filters.Role != "" && !models.ValidRole(*filters.Role) {
		return nil, 0, validationError("unknown role %q", *filters.Role)
	}
	if filters.Status != nil && *filters.Status != "" && !models.ValidStatus(*filters.Status) {
		return nil, 0, validationError("unknown status %q", *filters.Status)
	}
	employees, total, err := s.employeeRepo.GetEmployees(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, total, nil
}

func (s *employeeService) UpdateEmployee(actor Actor, id int64, req UpdateEmployeeRequest) (*models.Employee, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	employee, err := s.employeeRepo.GetEmployeeByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	if employee.Role == models.RoleEmployer && actor.Role != models.RoleEmployer {
		return nil, fmt.Errorf("%w: only the employer can modify the employer account", ErrForbidden)
	}

	previousRole := employee.Role
	if req.Name != nil {
		employee.Name = *req.Name
	}
	if req.Phone != nil {
		employee.Phone = utils.CollapseSpaces(*req.Phone)
	}
	if req.Role != nil {
		employee.Role = *req.Role
	}
	if req.Status != nil {
		employee.Status = *req.Status
	}
	if err := normalizeEmployee(employee); err != nil {
		return nil, err
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		employee.PasswordHash = hash
	}

	if employee.Role == models.RoleManager && previousRole != models.RoleManager && actor.Role != models.RoleEmployer {
		return nil, fmt.Errorf("%w: only the employer can appoint a manager", ErrForbidden)
	}

	firstEmployerID, err := s.employeeRepo.GetFirstEmployerID()
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up the first employer: %w", err)
	}
	if id == firstEmployerID {
		if employee.Role != models.RoleEmployer {
			return nil, fmt.Errorf("%w: the first employer's role cannot be changed", ErrEmployeeProtected)
		}
		if employee.Status != models.StatusActive {
			return nil, fmt.Errorf("%w: the first employer cannot be deactivated", ErrEmployeeProtected)
		}
	}

	err = s.db.InTx(func(exec repositories.SQLExecutor) error {
		if models.IsAdminRole(employee.Role) && employee.Role != previousRole {
			taken, err := s.employeeRepo.CountByRole(exec, employee.Role, id)
			if err != nil {
				return err
			}
			if taken > 0 {
				return fmt.Errorf("%w: an account with role %s already exists", ErrRoleTaken, employee.Role)
			}
		}
		if _, err := s.employeeRepo.UpdateEmployee(exec, employee); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrEmployeeNotFound
			}
			if errors.Is(err, repositories.ErrAdminRoleTaken) {
				return fmt.Errorf("%w: an account with role %s already exists", ErrRoleTaken, employee.Role)
			}
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: %s", ErrPhoneTaken, employee.Phone)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *employeeService) DeleteEmployee(actor Actor, id int64) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	employee, err := s.employeeRepo.GetEmployeeByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	if employee.IsAdmin() {
		return fmt.Errorf("%w: %s accounts cannot be deleted", ErrEmployeeProtected, employee.Role)
	}
	busy, err := s.employeeRepo.HasSalesOrCredits(id)
	if err != nil {
		return fmt.Errorf("failed to check employee activity: %w", err)
	}
	if busy {
		return ErrEmployeeInUse
	}

	return s.db.InTx(func(exec repositories.SQLExecutor) error {
		if err := s.employeeRepo.DeleteEmployee(exec, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrEmployeeNotFound
			}
			if errors.Is(err, repositories.ErrForeignKey) {
				return ErrEmployeeInUse
			}
			return err
		}
		return nil
	})
}

func (s *employeeService) ChangePassword(actor Actor, req ChangePasswordRequest) error {
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.db.InTx(func(exec repositories.SQLExecutor) error {
		if err := s.employeeRepo.UpdatePassword(exec, actor.ID, hash); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrEmployeeNotFound
			}
			return err
		}
		return nil
	})
}
