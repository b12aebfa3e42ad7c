package services

import (
	"errors"
	"fmt"
	"strings"

	"ims_backend/internal/models"
	"ims_backend/internal/repositories"
	"ims_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// AuthService handles login and resolves authenticated employees.
type AuthService interface {
	Login(phone, password string) (*models.TokenResponse, error)
	// Authenticate loads the employee behind a token. Missing employees yield ErrEmployeeNotFound,
	// inactive ones ErrAccountInactive.
	Authenticate(employeeID int64) (*models.Employee, error)
}

type authService struct {
	employeeRepo repositories.EmployeeRepository
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(employeeRepo repositories.EmployeeRepository) AuthService {
	return &authService{employeeRepo: employeeRepo}
}

func (s *authService) Login(phone, password string) (*models.TokenResponse, error) {
	employee, err := s.employeeRepo.GetEmployeeByPhone(strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(password)); err != nil {
		utils.LogWarn("Login rejected", map[string]interface{}{"employee_id": employee.ID})
		return nil, ErrInvalidCredentials
	}
	if !employee.IsActive() {
		return nil, ErrAccountInactive
	}

	token, err := utils.GenerateAccessToken(employee.ID, employee.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return &models.TokenResponse{AccessToken: token, TokenType: "bearer", Employee: employee}, nil
}

func (s *authService) Authenticate(employeeID int64) (*models.Employee, error) {
	employee, err := s.employeeRepo.GetEmployeeByID(employeeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to load employee %d: %w", employeeID, err)
	}
	if !employee.IsActive() {
		return nil, ErrAccountInactive
	}
	return employee, nil
}
